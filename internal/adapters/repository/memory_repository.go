package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ivan200915/discipline-engine/internal/core/domain"
)

// InMemoryLedgerRepository keeps the full ledger in process memory,
// including superseded entries. It mirrors the Postgres repository's
// semantics so the engine behaves identically against either.
type InMemoryLedgerRepository struct {
	store map[string]*domain.DailyLog

	mu sync.RWMutex
}

func NewInMemoryLedgerRepository() *InMemoryLedgerRepository {
	return &InMemoryLedgerRepository{
		store: make(map[string]*domain.DailyLog),
	}
}

func (r *InMemoryLedgerRepository) Create(ctx context.Context, log *domain.DailyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range r.store {
		if l.UserID == log.UserID && l.Date == log.Date && l.SupersededAt == nil {
			return domain.ErrLogConflict
		}
	}

	if log.ID == "" {
		log.ID = uuid.NewString()
	}

	stored := *log
	r.store[log.ID] = &stored
	return nil
}

func (r *InMemoryLedgerRepository) Update(ctx context.Context, log *domain.DailyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.store[log.ID]
	if !ok {
		return domain.ErrLogNotFound
	}
	if existing.Closed || existing.SupersededAt != nil {
		return domain.ErrLogClosed
	}
	if existing.Version != log.Version-1 {
		return domain.ErrLogConflict
	}

	stored := *log
	r.store[log.ID] = &stored
	return nil
}

func (r *InMemoryLedgerRepository) GetByDate(ctx context.Context, userID, date string) (*domain.DailyLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, l := range r.store {
		if l.UserID == userID && l.Date == date && l.SupersededAt == nil {
			copied := *l
			return &copied, nil
		}
	}
	return nil, domain.ErrLogNotFound
}

func (r *InMemoryLedgerRepository) ListByUser(ctx context.Context, userID string) ([]*domain.DailyLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	logs := []*domain.DailyLog{}
	for _, l := range r.store {
		if l.UserID == userID && l.SupersededAt == nil {
			copied := *l
			logs = append(logs, &copied)
		}
	}

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Date < logs[j].Date
	})

	return logs, nil
}

func (r *InMemoryLedgerRepository) ListRange(ctx context.Context, userID, from, to string) ([]*domain.DailyLog, error) {
	logs, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ranged := []*domain.DailyLog{}
	for _, l := range logs {
		if l.Date >= from && l.Date <= to {
			ranged = append(ranged, l)
		}
	}
	return ranged, nil
}

func (r *InMemoryLedgerRepository) Supersede(ctx context.Context, old, correction *domain.DailyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.store[old.ID]
	if !ok {
		return domain.ErrLogNotFound
	}
	if existing.SupersededAt != nil {
		return domain.ErrLogConflict
	}

	now := time.Now().UTC()
	existing.SupersededAt = &now
	existing.UpdatedAt = now
	old.SupersededAt = &now
	old.UpdatedAt = now

	if correction.ID == "" {
		correction.ID = uuid.NewString()
	}
	stored := *correction
	r.store[correction.ID] = &stored
	return nil
}

func (r *InMemoryLedgerRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.DailyLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	logs := []*domain.DailyLog{}
	for _, l := range r.store {
		if l.UserID == userID && l.UpdatedAt.After(since) {
			copied := *l
			logs = append(logs, &copied)
		}
	}

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].UpdatedAt.Before(logs[j].UpdatedAt)
	})

	return logs, nil
}

// InMemoryStateRepository holds the side-channel state per user.
type InMemoryStateRepository struct {
	protection map[string]*domain.ProtectionInventory
	season     map[string]*domain.SeasonProgress
	snapshots  map[string]*domain.StreakState

	mu sync.RWMutex
}

func NewInMemoryStateRepository() *InMemoryStateRepository {
	return &InMemoryStateRepository{
		protection: make(map[string]*domain.ProtectionInventory),
		season:     make(map[string]*domain.SeasonProgress),
		snapshots:  make(map[string]*domain.StreakState),
	}
}

func (r *InMemoryStateRepository) GetProtection(ctx context.Context, userID string) (*domain.ProtectionInventory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.protection[userID]
	if !ok {
		return domain.NewProtectionInventory(), nil
	}

	copied := *inv
	copied.CoveredDates = append([]string(nil), inv.CoveredDates...)
	return &copied, nil
}

func (r *InMemoryStateRepository) SaveProtection(ctx context.Context, userID string, inv *domain.ProtectionInventory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *inv
	copied.CoveredDates = append([]string(nil), inv.CoveredDates...)
	r.protection[userID] = &copied
	return nil
}

func (r *InMemoryStateRepository) GetSeasonProgress(ctx context.Context, userID string) (*domain.SeasonProgress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	progress, ok := r.season[userID]
	if !ok {
		return nil, nil
	}

	copied := *progress
	copied.CompletedChallenges = append([]string(nil), progress.CompletedChallenges...)
	copied.UnlockedRewards = append([]string(nil), progress.UnlockedRewards...)
	return &copied, nil
}

func (r *InMemoryStateRepository) SaveSeasonProgress(ctx context.Context, userID string, progress *domain.SeasonProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *progress
	copied.CompletedChallenges = append([]string(nil), progress.CompletedChallenges...)
	copied.UnlockedRewards = append([]string(nil), progress.UnlockedRewards...)
	r.season[userID] = &copied
	return nil
}

func (r *InMemoryStateRepository) GetStreakSnapshot(ctx context.Context, userID string) (*domain.StreakState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.snapshots[userID]
	if !ok {
		return nil, nil
	}

	copied := *state
	return &copied, nil
}

func (r *InMemoryStateRepository) SaveStreakSnapshot(ctx context.Context, userID string, state *domain.StreakState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *state
	r.snapshots[userID] = &copied
	return nil
}

// InMemoryUserRepository backs the auth flow in tests and local runs.
type InMemoryUserRepository struct {
	store map[string]*domain.User

	mu sync.RWMutex
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		store: make(map[string]*domain.User),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.store {
		if u.Email == user.Email {
			return domain.ErrEmailAlreadyExists
		}
	}

	copied := *user
	r.store[user.ID] = &copied
	return nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.store {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.store[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	copied := *user
	return &copied, nil
}
