package services

import (
	"context"
	"errors"
	"time"

	"github.com/Ivan200915/discipline-engine/internal/core/domain"
	"github.com/Ivan200915/discipline-engine/internal/core/workers"
)

// LedgerService is the only writer of the daily-log ledger. Every derived
// component reads the ledger through its repository; this service guards
// the append-only lifecycle: open entries may be updated in place, closed
// entries are immutable and only superseded.
type LedgerService struct {
	repo   domain.LedgerRepository
	worker *workers.StreakWorker
}

func NewLedgerService(repo domain.LedgerRepository, worker *workers.StreakWorker) *LedgerService {
	return &LedgerService{
		repo:   repo,
		worker: worker,
	}
}

type LogDayInput struct {
	UserID      string
	Date        string
	Habits      []domain.HabitCompletion
	Metrics     domain.DayMetrics
	CheckIn     *domain.CheckIn
	MealsLogged int
}

// LogDay creates or updates the open entry for a date. A closed entry is
// never touched; corrections go through Supersede.
func (s *LedgerService) LogDay(ctx context.Context, input LogDayInput) (*domain.DailyLog, error) {
	existing, err := s.repo.GetByDate(ctx, input.UserID, input.Date)
	switch {
	case err == nil:
		if existing.Closed {
			return nil, domain.ErrLogClosed
		}
		existing.Habits = input.Habits
		existing.Metrics = input.Metrics
		existing.CheckIn = input.CheckIn
		existing.MealsLogged = input.MealsLogged
		existing.Version++
		existing.UpdatedAt = time.Now().UTC()

		if err := existing.Validate(); err != nil {
			return nil, err
		}
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil

	case errors.Is(err, domain.ErrLogNotFound):
		entry, err := domain.NewDailyLog(input.UserID, input.Date)
		if err != nil {
			return nil, err
		}
		entry.Habits = input.Habits
		entry.Metrics = input.Metrics
		entry.CheckIn = input.CheckIn
		entry.MealsLogged = input.MealsLogged

		if err := entry.Validate(); err != nil {
			return nil, err
		}
		if err := s.repo.Create(ctx, entry); err != nil {
			return nil, err
		}
		return entry, nil

	default:
		return nil, err
	}
}

// CloseDay finalizes the entry for a date and triggers a streak snapshot
// recompute.
func (s *LedgerService) CloseDay(ctx context.Context, userID, date string) (*domain.DailyLog, error) {
	entry, err := s.repo.GetByDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	if err := entry.Close(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.worker.Enqueue(userID)

	return entry, nil
}

// Supersede records an explicit correction of a closed day. The old entry
// keeps history with SupersededAt set; the correction is validated and
// closed in the same step so the date never has two active entries.
func (s *LedgerService) Supersede(ctx context.Context, input LogDayInput) (*domain.DailyLog, error) {
	old, err := s.repo.GetByDate(ctx, input.UserID, input.Date)
	if err != nil {
		return nil, err
	}

	correction, err := old.Superseding()
	if err != nil {
		return nil, err
	}
	correction.Habits = input.Habits
	correction.Metrics = input.Metrics
	correction.CheckIn = input.CheckIn
	correction.MealsLogged = input.MealsLogged

	if err := correction.Validate(); err != nil {
		return nil, err
	}
	if err := correction.Close(); err != nil {
		return nil, err
	}

	if err := s.repo.Supersede(ctx, old, correction); err != nil {
		return nil, err
	}

	s.worker.Enqueue(input.UserID)

	return correction, nil
}

func (s *LedgerService) GetDay(ctx context.Context, userID, date string) (*domain.DailyLog, error) {
	if _, err := domain.ParseDay(date); err != nil {
		return nil, err
	}
	return s.repo.GetByDate(ctx, userID, date)
}

func (s *LedgerService) ListRange(ctx context.Context, userID, from, to string) ([]*domain.DailyLog, error) {
	if _, err := domain.ParseDay(from); err != nil {
		return nil, err
	}
	if _, err := domain.ParseDay(to); err != nil {
		return nil, err
	}
	return s.repo.ListRange(ctx, userID, from, to)
}

// GetDelta returns every entry touched after 'since', for offline clients
// catching up.
func (s *LedgerService) GetDelta(ctx context.Context, userID string, since time.Time) ([]*domain.DailyLog, error) {
	return s.repo.GetChanges(ctx, userID, since)
}
