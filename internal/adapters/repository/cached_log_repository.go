package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ivan200915/discipline-engine/internal/core/domain"
)

var _ domain.LedgerRepository = (*CachedLogRepository)(nil)

// CachedLogRepository caches the full per-user ledger listing, which every
// derived computation (streak, correlation, forecast, season) reads.
// Any write to the ledger invalidates the user's cached listing.
type CachedLogRepository struct {
	next  domain.LedgerRepository
	cache *redis.Client
}

func NewCachedLogRepository(next domain.LedgerRepository, cache *redis.Client) *CachedLogRepository {
	return &CachedLogRepository{
		next:  next,
		cache: cache,
	}
}

func (r *CachedLogRepository) cacheKey(userID string) string {
	return fmt.Sprintf("ledger:%s", userID)
}

func (r *CachedLogRepository) invalidate(ctx context.Context, userID string) {
	if err := r.cache.Del(ctx, r.cacheKey(userID)).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate for user %s: %v", userID, err)
	}
}

func (r *CachedLogRepository) ListByUser(ctx context.Context, userID string) ([]*domain.DailyLog, error) {
	key := r.cacheKey(userID)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		var logs []*domain.DailyLog
		if err := json.Unmarshal([]byte(val), &logs); err == nil {
			return logs, nil
		}

		log.Printf("[CACHE] Corrupted data for user %s, cleaning up key", userID)
		r.cache.Del(ctx, key)
	} else if err != redis.Nil {
		log.Printf("[CACHE] Redis read error: %v", err)
	}

	logs, err := r.next.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(logs); err == nil {
		if setErr := r.cache.Set(ctx, key, data, 30*time.Minute).Err(); setErr != nil {
			log.Printf("[CACHE] Redis set error: %v", setErr)
		}
	}

	return logs, nil
}

func (r *CachedLogRepository) GetByDate(ctx context.Context, userID, date string) (*domain.DailyLog, error) {
	return r.next.GetByDate(ctx, userID, date)
}

func (r *CachedLogRepository) ListRange(ctx context.Context, userID, from, to string) ([]*domain.DailyLog, error) {
	return r.next.ListRange(ctx, userID, from, to)
}

func (r *CachedLogRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.DailyLog, error) {
	return r.next.GetChanges(ctx, userID, since)
}

func (r *CachedLogRepository) Create(ctx context.Context, logEntry *domain.DailyLog) error {
	if err := r.next.Create(ctx, logEntry); err != nil {
		return err
	}
	r.invalidate(ctx, logEntry.UserID)
	return nil
}

func (r *CachedLogRepository) Update(ctx context.Context, logEntry *domain.DailyLog) error {
	if err := r.next.Update(ctx, logEntry); err != nil {
		return err
	}
	r.invalidate(ctx, logEntry.UserID)
	return nil
}

func (r *CachedLogRepository) Supersede(ctx context.Context, old, correction *domain.DailyLog) error {
	if err := r.next.Supersede(ctx, old, correction); err != nil {
		return err
	}
	r.invalidate(ctx, old.UserID)
	return nil
}
