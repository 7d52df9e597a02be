package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrLogNotFound  = errors.New("daily log not found")
	ErrLogConflict  = errors.New("daily log version conflict")
	ErrUnauthorized = errors.New("unauthorized access")
)

// LedgerRepository is the read/append port over the daily-log ledger.
// Entries are never deleted; a closed entry is replaced only by marking it
// superseded and inserting its correction.
type LedgerRepository interface {
	// Create persists a new ledger entry.
	Create(ctx context.Context, log *DailyLog) error

	// Update modifies an OPEN entry in place. Implementations must refuse
	// closed entries and enforce optimistic locking on Version.
	Update(ctx context.Context, log *DailyLog) error

	// GetByDate retrieves the active (non-superseded) entry for a date.
	GetByDate(ctx context.Context, userID, date string) (*DailyLog, error)

	// ListByUser retrieves every active entry for a user, ascending by date.
	ListByUser(ctx context.Context, userID string) ([]*DailyLog, error)

	// ListRange retrieves active entries with from <= date <= to, ascending.
	ListRange(ctx context.Context, userID, from, to string) ([]*DailyLog, error)

	// Supersede marks the old entry superseded and inserts its correction
	// atomically, keeping the at-most-one-active-entry-per-date invariant.
	Supersede(ctx context.Context, old, correction *DailyLog) error

	// GetChanges returns entries touched after 'since', for delta sync.
	GetChanges(ctx context.Context, userID string, since time.Time) ([]*DailyLog, error)
}
