package workers

import (
	"context"
	"log"

	"github.com/Ivan200915/discipline-engine/internal/core/domain"
)

type StreakComputer interface {
	Compute(ctx context.Context, userID, asOf string) (*domain.StreakReport, error)
}

type SnapshotStore interface {
	GetStreakSnapshot(ctx context.Context, userID string) (*domain.StreakState, error)
	SaveStreakSnapshot(ctx context.Context, userID string, state *domain.StreakState) error
}

type SnapshotJob struct {
	UserID string
}

// StreakWorker recomputes the streak snapshot in the background after every
// ledger write, so dashboard reads stay cheap. The snapshot is a cache; the
// ledger remains the only ground truth.
type StreakWorker struct {
	computer StreakComputer
	store    SnapshotStore
	jobs     chan SnapshotJob
}

func NewStreakWorker(computer StreakComputer, store SnapshotStore) *StreakWorker {
	return &StreakWorker{
		computer: computer,
		store:    store,
		jobs:     make(chan SnapshotJob, 100),
	}
}

func (w *StreakWorker) Start(ctx context.Context) {
	go func() {
		log.Println("Streak Worker started in background...")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				log.Println("Streak Worker shutting down...")
				return
			}
		}
	}()
}

func (w *StreakWorker) Enqueue(userID string) {
	select {
	case w.jobs <- SnapshotJob{UserID: userID}:
	default:
		log.Printf("Streak Worker queue full! Dropping job for user %s", userID)
	}
}

func (w *StreakWorker) processJob(ctx context.Context, job SnapshotJob) {
	report, err := w.computer.Compute(ctx, job.UserID, "")
	if err != nil {
		log.Printf("Worker Error computing streak for %s: %v", job.UserID, err)
		return
	}

	previous, err := w.store.GetStreakSnapshot(ctx, job.UserID)
	if err == nil && previous != nil &&
		previous.CurrentStreak == report.CurrentStreak &&
		previous.LongestStreak == report.LongestStreak {
		return
	}

	if err := w.store.SaveStreakSnapshot(ctx, job.UserID, &report.StreakState); err != nil {
		log.Printf("Worker Failed to save streak snapshot for %s: %v", job.UserID, err)
		return
	}
	log.Printf("Streak snapshot updated for %s: Current=%d, Longest=%d",
		job.UserID, report.CurrentStreak, report.LongestStreak)
}
