package domain

import "context"

// StateRepository is the injected load/save surface for the side-channel
// state the ledger cannot reconstruct: protection inventory and season
// progress. The engine stays storage-agnostic behind it. Missing state is
// not an error; implementations return a fresh zero value.
type StateRepository interface {
	GetProtection(ctx context.Context, userID string) (*ProtectionInventory, error)
	SaveProtection(ctx context.Context, userID string, inv *ProtectionInventory) error

	GetSeasonProgress(ctx context.Context, userID string) (*SeasonProgress, error)
	SaveSeasonProgress(ctx context.Context, userID string, progress *SeasonProgress) error

	// Streak snapshots are a cache written by the background worker; the
	// ledger remains the only ground truth for streaks.
	GetStreakSnapshot(ctx context.Context, userID string) (*StreakState, error)
	SaveStreakSnapshot(ctx context.Context, userID string, state *StreakState) error
}
