package domain

// StreakState is derived from the ledger and never stored as ground truth.
// It can be recomputed at any time from the active closed entries.
type StreakState struct {
	CurrentStreak  int     `json:"current_streak"`
	LongestStreak  int     `json:"longest_streak"`
	LastClosedDate *string `json:"last_closed_date"`
}

// StreakReport is the full output of a streak computation. GapDates lists,
// in ascending order, the days the current streak needs protection coverage
// for. The calculator never consumes inventory itself; the caller forwards
// GapDates to the protection manager.
type StreakReport struct {
	StreakState
	GapDates []string `json:"gap_dates"`
}
