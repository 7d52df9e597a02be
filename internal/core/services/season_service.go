package services

import (
	"context"

	"github.com/Ivan200915/discipline-engine/internal/core/domain"
)

// SeasonService accumulates season points and evaluates challenge
// completion against ledger-derived statistics. Completed challenges are
// never re-awarded and unlocked rewards never disappear within a season.
type SeasonService struct {
	ledger domain.LedgerRepository
	state  domain.StateRepository
	streak *StreakService
}

func NewSeasonService(ledger domain.LedgerRepository, state domain.StateRepository, streak *StreakService) *SeasonService {
	return &SeasonService{
		ledger: ledger,
		state:  state,
		streak: streak,
	}
}

// EvaluateResult reports what a single evaluation pass changed.
type EvaluateResult struct {
	Progress             *domain.SeasonProgress   `json:"progress"`
	NewlyCompleted       []domain.SeasonChallenge `json:"newly_completed"`
	NewlyUnlockedRewards []domain.SeasonReward    `json:"newly_unlocked_rewards"`
	PointsAwarded        int                      `json:"points_awarded"`
}

// Progress loads the user's progress for the given season. Stored progress
// belonging to a different season is discarded: seasons never merge.
func (s *SeasonService) Progress(ctx context.Context, userID string, season *domain.Season) (*domain.SeasonProgress, error) {
	if err := season.Validate(); err != nil {
		return nil, err
	}

	progress, err := s.state.GetSeasonProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if progress == nil || progress.SeasonID != season.ID {
		progress = domain.NewSeasonProgress(season.ID)
	}
	return progress, nil
}

// Evaluate checks every not-yet-completed challenge against current stats,
// credits point rewards, and unlocks any reward thresholds reached.
// Re-running with the same stats is a no-op.
func (s *SeasonService) Evaluate(ctx context.Context, userID string, season *domain.Season) (*EvaluateResult, error) {
	progress, err := s.Progress(ctx, userID, season)
	if err != nil {
		return nil, err
	}

	stats, err := s.GatherStats(ctx, userID, season, progress)
	if err != nil {
		return nil, err
	}

	result := EvaluateProgress(progress, stats, season)

	if err := s.state.SaveSeasonProgress(ctx, userID, progress); err != nil {
		return nil, err
	}
	return result, nil
}

// AddPoints credits a direct point grant (day closes, habit XP and the
// like) and unlocks any reward thresholds the new total reaches.
func (s *SeasonService) AddPoints(ctx context.Context, userID string, season *domain.Season, points int) (*EvaluateResult, error) {
	if points < 0 {
		return nil, domain.ErrNegativePoints
	}

	progress, err := s.Progress(ctx, userID, season)
	if err != nil {
		return nil, err
	}

	progress.Points += points
	result := &EvaluateResult{
		Progress:             progress,
		NewlyCompleted:       []domain.SeasonChallenge{},
		NewlyUnlockedRewards: unlockRewards(progress, season),
		PointsAwarded:        points,
	}

	if err := s.state.SaveSeasonProgress(ctx, userID, progress); err != nil {
		return nil, err
	}
	return result, nil
}

// EvaluateProgress is the pure challenge evaluation: it mutates progress in
// place and reports what changed.
func EvaluateProgress(progress *domain.SeasonProgress, stats domain.SeasonStats, season *domain.Season) *EvaluateResult {
	result := &EvaluateResult{
		Progress:             progress,
		NewlyCompleted:       []domain.SeasonChallenge{},
		NewlyUnlockedRewards: []domain.SeasonReward{},
	}

	for _, challenge := range season.Challenges {
		if progress.HasCompleted(challenge.ID) {
			continue
		}

		value, err := stats.StatFor(challenge.Type)
		if err != nil {
			continue
		}

		if value >= challenge.Target {
			progress.CompletedChallenges = append(progress.CompletedChallenges, challenge.ID)
			progress.Points += challenge.PointReward
			result.NewlyCompleted = append(result.NewlyCompleted, challenge)
			result.PointsAwarded += challenge.PointReward
		}
	}

	result.NewlyUnlockedRewards = unlockRewards(progress, season)
	return result
}

// unlockRewards walks thresholds in ascending order and unlocks each one
// the current points reach, exactly once.
func unlockRewards(progress *domain.SeasonProgress, season *domain.Season) []domain.SeasonReward {
	unlocked := []domain.SeasonReward{}
	for _, reward := range season.RewardsByThreshold() {
		if reward.UnlockAt > progress.Points {
			break
		}
		if progress.HasUnlocked(reward.ID) {
			continue
		}
		progress.UnlockedRewards = append(progress.UnlockedRewards, reward.ID)
		unlocked = append(unlocked, reward)
	}
	return unlocked
}

// GatherStats derives the challenge statistics from the ledger, scoped to
// the season window. Season boundaries are the only wall-clock coupling.
func (s *SeasonService) GatherStats(ctx context.Context, userID string, season *domain.Season, progress *domain.SeasonProgress) (domain.SeasonStats, error) {
	logs, err := s.ledger.ListRange(ctx, userID, season.StartDate, season.EndDate)
	if err != nil {
		return domain.SeasonStats{}, err
	}

	stats := domain.SeasonStats{SeasonXP: progress.Points}
	for _, l := range logs {
		if l.SupersededAt != nil {
			continue
		}
		for _, h := range l.Habits {
			if h.Completed {
				stats.TotalHabits++
			}
		}
		stats.TotalMeals += l.MealsLogged
		if l.Closed {
			stats.ClosedDays++
		}
	}

	report, err := s.streak.Compute(ctx, userID, "")
	if err != nil {
		return domain.SeasonStats{}, err
	}
	stats.CurrentStreak = report.CurrentStreak

	return stats, nil
}
