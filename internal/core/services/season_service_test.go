package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ivan200915/discipline-engine/internal/adapters/repository"
	"github.com/Ivan200915/discipline-engine/internal/core/domain"
)

func testSeason() *domain.Season {
	return &domain.Season{
		ID:        "spring_2024",
		Name:      "Spring Trial",
		StartDate: "2024-04-01",
		EndDate:   "2024-06-30",
		Challenges: []domain.SeasonChallenge{
			{ID: "s_streak_3", Name: "Three in a Row", Target: 3, Type: domain.ChallengeTypeStreak, PointReward: 100},
			{ID: "s_habits_5", Name: "Habit Five", Target: 5, Type: domain.ChallengeTypeHabits, PointReward: 150},
			{ID: "s_meals_10", Name: "Meal Ten", Target: 10, Type: domain.ChallengeTypeMeals, PointReward: 50},
		},
		Rewards: []domain.SeasonReward{
			{ID: "r_title", Name: "Title", Type: "title", UnlockAt: 250},
			{ID: "r_badge", Name: "Badge", Type: "badge", UnlockAt: 50},
		},
	}
}

func TestEvaluateProgress(t *testing.T) {
	t.Run("Challenges complete at their target and pay once", func(t *testing.T) {
		season := testSeason()
		progress := domain.NewSeasonProgress(season.ID)
		stats := domain.SeasonStats{CurrentStreak: 3, TotalHabits: 2}

		result := EvaluateProgress(progress, stats, season)

		require.Len(t, result.NewlyCompleted, 1)
		assert.Equal(t, "s_streak_3", result.NewlyCompleted[0].ID)
		assert.Equal(t, 100, result.PointsAwarded)
		assert.Equal(t, 100, progress.Points)

		again := EvaluateProgress(progress, stats, season)
		assert.Empty(t, again.NewlyCompleted, "A completed challenge never pays again")
		assert.Equal(t, 0, again.PointsAwarded)
		assert.Equal(t, 100, progress.Points)
	})

	t.Run("Rewards unlock in ascending threshold order", func(t *testing.T) {
		season := testSeason()
		progress := domain.NewSeasonProgress(season.ID)
		stats := domain.SeasonStats{CurrentStreak: 3, TotalHabits: 5}

		result := EvaluateProgress(progress, stats, season)

		assert.Equal(t, 250, progress.Points)
		require.Len(t, result.NewlyUnlockedRewards, 2)
		assert.Equal(t, "r_badge", result.NewlyUnlockedRewards[0].ID)
		assert.Equal(t, "r_title", result.NewlyUnlockedRewards[1].ID)
	})

	t.Run("Stats below target change nothing", func(t *testing.T) {
		season := testSeason()
		progress := domain.NewSeasonProgress(season.ID)

		result := EvaluateProgress(progress, domain.SeasonStats{CurrentStreak: 2}, season)

		assert.Empty(t, result.NewlyCompleted)
		assert.Empty(t, result.NewlyUnlockedRewards)
		assert.Equal(t, 0, progress.Points)
	})
}

func TestSeasonService(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*SeasonService, *repository.InMemoryLedgerRepository, *repository.InMemoryStateRepository) {
		t.Helper()
		ledger := repository.NewInMemoryLedgerRepository()
		state := repository.NewInMemoryStateRepository()
		streak := NewStreakService(ledger, state)
		return NewSeasonService(ledger, state, streak), ledger, state
	}

	t.Run("Progress starts fresh and resets on a season switch", func(t *testing.T) {
		svc, _, state := setup(t)
		season := testSeason()

		progress, err := svc.Progress(ctx, "user-1", season)
		require.NoError(t, err)
		assert.Equal(t, season.ID, progress.SeasonID)
		assert.Equal(t, 0, progress.Points)

		stale := domain.NewSeasonProgress("winter_2023")
		stale.Points = 400
		require.NoError(t, state.SaveSeasonProgress(ctx, "user-1", stale))

		progress, err = svc.Progress(ctx, "user-1", season)
		require.NoError(t, err)
		assert.Equal(t, season.ID, progress.SeasonID)
		assert.Equal(t, 0, progress.Points, "Points never carry across seasons")
	})

	t.Run("Evaluate derives stats from the season window only", func(t *testing.T) {
		svc, ledger, _ := setup(t)
		season := testSeason()

		inside := closedLog("2024-04-10")
		inside.MealsLogged = 10
		require.NoError(t, ledger.Create(ctx, inside))

		outside := closedLog("2024-03-20")
		outside.MealsLogged = 10
		require.NoError(t, ledger.Create(ctx, outside))

		result, err := svc.Evaluate(ctx, "user-1", season)

		require.NoError(t, err)
		require.Len(t, result.NewlyCompleted, 1)
		assert.Equal(t, "s_meals_10", result.NewlyCompleted[0].ID)
	})

	t.Run("Evaluate persists the updated progress", func(t *testing.T) {
		svc, ledger, state := setup(t)
		season := testSeason()

		entry := closedLog("2024-04-10")
		entry.MealsLogged = 10
		require.NoError(t, ledger.Create(ctx, entry))

		_, err := svc.Evaluate(ctx, "user-1", season)
		require.NoError(t, err)

		stored, err := state.GetSeasonProgress(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, 50, stored.Points)
		assert.Equal(t, []string{"s_meals_10"}, stored.CompletedChallenges)
	})

	t.Run("AddPoints credits grants and unlocks thresholds", func(t *testing.T) {
		svc, _, _ := setup(t)
		season := testSeason()

		result, err := svc.AddPoints(ctx, "user-1", season, 60)
		require.NoError(t, err)
		assert.Equal(t, 60, result.Progress.Points)
		require.Len(t, result.NewlyUnlockedRewards, 1)
		assert.Equal(t, "r_badge", result.NewlyUnlockedRewards[0].ID)

		result, err = svc.AddPoints(ctx, "user-1", season, 10)
		require.NoError(t, err)
		assert.Equal(t, 70, result.Progress.Points)
		assert.Empty(t, result.NewlyUnlockedRewards)
	})

	t.Run("Negative grants are refused", func(t *testing.T) {
		svc, _, _ := setup(t)

		_, err := svc.AddPoints(ctx, "user-1", testSeason(), -10)
		assert.ErrorIs(t, err, domain.ErrNegativePoints)
	})

	t.Run("An invalid season definition is refused", func(t *testing.T) {
		svc, _, _ := setup(t)
		season := testSeason()
		season.Challenges[0].Type = "pushups"

		_, err := svc.Evaluate(ctx, "user-1", season)
		assert.ErrorIs(t, err, domain.ErrInvalidChallengeType)
	})
}
