package domain

import (
	"errors"
	"sort"
)

var (
	ErrInvalidSeason        = errors.New("invalid season definition")
	ErrNegativePoints       = errors.New("points grant cannot be negative")
	ErrInvalidChallengeType = errors.New("invalid challenge type")
)

const (
	ChallengeTypeStreak     = "streak"
	ChallengeTypeHabits     = "habits"
	ChallengeTypeMeals      = "meals"
	ChallengeTypeDaysClosed = "days_closed"
	ChallengeTypeXP         = "xp"
)

// SeasonChallenge is a time-boxed goal evaluated against ledger statistics.
type SeasonChallenge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Target      int    `json:"target"`
	Type        string `json:"type"`
	PointReward int    `json:"point_reward"`
}

// SeasonReward unlocks once season points reach UnlockAt.
type SeasonReward struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	UnlockAt int    `json:"unlock_at"`
}

// Season is a challenge/reward configuration, supplied to the engine rather
// than hardcoded into it.
type Season struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	StartDate  string            `json:"start_date"`
	EndDate    string            `json:"end_date"`
	Challenges []SeasonChallenge `json:"challenges"`
	Rewards    []SeasonReward    `json:"rewards"`
}

func (s *Season) Validate() error {
	if s.ID == "" {
		return ErrInvalidSeason
	}
	if _, err := ParseDay(s.StartDate); err != nil {
		return err
	}
	if _, err := ParseDay(s.EndDate); err != nil {
		return err
	}
	for _, c := range s.Challenges {
		switch c.Type {
		case ChallengeTypeStreak, ChallengeTypeHabits, ChallengeTypeMeals,
			ChallengeTypeDaysClosed, ChallengeTypeXP:
		default:
			return ErrInvalidChallengeType
		}
	}
	return nil
}

// RewardsByThreshold returns the rewards sorted by ascending unlock point.
func (s *Season) RewardsByThreshold() []SeasonReward {
	rewards := append([]SeasonReward(nil), s.Rewards...)
	sort.Slice(rewards, func(i, j int) bool {
		return rewards[i].UnlockAt < rewards[j].UnlockAt
	})
	return rewards
}

// SeasonStats is the ledger-derived snapshot challenges are judged against.
type SeasonStats struct {
	CurrentStreak int `json:"current_streak"`
	TotalHabits   int `json:"total_habits"`
	TotalMeals    int `json:"total_meals"`
	ClosedDays    int `json:"closed_days"`
	SeasonXP      int `json:"season_xp"`
}

// StatFor selects the statistic a challenge type is judged against.
func (st SeasonStats) StatFor(challengeType string) (int, error) {
	switch challengeType {
	case ChallengeTypeStreak:
		return st.CurrentStreak, nil
	case ChallengeTypeHabits:
		return st.TotalHabits, nil
	case ChallengeTypeMeals:
		return st.TotalMeals, nil
	case ChallengeTypeDaysClosed:
		return st.ClosedDays, nil
	case ChallengeTypeXP:
		return st.SeasonXP, nil
	default:
		return 0, ErrInvalidChallengeType
	}
}

// SeasonProgress is the per-user season state. Points only grow; completed
// challenges and unlocked rewards are never removed within a season.
// Switching seasons starts from a fresh zero state.
type SeasonProgress struct {
	SeasonID            string   `json:"season_id"`
	Points              int      `json:"points"`
	CompletedChallenges []string `json:"completed_challenges"`
	UnlockedRewards     []string `json:"unlocked_rewards"`
}

func NewSeasonProgress(seasonID string) *SeasonProgress {
	return &SeasonProgress{
		SeasonID:            seasonID,
		CompletedChallenges: []string{},
		UnlockedRewards:     []string{},
	}
}

func (p *SeasonProgress) HasCompleted(challengeID string) bool {
	for _, id := range p.CompletedChallenges {
		if id == challengeID {
			return true
		}
	}
	return false
}

func (p *SeasonProgress) HasUnlocked(rewardID string) bool {
	for _, id := range p.UnlockedRewards {
		if id == rewardID {
			return true
		}
	}
	return false
}

// DefaultSeason mirrors the launch configuration; real deployments feed
// season definitions through configuration instead.
var DefaultSeason = Season{
	ID:        "winter_2024",
	Name:      "Winter Championship",
	StartDate: "2024-01-01",
	EndDate:   "2024-03-31",
	Challenges: []SeasonChallenge{
		{ID: "w_streak_7", Name: "7-Day Warrior", Description: "Maintain a 7-day streak", Target: 7, Type: ChallengeTypeStreak, PointReward: 200},
		{ID: "w_habits_50", Name: "Habit Master", Description: "Complete 50 habits", Target: 50, Type: ChallengeTypeHabits, PointReward: 300},
		{ID: "w_meals_30", Name: "Nutrition Tracker", Description: "Log 30 meals", Target: 30, Type: ChallengeTypeMeals, PointReward: 150},
		{ID: "w_days_14", Name: "Two Weeks Strong", Description: "Close 14 days", Target: 14, Type: ChallengeTypeDaysClosed, PointReward: 250},
		{ID: "w_xp_1000", Name: "XP Hunter", Description: "Earn 1000 XP this season", Target: 1000, Type: ChallengeTypeXP, PointReward: 500},
	},
	Rewards: []SeasonReward{
		{ID: "badge_winter", Name: "Winter Warrior", Type: "badge", UnlockAt: 100},
		{ID: "theme_snow", Name: "Snowfall Theme", Type: "theme", UnlockAt: 300},
		{ID: "pet_scarf", Name: "Pet Scarf", Type: "pet_outfit", UnlockAt: 500},
		{ID: "title_champion", Name: "Winter Champion", Type: "title", UnlockAt: 1000},
	},
}
