package services

import (
	"context"
	"math"
	"sort"

	"github.com/Ivan200915/discipline-engine/internal/core/domain"
)

// Habit ids the forecaster recognizes in ledger entries.
const (
	habitWorkout    = "workout"
	habitMeditation = "meditation"
)

// Forecast model constants. Each factor adds to the baseline mood score and
// to the confidence independently.
const (
	baselineMood       = 3.0
	baselineConfidence = 40
	maxConfidence      = 95

	workoutFactorScale = 0.4
	sleepBonusAbove    = 0.3
	sleepPenaltyBelow  = -0.5
	meditationBonus    = 0.4
	activityHighBonus  = 0.3
	activityLowPenalty = -0.2
	trendScale         = 0.3
	minHistoryForecast = 3
	lowDataConfidence  = 20
)

// MoodService produces a heuristic next-day mood forecast from ledger
// history plus today's habits.
type MoodService struct {
	ledger domain.LedgerRepository
}

func NewMoodService(ledger domain.LedgerRepository) *MoodService {
	return &MoodService{ledger: ledger}
}

// Predict builds the historical sample set from the user's ledger and runs
// the forecast model against today's habits.
func (s *MoodService) Predict(ctx context.Context, userID string, today domain.TodayHabits) (*domain.MoodPrediction, error) {
	logs, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return PredictMood(SamplesFromLogs(logs), today), nil
}

// SamplesFromLogs extracts mood observations from active closed entries
// that carry a mood check-in, ascending by date.
func SamplesFromLogs(logs []*domain.DailyLog) []domain.MoodSample {
	var samples []domain.MoodSample
	for _, l := range logs {
		if l.SupersededAt != nil || !l.Closed {
			continue
		}
		if l.CheckIn == nil || l.CheckIn.Mood == nil {
			continue
		}

		sample := domain.MoodSample{
			Date:       l.Date,
			Mood:       *l.CheckIn.Mood,
			Workout:    l.HabitCompleted(habitWorkout),
			Meditation: l.HabitCompleted(habitMeditation),
		}
		if l.Metrics.SleepHours != nil {
			sample.SleepHours = *l.Metrics.SleepHours
		}
		if l.Metrics.Steps != nil {
			sample.Steps = *l.Metrics.Steps
		}
		samples = append(samples, sample)
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Date < samples[j].Date
	})
	return samples
}

// PredictMood is the pure forecast model: a baseline of 3 adjusted by five
// independent additive factors, clamped to 1..5 and rounded; confidence is
// capped at 95. Fewer than three observations yield the fixed neutral
// low-confidence baseline, which is a defined result, not an error.
func PredictMood(history []domain.MoodSample, today domain.TodayHabits) *domain.MoodPrediction {
	if len(history) < minHistoryForecast {
		return &domain.MoodPrediction{
			PredictedMood:  3,
			Confidence:     lowDataConfidence,
			Factors:        []domain.MoodFactor{},
			Recommendation: "Need more data for accurate prediction",
		}
	}

	score := baselineMood
	confidence := baselineConfidence
	factors := []domain.MoodFactor{}

	addFactor := func(name string, contribution float64) {
		impact := domain.ImpactPositive
		if contribution < 0 {
			impact = domain.ImpactNegative
		}
		factors = append(factors, domain.MoodFactor{
			Name:   name,
			Impact: impact,
			Weight: math.Abs(contribution),
		})
	}

	// Workout effect: learned from the user's own history, applied only
	// when today includes a workout.
	var workoutDays, restDays []domain.MoodSample
	for _, h := range history {
		if h.Workout {
			workoutDays = append(workoutDays, h)
		} else {
			restDays = append(restDays, h)
		}
	}
	if len(workoutDays) >= 2 && today.Workout {
		avgWithWorkout := avgMood(workoutDays)
		avgWithout := baselineMood
		if len(restDays) > 0 {
			avgWithout = avgMood(restDays)
		}
		diff := avgWithWorkout - avgWithout
		score += diff * workoutFactorScale
		addFactor("Workout completed", diff*workoutFactorScale)
		confidence += 15
	}

	// Sleep deviation beyond one hour from the historical average.
	var totalSleep float64
	for _, h := range history {
		totalSleep += h.SleepHours
	}
	avgSleep := totalSleep / float64(len(history))
	deviation := today.SleepHours - avgSleep
	if math.Abs(deviation) > 1 {
		contribution := sleepBonusAbove
		name := "Extra sleep"
		if deviation < 0 {
			contribution = sleepPenaltyBelow
			name = "Sleep deficit"
		}
		score += contribution
		addFactor(name, contribution)
		confidence += 10
	}

	// Meditation effect: only when the practice historically coincides
	// with above-neutral mood.
	var meditationDays []domain.MoodSample
	for _, h := range history {
		if h.Meditation {
			meditationDays = append(meditationDays, h)
		}
	}
	if len(meditationDays) >= 2 && today.Meditation && avgMood(meditationDays) > baselineMood {
		score += meditationBonus
		addFactor("Meditation practiced", meditationBonus)
		confidence += 10
	}

	// Activity level relative to the historical step average.
	var totalSteps float64
	for _, h := range history {
		totalSteps += h.Steps
	}
	avgSteps := totalSteps / float64(len(history))
	switch {
	case today.Steps > avgSteps*1.2:
		score += activityHighBonus
		addFactor("High activity", activityHighBonus)
		confidence += 8
	case today.Steps < avgSteps*0.5:
		score += activityLowPenalty
		addFactor("Low activity", activityLowPenalty)
		confidence += 5
	}

	// Recent trend across the last three observations.
	recent := history[len(history)-3:]
	trend := float64(recent[2].Mood-recent[0].Mood) / 2
	if math.Abs(trend) > 0.5 {
		contribution := trend * trendScale
		name := "Positive trend"
		if trend < 0 {
			name = "Negative trend"
		}
		score += contribution
		addFactor(name, contribution)
		confidence += 12
	}

	finalMood := int(math.Round(score))
	if finalMood < 1 {
		finalMood = 1
	}
	if finalMood > 5 {
		finalMood = 5
	}
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].Weight > factors[j].Weight
	})

	return &domain.MoodPrediction{
		PredictedMood:  finalMood,
		Confidence:     confidence,
		Factors:        factors,
		Recommendation: domain.RecommendationFor(finalMood),
	}
}

func avgMood(samples []domain.MoodSample) float64 {
	var sum float64
	for _, s := range samples {
		sum += float64(s.Mood)
	}
	return sum / float64(len(samples))
}
