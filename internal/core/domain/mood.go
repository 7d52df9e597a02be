package domain

// MoodSample is one historical observation the forecaster learns from.
// Built from closed ledger entries that carry a mood check-in.
type MoodSample struct {
	Date       string  `json:"date"`
	Mood       int     `json:"mood"`
	Workout    bool    `json:"workout"`
	Meditation bool    `json:"meditation"`
	SleepHours float64 `json:"sleep_hours"`
	Steps      float64 `json:"steps"`
}

// TodayHabits describes the day being forecast from.
type TodayHabits struct {
	Workout    bool    `json:"workout"`
	Meditation bool    `json:"meditation"`
	SleepHours float64 `json:"sleep_hours"`
	Steps      float64 `json:"steps"`
}

const (
	ImpactPositive = "positive"
	ImpactNegative = "negative"
	ImpactNeutral  = "neutral"
)

// MoodFactor is one contribution to the forecast, weight equal to the
// magnitude of its mood-score adjustment.
type MoodFactor struct {
	Name   string  `json:"name"`
	Impact string  `json:"impact"`
	Weight float64 `json:"weight"`
}

// MoodPrediction is the heuristic next-day forecast. Factors are sorted by
// descending weight.
type MoodPrediction struct {
	PredictedMood  int          `json:"predicted_mood"`
	Confidence     int          `json:"confidence"`
	Factors        []MoodFactor `json:"factors"`
	Recommendation string       `json:"recommendation"`
}

// Recommendation texts, selected purely from the final mood bucket.
const (
	RecommendationLow  = "Try meditation and extra sleep to boost mood"
	RecommendationMid  = "Add a workout or walk to improve tomorrow"
	RecommendationHigh = "Keep up the great work! Maintain your habits"
)

func RecommendationFor(mood int) string {
	switch {
	case mood <= 2:
		return RecommendationLow
	case mood >= 4:
		return RecommendationHigh
	default:
		return RecommendationMid
	}
}
