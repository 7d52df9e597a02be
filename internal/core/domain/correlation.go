package domain

import "errors"

var ErrUnknownMetric = errors.New("unknown metric")

// MinCorrelationSample is the smallest paired sample a coefficient is
// computed for. Below it the coefficient stays nil.
const MinCorrelationSample = 3

// MetricExtractor maps a daily log to an optional numeric value. The second
// return is false when the day never logged that metric.
type MetricExtractor func(l *DailyLog) (float64, bool)

const (
	MetricSleep  = "sleep"
	MetricSteps  = "steps"
	MetricActive = "active"
	MetricMood   = "mood"
	MetricEnergy = "energy"
)

// Extractors is the registry of metrics exposed to correlation queries.
// Steps are scaled to thousands so scatter axes stay readable.
var Extractors = map[string]MetricExtractor{
	MetricSleep: func(l *DailyLog) (float64, bool) {
		if l.Metrics.SleepHours == nil {
			return 0, false
		}
		return *l.Metrics.SleepHours, true
	},
	MetricSteps: func(l *DailyLog) (float64, bool) {
		if l.Metrics.Steps == nil {
			return 0, false
		}
		return *l.Metrics.Steps / 1000, true
	},
	MetricActive: func(l *DailyLog) (float64, bool) {
		if l.Metrics.ActiveMinutes == nil {
			return 0, false
		}
		return *l.Metrics.ActiveMinutes, true
	},
	MetricMood: func(l *DailyLog) (float64, bool) {
		if l.CheckIn == nil || l.CheckIn.Mood == nil {
			return 0, false
		}
		return float64(*l.CheckIn.Mood), true
	},
	MetricEnergy: func(l *DailyLog) (float64, bool) {
		if l.CheckIn == nil || l.CheckIn.Energy == nil {
			return 0, false
		}
		return float64(*l.CheckIn.Energy), true
	},
}

// CorrelationResult is the outcome of a pairwise Pearson analysis.
// A nil Coefficient means insufficient sample or no variance; it is a
// distinct state, never reported as zero.
type CorrelationResult struct {
	XLabel      string   `json:"x_label"`
	YLabel      string   `json:"y_label"`
	Coefficient *float64 `json:"coefficient"`
	SampleSize  int      `json:"sample_size"`
	Strength    string   `json:"strength"`
}

const (
	StrengthNone             = "insufficient data"
	StrengthWeak             = "weak or no association"
	StrengthModeratePositive = "moderate positive association"
	StrengthModerateNegative = "moderate negative association"
	StrengthStrongPositive   = "strong positive association"
	StrengthStrongNegative   = "strong negative association"
)

// StrengthLabel bands a coefficient for display: |r| > 0.5 strong,
// 0.2 < |r| <= 0.5 moderate, otherwise weak. Sign gives direction.
func StrengthLabel(r *float64) string {
	if r == nil {
		return StrengthNone
	}
	switch v := *r; {
	case v > 0.5:
		return StrengthStrongPositive
	case v > 0.2:
		return StrengthModeratePositive
	case v >= -0.2:
		return StrengthWeak
	case v >= -0.5:
		return StrengthModerateNegative
	default:
		return StrengthStrongNegative
	}
}
