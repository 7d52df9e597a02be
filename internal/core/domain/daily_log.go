package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrLogInvalidUserID = errors.New("invalid user id")
	ErrLogClosed        = errors.New("daily log is closed and cannot be modified in place")
	ErrLogNotClosed     = errors.New("daily log is not closed")
	ErrInvalidMood      = errors.New("mood must be between 1 and 5")
	ErrInvalidEnergy    = errors.New("energy must be between 1 and 10")
	ErrNegativeMetric   = errors.New("metrics cannot be negative")
	ErrInvalidHabitID   = errors.New("habit id cannot be empty")
)

// HabitCompletion records whether a single habit was done on a given day.
type HabitCompletion struct {
	HabitID   string `json:"habit_id"`
	Completed bool   `json:"completed"`
}

// DayMetrics holds the optional health metrics attached to a day.
// Nil means the metric was never logged, which is distinct from zero.
type DayMetrics struct {
	Steps         *float64 `json:"steps,omitempty"`
	SleepHours    *float64 `json:"sleep_hours,omitempty"`
	ActiveMinutes *float64 `json:"active_minutes,omitempty"`
}

// CheckIn is the evening self-report. Mood is 1..5, energy 1..10.
type CheckIn struct {
	Mood   *int `json:"mood,omitempty"`
	Energy *int `json:"energy,omitempty"`
}

// DailyLog is one entry of the append-only ledger: at most one active entry
// per (user, date). Once Closed the entry is immutable; corrections create a
// superseding entry and the old one keeps history with SupersededAt set.
type DailyLog struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`
	Date   string `json:"date" db:"log_date"`

	Closed      bool              `json:"closed" db:"closed"`
	Habits      []HabitCompletion `json:"habits"`
	Metrics     DayMetrics        `json:"metrics"`
	CheckIn     *CheckIn          `json:"check_in,omitempty"`
	MealsLogged int               `json:"meals_logged" db:"meals_logged"`

	Version      int        `json:"version" db:"version"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	SupersededAt *time.Time `json:"superseded_at,omitempty" db:"superseded_at"`
}

func NewDailyLog(userID, date string) (*DailyLog, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrLogInvalidUserID
	}
	if _, err := ParseDay(date); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &DailyLog{
		UserID:    userID,
		Date:      date,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate rejects malformed data at the boundary. Derived-state invariants
// depend on every persisted entry passing this check.
func (l *DailyLog) Validate() error {
	if strings.TrimSpace(l.UserID) == "" {
		return ErrLogInvalidUserID
	}
	if _, err := ParseDay(l.Date); err != nil {
		return err
	}
	for _, h := range l.Habits {
		if strings.TrimSpace(h.HabitID) == "" {
			return ErrInvalidHabitID
		}
	}
	for _, m := range []*float64{l.Metrics.Steps, l.Metrics.SleepHours, l.Metrics.ActiveMinutes} {
		if m != nil && *m < 0 {
			return ErrNegativeMetric
		}
	}
	if l.CheckIn != nil {
		if l.CheckIn.Mood != nil && (*l.CheckIn.Mood < 1 || *l.CheckIn.Mood > 5) {
			return ErrInvalidMood
		}
		if l.CheckIn.Energy != nil && (*l.CheckIn.Energy < 1 || *l.CheckIn.Energy > 10) {
			return ErrInvalidEnergy
		}
	}
	if l.MealsLogged < 0 {
		return errors.New("meals_logged cannot be negative")
	}
	return nil
}

// Close finalizes the day. A closed log never changes again in place.
func (l *DailyLog) Close() error {
	if l.Closed {
		return ErrLogClosed
	}
	l.Closed = true
	l.Version++
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// CompletionRatio is completedHabits / totalHabits for the day.
// Days with zero habits logged are 0, never a division error.
func (l *DailyLog) CompletionRatio() float64 {
	if len(l.Habits) == 0 {
		return 0
	}
	done := 0
	for _, h := range l.Habits {
		if h.Completed {
			done++
		}
	}
	return float64(done) / float64(len(l.Habits))
}

// HabitCompleted reports whether the named habit was completed on this day.
func (l *DailyLog) HabitCompleted(habitID string) bool {
	for _, h := range l.Habits {
		if h.HabitID == habitID && h.Completed {
			return true
		}
	}
	return false
}

// Superseding builds the correction entry that replaces a closed log.
// The original entry is never mutated; the new entry starts open so the
// correction itself goes through validation and an explicit Close again.
func (l *DailyLog) Superseding() (*DailyLog, error) {
	if !l.Closed {
		return nil, ErrLogNotClosed
	}

	now := time.Now().UTC()

	next := *l
	next.ID = ""
	next.Closed = false
	next.Version = l.Version + 1
	next.CreatedAt = now
	next.UpdatedAt = now
	next.SupersededAt = nil
	next.Habits = append([]HabitCompletion(nil), l.Habits...)

	return &next, nil
}
