package services

import (
	"context"
	"sort"
	"time"

	"github.com/Ivan200915/discipline-engine/internal/core/domain"
)

// StreakService derives streak state from the ledger. It never mutates
// protection inventory: gap days that would need coverage are reported in
// the StreakReport and handed to the ProtectionService by the caller.
type StreakService struct {
	ledger domain.LedgerRepository
	state  domain.StateRepository
}

func NewStreakService(ledger domain.LedgerRepository, state domain.StateRepository) *StreakService {
	return &StreakService{
		ledger: ledger,
		state:  state,
	}
}

// Compute walks the ledger backward from asOf (today when empty) and builds
// the full streak report against the user's current protection inventory.
func (s *StreakService) Compute(ctx context.Context, userID, asOf string) (*domain.StreakReport, error) {
	if asOf == "" {
		asOf = domain.FormatDay(time.Now())
	}
	if _, err := domain.ParseDay(asOf); err != nil {
		return nil, err
	}

	logs, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	inv, err := s.state.GetProtection(ctx, userID)
	if err != nil {
		return nil, err
	}

	return ComputeStreak(logs, asOf, inv, time.Now().UTC()), nil
}

// ComputeStreak is the pure calculator. A day counts toward the current
// streak when it is closed, already bridged by consumed protection, or
// coverable by remaining protection capacity. The walk stops at the first
// day satisfying none of these, or at the start of recorded history.
//
// Longest streak is a ledger-only fact: protection preserves the current
// streak going forward but never extends historical runs, so a protected
// current streak may exceed the longest one.
func ComputeStreak(logs []*domain.DailyLog, asOf string, inv *domain.ProtectionInventory, now time.Time) *domain.StreakReport {
	report := &domain.StreakReport{GapDates: []string{}}

	closed := make(map[string]bool)
	var closedDates []string
	for _, l := range logs {
		if l.SupersededAt != nil || !l.Closed {
			continue
		}
		if !closed[l.Date] {
			closed[l.Date] = true
			closedDates = append(closedDates, l.Date)
		}
	}
	report.LongestStreak = longestClosedRun(closedDates)

	for _, d := range closedDates {
		if d > asOf {
			continue
		}
		if report.LastClosedDate == nil || d > *report.LastClosedDate {
			date := d
			report.LastClosedDate = &date
		}
	}

	if len(closedDates) == 0 {
		return report
	}

	earliest := closedDates[0]
	for _, d := range closedDates {
		if d < earliest {
			earliest = d
		}
	}

	capacity := 0
	if inv != nil {
		capacity = inv.Capacity(now)
	}

	cursor := asOf
	if !closed[cursor] {
		// The reference day itself may still be open; it is pending, not a
		// gap, so it neither counts nor consumes protection.
		cursor = domain.PrevDay(cursor)
	}

	type walked struct {
		date     string
		isClosed bool
	}
	var run []walked

walk:
	for cursor >= earliest {
		switch {
		case closed[cursor]:
			run = append(run, walked{cursor, true})
		case inv != nil && inv.IsCovered(cursor):
			run = append(run, walked{cursor, false})
		case capacity > 0:
			capacity--
			run = append(run, walked{cursor, false})
			report.GapDates = append(report.GapDates, cursor)
		default:
			break walk
		}
		cursor = domain.PrevDay(cursor)
	}

	// Protected days older than the oldest closed day bridge nothing; the
	// streak ends at recorded history, not at a freeze burned into the void.
	for len(run) > 0 && !run[len(run)-1].isClosed {
		dropped := run[len(run)-1]
		run = run[:len(run)-1]
		for i, g := range report.GapDates {
			if g == dropped.date {
				report.GapDates = append(report.GapDates[:i], report.GapDates[i+1:]...)
				break
			}
		}
	}

	report.CurrentStreak = len(run)
	sort.Strings(report.GapDates)

	return report
}

// longestClosedRun finds the longest run of consecutive closed days
// anywhere in the ledger.
func longestClosedRun(closedDates []string) int {
	if len(closedDates) == 0 {
		return 0
	}

	dates := append([]string(nil), closedDates...)
	sort.Strings(dates)

	longest := 1
	current := 1
	for i := 1; i < len(dates); i++ {
		if domain.DaysBetween(dates[i-1], dates[i]) == 1 {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
	}
	return longest
}

// CompletionRatios maps each active ledger date in [from, to] to its habit
// completion ratio, for calendar-level consumers.
func (s *StreakService) CompletionRatios(ctx context.Context, userID, from, to string) (map[string]float64, error) {
	if _, err := domain.ParseDay(from); err != nil {
		return nil, err
	}
	if _, err := domain.ParseDay(to); err != nil {
		return nil, err
	}

	logs, err := s.ledger.ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	ratios := make(map[string]float64, len(logs))
	for _, l := range logs {
		if l.SupersededAt != nil {
			continue
		}
		ratios[l.Date] = l.CompletionRatio()
	}
	return ratios, nil
}
