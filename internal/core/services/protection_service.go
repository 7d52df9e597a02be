package services

import (
	"context"
	"sort"
	"time"

	"github.com/Ivan200915/discipline-engine/internal/core/domain"
)

// ProtectionService owns the freeze/shield inventory. Consumption order is
// fixed: freezes first, then shield uses, one currency per gap day, earliest
// gap first. Application is idempotent per date.
type ProtectionService struct {
	state domain.StateRepository
	now   func() time.Time
}

func NewProtectionService(state domain.StateRepository) *ProtectionService {
	return &ProtectionService{
		state: state,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Apply consumes protection for the given gap dates. Dates already covered
// are reported as covered without consuming anything. When capacity runs
// out, remaining dates come back uncovered and the streak is considered
// broken at the first of them.
func (s *ProtectionService) Apply(ctx context.Context, userID string, gapDates []string) (*domain.ProtectionInventory, *domain.ProtectionResult, error) {
	for _, d := range gapDates {
		if _, err := domain.ParseDay(d); err != nil {
			return nil, nil, err
		}
	}

	inv, err := s.state.GetProtection(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	// Stale shields must drop out even when this call consumes nothing.
	inv.Shield.Refresh(now)

	dates := uniqueSorted(gapDates)
	result := &domain.ProtectionResult{
		CoveredDates:   []string{},
		UncoveredDates: []string{},
	}

	for _, date := range dates {
		if inv.IsCovered(date) {
			result.CoveredDates = append(result.CoveredDates, date)
			continue
		}

		switch {
		case inv.FreezesAvailable > 0:
			inv.FreezesAvailable--
			result.FreezesUsed++
		case inv.Shield.RemainingUses(now) > 0:
			inv.Shield.UsedCount++
			inv.Shield.Refresh(now)
			result.ShieldUsesUsed++
		default:
			result.UncoveredDates = append(result.UncoveredDates, date)
			continue
		}

		inv.MarkCovered(date)
		result.CoveredDates = append(result.CoveredDates, date)
	}

	if err := s.state.SaveProtection(ctx, userID, inv); err != nil {
		return nil, nil, err
	}

	return inv, result, nil
}

// Status returns the inventory with stale shields already deactivated.
func (s *ProtectionService) Status(ctx context.Context, userID string) (*domain.ProtectionInventory, error) {
	inv, err := s.state.GetProtection(ctx, userID)
	if err != nil {
		return nil, err
	}

	before := inv.Shield.Active
	inv.Shield.Refresh(s.now())
	if before && !inv.Shield.Active {
		if err := s.state.SaveProtection(ctx, userID, inv); err != nil {
			return nil, err
		}
	}

	return inv, nil
}

// PurchaseShield activates a fresh shield from the named tier, replacing
// any existing one. Shields never stack.
func (s *ProtectionService) PurchaseShield(ctx context.Context, userID, tierID string) (*domain.ProtectionInventory, error) {
	tier, err := domain.ShieldTierByID(tierID)
	if err != nil {
		return nil, err
	}

	inv, err := s.state.GetProtection(ctx, userID)
	if err != nil {
		return nil, err
	}

	inv.ActivateShield(tier, s.now())

	if err := s.state.SaveProtection(ctx, userID, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// PurchaseFreezes adds freezes to the stockpile.
func (s *ProtectionService) PurchaseFreezes(ctx context.Context, userID string, count int) (*domain.ProtectionInventory, error) {
	inv, err := s.state.GetProtection(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := inv.AddFreezes(count); err != nil {
		return nil, err
	}

	if err := s.state.SaveProtection(ctx, userID, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// EarnFreeze awards one freeze for every full week of streak, capped at
// MaxFreezes. Returns true when a freeze was actually granted.
func (s *ProtectionService) EarnFreeze(ctx context.Context, userID string, currentStreak int) (bool, error) {
	if currentStreak <= 0 || currentStreak%domain.FreezeEarnInterval != 0 {
		return false, nil
	}

	inv, err := s.state.GetProtection(ctx, userID)
	if err != nil {
		return false, err
	}

	if inv.FreezesAvailable >= domain.MaxFreezes {
		return false, nil
	}

	inv.FreezesAvailable++
	if err := s.state.SaveProtection(ctx, userID, inv); err != nil {
		return false, err
	}
	return true, nil
}

func uniqueSorted(dates []string) []string {
	seen := make(map[string]bool, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}
