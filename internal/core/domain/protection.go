package domain

import (
	"errors"
	"sort"
	"time"
)

var (
	ErrNegativeFreezes   = errors.New("freeze count cannot be negative")
	ErrUnknownShieldTier = errors.New("unknown shield tier")
)

const (
	// MaxFreezes caps the stockpile of earned freezes.
	MaxFreezes = 3
	// FreezeEarnInterval awards one freeze per this many consecutive closed days.
	FreezeEarnInterval = 7
)

// StreakShield is streak insurance bought as a side-channel event. It covers
// up to MaxUses gap days until ExpiresAt, then deactivates itself.
type StreakShield struct {
	Active       bool       `json:"active"`
	PurchaseDate *time.Time `json:"purchase_date,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	UsedCount    int        `json:"used_count"`
	MaxUses      int        `json:"max_uses"`
}

// Refresh deactivates a shield that is expired or exhausted. It must run on
// every inventory read so stale shields never look active downstream.
func (s *StreakShield) Refresh(now time.Time) {
	if !s.Active {
		return
	}
	if s.UsedCount >= s.MaxUses {
		s.Active = false
		return
	}
	if s.ExpiresAt != nil && now.After(*s.ExpiresAt) {
		s.Active = false
	}
}

// RemainingUses reports how many gap days the shield can still cover at the
// given instant, after refresh.
func (s *StreakShield) RemainingUses(now time.Time) int {
	s.Refresh(now)
	if !s.Active {
		return 0
	}
	return s.MaxUses - s.UsedCount
}

// ShieldTier is a purchasable shield configuration.
type ShieldTier struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Price        int    `json:"price"`
	DurationDays int    `json:"duration_days"`
	MaxUses      int    `json:"max_uses"`
}

// ShieldTiers lists the purchasable shield configurations.
var ShieldTiers = []ShieldTier{
	{ID: "basic", Name: "Basic Shield", Price: 50, DurationDays: 7, MaxUses: 1},
	{ID: "premium", Name: "Premium Shield", Price: 120, DurationDays: 14, MaxUses: 2},
	{ID: "ultimate", Name: "Ultimate Shield", Price: 250, DurationDays: 30, MaxUses: 5},
}

func ShieldTierByID(id string) (ShieldTier, error) {
	for _, t := range ShieldTiers {
		if t.ID == id {
			return t, nil
		}
	}
	return ShieldTier{}, ErrUnknownShieldTier
}

// ProtectionInventory holds the two protection currencies plus the record of
// gap days already bridged. CoveredDates is what makes protection
// application idempotent per date: a date in the list is never paid for
// twice. This is side-channel state the ledger cannot reconstruct.
type ProtectionInventory struct {
	FreezesAvailable int          `json:"freezes_available"`
	Shield           StreakShield `json:"shield"`
	CoveredDates     []string     `json:"covered_dates"`
}

func NewProtectionInventory() *ProtectionInventory {
	return &ProtectionInventory{
		Shield: StreakShield{MaxUses: 1},
	}
}

// IsCovered reports whether a gap date was already bridged.
func (p *ProtectionInventory) IsCovered(date string) bool {
	for _, d := range p.CoveredDates {
		if d == date {
			return true
		}
	}
	return false
}

// MarkCovered records a bridged date, keeping the list sorted and unique.
func (p *ProtectionInventory) MarkCovered(date string) {
	if p.IsCovered(date) {
		return
	}
	p.CoveredDates = append(p.CoveredDates, date)
	sort.Strings(p.CoveredDates)
}

// AddFreezes accumulates freezes; purchases always add, never replace.
func (p *ProtectionInventory) AddFreezes(n int) error {
	if n < 0 {
		return ErrNegativeFreezes
	}
	p.FreezesAvailable += n
	return nil
}

// ActivateShield replaces any existing shield with a fresh one from the
// given tier. Shields never stack.
func (p *ProtectionInventory) ActivateShield(tier ShieldTier, now time.Time) {
	expires := now.AddDate(0, 0, tier.DurationDays)
	p.Shield = StreakShield{
		Active:       true,
		PurchaseDate: &now,
		ExpiresAt:    &expires,
		MaxUses:      tier.MaxUses,
	}
}

// Capacity is the total number of gap days coverable right now:
// freezes plus remaining shield uses.
func (p *ProtectionInventory) Capacity(now time.Time) int {
	return p.FreezesAvailable + p.Shield.RemainingUses(now)
}

// ProtectionResult reports the outcome of one protection application.
type ProtectionResult struct {
	CoveredDates   []string `json:"covered_dates"`
	UncoveredDates []string `json:"uncovered_dates"`
	FreezesUsed    int      `json:"freezes_used"`
	ShieldUsesUsed int      `json:"shield_uses_used"`
}
