package domain

import (
	"fmt"
	"strings"
)

// GiB is the unit the built-in library and most tier limits are expressed in.
const GiB int64 = 1 << 30

// Tier is one of the three capacity classes a model can reside in.
type Tier string

const (
	TierRAM     Tier = "ram"
	TierSwap    Tier = "swap"
	TierStorage Tier = "storage"
)

// Tiers lists every tier from fastest to coldest.
var Tiers = []Tier{TierRAM, TierSwap, TierStorage}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierRAM, TierSwap, TierStorage:
		return true
	default:
		return false
	}
}

// Bounded reports whether the tier enforces a capacity limit. STORAGE is unbounded.
func (t Tier) Bounded() bool { return t == TierRAM || t == TierSwap }

func (t Tier) String() string { return string(t) }

// ParseTier accepts "ram", "RAM", " Swap " and so on.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown tier %q", s)
	}
	return t, nil
}
