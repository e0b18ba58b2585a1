package manager

import (
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"

	"tierd/internal/domain"
)

// Usage is the bookkeeping view of one tier. Limit 0 on STORAGE means unbounded.
type Usage struct {
	Used  int64
	Limit int64
}

// Free returns the remaining capacity, or -1 when the tier is unbounded.
func (u Usage) Free() int64 {
	if u.Limit <= 0 {
		return -1
	}
	return u.Limit - u.Used
}

type tierAccount struct {
	mu      sync.Mutex
	bounded bool
	used    int64
	limit   int64
}

func (a *tierAccount) fits(size int64) bool {
	return !a.bounded || a.used+size <= a.limit
}

// Tracker is the Tier Capacity Tracker. Each tier has its own lock, so Reserve's
// check-then-commit is atomic with respect to every other Reserve/Release on that tier.
type Tracker struct {
	tiers map[domain.Tier]*tierAccount
}

// NewTracker creates a tracker with the given limits for RAM and SWAP. STORAGE is always
// unbounded regardless of what limits contains.
func NewTracker(limits map[domain.Tier]int64) *Tracker {
	t := &Tracker{tiers: make(map[domain.Tier]*tierAccount, len(domain.Tiers))}
	for _, tier := range domain.Tiers {
		a := &tierAccount{bounded: tier.Bounded()}
		if a.bounded {
			a.limit = limits[tier]
		}
		t.tiers[tier] = a
	}
	return t
}

// Usage returns used and limit for tier; unknown tiers report zero.
func (t *Tracker) Usage(tier domain.Tier) Usage {
	a, ok := t.tiers[tier]
	if !ok {
		return Usage{}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return Usage{Used: a.used, Limit: a.limit}
}

// WouldFit reports whether size bytes fit in tier right now. It is a pure check; the
// answer may be stale by the time the caller acts on it, which is why Reserve re-checks.
func (t *Tracker) WouldFit(tier domain.Tier, size int64) bool {
	a, ok := t.tiers[tier]
	if !ok {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fits(size)
}

// Reserve commits size bytes to tier if, and only if, they fit.
func (t *Tracker) Reserve(tier domain.Tier, size int64) error {
	a, ok := t.tiers[tier]
	if !ok {
		return domain.ErrInvalidRequest("unknown tier %q", tier)
	}
	if size < 0 {
		return domain.ErrInvalidRequest("negative reservation %d", size)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.fits(size) {
		return domain.ErrInsufficientCapacity("", tier, fmt.Sprintf("need %s, %s of %s free",
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(a.limit-a.used)), humanize.IBytes(uint64(a.limit))))
	}
	a.used += size
	return nil
}

// Release returns size bytes to tier. Used never drops below zero.
func (t *Tracker) Release(tier domain.Tier, size int64) {
	a, ok := t.tiers[tier]
	if !ok || size <= 0 {
		return
	}
	a.mu.Lock()
	a.used -= size
	if a.used < 0 {
		a.used = 0
	}
	a.mu.Unlock()
}
