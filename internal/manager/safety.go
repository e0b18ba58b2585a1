package manager

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"tierd/internal/domain"
)

// Validator is the Safety Validator: it decides admission before any capacity is
// committed. A ceiling of 0 means the tier has no hard ceiling.
type Validator struct {
	tracker  *Tracker
	ceilings map[domain.Tier]int64
}

func NewValidator(tracker *Tracker, ceilings map[domain.Tier]int64) *Validator {
	c := make(map[domain.Tier]int64, len(ceilings))
	for k, v := range ceilings {
		c[k] = v
	}
	return &Validator{tracker: tracker, ceilings: c}
}

// Ceiling returns the hard per-model ceiling for tier (0 = none).
func (v *Validator) Ceiling(tier domain.Tier) int64 { return v.ceilings[tier] }

// Validate admits or rejects placing m into tier. ExceedsTierCeiling is permanent for
// that tier; InsufficientCapacity may clear once something is unloaded.
func (v *Validator) Validate(m domain.Model, tier domain.Tier) error {
	if !tier.Valid() {
		return domain.ErrInvalidRequest("unknown tier %q", tier)
	}
	if c := v.ceilings[tier]; c > 0 && m.SizeBytes > c {
		return domain.ErrExceedsTierCeiling(m.ID, tier, fmt.Sprintf("size %s above %s ceiling %s",
			humanize.IBytes(uint64(m.SizeBytes)), tier, humanize.IBytes(uint64(c))))
	}
	if !v.tracker.WouldFit(tier, m.SizeBytes) {
		u := v.tracker.Usage(tier)
		return domain.ErrInsufficientCapacity(m.ID, tier, fmt.Sprintf("need %s, %s of %s free",
			humanize.IBytes(uint64(m.SizeBytes)), humanize.IBytes(uint64(u.Limit-u.Used)), humanize.IBytes(uint64(u.Limit))))
	}
	return nil
}
