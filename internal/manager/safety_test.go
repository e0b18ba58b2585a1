package manager

import (
	"testing"

	"tierd/internal/domain"
)

func TestValidatorCeilingRejectsEvenWhenTierEmpty(t *testing.T) {
	tr := NewTracker(map[domain.Tier]int64{domain.TierRAM: 100 * domain.GiB})
	v := NewValidator(tr, map[domain.Tier]int64{domain.TierRAM: 3 * domain.GiB})
	big := domain.Model{ID: "gpt-j-6b", SizeBytes: 6 * domain.GiB}

	err := v.Validate(big, domain.TierRAM)
	if !domain.IsExceedsTierCeiling(err) {
		t.Fatalf("expected ExceedsTierCeiling on empty tier, got %v", err)
	}
	if tr.Usage(domain.TierRAM).Used != 0 {
		t.Fatalf("validation must not reserve")
	}
}

func TestValidatorCeilingCheckedBeforeCapacity(t *testing.T) {
	tr := NewTracker(map[domain.Tier]int64{domain.TierRAM: 4})
	v := NewValidator(tr, map[domain.Tier]int64{domain.TierRAM: 3})
	if err := tr.Reserve(domain.TierRAM, 4); err != nil {
		t.Fatal(err)
	}
	// Too big for the ceiling and for the remaining space: the permanent reason wins.
	if err := v.Validate(domain.Model{ID: "x", SizeBytes: 5}, domain.TierRAM); !domain.IsExceedsTierCeiling(err) {
		t.Fatalf("expected ExceedsTierCeiling, got %v", err)
	}
	if err := v.Validate(domain.Model{ID: "y", SizeBytes: 2}, domain.TierRAM); !domain.IsInsufficientCapacity(err) {
		t.Fatalf("expected InsufficientCapacity, got %v", err)
	}
}

func TestValidatorAdmits(t *testing.T) {
	tr := NewTracker(map[domain.Tier]int64{domain.TierRAM: 10, domain.TierSwap: 10})
	v := NewValidator(tr, map[domain.Tier]int64{domain.TierRAM: 5})
	cases := []struct {
		tier domain.Tier
		size int64
		ok   bool
	}{
		{domain.TierRAM, 5, true},
		{domain.TierRAM, 6, false},
		{domain.TierSwap, 10, true}, // no ceiling configured
		{domain.TierStorage, 1 << 40, true},
		{"gpu", 1, false},
	}
	for _, c := range cases {
		err := v.Validate(domain.Model{ID: "m", SizeBytes: c.size}, c.tier)
		if (err == nil) != c.ok {
			t.Errorf("Validate(%d, %s) = %v, want ok=%v", c.size, c.tier, err, c.ok)
		}
	}
	if v.Ceiling(domain.TierSwap) != 0 {
		t.Fatalf("unset ceiling should report 0")
	}
}
