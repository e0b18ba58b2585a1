package manager

import (
	"context"
	"testing"

	"tierd/internal/domain"
)

func TestOptimizeAggressiveKeepsMostRecent(t *testing.T) {
	m, pub := newBuiltinManager(t, nil)
	mustLoad(t, m, "gpt2-small", domain.TierRAM)
	mustLoad(t, m, "gpt2-medium", domain.TierRAM)
	mustLoad(t, m, "llama-7b", domain.TierSwap)
	if err := m.Touch("gpt2-small"); err != nil {
		t.Fatal(err)
	}

	rep, err := m.Optimize(context.Background(), StrategyAggressive)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Actions) != 2 {
		t.Fatalf("actions=%v", rep.Actions)
	}
	if tier, _ := m.ResidentTier("gpt2-small"); tier != domain.TierRAM {
		t.Fatalf("most recent resident moved: %s", tier)
	}
	for _, id := range []string{"gpt2-medium", "llama-7b"} {
		if tier, _ := m.ResidentTier(id); tier != domain.TierStorage {
			t.Fatalf("%s should be cached, got %q", id, tier)
		}
	}
	if rep.Freed(domain.TierSwap) != 7*domain.GiB || rep.Freed(domain.TierRAM) != 3*domain.GiB/2 {
		t.Fatalf("freed ram=%d swap=%d", rep.Freed(domain.TierRAM), rep.Freed(domain.TierSwap))
	}
	names := pub.Names()
	if names[len(names)-1] != EventOptimize {
		t.Fatalf("optimize event missing: %v", names)
	}
}

func TestOptimizeBalancedPromotesOrCaches(t *testing.T) {
	m, _ := newBuiltinManager(t, nil)
	mustLoad(t, m, "gpt2-small", domain.TierSwap)
	mustLoad(t, m, "gpt-j-6b", domain.TierSwap)

	rep, err := m.Optimize(context.Background(), StrategyBalanced)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Actions) != 2 {
		t.Fatalf("actions=%v", rep)
	}
	if tier, _ := m.ResidentTier("gpt2-small"); tier != domain.TierRAM {
		t.Fatalf("gpt2-small should be promoted, got %q", tier)
	}
	// gpt-j-6b is above the RAM ceiling and can only be cached.
	if tier, _ := m.ResidentTier("gpt-j-6b"); tier != domain.TierStorage {
		t.Fatalf("gpt-j-6b should be cached, got %q", tier)
	}
	if m.Usage(domain.TierSwap).Used != 0 {
		t.Fatalf("swap should be empty: %+v", m.Usage(domain.TierSwap))
	}
}

func TestOptimizeConservativeNoop(t *testing.T) {
	m, _ := newBuiltinManager(t, nil)
	mustLoad(t, m, "gpt2-small", domain.TierSwap)
	rep, err := m.Optimize(context.Background(), StrategyConservative)
	if err != nil || len(rep.Actions) != 0 {
		t.Fatalf("rep=%v err=%v", rep, err)
	}
	if rep.Before[domain.TierSwap] != rep.After[domain.TierSwap] {
		t.Fatalf("conservative changed usage")
	}
}

func TestParseStrategy(t *testing.T) {
	if s, err := ParseStrategy(""); err != nil || s != StrategyBalanced {
		t.Fatalf("default: %q %v", s, err)
	}
	if s, err := ParseStrategy(" Aggressive "); err != nil || s != StrategyAggressive {
		t.Fatalf("aggressive: %q %v", s, err)
	}
	if _, err := ParseStrategy("yolo"); !domain.IsInvalidRequest(err) {
		t.Fatalf("expected InvalidRequest, got %v", err)
	}
	m, _ := newBuiltinManager(t, nil)
	if _, err := m.Optimize(context.Background(), "yolo"); !domain.IsInvalidRequest(err) {
		t.Fatalf("expected InvalidRequest, got %v", err)
	}
}
