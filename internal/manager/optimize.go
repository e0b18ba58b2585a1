package manager

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"tierd/internal/domain"
)

// Strategy selects how Optimize rebalances residents.
type Strategy string

const (
	// StrategyAggressive keeps only the most recently used RAM/SWAP resident and caches
	// every other one to STORAGE.
	StrategyAggressive Strategy = "aggressive"
	// StrategyBalanced promotes SWAP residents to RAM when they are admitted there and
	// caches the rest to STORAGE.
	StrategyBalanced Strategy = "balanced"
	// StrategyConservative changes nothing and only reports usage.
	StrategyConservative Strategy = "conservative"
)

func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StrategyBalanced, nil
	case StrategyAggressive, StrategyBalanced, StrategyConservative:
		return st, nil
	default:
		return "", domain.ErrInvalidRequest("unknown optimization strategy %q", s)
	}
}

// OptimizeReport lists every transition Optimize attempted, successful or not.
type OptimizeReport struct {
	Strategy Strategy
	Actions  []Result
	Before   map[domain.Tier]Usage
	After    map[domain.Tier]Usage
}

// Freed returns how many bytes tier lost between Before and After.
func (r OptimizeReport) Freed(tier domain.Tier) int64 {
	return r.Before[tier].Used - r.After[tier].Used
}

// Optimize rebalances residents according to strategy. It is only ever run on request;
// the manager never evicts on its own. Individual transitions that fail (including Busy)
// are recorded in the report and do not stop the run.
func (m *Manager) Optimize(ctx context.Context, strategy Strategy) (OptimizeReport, error) {
	rep := OptimizeReport{Strategy: strategy, Before: m.usageAll()}
	var err error
	switch strategy {
	case StrategyAggressive:
		err = m.optimizeAggressive(ctx, &rep)
	case StrategyBalanced:
		err = m.optimizeBalanced(ctx, &rep)
	case StrategyConservative:
	default:
		return rep, domain.ErrInvalidRequest("unknown optimization strategy %q", strategy)
	}
	rep.After = m.usageAll()
	m.publish(Event{Name: EventOptimize, Fields: map[string]any{
		"strategy": string(strategy), "actions": len(rep.Actions),
		"freed_ram": rep.Freed(domain.TierRAM), "freed_swap": rep.Freed(domain.TierSwap),
	}})
	return rep, err
}

func (m *Manager) optimizeAggressive(ctx context.Context, rep *OptimizeReport) error {
	residents := m.residentsIn(domain.TierRAM, domain.TierSwap)
	for i, p := range residents {
		if i == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		r, _ := m.Unload(ctx, p.ModelID, true)
		rep.Actions = append(rep.Actions, r)
	}
	return nil
}

func (m *Manager) optimizeBalanced(ctx context.Context, rep *OptimizeReport) error {
	for _, p := range m.residentsIn(domain.TierSwap) {
		if err := ctx.Err(); err != nil {
			return err
		}
		var r Result
		if err := m.Validate(p.ModelID, domain.TierRAM); err == nil {
			r, _ = m.Load(ctx, p.ModelID, domain.TierRAM)
		} else {
			r, _ = m.Unload(ctx, p.ModelID, true)
		}
		rep.Actions = append(rep.Actions, r)
	}
	return nil
}

// residentsIn returns placements in the given tiers, most recently used first.
func (m *Manager) residentsIn(tiers ...domain.Tier) []Placement {
	want := map[domain.Tier]bool{}
	for _, t := range tiers {
		want[t] = true
	}
	m.mu.RLock()
	var out []Placement
	for _, id := range m.order {
		if p := m.entries[id].placement; p != nil && want[p.Tier] {
			out = append(out, *p)
		}
	}
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastAccess.After(out[j].LastAccess) })
	return out
}

func (m *Manager) usageAll() map[domain.Tier]Usage {
	out := make(map[domain.Tier]Usage, len(domain.Tiers))
	for _, t := range domain.Tiers {
		out[t] = m.tracker.Usage(t)
	}
	return out
}

// String renders the report for logs and the CLI.
func (r OptimizeReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d action(s)", r.Strategy, len(r.Actions))
	for _, a := range r.Actions {
		fmt.Fprintf(&b, "; %s %s -> %s", a.Action, a.Model, a.Status)
	}
	return b.String()
}
