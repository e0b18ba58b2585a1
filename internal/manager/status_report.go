package manager

import (
	"sort"
	"time"

	"tierd/internal/domain"
)

// TierStatus is the per-tier part of a Snapshot. Used includes bytes reserved by
// transitions still in flight.
type TierStatus struct {
	Tier      domain.Tier
	Used      int64
	Limit     int64
	Ceiling   int64
	Residents []string
}

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	Tiers      []TierStatus
	Placements []Placement
	// InFlight maps model id to its transition state for models mid-operation.
	InFlight map[string]State
	Counters Counters
	Uptime   time.Duration
}

// Tier returns the status of t, or a zero value.
func (s Snapshot) Tier(t domain.Tier) TierStatus {
	for _, ts := range s.Tiers {
		if ts.Tier == t {
			return ts
		}
	}
	return TierStatus{Tier: t}
}

// Status builds the tier snapshot. It only takes short read locks and never waits on a
// transfer.
func (m *Manager) Status() Snapshot {
	snap := Snapshot{InFlight: map[string]State{}, Counters: m.Counters(), Uptime: m.Uptime()}
	residents := map[domain.Tier][]string{}

	m.mu.RLock()
	for _, id := range m.order {
		e := m.entries[id]
		if e.op != "" {
			snap.InFlight[id] = e.op
		}
		if e.placement != nil {
			snap.Placements = append(snap.Placements, *e.placement)
			residents[e.placement.Tier] = append(residents[e.placement.Tier], id)
		}
	}
	m.mu.RUnlock()

	for _, t := range domain.Tiers {
		u := m.tracker.Usage(t)
		ids := residents[t]
		sort.Strings(ids)
		if ids == nil {
			ids = []string{}
		}
		snap.Tiers = append(snap.Tiers, TierStatus{
			Tier: t, Used: u.Used, Limit: u.Limit, Ceiling: m.validator.Ceiling(t), Residents: ids,
		})
	}
	return snap
}

// Residency reports the current state and placement of id.
func (m *Manager) Residency(id string) (Residency, error) {
	e, err := m.entry(id)
	if err != nil {
		return Residency{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r := Residency{ModelID: id, State: e.stateLocked()}
	if p := e.placement; p != nil {
		r.Tier, r.LoadedAt, r.LastAccess = p.Tier, p.LoadedAt, p.LastAccess
	}
	return r, nil
}

// ResidentTier returns the tier id currently lives in.
func (m *Manager) ResidentTier(id string) (domain.Tier, bool) {
	e, ok := m.entries[id]
	if !ok {
		return "", false
	}
	p, ok := m.placementOf(e)
	return p.Tier, ok
}

// Touch records an access of a resident model. It is a no-op for models that are not
// resident.
func (m *Manager) Touch(id string) error {
	e, err := m.entry(id)
	if err != nil {
		return err
	}
	m.touchEntry(e)
	return nil
}

func (m *Manager) touchEntry(e *entry) {
	now := m.now()
	m.mu.Lock()
	if e.placement != nil {
		e.placement.LastAccess = now
	}
	m.mu.Unlock()
}
