package manager

import (
	"sync"
	"sync/atomic"
	"time"

	"tierd/internal/domain"
)

type Manager struct {
	tracker   *Tracker
	validator *Validator
	transfer  Transferer
	publisher EventPublisher
	now       func() time.Time

	// mu guards entry.placement and entry.op. It is never held across a transfer or
	// while publishing.
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string

	startTime time.Time
	counters  counters
}

type counters struct {
	loads      atomic.Uint64
	unloads    atomic.Uint64
	rejections atomic.Uint64
	swaps      atomic.Uint64
	busy       atomic.Uint64
	failures   atomic.Uint64
}

// Counters is a point-in-time copy of the lifecycle counters.
type Counters struct {
	Loads      uint64
	Unloads    uint64
	Rejections uint64
	Swaps      uint64
	Busy       uint64
	Failures   uint64
}

// New builds a manager over cat with the given RAM and SWAP limits and default ceilings.
func New(cat Catalog, ramLimit, swapLimit int64) *Manager {
	// Delegate to NewWithConfig to centralize defaults
	return NewWithConfig(ManagerConfig{
		Catalog:   cat,
		RAMLimit:  ramLimit,
		SwapLimit: swapLimit,
	})
}

// SetEventPublisher replaces the publisher. Not safe to call concurrently with transitions.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	m.publisher = p
}

// Ready reports whether the manager has at least one model it can place.
func (m *Manager) Ready() bool { return len(m.entries) > 0 }

// Ceiling returns the hard per-model ceiling of tier (0 = none).
func (m *Manager) Ceiling(tier domain.Tier) int64 { return m.validator.Ceiling(tier) }

// Usage returns the tracker view of tier.
func (m *Manager) Usage(tier domain.Tier) Usage { return m.tracker.Usage(tier) }

// Validate runs the safety validator without reserving anything.
func (m *Manager) Validate(id string, tier domain.Tier) error {
	e, err := m.entry(id)
	if err != nil {
		return err
	}
	return m.validator.Validate(e.model, tier)
}

// Uptime since construction.
func (m *Manager) Uptime() time.Duration { return m.now().Sub(m.startTime) }

// Counters returns the lifecycle counters.
func (m *Manager) Counters() Counters {
	return Counters{
		Loads:      m.counters.loads.Load(),
		Unloads:    m.counters.unloads.Load(),
		Rejections: m.counters.rejections.Load(),
		Swaps:      m.counters.swaps.Load(),
		Busy:       m.counters.busy.Load(),
		Failures:   m.counters.failures.Load(),
	}
}

func (m *Manager) entry(id string) (*entry, error) {
	if id == "" {
		return nil, domain.ErrInvalidRequest("model id is required")
	}
	e, ok := m.entries[id]
	if !ok {
		return nil, domain.ErrUnknownModel(id)
	}
	return e, nil
}

// placementOf returns a copy of e's placement.
func (m *Manager) placementOf(e *entry) (Placement, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e.placement == nil {
		return Placement{}, false
	}
	return *e.placement, true
}

// setOp marks e as in transition and returns the previous op so it can be restored.
func (m *Manager) setOp(e *entry, s State) State {
	m.mu.Lock()
	prev := e.op
	e.op = s
	m.mu.Unlock()
	return prev
}

func (m *Manager) busy(id string) error {
	m.counters.busy.Add(1)
	m.publish(Event{Name: EventBusy, ModelID: id})
	return domain.ErrBusy(id)
}
