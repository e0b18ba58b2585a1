package manager

import (
	"time"

	"tierd/internal/domain"
)

// Defaults applied when corresponding ManagerConfig fields are unset. They match the
// edge host the manager was first sized for.
const (
	defaultRAMLimit    = 6 * domain.GiB
	defaultSwapLimit   = 7 * domain.GiB
	defaultRAMCeiling  = 3 * domain.GiB
	defaultSwapCeiling = 7 * domain.GiB
)

// Catalog is the read side of the model registry the manager needs.
type Catalog interface {
	List() []domain.Model
}

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Catalog Catalog

	RAMLimit  int64
	SwapLimit int64
	// Hard per-model ceilings. Zero for RAM/SWAP means the package default; negative
	// disables the ceiling. StorageCeiling zero means none.
	RAMCeiling     int64
	SwapCeiling    int64
	StorageCeiling int64

	// Transfer performs tier moves. Nil means instant.
	Transfer  Transferer
	Publisher EventPublisher
	// Now is the clock used for placement timestamps (tests).
	Now func() time.Time
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	if cfg.RAMLimit <= 0 {
		cfg.RAMLimit = defaultRAMLimit
	}
	if cfg.SwapLimit <= 0 {
		cfg.SwapLimit = defaultSwapLimit
	}
	ceilings := map[domain.Tier]int64{
		domain.TierRAM:     ceilingOrDefault(cfg.RAMCeiling, defaultRAMCeiling),
		domain.TierSwap:    ceilingOrDefault(cfg.SwapCeiling, defaultSwapCeiling),
		domain.TierStorage: max(cfg.StorageCeiling, 0),
	}
	tracker := NewTracker(map[domain.Tier]int64{
		domain.TierRAM:  cfg.RAMLimit,
		domain.TierSwap: cfg.SwapLimit,
	})
	m := &Manager{
		tracker:   tracker,
		validator: NewValidator(tracker, ceilings),
		transfer:  cfg.Transfer,
		publisher: cfg.Publisher,
		now:       cfg.Now,
		entries:   make(map[string]*entry),
	}
	if m.transfer == nil {
		m.transfer = SimulatedTransfer{}
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	if cfg.Catalog != nil {
		for _, mdl := range cfg.Catalog.List() {
			m.entries[mdl.ID] = newEntry(mdl)
			m.order = append(m.order, mdl.ID)
		}
	}
	m.startTime = m.now()
	return m
}

func ceilingOrDefault(v, def int64) int64 {
	switch {
	case v < 0:
		return 0
	case v == 0:
		return def
	default:
		return v
	}
}
