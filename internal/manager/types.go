package manager

import (
	"time"

	"tierd/internal/domain"
)

// State is the lifecycle state of a single model.
type State string

const (
	StateUnloaded    State = "unloaded"
	StateLoading     State = "loading"
	StateResident    State = "resident"
	StateUnloading   State = "unloading"
	StateHotSwapping State = "hot_swapping"
)

// Placement records where a model currently lives. There is at most one per model.
type Placement struct {
	ModelID    string
	Tier       domain.Tier
	SizeBytes  int64
	LoadedAt   time.Time
	LastAccess time.Time
}

// Action names the transition a Result describes.
type Action string

const (
	ActionLoad   Action = "load"
	ActionUnload Action = "unload"
)

// Status is the outcome of one transition.
type Status string

const (
	StatusLoaded        Status = "loaded"
	StatusAlreadyLoaded Status = "already_loaded"
	StatusUnloaded      Status = "unloaded"
	StatusCached        Status = "cached" // resident in STORAGE after an unload
	StatusRejected      Status = "rejected"
	StatusFailed        Status = "failed"
	StatusSkipped       Status = "skipped"
	StatusBusy          Status = "busy"
)

// OK reports whether the transition left the model where the caller asked.
func (s Status) OK() bool {
	switch s {
	case StatusLoaded, StatusAlreadyLoaded, StatusUnloaded, StatusCached:
		return true
	}
	return false
}

// Result describes one load or unload. Err is set for every non-OK status.
type Result struct {
	Action       Action
	Model        string
	Status       Status
	Tier         domain.Tier
	PreviousTier domain.Tier
	SizeBytes    int64
	Duration     time.Duration
	Err          error
}

// SwapResult carries both halves of a hot-swap. A rejected load after a successful
// unload is a partial completion, not a rollback.
type SwapResult struct {
	ID       string
	Unloaded Result
	Loaded   Result
	Duration time.Duration
}

// Complete reports whether both halves succeeded.
func (r SwapResult) Complete() bool { return r.Unloaded.Status.OK() && r.Loaded.Status.OK() }

// Residency is the per-model view reported by Residency and Status.
type Residency struct {
	ModelID    string
	State      State
	Tier       domain.Tier // empty unless resident
	LoadedAt   time.Time
	LastAccess time.Time
}

// entry is the per-model bookkeeping record. Entries are created in New and the map
// holding them is never mutated afterwards; placement and op are guarded by Manager.mu.
type entry struct {
	model     domain.Model
	slot      chan struct{} // size 1: single in-flight transition
	placement *Placement
	op        State
}

func newEntry(m domain.Model) *entry {
	return &entry{model: m, slot: make(chan struct{}, 1)}
}

// tryAcquire takes the per-model slot without blocking.
func (e *entry) tryAcquire() bool {
	select {
	case e.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

func (e *entry) release() { <-e.slot }

// stateLocked derives the public state. Caller holds Manager.mu.
func (e *entry) stateLocked() State {
	if e.op != "" {
		return e.op
	}
	if e.placement != nil {
		return StateResident
	}
	return StateUnloaded
}
