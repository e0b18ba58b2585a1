package manager

// Event represents a manager lifecycle event.
// Minimal and stable: name + model ID and optional fields via key/values.
type Event struct {
	Name    string
	ModelID string
	Fields  map[string]any
}

// Event names published by the manager.
const (
	EventLoadStart    = "load_start"
	EventLoadDone     = "load_done"
	EventLoadFailed   = "load_failed"
	EventRejected     = "rejected"
	EventUnloadStart  = "unload_start"
	EventUnloadDone   = "unload_done"
	EventUnloadFailed = "unload_failed"
	EventSwapDone     = "hot_swap_done"
	EventBusy         = "busy"
	EventOptimize     = "optimize_done"
)

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// MultiPublisher fans an event out to every publisher in order.
type MultiPublisher []EventPublisher

func (mp MultiPublisher) Publish(e Event) {
	for _, p := range mp {
		if p != nil {
			p.Publish(e)
		}
	}
}

// publish must never be called while holding m.mu.
func (m *Manager) publish(e Event) {
	if e.Fields == nil {
		e.Fields = map[string]any{}
	}
	m.publisher.Publish(e)
}
