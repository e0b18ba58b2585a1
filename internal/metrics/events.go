package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"tierd/internal/manager"
)

// EventCounter is a manager.EventPublisher that counts events and records transition
// durations.
type EventCounter struct {
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewEventCounter() *EventCounter {
	return &EventCounter{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "manager",
			Name:      "events_total",
			Help:      "Manager lifecycle events by name and tier.",
		}, []string{"event", "tier"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "manager",
			Name:      "transition_duration_seconds",
			Help:      "Wall time of completed loads, unloads and swaps.",
			Buckets:   []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"event", "tier"}),
	}
}

func (c *EventCounter) Publish(e manager.Event) {
	tier, _ := e.Fields["tier"].(string)
	c.events.WithLabelValues(e.Name, tier).Inc()
	if ms, ok := e.Fields["duration_ms"].(int64); ok {
		c.duration.WithLabelValues(e.Name, tier).Observe(float64(ms) / 1000)
	}
}

// Register adds the event metrics and a TierCollector over src to reg.
func Register(reg prometheus.Registerer, src SnapshotSource, ec *EventCounter) error {
	for _, c := range []prometheus.Collector{NewTierCollector(src), ec.events, ec.duration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
