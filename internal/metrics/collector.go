// Package metrics exposes tier occupancy and manager lifecycle events to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"tierd/internal/manager"
)

const namespace = "tierd"

// SnapshotSource is satisfied by *manager.Manager.
type SnapshotSource interface {
	Status() manager.Snapshot
}

// TierCollector reads a fresh snapshot on every scrape, so gauges never lag the tracker.
type TierCollector struct {
	src SnapshotSource

	used      *prometheus.Desc
	limit     *prometheus.Desc
	ceiling   *prometheus.Desc
	residents *prometheus.Desc
	inflight  *prometheus.Desc
	ops       *prometheus.Desc
	uptime    *prometheus.Desc
}

func NewTierCollector(src SnapshotSource) *TierCollector {
	return &TierCollector{
		src:       src,
		used:      prometheus.NewDesc(namespace+"_tier_used_bytes", "Bytes reserved in the tier.", []string{"tier"}, nil),
		limit:     prometheus.NewDesc(namespace+"_tier_limit_bytes", "Capacity of the tier; 0 when unbounded.", []string{"tier"}, nil),
		ceiling:   prometheus.NewDesc(namespace+"_tier_ceiling_bytes", "Largest single model the tier admits; 0 when disabled.", []string{"tier"}, nil),
		residents: prometheus.NewDesc(namespace+"_tier_residents", "Models resident in the tier.", []string{"tier"}, nil),
		inflight:  prometheus.NewDesc(namespace+"_transitions_in_flight", "Models currently mid-transition.", nil, nil),
		ops:       prometheus.NewDesc(namespace+"_manager_operations_total", "Manager outcomes by kind.", []string{"outcome"}, nil),
		uptime:    prometheus.NewDesc(namespace+"_uptime_seconds", "Seconds since the manager was built.", nil, nil),
	}
}

func (c *TierCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{c.used, c.limit, c.ceiling, c.residents, c.inflight, c.ops, c.uptime} {
		ch <- d
	}
}

func (c *TierCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Status()
	for _, t := range s.Tiers {
		tier := string(t.Tier)
		ch <- prometheus.MustNewConstMetric(c.used, prometheus.GaugeValue, float64(t.Used), tier)
		ch <- prometheus.MustNewConstMetric(c.limit, prometheus.GaugeValue, float64(t.Limit), tier)
		ch <- prometheus.MustNewConstMetric(c.ceiling, prometheus.GaugeValue, float64(t.Ceiling), tier)
		ch <- prometheus.MustNewConstMetric(c.residents, prometheus.GaugeValue, float64(len(t.Residents)), tier)
	}
	ch <- prometheus.MustNewConstMetric(c.inflight, prometheus.GaugeValue, float64(len(s.InFlight)))
	for outcome, v := range map[string]uint64{
		"load":      s.Counters.Loads,
		"unload":    s.Counters.Unloads,
		"rejection": s.Counters.Rejections,
		"swap":      s.Counters.Swaps,
		"busy":      s.Counters.Busy,
		"failure":   s.Counters.Failures,
	} {
		ch <- prometheus.MustNewConstMetric(c.ops, prometheus.CounterValue, float64(v), outcome)
	}
	ch <- prometheus.MustNewConstMetric(c.uptime, prometheus.GaugeValue, s.Uptime.Seconds())
}
