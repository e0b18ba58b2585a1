package manager

import (
	"context"
	"time"

	"tierd/internal/domain"
)

// Transferer moves a model's bytes between tiers. from is empty for a cold load.
// Implementations may block; the manager never cancels a transfer mid-flight.
type Transferer interface {
	Transfer(ctx context.Context, m domain.Model, from, to domain.Tier) error
}

// TransferFunc adapts a function to Transferer.
type TransferFunc func(ctx context.Context, m domain.Model, from, to domain.Tier) error

func (f TransferFunc) Transfer(ctx context.Context, m domain.Model, from, to domain.Tier) error {
	return f(ctx, m, from, to)
}

// SimulatedTransfer sleeps proportionally to model size. Rates are per GiB moved into the
// destination tier; a zero rate is instant.
type SimulatedTransfer struct {
	Rates map[domain.Tier]time.Duration
}

// DefaultTransferRates mirror the edge host the manager was sized for.
func DefaultTransferRates() map[domain.Tier]time.Duration {
	return map[domain.Tier]time.Duration{
		domain.TierRAM:     100 * time.Millisecond,
		domain.TierSwap:    500 * time.Millisecond,
		domain.TierStorage: 0,
	}
}

func (s SimulatedTransfer) Transfer(ctx context.Context, m domain.Model, from, to domain.Tier) error {
	d := s.duration(m.SizeBytes, to)
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s SimulatedTransfer) duration(size int64, to domain.Tier) time.Duration {
	rate := s.Rates[to]
	if rate <= 0 || size <= 0 {
		return 0
	}
	return time.Duration(float64(rate) * float64(size) / float64(domain.GiB))
}
