package manager

import (
	"context"
	"fmt"

	"tierd/internal/domain"
)

type loadOutcome struct {
	res Result
	err error
}

// Load places model id into tier (empty tier means the model's hint). Admission runs
// before anything is committed; a rejection leaves the model untouched. Loading a model
// already resident in another tier relocates it. If ctx ends before the transfer
// finishes, Load returns ctx.Err() and the load still completes.
func (m *Manager) Load(ctx context.Context, id string, tier domain.Tier) (Result, error) {
	res := Result{Action: ActionLoad, Model: id, Tier: tier}
	e, err := m.entry(id)
	if err != nil {
		return failed(res, StatusFailed, err)
	}
	if tier == "" {
		tier = e.model.TierHint
		res.Tier = tier
	}
	if !tier.Valid() {
		return failed(res, StatusFailed, domain.ErrInvalidRequest("unknown tier %q", tier))
	}
	if err := ctx.Err(); err != nil {
		return failed(res, StatusFailed, err)
	}
	if !e.tryAcquire() {
		return failed(res, StatusBusy, m.busy(id))
	}
	out, err := detach(ctx, func(ctx context.Context) loadOutcome {
		defer e.release()
		r, err := m.load(ctx, e, tier)
		return loadOutcome{r, err}
	})
	if err != nil {
		return failed(res, StatusFailed, err)
	}
	return out.res, out.err
}

func failed(res Result, s Status, err error) (Result, error) {
	res.Status = s
	res.Err = err
	return res, err
}

// load runs with e's slot held.
func (m *Manager) load(ctx context.Context, e *entry, tier domain.Tier) (Result, error) {
	start := m.now()
	id, size := e.model.ID, e.model.SizeBytes
	res := Result{Action: ActionLoad, Model: id, Tier: tier, SizeBytes: size}
	finish := func(s Status, err error) (Result, error) {
		res.Duration = m.now().Sub(start)
		return failed(res, s, err)
	}

	prev, resident := m.placementOf(e)
	if resident {
		res.PreviousTier = prev.Tier
		if prev.Tier == tier {
			m.touchEntry(e)
			return finish(StatusAlreadyLoaded, nil)
		}
	}
	if err := m.admit(e.model, tier); err != nil {
		return finish(StatusRejected, err)
	}

	m.publish(Event{Name: EventLoadStart, ModelID: id, Fields: map[string]any{"tier": string(tier), "from": string(prev.Tier)}})
	prevOp := m.setOp(e, StateLoading)
	if err := m.transfer.Transfer(ctx, e.model, prev.Tier, tier); err != nil {
		m.tracker.Release(tier, size)
		m.setOp(e, prevOp)
		m.counters.failures.Add(1)
		m.publish(Event{Name: EventLoadFailed, ModelID: id, Fields: map[string]any{"tier": string(tier), "error": err.Error()}})
		return finish(StatusFailed, fmt.Errorf("load %s into %s: %w", id, tier, err))
	}

	now := m.now()
	m.mu.Lock()
	e.placement = &Placement{ModelID: id, Tier: tier, SizeBytes: size, LoadedAt: now, LastAccess: now}
	e.op = prevOp
	m.mu.Unlock()
	if resident {
		m.tracker.Release(prev.Tier, size)
	}
	m.counters.loads.Add(1)
	res, err := finish(StatusLoaded, nil)
	m.publish(Event{Name: EventLoadDone, ModelID: id, Fields: map[string]any{
		"tier": string(tier), "from": string(prev.Tier), "size_bytes": size, "duration_ms": res.Duration.Milliseconds(),
	}})
	return res, err
}

// admit validates and reserves in one step. On success the caller owns size bytes of tier.
func (m *Manager) admit(mdl domain.Model, tier domain.Tier) error {
	err := m.validator.Validate(mdl, tier)
	if err == nil {
		err = withModel(m.tracker.Reserve(tier, mdl.SizeBytes), mdl.ID)
	}
	if err != nil {
		m.counters.rejections.Add(1)
		m.publish(Event{Name: EventRejected, ModelID: mdl.ID, Fields: map[string]any{
			"tier": string(tier), "kind": string(domain.KindOf(err)), "reason": err.Error(),
		}})
	}
	return err
}
