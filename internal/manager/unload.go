package manager

import (
	"context"
	"fmt"

	"tierd/internal/domain"
)

// Unload removes model id from its tier. With toStorage the model is cached in STORAGE
// instead of being dropped. Unloading a model that is not resident is an InvalidRequest.
// Like Load, the transition completes even if ctx ends first.
func (m *Manager) Unload(ctx context.Context, id string, toStorage bool) (Result, error) {
	res := Result{Action: ActionUnload, Model: id}
	e, err := m.entry(id)
	if err != nil {
		return failed(res, StatusFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return failed(res, StatusFailed, err)
	}
	if !e.tryAcquire() {
		return failed(res, StatusBusy, m.busy(id))
	}
	out, err := detach(ctx, func(ctx context.Context) loadOutcome {
		defer e.release()
		r, err := m.unload(ctx, e, toStorage)
		return loadOutcome{r, err}
	})
	if err != nil {
		return failed(res, StatusFailed, err)
	}
	return out.res, out.err
}

// unload runs with e's slot held.
func (m *Manager) unload(ctx context.Context, e *entry, toStorage bool) (Result, error) {
	start := m.now()
	id, size := e.model.ID, e.model.SizeBytes
	res := Result{Action: ActionUnload, Model: id, SizeBytes: size}
	finish := func(s Status, err error) (Result, error) {
		res.Duration = m.now().Sub(start)
		return failed(res, s, err)
	}

	prev, resident := m.placementOf(e)
	if !resident {
		return finish(StatusFailed, domain.ErrInvalidRequest("model %q is not resident", id))
	}
	res.PreviousTier = prev.Tier
	if toStorage {
		res.Tier = domain.TierStorage
		if prev.Tier == domain.TierStorage {
			return finish(StatusCached, nil)
		}
		if err := m.admit(e.model, domain.TierStorage); err != nil {
			return finish(StatusRejected, err)
		}
	}

	m.publish(Event{Name: EventUnloadStart, ModelID: id, Fields: map[string]any{"tier": string(prev.Tier), "to_storage": toStorage}})
	prevOp := m.setOp(e, StateUnloading)
	if toStorage {
		if err := m.transfer.Transfer(ctx, e.model, prev.Tier, domain.TierStorage); err != nil {
			m.tracker.Release(domain.TierStorage, size)
			m.setOp(e, prevOp)
			m.counters.failures.Add(1)
			m.publish(Event{Name: EventUnloadFailed, ModelID: id, Fields: map[string]any{"tier": string(prev.Tier), "error": err.Error()}})
			return finish(StatusFailed, fmt.Errorf("cache %s to storage: %w", id, err))
		}
	}

	m.mu.Lock()
	if toStorage {
		e.placement = &Placement{ModelID: id, Tier: domain.TierStorage, SizeBytes: size, LoadedAt: m.now(), LastAccess: prev.LastAccess}
	} else {
		e.placement = nil
	}
	e.op = prevOp
	m.mu.Unlock()
	m.tracker.Release(prev.Tier, size)
	m.counters.unloads.Add(1)

	status := StatusUnloaded
	if toStorage {
		status = StatusCached
	}
	res, err := finish(status, nil)
	m.publish(Event{Name: EventUnloadDone, ModelID: id, Fields: map[string]any{
		"tier": string(prev.Tier), "to_storage": toStorage, "duration_ms": res.Duration.Milliseconds(),
	}})
	return res, err
}
