package manager

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"tierd/internal/domain"
)

// HotSwap unloads src (caching it to STORAGE when toStorage) and then loads dst into
// tier. Both per-model slots are held for the whole swap. A failed load after a
// successful unload is reported as a partial result; the source is not reloaded. The
// returned error covers only problems that prevented the swap from starting.
func (m *Manager) HotSwap(ctx context.Context, srcID, dstID string, tier domain.Tier, toStorage bool) (SwapResult, error) {
	if srcID == dstID {
		return SwapResult{}, domain.ErrInvalidRequest("source and target are the same model %q", srcID)
	}
	src, err := m.entry(srcID)
	if err != nil {
		return SwapResult{}, err
	}
	dst, err := m.entry(dstID)
	if err != nil {
		return SwapResult{}, err
	}
	if tier == "" {
		tier = dst.model.TierHint
	}
	if !tier.Valid() {
		return SwapResult{}, domain.ErrInvalidRequest("unknown tier %q", tier)
	}
	if err := ctx.Err(); err != nil {
		return SwapResult{}, err
	}
	if !src.tryAcquire() {
		return SwapResult{}, m.busy(srcID)
	}
	if !dst.tryAcquire() {
		src.release()
		return SwapResult{}, m.busy(dstID)
	}
	return detach(ctx, func(ctx context.Context) SwapResult {
		defer src.release()
		defer dst.release()
		return m.hotSwap(ctx, src, dst, tier, toStorage)
	})
}

func (m *Manager) hotSwap(ctx context.Context, src, dst *entry, tier domain.Tier, toStorage bool) SwapResult {
	start := m.now()
	out := SwapResult{ID: uuid.NewString()}

	m.mu.Lock()
	src.op, dst.op = StateHotSwapping, StateHotSwapping
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		src.op, dst.op = "", ""
		m.mu.Unlock()
	}()

	var err error
	out.Unloaded, err = m.unload(ctx, src, toStorage)
	if err != nil {
		out.Loaded = Result{
			Action: ActionLoad, Model: dst.model.ID, Tier: tier, SizeBytes: dst.model.SizeBytes,
			Status: StatusSkipped, Err: fmt.Errorf("skipped: unloading %s failed: %w", src.model.ID, err),
		}
	} else {
		out.Loaded, _ = m.load(ctx, dst, tier)
	}
	out.Duration = m.now().Sub(start)
	if out.Complete() {
		m.counters.swaps.Add(1)
	}
	m.publish(Event{Name: EventSwapDone, ModelID: dst.model.ID, Fields: map[string]any{
		"swap_id": out.ID, "source": src.model.ID, "tier": string(tier),
		"unloaded": string(out.Unloaded.Status), "loaded": string(out.Loaded.Status),
		"duration_ms": out.Duration.Milliseconds(),
	}})
	return out
}
