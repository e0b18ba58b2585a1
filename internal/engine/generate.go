package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tierd/internal/domain"
	"tierd/internal/llm"
	"tierd/internal/manager"
	"tierd/internal/selector"
	"tierd/pkg/types"
)

// plan is a validated generation request with its selection made.
type plan struct {
	mode   domain.ThinkingMode
	sel    selector.Result
	params llm.Params
}

func paramsOf(req types.GenerateRequest) llm.Params {
	return llm.Params{
		Temperature: float32(req.Temperature),
		TopP:        float32(req.TopP),
		TopK:        req.TopK,
		MaxTokens:   req.MaxTokens,
		Stop:        req.Stop,
		Seed:        int(req.Seed),
	}
}

func (e *Engine) plan(req types.GenerateRequest) (plan, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return plan{}, domain.ErrInvalidRequest("prompt is required")
	}
	if req.MaxTokens < 0 {
		return plan{}, domain.ErrInvalidRequest("max_tokens must be >= 0")
	}
	mode, prio, err := parseModes(req.ThinkingMode, req.Priority)
	if err != nil {
		return plan{}, err
	}
	sel, err := e.sel.Select(selector.Request{
		Prompt: req.Prompt, Model: strings.TrimSpace(req.Model), ThinkingMode: mode, Priority: prio,
	})
	if err != nil {
		return plan{}, err
	}
	return plan{mode: mode, sel: sel, params: paramsOf(req)}, nil
}

// ensureResident makes sure the selected model sits in RAM or SWAP. It never picks a
// different model or tier than the selection: if the load is rejected the error is
// returned as is.
func (e *Engine) ensureResident(ctx context.Context, sel selector.Result) (domain.Tier, bool, error) {
	if t, ok := e.mgr.ResidentTier(sel.Model); ok && t.Bounded() {
		_ = e.mgr.Touch(sel.Model)
		return t, false, nil
	}
	r, err := e.mgr.Load(ctx, sel.Model, sel.Tier)
	if err != nil {
		return "", false, err
	}
	return r.Tier, r.Status == manager.StatusLoaded, nil
}

func (e *Engine) run(ctx context.Context, p plan, prompt string, start time.Time) (types.GenerateResponse, error) {
	tier, loaded, err := e.ensureResident(ctx, p.sel)
	if err != nil {
		return types.GenerateResponse{}, err
	}
	m, err := e.cat.Lookup(p.sel.Model)
	if err != nil {
		return types.GenerateResponse{}, err
	}
	out, err := llm.Run(ctx, e.adapter, m, p.params, llm.ApplyThinking(p.mode, prompt))
	if err != nil {
		return types.GenerateResponse{}, err
	}
	resp := types.GenerateResponse{
		ID:            uuid.NewString(),
		Text:          out.Content,
		Model:         m.ID,
		ThinkingMode:  string(p.mode),
		Tier:          string(tier),
		ElapsedMS:     ms(time.Since(start)),
		TokenCount:    len(strings.Fields(out.Content)),
		Loaded:        loaded,
		Justification: p.sel.Justification,
		FinishReason:  out.FinishReason,
	}
	e.log.Debug().Str("id", resp.ID).Str("model", resp.Model).Str("tier", resp.Tier).
		Bool("loaded", loaded).Float64("elapsed_ms", resp.ElapsedMS).Msg("generate")
	return resp, nil
}

// Generate selects a model (or uses the one requested), makes it resident and runs the
// prompt through the adapter.
func (e *Engine) Generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResponse, error) {
	start := time.Now()
	p, err := e.plan(req)
	if err != nil {
		return types.GenerateResponse{}, err
	}
	return e.run(ctx, p, req.Prompt, start)
}

// BatchInference runs every prompt with the shared settings. Models are made resident
// one at a time first so concurrent generations never race for the same model's slot;
// generations then fan out with bounded concurrency. Per-prompt failures are reported
// in place and do not fail the batch.
func (e *Engine) BatchInference(ctx context.Context, req types.BatchRequest) (types.BatchResponse, error) {
	start := time.Now()
	if len(req.Prompts) == 0 {
		return types.BatchResponse{}, domain.ErrInvalidRequest("prompts must not be empty")
	}
	if len(req.Prompts) > e.maxN {
		return types.BatchResponse{}, domain.ErrInvalidRequest("batch of %d exceeds limit %d", len(req.Prompts), e.maxN)
	}
	if _, _, err := parseModes(req.ThinkingMode, req.Priority); err != nil {
		return types.BatchResponse{}, err
	}

	items := make([]types.BatchItem, len(req.Prompts))
	plans := make([]plan, len(req.Prompts))
	errs := make([]error, len(req.Prompts))
	loadErr := map[string]error{}
	for i, prompt := range req.Prompts {
		items[i].Index = i
		plans[i], errs[i] = e.plan(types.GenerateRequest{
			Prompt: prompt, ThinkingMode: req.ThinkingMode, Model: req.Model, Priority: req.Priority, MaxTokens: req.MaxTokens,
		})
		if errs[i] != nil {
			continue
		}
		id := plans[i].sel.Model
		if _, seen := loadErr[id]; !seen {
			_, _, loadErr[id] = e.ensureResident(ctx, plans[i].sel)
		}
		errs[i] = loadErr[id]
	}

	var g errgroup.Group
	g.SetLimit(e.batchN)
	for i := range items {
		if errs[i] != nil {
			continue
		}
		i := i
		g.Go(func() error {
			items[i].Result = new(types.GenerateResponse)
			*items[i].Result, errs[i] = e.run(ctx, plans[i], req.Prompts[i], start)
			return nil
		})
	}
	_ = g.Wait()

	resp := types.BatchResponse{Results: items}
	for i := range items {
		if errs[i] != nil {
			body := ErrorBody(errs[i])
			items[i].Result, items[i].Error = nil, &body
			resp.Failed++
			continue
		}
		resp.Succeeded++
	}
	resp.ElapsedMS = ms(time.Since(start))
	return resp, nil
}
