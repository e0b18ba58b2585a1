// Package engine is the facade every transport talks to. It validates requests, asks the
// selector where a request should run, drives the tier manager and converts results to
// the wire types in pkg/types.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tierd/internal/catalog"
	"tierd/internal/domain"
	"tierd/internal/llm"
	"tierd/internal/manager"
	"tierd/internal/selector"
	"tierd/pkg/types"
)

const (
	defaultBatchConcurrency = 4
	defaultMaxBatch         = 64
)

// Config wires the engine's collaborators. Catalog and Manager are required.
type Config struct {
	Catalog *catalog.Catalog
	Manager *manager.Manager
	// Adapter generates text; nil means the template adapter.
	Adapter llm.Adapter
	Backend string
	// BatchConcurrency bounds parallel generations in BatchInference.
	BatchConcurrency int
	MaxBatch         int
	Logger           zerolog.Logger
}

type Engine struct {
	cat     *catalog.Catalog
	mgr     *manager.Manager
	sel     *selector.Selector
	adapter llm.Adapter
	backend string
	batchN  int
	maxN    int
	log     zerolog.Logger
	now     func() time.Time
}

func New(cfg Config) (*Engine, error) {
	if cfg.Catalog == nil || cfg.Manager == nil {
		return nil, fmt.Errorf("engine: catalog and manager are required")
	}
	e := &Engine{
		cat:     cfg.Catalog,
		mgr:     cfg.Manager,
		adapter: cfg.Adapter,
		backend: cfg.Backend,
		batchN:  cfg.BatchConcurrency,
		maxN:    cfg.MaxBatch,
		log:     cfg.Logger,
		now:     time.Now,
	}
	e.sel = selector.New(cfg.Catalog, selector.WithResidency(cfg.Manager), selector.WithLimits(cfg.Manager))
	if e.adapter == nil {
		e.adapter = llm.TemplateAdapter{}
		e.backend = llm.BackendTemplate
	}
	if e.backend == "" {
		e.backend = llm.BackendTemplate
	}
	if e.batchN <= 0 {
		e.batchN = defaultBatchConcurrency
	}
	if e.maxN <= 0 {
		e.maxN = defaultMaxBatch
	}
	return e, nil
}

// Ready reports whether the engine can serve requests.
func (e *Engine) Ready() bool { return e.mgr.Ready() }

// Manager exposes the tier manager for metrics collectors.
func (e *Engine) Manager() *manager.Manager { return e.mgr }

func parseModes(mode, prio string) (domain.ThinkingMode, domain.Priority, error) {
	m, err := domain.ParseThinkingMode(mode)
	if err != nil {
		return "", "", domain.ErrInvalidRequest("%v", err)
	}
	p, err := domain.ParsePriority(prio)
	if err != nil {
		return "", "", domain.ErrInvalidRequest("%v", err)
	}
	return m, p, nil
}

func parseOptionalTier(s string) (domain.Tier, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	t, err := domain.ParseTier(s)
	if err != nil {
		return "", domain.ErrInvalidRequest("%v", err)
	}
	return t, nil
}

// ListModels returns every catalog entry.
func (e *Engine) ListModels() types.ModelsResponse {
	models := e.cat.List()
	out := types.ModelsResponse{Models: make([]types.Model, 0, len(models))}
	for _, m := range models {
		out.Models = append(out.Models, toModel(m))
	}
	return out
}

// GetModelInfo returns the catalog entry for id plus its residency.
func (e *Engine) GetModelInfo(id string) (types.ModelInfo, error) {
	m, err := e.cat.Lookup(strings.TrimSpace(id))
	if err != nil {
		return types.ModelInfo{}, err
	}
	r, err := e.mgr.Residency(m.ID)
	if err != nil {
		return types.ModelInfo{}, err
	}
	return types.ModelInfo{
		Model:      toModel(m),
		State:      string(r.State),
		Loaded:     r.Tier != "",
		Tier:       string(r.Tier),
		LoadedAt:   unix(r.LoadedAt),
		LastAccess: unix(r.LastAccess),
	}, nil
}

// SelectOptimalModel runs the selector without loading anything.
func (e *Engine) SelectOptimalModel(req types.SelectRequest) (types.Selection, error) {
	mode, prio, err := parseModes(req.ThinkingMode, req.Priority)
	if err != nil {
		return types.Selection{}, err
	}
	tier, err := parseOptionalTier(req.TargetTier)
	if err != nil {
		return types.Selection{}, err
	}
	r, err := e.sel.Select(selector.Request{
		Prompt: req.Prompt, Model: strings.TrimSpace(req.Model), ThinkingMode: mode, Priority: prio, TargetTier: tier,
	})
	if err != nil {
		return types.Selection{}, err
	}
	return toSelection(r), nil
}

// GetMemoryStatus returns the tier snapshot.
func (e *Engine) GetMemoryStatus() types.MemoryStatus { return toMemory(e.mgr.Status()) }

// ManageModelLoading dispatches load, unload, status and hot_swap.
func (e *Engine) ManageModelLoading(ctx context.Context, req types.ManageRequest) (types.ManageResponse, error) {
	action := strings.ToLower(strings.TrimSpace(req.Action))
	resp := types.ManageResponse{Action: action}
	id := strings.TrimSpace(req.Model)
	switch action {
	case "status":
		mem := e.GetMemoryStatus()
		resp.Memory = &mem
		return resp, nil
	case "load":
		tier, err := parseOptionalTier(req.ForceTier)
		if err != nil {
			return resp, err
		}
		if id == "" {
			return resp, domain.ErrInvalidRequest("model is required for load")
		}
		r, err := e.mgr.Load(ctx, id, tier)
		res := toResult(r)
		resp.Result = &res
		return resp, err
	case "unload":
		if id == "" {
			return resp, domain.ErrInvalidRequest("model is required for unload")
		}
		r, err := e.mgr.Unload(ctx, id, req.ToStorage)
		res := toResult(r)
		resp.Result = &res
		return resp, err
	case "hot_swap", "hot-swap", "hotswap":
		resp.Action = "hot_swap"
		sw, err := e.HotSwapModels(ctx, types.HotSwapRequest{
			Source: id, Target: req.TargetModel, TargetTier: req.ForceTier, ToStorage: req.ToStorage,
		})
		if err != nil {
			return resp, err
		}
		resp.Swap = &sw
		return resp, nil
	default:
		return resp, domain.ErrInvalidRequest("unknown action %q (want load, unload, status or hot_swap)", req.Action)
	}
}

// HotSwapModels replaces Source with Target. Partial completion is reported in the
// response, not as an error.
func (e *Engine) HotSwapModels(ctx context.Context, req types.HotSwapRequest) (types.HotSwapResponse, error) {
	src, dst := strings.TrimSpace(req.Source), strings.TrimSpace(req.Target)
	if src == "" || dst == "" {
		return types.HotSwapResponse{}, domain.ErrInvalidRequest("source and target models are required")
	}
	tier, err := parseOptionalTier(req.TargetTier)
	if err != nil {
		return types.HotSwapResponse{}, err
	}
	r, err := e.mgr.HotSwap(ctx, src, dst, tier, req.ToStorage)
	if err != nil {
		return types.HotSwapResponse{}, err
	}
	e.log.Info().Str("swap_id", r.ID).Str("source", src).Str("target", dst).
		Str("unloaded", string(r.Unloaded.Status)).Str("loaded", string(r.Loaded.Status)).Msg("hot swap")
	return toSwap(r), nil
}

// CreateAgentSession acknowledges a session. Session state is kept by the caller.
func (e *Engine) CreateAgentSession(req types.SessionRequest) (types.SessionResponse, error) {
	sid := strings.TrimSpace(req.SessionID)
	if sid == "" {
		return types.SessionResponse{}, domain.ErrInvalidRequest("session_id is required")
	}
	model := strings.TrimSpace(req.Model)
	if model != "" {
		if _, err := e.cat.Lookup(model); err != nil {
			return types.SessionResponse{}, err
		}
	}
	return types.SessionResponse{SessionID: sid, Model: model, Status: "created", CreatedAt: e.now().Unix()}, nil
}

// GetSystemStatus reports overall health.
func (e *Engine) GetSystemStatus() types.SystemStatus {
	snap := e.mgr.Status()
	loaded := 0
	for _, p := range snap.Placements {
		if p.Tier.Bounded() {
			loaded++
		}
	}
	modes := make([]string, 0, len(domain.ThinkingModes))
	for _, m := range domain.ThinkingModes {
		modes = append(modes, string(m))
	}
	status := "healthy"
	if !e.Ready() {
		status = "degraded"
	}
	c := snap.Counters
	return types.SystemStatus{
		Status:          status,
		Ready:           e.Ready(),
		AvailableModels: e.cat.Len(),
		LoadedModels:    loaded,
		ThinkingModes:   modes,
		Backend:         e.backend,
		UptimeSeconds:   snap.Uptime.Seconds(),
		Counters: map[string]uint64{
			"loads": c.Loads, "unloads": c.Unloads, "rejections": c.Rejections,
			"swaps": c.Swaps, "busy": c.Busy, "failures": c.Failures,
		},
		Memory: toMemory(snap),
	}
}

// OptimizeMemory runs a rebalancing strategy on request.
func (e *Engine) OptimizeMemory(ctx context.Context, req types.OptimizeRequest) (types.OptimizeResponse, error) {
	st, err := manager.ParseStrategy(req.Strategy)
	if err != nil {
		return types.OptimizeResponse{}, err
	}
	rep, err := e.mgr.Optimize(ctx, st)
	if err != nil {
		return types.OptimizeResponse{}, err
	}
	out := types.OptimizeResponse{
		Strategy:   string(rep.Strategy),
		Actions:    make([]types.OperationResult, 0, len(rep.Actions)),
		FreedBytes: map[string]int64{},
		Memory:     e.GetMemoryStatus(),
	}
	for _, a := range rep.Actions {
		out.Actions = append(out.Actions, toResult(a))
	}
	for _, t := range domain.Tiers {
		out.FreedBytes[string(t)] = rep.Freed(t)
	}
	e.log.Info().Str("report", rep.String()).Msg("optimize")
	return out, nil
}
