package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"tierd/internal/catalog"
	"tierd/internal/config"
	"tierd/internal/domain"
	"tierd/internal/engine"
	"tierd/internal/httpapi"
	"tierd/internal/llm"
	"tierd/internal/manager"
	"tierd/internal/metrics"
)

type app struct {
	engine  *engine.Engine
	handler http.Handler
	models  int
}

// buildCatalog merges the built-in library, configured models and scanned artifacts.
// Earlier sources win on id collisions.
func buildCatalog(cfg config.Config, log zerolog.Logger) (*catalog.Catalog, error) {
	var models []domain.Model
	if !cfg.DisableBuiltinModels {
		models = append(models, catalog.Builtin()...)
	}
	extra, err := cfg.ToModels()
	if err != nil {
		return nil, err
	}
	models = append(models, extra...)
	if cfg.ModelsDir != "" {
		ceiling := int64(cfg.Tiers.RAM.Ceiling)
		if ceiling == 0 {
			ceiling = int64(config.Defaults().Tiers.RAM.Ceiling)
		}
		scanned, err := catalog.ScanDir(cfg.ModelsDir, ceiling)
		if err != nil {
			log.Warn().Err(err).Str("dir", cfg.ModelsDir).Msg("model scan failed")
		}
		models = append(models, scanned...)
	}
	seen := make(map[string]bool, len(models))
	uniq := models[:0]
	for _, m := range models {
		if seen[m.ID] {
			log.Warn().Str("model", m.ID).Msg("duplicate model id ignored")
			continue
		}
		seen[m.ID] = true
		uniq = append(uniq, m)
	}
	return catalog.New(uniq...)
}

func buildApp(cfg config.Config, log zerolog.Logger, reg prometheus.Registerer) (*app, error) {
	cat, err := buildCatalog(cfg, log)
	if err != nil {
		return nil, err
	}
	events := metrics.NewEventCounter()
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Catalog:        cat,
		RAMLimit:       int64(cfg.Tiers.RAM.Limit),
		SwapLimit:      int64(cfg.Tiers.Swap.Limit),
		RAMCeiling:     int64(cfg.Tiers.RAM.Ceiling),
		SwapCeiling:    int64(cfg.Tiers.Swap.Ceiling),
		StorageCeiling: int64(cfg.Tiers.Storage.Ceiling),
		Transfer:       manager.SimulatedTransfer{Rates: cfg.TransferRates()},
		Publisher: manager.MultiPublisher{
			manager.NewLogPublisher(log.With().Str("component", "manager").Logger()),
			events,
		},
	})
	if err := metrics.Register(reg, mgr, events); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	adapter, err := llm.New(cfg.Backend, cfg.LlamaCtx, cfg.LlamaThreads)
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(engine.Config{
		Catalog:          cat,
		Manager:          mgr,
		Adapter:          adapter,
		Backend:          cfg.Backend,
		BatchConcurrency: cfg.BatchConcurrency,
		MaxBatch:         cfg.MaxBatch,
		Logger:           log.With().Str("component", "engine").Logger(),
	})
	if err != nil {
		return nil, err
	}

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetMaxBodyBytes(int64(cfg.MaxBodyBytes))
	httpapi.SetCORSOptions(cfg.CORS.Enabled, cfg.CORS.Origins, nil, nil)
	return &app{engine: eng, handler: httpapi.NewMux(eng), models: cat.Len()}, nil
}
