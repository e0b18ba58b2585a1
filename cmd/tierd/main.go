package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tierd/internal/config"
	"tierd/internal/httpapi"
)

// envOr returns the environment value for key, or def when unset.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

type flags struct {
	configPath  string
	addr        string
	modelsDir   string
	logLevel    string
	logFormat   string
	backend     string
	ramLimit    string
	swapLimit   string
	corsOrigins string
	timeout     time.Duration
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "tierd",
		Short: "Tiered model memory manager and inference server",
		Long: `tierd keeps a catalog of inference models resident across RAM, SWAP and STORAGE
tiers, selects a model per request and serves generation over HTTP.

Environment Variables:
  TIERD_CONFIG      Config file (.yaml, .json or .toml)
  TIERD_ADDR        Listen address (default :8080)
  TIERD_MODELS_DIR  Directory scanned for *.gguf models
  TIERD_LOG_LEVEL   debug, info, warn or error
  TIERD_ACCESS_LOG  Per-request access log level (off, error, info, debug)`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, f.timeout)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", envOr("TIERD_CONFIG", ""), "Config file path")
	fl.StringVar(&f.addr, "addr", envOr("TIERD_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	fl.StringVar(&f.modelsDir, "models-dir", envOr("TIERD_MODELS_DIR", ""), "Directory to scan for *.gguf model files")
	fl.StringVar(&f.logLevel, "log-level", envOr("TIERD_LOG_LEVEL", "info"), "Log level")
	fl.StringVar(&f.logFormat, "log-format", envOr("TIERD_LOG_FORMAT", "console"), "Log format: console or json")
	fl.StringVar(&f.backend, "backend", envOr("TIERD_BACKEND", "template"), "Generation backend: template or llama")
	fl.StringVar(&f.ramLimit, "ram-limit", "", "RAM tier capacity, e.g. 6GiB")
	fl.StringVar(&f.swapLimit, "swap-limit", "", "SWAP tier capacity, e.g. 7GiB")
	fl.StringVar(&f.corsOrigins, "cors-origins", envOr("TIERD_CORS_ORIGINS", ""), "Comma-separated allowed CORS origins; enables CORS")
	fl.DurationVar(&f.timeout, "request-timeout", 0, "Deadline for generate, batch and manage requests (0 disables)")
	return cmd
}

// resolveConfig layers defaults, the config file, then explicitly set flags and env.
func resolveConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	cfg := config.Defaults()
	if f.configPath != "" {
		c, err := config.Load(f.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}
	fl := cmd.Flags()
	override := func(name, env string) bool { return fl.Changed(name) || os.Getenv(env) != "" }
	if override("addr", "TIERD_ADDR") || cfg.Addr == "" {
		cfg.Addr = f.addr
	}
	if override("models-dir", "TIERD_MODELS_DIR") {
		cfg.ModelsDir = f.modelsDir
	}
	if override("log-level", "TIERD_LOG_LEVEL") {
		cfg.LogLevel = f.logLevel
	}
	if override("log-format", "TIERD_LOG_FORMAT") {
		cfg.LogFormat = f.logFormat
	}
	if override("backend", "TIERD_BACKEND") {
		cfg.Backend = f.backend
	}
	for _, b := range []struct {
		val string
		dst *config.ByteSize
	}{{f.ramLimit, &cfg.Tiers.RAM.Limit}, {f.swapLimit, &cfg.Tiers.Swap.Limit}} {
		if b.val == "" {
			continue
		}
		if err := b.dst.UnmarshalText([]byte(b.val)); err != nil {
			return cfg, err
		}
	}
	if origins := splitCSV(f.corsOrigins); len(origins) > 0 {
		cfg.CORS = config.CORS{Enabled: true, Origins: origins}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		lvl = zerolog.InfoLevel
	}
	var l zerolog.Logger
	if strings.EqualFold(cfg.LogFormat, "json") {
		l = zerolog.New(os.Stderr)
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return l.Level(lvl).With().Timestamp().Str("svc", "tierd").Logger()
}

func serve(parent context.Context, cfg config.Config, timeout time.Duration) error {
	log := newLogger(cfg)
	a, err := buildApp(cfg, log, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	httpapi.SetBaseContext(ctx)
	httpapi.SetRequestTimeout(timeout)

	srv := &http.Server{Addr: cfg.Addr, Handler: a.handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Int("models", a.models).Str("backend", cfg.Backend).
			Str("ram_limit", cfg.Tiers.RAM.Limit.String()).Str("swap_limit", cfg.Tiers.Swap.Limit.String()).
			Msg("tierd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	log.Info().Msg("tierd stopped")
	return nil
}

func main() {
	// .env.local overrides .env; both are optional.
	for _, f := range []string{".env.local", ".env"} {
		_ = godotenv.Load(f)
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
