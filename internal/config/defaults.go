package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tierd/internal/domain"
)

// Defaults returns the configuration used when no file is given. Tier limits match the
// edge host the built-in model library was sized for.
func Defaults() Config {
	return Config{
		Addr:         ":8080",
		LogLevel:     "info",
		LogFormat:    "console",
		Backend:      "template",
		LlamaCtx:     2048,
		LlamaThreads: 4,
		Tiers: Tiers{
			RAM:  TierConfig{Limit: ByteSize(6 * domain.GiB), Ceiling: ByteSize(3 * domain.GiB)},
			Swap: TierConfig{Limit: ByteSize(7 * domain.GiB), Ceiling: ByteSize(7 * domain.GiB)},
		},
		Transfer: Transfer{
			RAMPerGiB:  Duration(100 * time.Millisecond),
			SwapPerGiB: Duration(500 * time.Millisecond),
		},
		BatchConcurrency: 4,
		MaxBatch:         64,
		MaxBodyBytes:     ByteSize(1 << 20),
	}
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.Tiers.RAM.Limit <= 0 {
		errs = append(errs, errors.New("tiers.ram.limit must be > 0"))
	}
	if c.Tiers.Swap.Limit <= 0 {
		errs = append(errs, errors.New("tiers.swap.limit must be > 0"))
	}
	for name, tc := range map[string]TierConfig{"ram": c.Tiers.RAM, "swap": c.Tiers.Swap, "storage": c.Tiers.Storage} {
		if tc.Ceiling < 0 {
			errs = append(errs, fmt.Errorf("tiers.%s.ceiling must be >= 0", name))
		}
	}
	switch c.Backend {
	case "", "template", "llama":
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	if c.BatchConcurrency < 0 || c.MaxBatch < 0 {
		errs = append(errs, errors.New("batch settings must be >= 0"))
	}
	if _, err := c.ToModels(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ToModels converts the configured extra models into catalog entries.
func (c Config) ToModels() ([]domain.Model, error) {
	out := make([]domain.Model, 0, len(c.Models))
	for i, mc := range c.Models {
		id := strings.TrimSpace(mc.ID)
		if id == "" {
			return nil, fmt.Errorf("models[%d]: id is required", i)
		}
		if mc.Size <= 0 {
			return nil, fmt.Errorf("models[%d] %s: size must be > 0", i, id)
		}
		tier := domain.TierRAM
		if mc.Tier != "" {
			t, err := domain.ParseTier(mc.Tier)
			if err != nil {
				return nil, fmt.Errorf("models[%d] %s: %w", i, id, err)
			}
			tier = t
		}
		caps := mc.Capabilities
		if len(caps) == 0 {
			caps = []string{"text-generation"}
		}
		out = append(out, domain.Model{
			ID:              id,
			SizeBytes:       int64(mc.Size),
			Capabilities:    caps,
			ThinkingCapable: mc.Thinking,
			TierHint:        tier,
			Path:            mc.Path,
			Family:          mc.Family,
		})
	}
	return out, nil
}

// TransferRates maps each tier to its per-GiB transfer time.
func (c Config) TransferRates() map[domain.Tier]time.Duration {
	return map[domain.Tier]time.Duration{
		domain.TierRAM:     c.Transfer.RAMPerGiB.Std(),
		domain.TierSwap:    c.Transfer.SwapPerGiB.Std(),
		domain.TierStorage: c.Transfer.StoragePerGiB.Std(),
	}
}
