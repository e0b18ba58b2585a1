package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service. Load starts from Defaults, so a
// file only needs the keys it changes.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	// console or json
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	// Generation backend: template or llama.
	Backend      string `json:"backend" yaml:"backend" toml:"backend"`
	LlamaCtx     int    `json:"llama_ctx" yaml:"llama_ctx" toml:"llama_ctx"`
	LlamaThreads int    `json:"llama_threads" yaml:"llama_threads" toml:"llama_threads"`

	Tiers    Tiers    `json:"tiers" yaml:"tiers" toml:"tiers"`
	Transfer Transfer `json:"transfer" yaml:"transfer" toml:"transfer"`

	BatchConcurrency int `json:"batch_concurrency" yaml:"batch_concurrency" toml:"batch_concurrency"`
	MaxBatch         int `json:"max_batch" yaml:"max_batch" toml:"max_batch"`

	DisableBuiltinModels bool          `json:"disable_builtin_models" yaml:"disable_builtin_models" toml:"disable_builtin_models"`
	Models               []ModelConfig `json:"models" yaml:"models" toml:"models"`

	CORS         CORS     `json:"cors" yaml:"cors" toml:"cors"`
	MaxBodyBytes ByteSize `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
}

// TierConfig bounds one tier. Ceiling is the largest single model the tier admits.
type TierConfig struct {
	Limit   ByteSize `json:"limit" yaml:"limit" toml:"limit"`
	Ceiling ByteSize `json:"ceiling" yaml:"ceiling" toml:"ceiling"`
}

type Tiers struct {
	RAM     TierConfig `json:"ram" yaml:"ram" toml:"ram"`
	Swap    TierConfig `json:"swap" yaml:"swap" toml:"swap"`
	Storage TierConfig `json:"storage" yaml:"storage" toml:"storage"`
}

// Transfer is the simulated time to move one GiB into each tier.
type Transfer struct {
	RAMPerGiB     Duration `json:"ram_per_gib" yaml:"ram_per_gib" toml:"ram_per_gib"`
	SwapPerGiB    Duration `json:"swap_per_gib" yaml:"swap_per_gib" toml:"swap_per_gib"`
	StoragePerGiB Duration `json:"storage_per_gib" yaml:"storage_per_gib" toml:"storage_per_gib"`
}

// ModelConfig declares an extra catalog entry.
type ModelConfig struct {
	ID           string   `json:"id" yaml:"id" toml:"id"`
	Size         ByteSize `json:"size" yaml:"size" toml:"size"`
	Capabilities []string `json:"capabilities" yaml:"capabilities" toml:"capabilities"`
	Thinking     bool     `json:"thinking" yaml:"thinking" toml:"thinking"`
	Tier         string   `json:"tier" yaml:"tier" toml:"tier"`
	Path         string   `json:"path" yaml:"path" toml:"path"`
	Family       string   `json:"family" yaml:"family" toml:"family"`
}

type CORS struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
}

// Load reads a configuration file based on its extension on top of Defaults.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
