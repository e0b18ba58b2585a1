package types

// Model describes one catalog entry.
type Model struct {
	// Stable identifier for the model.
	// example: gpt2-small
	ID string `json:"id" example:"gpt2-small"`
	// In-memory footprint in bytes.
	// example: 536870912
	SizeBytes int64 `json:"size_bytes" example:"536870912"`
	// Human-readable footprint.
	// example: 512 MiB
	Size string `json:"size" example:"512 MiB"`
	// Capability tags.
	// example: ["text-generation","fast"]
	Capabilities []string `json:"capabilities"`
	// Whether the model may serve future/strategic thinking modes.
	// example: false
	ThinkingCapable bool `json:"thinking_capable" example:"false"`
	// Default tier preference.
	// example: ram
	TierHint string `json:"tier_hint" example:"ram"`
	// Optional family (e.g., gpt2, llama).
	// example: gpt2
	Family string `json:"family,omitempty" example:"gpt2"`
	// Absolute path to the artifact, when known.
	Path string `json:"path,omitempty"`
}

// ModelInfo is a catalog entry plus its current residency.
type ModelInfo struct {
	Model
	// Lifecycle state: unloaded, loading, resident, unloading, hot_swapping.
	// example: resident
	State string `json:"state" example:"resident"`
	// True when the model is placed in any tier, STORAGE included.
	// example: true
	Loaded bool `json:"loaded" example:"true"`
	// Tier the model currently lives in; empty when unloaded.
	// example: ram
	Tier string `json:"tier,omitempty" example:"ram"`
	// Load time (unix seconds), when resident.
	LoadedAt int64 `json:"loaded_at_unix,omitempty"`
	// Last access (unix seconds), when resident.
	LastAccess int64 `json:"last_access_unix,omitempty"`
}
