package types

// GenerateRequest represents a generation request payload.
type GenerateRequest struct {
	// Required prompt text.
	// example: Plan a three-day trip to Kyoto.
	Prompt string `json:"prompt" example:"Plan a three-day trip to Kyoto."`
	// Thinking mode: immediate (default), future or strategic.
	// example: strategic
	ThinkingMode string `json:"thinking_mode,omitempty" example:"strategic"`
	// Optional model identifier. If empty, the selector chooses.
	// example: gpt2-small
	Model string `json:"model,omitempty" example:"gpt2-small"`
	// Selection priority when no model is given: speed, quality or balanced (default).
	// example: balanced
	Priority string `json:"priority,omitempty" example:"balanced"`
	// Maximum number of new tokens to generate.
	// example: 128
	MaxTokens int `json:"max_tokens,omitempty" example:"128"`
	// Sampling temperature (higher = more random).
	// example: 0.7
	Temperature float64 `json:"temperature,omitempty" example:"0.7"`
	TopP        float64 `json:"top_p,omitempty" example:"0.9"`
	TopK        int     `json:"top_k,omitempty" example:"40"`
	// Optional stop sequences.
	Stop []string `json:"stop,omitempty"`
	Seed int64    `json:"seed,omitempty"`
}

// GenerateResponse is the result of one generation.
type GenerateResponse struct {
	// Response id.
	// example: 3f1c1f0e-5d1e-4a36-9d55-0c7f1f0c2b0a
	ID string `json:"id" example:"3f1c1f0e-5d1e-4a36-9d55-0c7f1f0c2b0a"`
	// Generated text.
	Text string `json:"text"`
	// Model that produced the text.
	// example: gpt-j-6b
	Model string `json:"model" example:"gpt-j-6b"`
	// example: strategic
	ThinkingMode string `json:"thinking_mode" example:"strategic"`
	// Tier the model was resident in while generating.
	// example: swap
	Tier string `json:"tier" example:"swap"`
	// Wall time including any load, in milliseconds.
	// example: 612.4
	ElapsedMS float64 `json:"elapsed_ms" example:"612.4"`
	// Whitespace-separated word count of Text.
	// example: 12
	TokenCount int `json:"token_count" example:"12"`
	// True when the model had to be loaded for this request.
	Loaded bool `json:"loaded"`
	// Why this model was used.
	Justification string `json:"justification"`
	// example: stop
	FinishReason string `json:"finish_reason,omitempty" example:"stop"`
}

// ModelsResponse wraps the list of models returned by GET /v1/models.
type ModelsResponse struct {
	Models []Model `json:"models"`
}

// SelectRequest asks for the best model without loading it.
type SelectRequest struct {
	// example: classify this review
	Prompt       string `json:"prompt" example:"classify this review"`
	ThinkingMode string `json:"thinking_mode,omitempty" example:"immediate"`
	Priority     string `json:"priority,omitempty" example:"speed"`
	// Optional explicit model; skips scoring.
	Model string `json:"model,omitempty"`
	// Optional tier override.
	// example: ram
	TargetTier string `json:"target_tier,omitempty" example:"ram"`
}

// Selection is the selector's answer.
type Selection struct {
	// example: gpt2-small
	Model string `json:"model" example:"gpt2-small"`
	// example: ram
	Tier          string   `json:"tier" example:"ram"`
	Justification string   `json:"justification"`
	Required      []string `json:"required"`
	Matched       []string `json:"matched"`
	// example: 2.73
	Score    float64  `json:"score" example:"2.73"`
	Resident bool     `json:"resident"`
	Dropped  []string `json:"dropped,omitempty"`
}

// ManageRequest drives load, unload, status and hot_swap.
type ManageRequest struct {
	// One of load, unload, status, hot_swap.
	// example: unload
	Action string `json:"action" example:"unload"`
	// Model to act on (source model for hot_swap).
	// example: gpt2-large
	Model string `json:"model,omitempty" example:"gpt2-large"`
	// Target model for hot_swap.
	TargetModel string `json:"target_model,omitempty"`
	// Tier for load and hot_swap; defaults to the model's hint.
	// example: ram
	ForceTier string `json:"force_tier,omitempty" example:"ram"`
	// For unload and hot_swap: cache to STORAGE instead of dropping.
	// example: true
	ToStorage bool `json:"to_storage,omitempty" example:"true"`
}

// OperationResult reports one load or unload.
type OperationResult struct {
	// example: unload
	Action string `json:"action" example:"unload"`
	// example: gpt2-large
	Model string `json:"model" example:"gpt2-large"`
	// loaded, already_loaded, unloaded, cached, rejected, failed, skipped or busy.
	// example: cached
	Status       string  `json:"status" example:"cached"`
	OK           bool    `json:"ok"`
	Tier         string  `json:"tier,omitempty" example:"storage"`
	PreviousTier string  `json:"previous_tier,omitempty" example:"ram"`
	SizeBytes    int64   `json:"size_bytes,omitempty"`
	DurationMS   float64 `json:"duration_ms"`
	// Error text and kind for non-OK statuses.
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty" example:"InsufficientCapacity"`
}

// ManageResponse carries the action-specific result.
type ManageResponse struct {
	Action string           `json:"action"`
	Result *OperationResult `json:"result,omitempty"`
	Swap   *HotSwapResponse `json:"swap,omitempty"`
	Memory *MemoryStatus    `json:"memory,omitempty"`
}

// TierUsage is the per-tier part of MemoryStatus.
type TierUsage struct {
	// example: ram
	Tier string `json:"tier" example:"ram"`
	// example: 3221225472
	UsedBytes int64 `json:"used_bytes" example:"3221225472"`
	// Zero for STORAGE (unbounded).
	// example: 6442450944
	LimitBytes   int64 `json:"limit_bytes" example:"6442450944"`
	CeilingBytes int64 `json:"ceiling_bytes"`
	// example: 3.0 GiB
	Used string `json:"used" example:"3.0 GiB"`
	// example: 6.0 GiB
	Limit string `json:"limit" example:"6.0 GiB"`
	// Used / limit in [0,1]; 0 for unbounded tiers.
	Utilization float64  `json:"utilization"`
	Residents   []string `json:"residents"`
}

// Resident is one placed model.
type Resident struct {
	Model      string `json:"model"`
	Tier       string `json:"tier"`
	SizeBytes  int64  `json:"size_bytes"`
	LoadedAt   int64  `json:"loaded_at_unix"`
	LastAccess int64  `json:"last_access_unix"`
}

// MemoryStatus is the tier snapshot returned by GET /v1/memory.
type MemoryStatus struct {
	Tiers     []TierUsage `json:"tiers"`
	Residents []Resident  `json:"residents"`
	// Models mid-transition, keyed by id.
	InFlight map[string]string `json:"in_flight,omitempty"`
}

// HotSwapRequest replaces one resident model with another.
type HotSwapRequest struct {
	// example: gpt2-large
	Source string `json:"source" example:"gpt2-large"`
	// example: gpt2-medium
	Target string `json:"target" example:"gpt2-medium"`
	// example: ram
	TargetTier string `json:"target_tier,omitempty" example:"ram"`
	ToStorage  bool   `json:"to_storage,omitempty"`
}

// HotSwapResponse reports both halves of a swap.
type HotSwapResponse struct {
	ID         string          `json:"id"`
	Unloaded   OperationResult `json:"unloaded"`
	Loaded     OperationResult `json:"loaded"`
	Complete   bool            `json:"complete"`
	DurationMS float64         `json:"duration_ms"`
}

// BatchRequest runs several prompts with shared settings.
type BatchRequest struct {
	// example: ["hello","classify this"]
	Prompts      []string `json:"prompts"`
	ThinkingMode string   `json:"thinking_mode,omitempty"`
	Model        string   `json:"model,omitempty"`
	Priority     string   `json:"priority,omitempty"`
	MaxTokens    int      `json:"max_tokens,omitempty"`
}

// BatchItem is the outcome for one prompt, in request order.
type BatchItem struct {
	Index  int               `json:"index"`
	Result *GenerateResponse `json:"result,omitempty"`
	Error  *ErrorResponse    `json:"error,omitempty"`
}

type BatchResponse struct {
	Results   []BatchItem `json:"results"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	ElapsedMS float64     `json:"elapsed_ms"`
}

// SessionRequest registers an agent session. Bookkeeping lives outside the manager.
type SessionRequest struct {
	// example: agent-42
	SessionID    string `json:"session_id" example:"agent-42"`
	Model        string `json:"model,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
	Model     string `json:"model,omitempty"`
	// example: created
	Status    string `json:"status" example:"created"`
	CreatedAt int64  `json:"created_at_unix"`
}

// SystemStatus summarizes the daemon for GET /v1/system.
type SystemStatus struct {
	// example: healthy
	Status          string   `json:"status" example:"healthy"`
	Ready           bool     `json:"ready"`
	AvailableModels int      `json:"available_models"`
	LoadedModels    int      `json:"loaded_models"`
	ThinkingModes   []string `json:"thinking_modes"`
	Backend         string   `json:"backend" example:"template"`
	UptimeSeconds   float64  `json:"uptime_seconds"`
	// Lifecycle counters since start.
	Counters map[string]uint64 `json:"counters"`
	Memory   MemoryStatus      `json:"memory"`
}

// OptimizeRequest runs a rebalancing strategy.
type OptimizeRequest struct {
	// aggressive, balanced (default) or conservative.
	// example: balanced
	Strategy string `json:"strategy,omitempty" example:"balanced"`
}

type OptimizeResponse struct {
	Strategy string            `json:"strategy"`
	Actions  []OperationResult `json:"actions"`
	// Bytes freed per tier (negative when a tier gained residents).
	FreedBytes map[string]int64 `json:"freed_bytes"`
	Memory     MemoryStatus     `json:"memory"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: InsufficientCapacity: gpt-j-6b (swap): need 6.0 GiB, 0 B of 7.0 GiB free
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 507
	Code int `json:"code" example:"507"`
	// Error kind from the manager taxonomy, when known.
	// example: InsufficientCapacity
	Kind string `json:"kind,omitempty" example:"InsufficientCapacity"`
	// True when the same request may succeed later.
	Retryable bool `json:"retryable"`
}
