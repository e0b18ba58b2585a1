package catalog

import "tierd/internal/domain"

func gib(f float64) int64 { return int64(f * float64(domain.GiB)) }

// Builtin is the default model library shipped with the daemon. Sizes are nominal
// in-memory footprints.
func Builtin() []domain.Model {
	return []domain.Model{
		{ID: "gpt2-small", SizeBytes: gib(0.5), TierHint: domain.TierRAM, Family: "gpt2",
			Capabilities: []string{"text-generation", "fast"}},
		{ID: "gpt2-medium", SizeBytes: gib(1.5), TierHint: domain.TierRAM, Family: "gpt2",
			Capabilities: []string{"text-generation", "balanced"}},
		{ID: "gpt2-large", SizeBytes: gib(3.0), TierHint: domain.TierRAM, Family: "gpt2",
			Capabilities: []string{"text-generation", "quality"}},
		{ID: "bert-large", SizeBytes: gib(1.3), TierHint: domain.TierRAM, Family: "bert",
			Capabilities: []string{"classification", "embeddings"}},
		{ID: "gpt-j-6b", SizeBytes: gib(6.0), TierHint: domain.TierSwap, Family: "gpt-j", ThinkingCapable: true,
			Capabilities: []string{"text-generation", "high-quality"}},
		{ID: "llama-7b", SizeBytes: gib(7.0), TierHint: domain.TierSwap, Family: "llama", ThinkingCapable: true,
			Capabilities: []string{"instruction-following", "reasoning"}},
	}
}
