package selector

import (
	"slices"
	"strings"

	"tierd/internal/domain"
)

// Capability tags the selector knows how to infer.
const (
	TagTextGeneration       = "text-generation"
	TagClassification       = "classification"
	TagEmbeddings           = "embeddings"
	TagCodeGeneration       = "code-generation"
	TagReasoning            = "reasoning"
	TagInstructionFollowing = "instruction-following"
)

// Rule adds Tag to the requirement set when any keyword is a substring of the
// lower-cased prompt.
type Rule struct {
	Tag      string
	Keywords []string
}

// DefaultRules is the keyword table used by New.
var DefaultRules = []Rule{
	{Tag: TagClassification, Keywords: []string{"classify", "classification", "categorize", "sentiment"}},
	{Tag: TagEmbeddings, Keywords: []string{"embed", "similarity", "vector"}},
	{Tag: TagCodeGeneration, Keywords: []string{"code", "function", "program", "script"}},
	{Tag: TagReasoning, Keywords: []string{"plan", "analy", "reason", "why"}},
	{Tag: TagInstructionFollowing, Keywords: []string{"instruct", "step"}},
}

// Requirements infers the capability tags a prompt needs. text-generation is always
// present; modes that require thinking add reasoning.
func Requirements(rules []Rule, prompt string, mode domain.ThinkingMode) []string {
	p := strings.ToLower(prompt)
	tags := []string{TagTextGeneration}
	for _, r := range rules {
		for _, kw := range r.Keywords {
			if strings.Contains(p, kw) {
				tags = appendUnique(tags, r.Tag)
				break
			}
		}
	}
	if mode.RequiresThinking() {
		tags = appendUnique(tags, TagReasoning)
	}
	return tags
}

func appendUnique(tags []string, tag string) []string {
	if slices.Contains(tags, tag) {
		return tags
	}
	return append(tags, tag)
}

// matched returns the requirement tags m carries, in requirement order.
func matched(m domain.Model, required []string) []string {
	var out []string
	for _, t := range required {
		if m.HasCapability(t) {
			out = append(out, t)
		}
	}
	return out
}
