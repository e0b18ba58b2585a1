package llm

import (
	"context"
	"fmt"
	"strings"

	"tierd/internal/domain"
)

// ApplyThinking frames prompt for the given thinking mode.
func ApplyThinking(mode domain.ThinkingMode, prompt string) string {
	switch mode {
	case domain.ThinkingFuture:
		return "[FUTURE THINKING] Consider long-term implications: " + prompt
	case domain.ThinkingStrategic:
		return "[STRATEGIC ANALYSIS] Break down systematically: " + prompt
	default:
		return prompt
	}
}

// previewRunes bounds how much of the prompt the template response echoes.
const previewRunes = 50

// TemplateAdapter produces a deterministic response without any model runtime. It is
// the default backend on hosts where no weights are present.
type TemplateAdapter struct{}

func (TemplateAdapter) Start(m domain.Model, p Params) (Session, error) {
	return templateSession{model: m.ID, params: p}, nil
}

type templateSession struct {
	model  string
	params Params
}

func (s templateSession) Generate(ctx context.Context, prompt string, onToken func(string) error) (FinalResult, error) {
	preview := []rune(prompt)
	suffix := ""
	if len(preview) > previewRunes {
		preview, suffix = preview[:previewRunes], "..."
	}
	words := strings.Fields(fmt.Sprintf("response from %s: %s%s", s.model, string(preview), suffix))
	finish := "stop"
	if n := s.params.MaxTokens; n > 0 && len(words) > n {
		words, finish = words[:n], "length"
	}
	for i, w := range words {
		if err := ctx.Err(); err != nil {
			return FinalResult{}, err
		}
		if onToken == nil {
			continue
		}
		tok := w
		if i > 0 {
			tok = " " + w
		}
		if err := onToken(tok); err != nil {
			return FinalResult{}, err
		}
	}
	prompted := len(strings.Fields(prompt))
	return FinalResult{
		Content:      strings.Join(words, " "),
		Usage:        Usage{PromptTokens: prompted, CompletionTokens: len(words), TotalTokens: prompted + len(words)},
		FinishReason: finish,
	}, nil
}

func (templateSession) Close() error { return nil }
