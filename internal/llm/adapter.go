// Package llm runs text generation for a resident model. The manager decides where a
// model lives; an Adapter only turns a prompt into tokens.
package llm

import (
	"context"
	"errors"
	"fmt"

	"tierd/internal/domain"
)

// Adapter abstracts the model runtime.
type Adapter interface {
	// Start prepares a session for model with the given parameters.
	Start(model domain.Model, params Params) (Session, error)
}

// Session is a single generation context.
type Session interface {
	// Generate streams tokens to onToken (which may be nil) and returns the aggregate.
	// Implementations must return when ctx is canceled.
	Generate(ctx context.Context, prompt string, onToken func(string) error) (FinalResult, error)
	Close() error
}

// Params captures generation parameters passed to the adapter.
type Params struct {
	Temperature   float32
	TopP          float32
	TopK          int
	MaxTokens     int
	Stop          []string
	Seed          int
	RepeatPenalty float32
}

// FinalResult summarizes a generation.
type FinalResult struct {
	Content      string
	Usage        Usage
	FinishReason string
}

// Usage contains token accounting.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ErrUnavailable is returned when the requested runtime is not compiled in.
var ErrUnavailable = errors.New("llm runtime unavailable")

// Backend names accepted by New.
const (
	BackendTemplate = "template"
	BackendLlama    = "llama"
)

// New returns the adapter for backend. ctxSize and threads only apply to llama.
func New(backend string, ctxSize, threads int) (Adapter, error) {
	switch backend {
	case "", BackendTemplate:
		return TemplateAdapter{}, nil
	case BackendLlama:
		return NewLlamaAdapter(ctxSize, threads), nil
	default:
		return nil, fmt.Errorf("unknown llm backend %q", backend)
	}
}

// Run is the one-shot helper used by the engine: start, generate, close.
func Run(ctx context.Context, a Adapter, m domain.Model, params Params, prompt string) (FinalResult, error) {
	s, err := a.Start(m, params)
	if err != nil {
		return FinalResult{}, err
	}
	defer s.Close()
	return s.Generate(ctx, prompt, nil)
}
