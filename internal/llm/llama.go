//go:build llama

package llm

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"

	"tierd/internal/domain"
)

// LlamaBuilt indicates this binary was compiled with real llama support.
const LlamaBuilt = true

// llamaAdapter holds global config used to initialize a model instance
type llamaAdapter struct {
	ctxSize int
	threads int
}

func NewLlamaAdapter(ctxSize, threads int) Adapter {
	return &llamaAdapter{ctxSize: ctxSize, threads: threads}
}

type llamaSession struct {
	model   *llama.LLama
	threads int
	params  Params
}

func (a *llamaAdapter) Start(m domain.Model, params Params) (Session, error) {
	if strings.TrimSpace(m.Path) == "" {
		return nil, errors.New("model " + m.ID + " has no artifact path")
	}
	lm, err := llama.New(m.Path, llama.SetContext(a.ctxSize))
	if err != nil {
		return nil, err
	}
	return &llamaSession{model: lm, threads: a.threads, params: params}, nil
}

func (s *llamaSession) Generate(ctx context.Context, prompt string, onToken func(string) error) (FinalResult, error) {
	if s.model == nil {
		return FinalResult{}, errors.New("llama model not initialized")
	}
	completion := 0
	s.model.SetTokenCallback(func(tok string) bool {
		if ctx.Err() != nil {
			return false
		}
		completion++
		if onToken != nil && onToken(tok) != nil {
			return false
		}
		return true
	})
	text, err := s.model.Predict(prompt, predictOptions(s.params, s.threads)...)
	if err != nil {
		if ctx.Err() != nil {
			return FinalResult{}, ctx.Err()
		}
		return FinalResult{}, err
	}
	return FinalResult{
		Content:      text,
		Usage:        Usage{CompletionTokens: completion, TotalTokens: completion},
		FinishReason: "stop",
	}, nil
}

func (s *llamaSession) Close() error {
	if s.model != nil {
		s.model.Free()
		s.model = nil
	}
	return nil
}

func orInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orFloat(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}

func predictOptions(p Params, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(max(1, p.MaxTokens)),
		llama.SetThreads(max(1, threads)),
		llama.SetTopP(orFloat(p.TopP, llama.DefaultOptions.TopP)),
		llama.SetTopK(orInt(p.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(orFloat(p.Temperature, llama.DefaultOptions.Temperature)),
		llama.SetPenalty(orFloat(p.RepeatPenalty, llama.DefaultOptions.Penalty)),
	}
	if p.Seed != 0 {
		po = append(po, llama.SetSeed(p.Seed))
	}
	if len(p.Stop) > 0 {
		po = append(po, llama.SetStopWords(p.Stop...))
	}
	return po
}
