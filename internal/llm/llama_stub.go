//go:build !llama

package llm

// No-CGO stub compiled when the 'llama' build tag is not set.

import (
	"fmt"

	"tierd/internal/domain"
)

const LlamaBuilt = false

type llamaAdapter struct {
	ctxSize int
	threads int
}

func NewLlamaAdapter(ctxSize, threads int) Adapter {
	return &llamaAdapter{ctxSize: ctxSize, threads: threads}
}

func (a *llamaAdapter) Start(m domain.Model, _ Params) (Session, error) {
	return nil, fmt.Errorf("%w: llama support not built (missing 'llama' build tag), model %s", ErrUnavailable, m.ID)
}
