// Package catalog is the read-only registry of known models.
package catalog

import (
	"fmt"
	"slices"
	"strings"

	"tierd/internal/domain"
)

// Catalog maps model ids to their immutable descriptions. It is safe for concurrent
// use because nothing mutates it after New returns.
type Catalog struct {
	models map[string]domain.Model
	order  []string
}

// New builds a catalog. Ids must be unique and non-empty, sizes positive and tier hints
// valid; a missing hint defaults to RAM.
func New(models ...domain.Model) (*Catalog, error) {
	c := &Catalog{models: make(map[string]domain.Model, len(models))}
	for _, m := range models {
		m = m.Clone()
		m.ID = strings.TrimSpace(m.ID)
		if m.ID == "" {
			return nil, fmt.Errorf("catalog: model with empty id")
		}
		if _, dup := c.models[m.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate model id %q", m.ID)
		}
		if m.SizeBytes <= 0 {
			return nil, fmt.Errorf("catalog: model %q has non-positive size %d", m.ID, m.SizeBytes)
		}
		if m.TierHint == "" {
			m.TierHint = domain.TierRAM
		}
		if !m.TierHint.Valid() {
			return nil, fmt.Errorf("catalog: model %q has unknown tier hint %q", m.ID, m.TierHint)
		}
		c.models[m.ID] = m
		c.order = append(c.order, m.ID)
	}
	return c, nil
}

// Lookup returns the model registered under id.
func (c *Catalog) Lookup(id string) (domain.Model, error) {
	m, ok := c.models[id]
	if !ok {
		return domain.Model{}, domain.ErrUnknownModel(id)
	}
	return m.Clone(), nil
}

// List returns every model in registration order. The slice is a copy.
func (c *Catalog) List() []domain.Model {
	out := make([]domain.Model, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.models[id].Clone())
	}
	return out
}

// CapabilitiesOf returns the capability tags of id.
func (c *Catalog) CapabilitiesOf(id string) ([]string, error) {
	m, ok := c.models[id]
	if !ok {
		return nil, domain.ErrUnknownModel(id)
	}
	return slices.Clone(m.Capabilities), nil
}

// Len is the number of registered models.
func (c *Catalog) Len() int { return len(c.order) }
