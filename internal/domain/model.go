package domain

import "slices"

// Model is a registered inference model. Values are immutable once handed to the catalog;
// use Clone before mutating a copy.
type Model struct {
	ID              string
	SizeBytes       int64
	Capabilities    []string
	ThinkingCapable bool
	TierHint        Tier
	// Path of the artifact on disk, when the model was discovered or configured with one.
	Path   string
	Family string
}

// HasCapability reports whether the model carries the tag.
func (m Model) HasCapability(tag string) bool {
	return slices.Contains(m.Capabilities, tag)
}

// Clone returns a deep copy.
func (m Model) Clone() Model {
	m.Capabilities = slices.Clone(m.Capabilities)
	return m
}
