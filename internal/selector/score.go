package selector

import (
	"cmp"
	"math"
	"slices"

	"tierd/internal/domain"
)

// Weights tunes the scoring function. Size terms are normalised by the largest
// candidate so they fall in [0, 1].
type Weights struct {
	TagOverlap float64 // per matched requirement tag
	Resident   float64 // already placed anywhere
	SpeedRAM   float64 // target tier is RAM
	SpeedSize  float64 // multiplied by 1 - size/max
	Thinking   float64 // thinking-capable model
	QualSize   float64 // multiplied by size/max
}

// DefaultWeights reproduce the built-in ranking.
var DefaultWeights = Weights{
	TagOverlap: 1.0,
	Resident:   1.5,
	SpeedRAM:   2.0,
	SpeedSize:  1.5,
	Thinking:   1.5,
	QualSize:   1.0,
}

const epsilon = 1e-9

type candidate struct {
	model    domain.Model
	tier     domain.Tier
	resident bool
	matched  []string
	score    float64
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// score fills c.score for priority p. maxSize must be > 0.
func (w Weights) score(c *candidate, p domain.Priority, maxSize int64) {
	rel := float64(c.model.SizeBytes) / float64(maxSize)
	speed := w.SpeedRAM*b2f(c.tier == domain.TierRAM) + w.SpeedSize*(1-rel)
	quality := w.Thinking*b2f(c.model.ThinkingCapable) + w.QualSize*rel

	s := w.TagOverlap*float64(len(c.matched)) + w.Resident*b2f(c.resident)
	switch p {
	case domain.PrioritySpeed:
		s += speed
	case domain.PriorityQuality:
		s += quality
	default:
		s += (speed + quality) / 2
	}
	c.score = s
}

// better orders candidates best first: higher score, then resident, then smaller
// size, then id.
func better(a, b candidate) int {
	if d := a.score - b.score; math.Abs(d) > epsilon {
		if d > 0 {
			return -1
		}
		return 1
	}
	if a.resident != b.resident {
		if a.resident {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.model.SizeBytes, b.model.SizeBytes); c != 0 {
		return c
	}
	return cmp.Compare(a.model.ID, b.model.ID)
}

func rank(w Weights, cands []candidate, p domain.Priority) {
	var maxSize int64 = 1
	for _, c := range cands {
		maxSize = max(maxSize, c.model.SizeBytes)
	}
	for i := range cands {
		w.score(&cands[i], p, maxSize)
	}
	slices.SortStableFunc(cands, better)
}
