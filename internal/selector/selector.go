// Package selector picks the model that best serves a request. Selection is a pure read:
// it consults the catalog and the current residency but never changes either.
package selector

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"tierd/internal/domain"
)

// Catalog is the registry the selector reads from.
type Catalog interface {
	Lookup(id string) (domain.Model, error)
	List() []domain.Model
}

// Residency reports where a model currently lives.
type Residency interface {
	ResidentTier(id string) (domain.Tier, bool)
}

// Limits exposes the hard per-model ceiling of each tier (0 = none).
type Limits interface {
	Ceiling(tier domain.Tier) int64
}

// Request is one selection query. Empty ThinkingMode and Priority take their defaults.
type Request struct {
	Prompt       string
	Model        string
	ThinkingMode domain.ThinkingMode
	Priority     domain.Priority
	TargetTier   domain.Tier
}

// Result is the selected model, where it should run and why.
type Result struct {
	Model         string
	SizeBytes     int64
	Tier          domain.Tier
	Justification string
	Required      []string
	Matched       []string
	Score         float64
	Resident      bool
	// Dropped names candidates that matched but can never be placed in their target tier.
	Dropped []string
}

type Selector struct {
	cat     Catalog
	res     Residency
	lim     Limits
	rules   []Rule
	weights Weights
}

type Option func(*Selector)

func WithRules(r []Rule) Option { return func(s *Selector) { s.rules = r } }
func WithWeights(w Weights) Option { return func(s *Selector) { s.weights = w } }
func WithLimits(l Limits) Option { return func(s *Selector) { s.lim = l } }
func WithResidency(r Residency) Option { return func(s *Selector) { s.res = r } }

// New returns a selector over cat. Without WithResidency every model is treated as not
// resident; without WithLimits no candidate is dropped for size.
func New(cat Catalog, opts ...Option) *Selector {
	s := &Selector{cat: cat, rules: DefaultRules, weights: DefaultWeights}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Select returns the best model for req. It never substitutes silently: candidates
// dropped for size are named in the justification.
func (s *Selector) Select(req Request) (Result, error) {
	mode, err := domain.ParseThinkingMode(string(req.ThinkingMode))
	if err != nil {
		return Result{}, domain.ErrInvalidRequest("%v", err)
	}
	prio, err := domain.ParsePriority(string(req.Priority))
	if err != nil {
		return Result{}, domain.ErrInvalidRequest("%v", err)
	}
	if req.TargetTier != "" && !req.TargetTier.Valid() {
		return Result{}, domain.ErrInvalidRequest("unknown tier %q", req.TargetTier)
	}
	if req.Model != "" {
		return s.explicit(req, mode)
	}
	return s.scored(req, mode, prio)
}

func (s *Selector) residentTier(id string) (domain.Tier, bool) {
	if s.res == nil {
		return "", false
	}
	return s.res.ResidentTier(id)
}

func (s *Selector) ceiling(t domain.Tier) int64 {
	if s.lim == nil {
		return 0
	}
	return s.lim.Ceiling(t)
}

func (s *Selector) explicit(req Request, mode domain.ThinkingMode) (Result, error) {
	m, err := s.cat.Lookup(req.Model)
	if err != nil {
		return Result{}, err
	}
	if mode.RequiresThinking() && !m.ThinkingCapable {
		return Result{}, domain.ErrNoSuitableModel(fmt.Sprintf("%s is not thinking-capable, %s mode requires it", m.ID, mode))
	}
	r := Result{Model: m.ID, SizeBytes: m.SizeBytes, Required: Requirements(s.rules, req.Prompt, mode)}
	r.Matched = matched(m, r.Required)
	why := "explicitly requested"
	switch t, ok := s.residentTier(m.ID); {
	case ok && t.Bounded() && (req.TargetTier == "" || req.TargetTier == t):
		r.Tier, r.Resident = t, true
		why += ", already resident in " + string(t)
	case req.TargetTier != "":
		r.Tier = req.TargetTier
		why += ", tier override " + string(req.TargetTier)
	default:
		r.Tier = m.TierHint
		why += ", default tier " + string(m.TierHint)
	}
	r.Justification = fmt.Sprintf("%s (%s): %s", m.ID, humanize.IBytes(uint64(m.SizeBytes)), why)
	return r, nil
}

func (s *Selector) scored(req Request, mode domain.ThinkingMode, prio domain.Priority) (Result, error) {
	required := Requirements(s.rules, req.Prompt, mode)
	var cands []candidate
	var dropped []string
	for _, m := range s.cat.List() {
		if mode.RequiresThinking() && !m.ThinkingCapable {
			continue
		}
		tags := matched(m, required)
		if len(tags) == 0 {
			continue
		}
		c := candidate{model: m, tier: m.TierHint, matched: tags}
		if t, ok := s.residentTier(m.ID); ok && t.Bounded() {
			c.tier, c.resident = t, true
		}
		if req.TargetTier != "" && req.TargetTier != c.tier {
			c.tier, c.resident = req.TargetTier, false
		}
		if lim := s.ceiling(c.tier); lim > 0 && m.SizeBytes > lim {
			dropped = append(dropped, fmt.Sprintf("%s (%s exceeds %s ceiling %s)",
				m.ID, humanize.IBytes(uint64(m.SizeBytes)), c.tier, humanize.IBytes(uint64(lim))))
			continue
		}
		cands = append(cands, c)
	}
	if len(cands) == 0 {
		reason := fmt.Sprintf("no model matches %s", strings.Join(required, ", "))
		if mode.RequiresThinking() {
			reason += " with thinking support"
		}
		if len(dropped) > 0 {
			reason += "; dropped " + strings.Join(dropped, ", ")
		}
		return Result{}, domain.ErrNoSuitableModel(reason)
	}

	rank(s.weights, cands, prio)
	best := cands[0]
	r := Result{
		Model:     best.model.ID,
		SizeBytes: best.model.SizeBytes,
		Tier:      best.tier,
		Required:  required,
		Matched:   best.matched,
		Score:     best.score,
		Resident:  best.resident,
		Dropped:   dropped,
	}
	r.Justification = justify(best, cands, dropped, prio, mode)
	return r, nil
}

func justify(best candidate, cands []candidate, dropped []string, prio domain.Priority, mode domain.ThinkingMode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %s) matches %s; %s priority, score %.2f",
		best.model.ID, humanize.IBytes(uint64(best.model.SizeBytes)), best.tier,
		strings.Join(best.matched, ", "), prio, best.score)
	if best.resident {
		b.WriteString("; already resident")
	}
	if mode.RequiresThinking() {
		fmt.Fprintf(&b, "; %s mode restricted to thinking-capable models", mode)
	}
	if len(cands) > 1 {
		fmt.Fprintf(&b, "; runner-up %s (%.2f)", cands[1].model.ID, cands[1].score)
	}
	if len(dropped) > 0 {
		b.WriteString("; dropped " + strings.Join(dropped, ", "))
	}
	return b.String()
}
