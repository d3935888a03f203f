// Package score turns documents into sentiment scores, one per (document,
// feature, lexicon) cell. Scoring is lexicon-table lookup with valence
// shifter adjustments; documents are independent, so the scorer fans them
// out across a bounded worker pool.
package score

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/crimson-sun/barometer/internal/engine/lexicon"
	"github.com/crimson-sun/barometer/internal/model"
)

// ErrNoDocuments is returned when there is nothing to score.
var ErrNoDocuments = errors.New("score: no documents")

// WithinDocRule selects how a document's summed hit polarity is normalized.
type WithinDocRule int

const (
	// Counts keeps the raw sum of adjusted polarities.
	Counts WithinDocRule = iota + 1
	// Proportional divides by the document token count.
	Proportional
	// ProportionalPol divides by the number of lexicon hits, yielding zero
	// for documents without hits.
	ProportionalPol
)

// ParseWithinDocRule maps a config string to a rule.
func ParseWithinDocRule(s string) (WithinDocRule, error) {
	switch s {
	case "counts":
		return Counts, nil
	case "proportional":
		return Proportional, nil
	case "proportionalPol":
		return ProportionalPol, nil
	}
	return 0, fmt.Errorf("score: unknown within-document rule %q", s)
}

func (r WithinDocRule) String() string {
	switch r {
	case Counts:
		return "counts"
	case Proportional:
		return "proportional"
	case ProportionalPol:
		return "proportionalPol"
	}
	return "unknown"
}

// AdversativeScope selects which side of an adversative conjunction gets
// discounted.
type AdversativeScope int

const (
	// Preceding discounts hits before the conjunction ("good, but ...").
	Preceding AdversativeScope = iota + 1
	// Following discounts hits after it.
	Following
)

// ParseAdversativeScope maps a config string to a scope.
func ParseAdversativeScope(s string) (AdversativeScope, error) {
	switch s {
	case "preceding":
		return Preceding, nil
	case "following":
		return Following, nil
	}
	return 0, fmt.Errorf("score: unknown adversative scope %q", s)
}

// AdversativePolicy controls how adversative conjunctions reweight hits.
// Disabled by default; when enabled, every hit on the scoped side of at
// least one conjunction is multiplied by Factor once.
type AdversativePolicy struct {
	Enabled bool
	Scope   AdversativeScope
	Factor  float64
}

// Config holds scorer settings. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	Rule          WithinDocRule
	ContextWindow int // tokens searched on each side of a hit for a shifter
	Adversative   AdversativePolicy
	Workers       int
}

// DefaultConfig returns the scorer defaults: proportional normalization, a
// four-token shifter window, adversative handling off, four workers.
func DefaultConfig() Config {
	return Config{Rule: Proportional, ContextWindow: 4, Workers: 4}
}

// Validate rejects unusable configurations.
func (c Config) Validate() error {
	switch c.Rule {
	case Counts, Proportional, ProportionalPol:
	default:
		return fmt.Errorf("score: invalid within-document rule %d", c.Rule)
	}
	if c.ContextWindow < 0 {
		return fmt.Errorf("score: context window %d", c.ContextWindow)
	}
	if c.Workers < 1 {
		return fmt.Errorf("score: workers %d", c.Workers)
	}
	if c.Adversative.Enabled {
		if c.Adversative.Scope != Preceding && c.Adversative.Scope != Following {
			return errors.New("score: adversative policy needs a scope")
		}
		if c.Adversative.Factor <= 0 {
			return fmt.Errorf("score: adversative factor %v", c.Adversative.Factor)
		}
	}
	return nil
}

// Scorer scores documents against every lexicon in a set.
type Scorer struct {
	lexicons *lexicon.Set
	cfg      Config
}

// New creates a Scorer. The config is validated eagerly.
func New(set *lexicon.Set, cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{lexicons: set, cfg: cfg}, nil
}

// ScoreAll scores every document against every lexicon. Results are ordered
// by document position, then feature, then lexicon, independent of worker
// count.
func (s *Scorer) ScoreAll(ctx context.Context, docs []model.Document) ([]model.DocScore, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	perDoc := make([][]model.DocScore, len(docs))
	sem := make(chan struct{}, s.cfg.Workers)
	var wg sync.WaitGroup

	for i := range docs {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			perDoc[i] = s.scoreDoc(&docs[i])
		}(i)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []model.DocScore
	for _, scores := range perDoc {
		out = append(out, scores...)
	}
	return out, nil
}

// scoreDoc produces one DocScore per (feature, lexicon) pair of the document.
func (s *Scorer) scoreDoc(doc *model.Document) []model.DocScore {
	features := make([]string, 0, len(doc.Features))
	for name := range doc.Features {
		features = append(features, name)
	}
	sort.Strings(features)

	lexicons := s.lexicons.All()
	type cell struct {
		value float64
		hits  int
	}
	cells := make([]cell, len(lexicons))
	for j, lex := range lexicons {
		raw, hits := s.scoreTokens(doc.Tokens, lex)
		cells[j] = cell{value: s.applyRule(raw, hits, doc.TokenCount()), hits: hits}
	}

	out := make([]model.DocScore, 0, len(features)*len(lexicons))
	for _, feature := range features {
		w := doc.Features[feature]
		for j, lex := range lexicons {
			out = append(out, model.DocScore{
				DocID:          doc.ID,
				Date:           doc.Date,
				Feature:        feature,
				Lexicon:        lex.Name,
				Value:          w * cells[j].value,
				Weight:         w,
				PolarizedCount: cells[j].hits,
				TokenCount:     doc.TokenCount(),
			})
		}
	}
	return out
}

// scoreTokens sums shifter-adjusted polarities over all lexicon hits.
func (s *Scorer) scoreTokens(tokens []string, lex *model.Lexicon) (float64, int) {
	type hit struct {
		idx   int
		value float64
	}
	var hits []hit
	var adversatives []int

	for i, tok := range tokens {
		if sh, ok := lex.Valence[tok]; ok && sh.Role == model.ShifterAdversative {
			adversatives = append(adversatives, i)
		}
		pol, ok := lex.Entries[tok]
		if !ok || pol == 0 {
			continue
		}
		if sh, found := s.nearestShifter(tokens, i, lex.Valence); found {
			pol *= sh.Value
		}
		hits = append(hits, hit{idx: i, value: pol})
	}

	adv := s.cfg.Adversative
	if adv.Enabled && len(adversatives) > 0 {
		for k := range hits {
			if inAdversativeScope(hits[k].idx, adversatives, adv.Scope) {
				hits[k].value *= adv.Factor
			}
		}
	}

	var sum float64
	for _, h := range hits {
		sum += h.value
	}
	return sum, len(hits)
}

// nearestShifter finds the closest negator, amplifier or deamplifier within
// the context window around index i. On equal distance the preceding token
// wins.
func (s *Scorer) nearestShifter(tokens []string, i int, valence map[string]model.Shifter) (model.Shifter, bool) {
	if len(valence) == 0 {
		return model.Shifter{}, false
	}
	for d := 1; d <= s.cfg.ContextWindow; d++ {
		if j := i - d; j >= 0 {
			if sh, ok := valence[tokens[j]]; ok && sh.Role != model.ShifterAdversative {
				return sh, true
			}
		}
		if j := i + d; j < len(tokens) {
			if sh, ok := valence[tokens[j]]; ok && sh.Role != model.ShifterAdversative {
				return sh, true
			}
		}
	}
	return model.Shifter{}, false
}

// inAdversativeScope reports whether a hit index sits on the discounted side
// of at least one conjunction.
func inAdversativeScope(idx int, adversatives []int, scope AdversativeScope) bool {
	for _, a := range adversatives {
		if scope == Preceding && idx < a {
			return true
		}
		if scope == Following && idx > a {
			return true
		}
	}
	return false
}

// applyRule normalizes the raw polarity sum.
func (s *Scorer) applyRule(raw float64, hits, tokenCount int) float64 {
	switch s.cfg.Rule {
	case Proportional:
		if tokenCount == 0 {
			return 0
		}
		return raw / float64(tokenCount)
	case ProportionalPol:
		if hits == 0 {
			return 0
		}
		return raw / float64(hits)
	}
	return raw
}
