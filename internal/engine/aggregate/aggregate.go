// Package aggregate rolls document scores up into sentiment measures: first
// across documents per calendar bucket, then across time under every
// weighting scheme. The result is a measures container holding one series
// per (feature, lexicon, scheme) combination.
package aggregate

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/crimson-sun/barometer/internal/engine/weights"
	"github.com/crimson-sun/barometer/internal/measures"
	"github.com/crimson-sun/barometer/internal/model"
)

var (
	// ErrConfig is returned for invalid aggregation settings.
	ErrConfig = errors.New("aggregate: invalid configuration")
	// ErrNoScores is returned when there is nothing to aggregate.
	ErrNoScores = errors.New("aggregate: no document scores")
	// ErrShortHistory is returned when the bucket index is shorter than the
	// scheme lag.
	ErrShortHistory = errors.New("aggregate: bucket history shorter than lag")
)

// AcrossDocRule selects how document scores combine within a bucket.
type AcrossDocRule int

const (
	// EqualWeight averages the contributing documents.
	EqualWeight AcrossDocRule = iota + 1
	// Proportional weights documents by token count.
	Proportional
	// Custom weights documents by a caller-supplied weight per document ID.
	Custom
)

// ParseAcrossDocRule maps a config string to a rule.
func ParseAcrossDocRule(s string) (AcrossDocRule, error) {
	switch s {
	case "equal_weight":
		return EqualWeight, nil
	case "proportional":
		return Proportional, nil
	case "custom":
		return Custom, nil
	}
	return 0, fmt.Errorf("aggregate: unknown across-document rule %q", s)
}

func (r AcrossDocRule) String() string {
	switch r {
	case EqualWeight:
		return "equal_weight"
	case Proportional:
		return "proportional"
	case Custom:
		return "custom"
	}
	return "unknown"
}

// Config holds the aggregation settings for both stages.
type Config struct {
	Cadence     model.Cadence
	Rule        AcrossDocRule
	IgnoreZeros bool // drop zero-relevance documents from bucket denominators
	DocWeights  map[string]float64
	Fill        model.FillPolicy
	Schemes     []weights.Scheme
}

// DefaultConfig aggregates daily, averaging documents, ignoring
// zero-relevance ones and zero-filling empty buckets. Schemes must be set by
// the caller.
func DefaultConfig() Config {
	return Config{
		Cadence:     model.Daily,
		Rule:        EqualWeight,
		IgnoreZeros: true,
		Fill:        model.FillZero,
	}
}

// Validate rejects unusable configurations eagerly, before any scoring work
// is spent.
func (c Config) Validate() error {
	switch c.Cadence {
	case model.Daily, model.Weekly, model.Monthly, model.Yearly:
	default:
		return fmt.Errorf("%w: cadence %d", ErrConfig, c.Cadence)
	}
	switch c.Rule {
	case EqualWeight, Proportional:
	case Custom:
		if len(c.DocWeights) == 0 {
			return fmt.Errorf("%w: custom rule without document weights", ErrConfig)
		}
		for id, w := range c.DocWeights {
			if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
				return fmt.Errorf("%w: weight %v for document %q", ErrConfig, w, id)
			}
		}
	default:
		return fmt.Errorf("%w: across-document rule %d", ErrConfig, c.Rule)
	}
	switch c.Fill {
	case model.FillLatest, model.FillZero, model.FillDrop:
	default:
		return fmt.Errorf("%w: fill policy %d", ErrConfig, c.Fill)
	}

	if len(c.Schemes) == 0 {
		return fmt.Errorf("%w: no weighting schemes", ErrConfig)
	}
	lag := c.Schemes[0].Lag
	seen := make(map[string]struct{}, len(c.Schemes))
	for _, s := range c.Schemes {
		if err := s.Validate(); err != nil {
			return err
		}
		if s.Lag != lag {
			return fmt.Errorf("%w: scheme %q lag %d, want %d", ErrConfig, s.Name, s.Lag, lag)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: duplicate scheme %q", ErrConfig, s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}

// Run aggregates document scores into a measures container.
func Run(scores []model.DocScore, cfg Config) (*measures.Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	buckets, err := Bucketize(scores, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Fill == model.FillDrop {
		buckets = dropEmpty(buckets)
	}
	for i := range buckets {
		fill(&buckets[i], cfg.Fill)
	}

	lag := cfg.Schemes[0].Lag
	bucketDates := buckets[0].Dates
	if len(bucketDates) < lag {
		return nil, fmt.Errorf("%w: %d buckets for lag %d", ErrShortHistory, len(bucketDates), lag)
	}
	finalDates := make([]time.Time, len(bucketDates)-lag+1)
	copy(finalDates, bucketDates[lag-1:])

	ms := make([]model.Measure, 0, len(buckets)*len(cfg.Schemes))
	schemeW := make(map[string][]float64, len(cfg.Schemes))
	for _, scheme := range cfg.Schemes {
		schemeW[scheme.Name] = scheme.Values
		for _, b := range buckets {
			values := make([]float64, len(finalDates))
			for t := range values {
				end := t + lag - 1
				var sum float64
				for i, w := range scheme.Values {
					sum += w * b.Values[end-i]
				}
				values[t] = sum
			}
			ms = append(ms, model.Measure{
				Key:    model.MeasureKey{Feature: b.Feature, Lexicon: b.Lexicon, Scheme: scheme.Name},
				Values: values,
			})
		}
	}

	return measures.New(finalDates, ms, buckets, schemeW, cfg.Cadence, cfg.Fill)
}

// Bucketize aggregates scores across documents into one series per (feature,
// lexicon) pair on the full calendar bucket index spanning the corpus.
// Counts mark how many documents entered each bucket; zero marks an empty
// bucket whose value is unresolved.
func Bucketize(scores []model.DocScore, cfg Config) ([]model.BucketSeries, error) {
	if len(scores) == 0 {
		return nil, ErrNoScores
	}

	minB := cfg.Cadence.Bucket(scores[0].Date)
	maxB := minB
	for _, sc := range scores {
		b := cfg.Cadence.Bucket(sc.Date)
		if b.Before(minB) {
			minB = b
		}
		if b.After(maxB) {
			maxB = b
		}
	}
	var bucketDates []time.Time
	index := make(map[int64]int)
	for d := minB; !d.After(maxB); d = cfg.Cadence.Next(d) {
		index[d.Unix()] = len(bucketDates)
		bucketDates = append(bucketDates, d)
	}

	type pairKey struct{ feature, lexicon string }
	type acc struct {
		sum   float64 // equal-weight accumulator
		wvSum float64 // weighted value accumulator
		wSum  float64 // weight accumulator
		n     int
	}
	cells := make(map[pairKey][]acc)

	for _, sc := range scores {
		if cfg.IgnoreZeros && sc.Weight == 0 {
			continue
		}
		key := pairKey{sc.Feature, sc.Lexicon}
		row, ok := cells[key]
		if !ok {
			row = make([]acc, len(bucketDates))
			cells[key] = row
		}
		i := index[cfg.Cadence.Bucket(sc.Date).Unix()]
		a := &row[i]
		a.n++
		switch cfg.Rule {
		case EqualWeight:
			a.sum += sc.Value
		case Proportional:
			a.wvSum += sc.Value * float64(sc.TokenCount)
			a.wSum += float64(sc.TokenCount)
		case Custom:
			w, ok := cfg.DocWeights[sc.DocID]
			if !ok {
				return nil, fmt.Errorf("%w: no weight for document %q", ErrConfig, sc.DocID)
			}
			a.wvSum += sc.Value * w
			a.wSum += w
		}
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("%w: every score was zero-relevance", ErrNoScores)
	}

	pairs := make([]pairKey, 0, len(cells))
	for key := range cells {
		pairs = append(pairs, key)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].feature != pairs[j].feature {
			return pairs[i].feature < pairs[j].feature
		}
		return pairs[i].lexicon < pairs[j].lexicon
	})

	out := make([]model.BucketSeries, 0, len(pairs))
	for _, key := range pairs {
		b := model.BucketSeries{
			Feature: key.feature,
			Lexicon: key.lexicon,
			Dates:   bucketDates,
			Values:  make([]float64, len(bucketDates)),
			Counts:  make([]int, len(bucketDates)),
		}
		for i, a := range cells[key] {
			switch {
			case a.n == 0:
				// empty bucket
			case cfg.Rule == EqualWeight:
				b.Values[i] = a.sum / float64(a.n)
				b.Counts[i] = a.n
			case a.wSum > 0:
				b.Values[i] = a.wvSum / a.wSum
				b.Counts[i] = a.n
			}
		}
		out = append(out, b)
	}
	return out, nil
}

// fill resolves empty buckets in place under the latest or zero policy. The
// drop policy removes them earlier instead.
func fill(b *model.BucketSeries, policy model.FillPolicy) {
	if policy != model.FillLatest {
		return // zero fill is already the zero value; drop removed them
	}
	var last float64
	for i := range b.Values {
		if b.Counts[i] > 0 {
			last = b.Values[i]
		} else {
			b.Values[i] = last
		}
	}
}

// dropEmpty removes every date on which any pair's bucket is empty, so all
// series stay on one shared index.
func dropEmpty(buckets []model.BucketSeries) []model.BucketSeries {
	n := len(buckets[0].Dates)
	keep := make([]bool, n)
	for i := range keep {
		keep[i] = true
	}
	for _, b := range buckets {
		for i, c := range b.Counts {
			if c == 0 {
				keep[i] = false
			}
		}
	}

	var dates []time.Time
	for i, k := range keep {
		if k {
			dates = append(dates, buckets[0].Dates[i])
		}
	}
	out := make([]model.BucketSeries, len(buckets))
	for j, b := range buckets {
		nb := model.BucketSeries{
			Feature: b.Feature,
			Lexicon: b.Lexicon,
			Dates:   dates,
			Values:  make([]float64, 0, len(dates)),
			Counts:  make([]int, 0, len(dates)),
		}
		for i, k := range keep {
			if k {
				nb.Values = append(nb.Values, b.Values[i])
				nb.Counts = append(nb.Counts, b.Counts[i])
			}
		}
		out[j] = nb
	}
	return out
}
