package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// NameSep separates the feature, lexicon and scheme components of a measure
// name. Dimension names must not contain it.
const NameSep = "--"

// ErrMeasureName signals a measure name that does not split into exactly
// three non-empty components.
var ErrMeasureName = errors.New("model: measure name must be feature--lexicon--scheme")

// MeasureKey identifies one sentiment measure: a feature scored by a lexicon
// and aggregated under a time-weighting scheme. The struct is the source of
// truth; the string form is derived.
type MeasureKey struct {
	Feature string
	Lexicon string
	Scheme  string
}

// Name renders the key as "feature--lexicon--scheme".
func (k MeasureKey) Name() string {
	return k.Feature + NameSep + k.Lexicon + NameSep + k.Scheme
}

// ParseMeasureName inverts Name.
func ParseMeasureName(s string) (MeasureKey, error) {
	parts := strings.Split(s, NameSep)
	if len(parts) != 3 {
		return MeasureKey{}, fmt.Errorf("%w: %q", ErrMeasureName, s)
	}
	for _, p := range parts {
		if p == "" {
			return MeasureKey{}, fmt.Errorf("%w: %q", ErrMeasureName, s)
		}
	}
	return MeasureKey{Feature: parts[0], Lexicon: parts[1], Scheme: parts[2]}, nil
}

// CheckComponent rejects dimension names that would make measure names
// ambiguous or unparseable.
func CheckComponent(name string) error {
	if name == "" {
		return errors.New("model: empty dimension name")
	}
	if strings.Contains(name, NameSep) {
		return fmt.Errorf("model: dimension name %q contains reserved separator %q", name, NameSep)
	}
	return nil
}

// Measure is one named sentiment time series. Its values share the owning
// container's date index.
type Measure struct {
	Key    MeasureKey
	Values []float64
}

// BucketSeries is the across-document aggregate for one (feature, lexicon)
// pair on the full bucket date index, before time weighting. Counts[i] == 0
// marks an empty bucket; the value at an empty bucket is undefined and must
// be resolved by a fill policy before use.
type BucketSeries struct {
	Feature string
	Lexicon string
	Dates   []time.Time
	Values  []float64
	Counts  []int
}
