// Package weights builds the time-weighting curves used to smooth bucket
// sentiment across a trailing window. Every curve is a Scheme: a named
// weight vector over Lag buckets where index 0 weights the most recent
// bucket and weights sum to one.
package weights

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/crimson-sun/barometer/internal/model"
)

// ErrConfig is returned for invalid curve parameters.
var ErrConfig = errors.New("weights: invalid configuration")

const sumTolerance = 1e-9

// Scheme is one named time-weighting curve.
type Scheme struct {
	Name   string
	Lag    int
	Values []float64
}

// Validate checks the invariants every scheme must satisfy before it is used
// for aggregation: a usable name, matching lag and vector length, finite
// non-negative entries summing to one.
func (s Scheme) Validate() error {
	if err := model.CheckComponent(s.Name); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if s.Lag < 1 {
		return fmt.Errorf("%w: scheme %q: lag %d", ErrConfig, s.Name, s.Lag)
	}
	if len(s.Values) != s.Lag {
		return fmt.Errorf("%w: scheme %q: %d values for lag %d", ErrConfig, s.Name, len(s.Values), s.Lag)
	}
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: scheme %q: weight[%d] = %v", ErrConfig, s.Name, i, v)
		}
	}
	if sum := floats.Sum(s.Values); math.Abs(sum-1) > sumTolerance {
		return fmt.Errorf("%w: scheme %q: weights sum to %v", ErrConfig, s.Name, sum)
	}
	return nil
}

// Equal weights all buckets in the window identically.
func Equal(lag int) (Scheme, error) {
	if lag < 1 {
		return Scheme{}, fmt.Errorf("%w: lag %d", ErrConfig, lag)
	}
	values := make([]float64, lag)
	for i := range values {
		values[i] = 1
	}
	return normalized("equal", lag, values), nil
}

// Linear ramps weights down linearly from the most recent bucket to the
// oldest.
func Linear(lag int) (Scheme, error) {
	if lag < 1 {
		return Scheme{}, fmt.Errorf("%w: lag %d", ErrConfig, lag)
	}
	values := make([]float64, lag)
	for i := range values {
		values[i] = float64(lag - i)
	}
	return normalized("linear", lag, values), nil
}

// Exponential builds one geometric-decay curve per alpha, with weight
// alpha^i on the bucket i steps back. Alphas must lie strictly between 0
// and 1.
func Exponential(lag int, alphas ...float64) ([]Scheme, error) {
	if lag < 1 {
		return nil, fmt.Errorf("%w: lag %d", ErrConfig, lag)
	}
	if len(alphas) == 0 {
		return nil, fmt.Errorf("%w: no alphas", ErrConfig)
	}
	schemes := make([]Scheme, 0, len(alphas))
	for _, alpha := range alphas {
		if alpha <= 0 || alpha >= 1 {
			return nil, fmt.Errorf("%w: alpha %v outside (0, 1)", ErrConfig, alpha)
		}
		values := make([]float64, lag)
		for i := range values {
			values[i] = math.Pow(alpha, float64(i))
		}
		name := "exp" + strconv.FormatFloat(alpha, 'g', -1, 64)
		schemes = append(schemes, normalized(name, lag, values))
	}
	return schemes, nil
}

// Beta builds one curve per (a, b) pair in the cross product of the two
// shape grids, following the Beta density evaluated at bucket midpoints
// (i+0.5)/lag so the curve stays finite for shapes below one. Small a with
// larger b loads weight on recent buckets; the reverse loads history.
func Beta(lag int, as, bs []float64) ([]Scheme, error) {
	if lag < 1 {
		return nil, fmt.Errorf("%w: lag %d", ErrConfig, lag)
	}
	if len(as) == 0 || len(bs) == 0 {
		return nil, fmt.Errorf("%w: empty shape grid", ErrConfig)
	}
	schemes := make([]Scheme, 0, len(as)*len(bs))
	for _, a := range as {
		for _, b := range bs {
			if a <= 0 || b <= 0 {
				return nil, fmt.Errorf("%w: beta shape (%v, %v)", ErrConfig, a, b)
			}
			dist := distuv.Beta{Alpha: a, Beta: b}
			values := make([]float64, lag)
			for i := range values {
				x := (float64(i) + 0.5) / float64(lag)
				values[i] = dist.Prob(x)
			}
			name := fmt.Sprintf("beta%g-%g", a, b)
			schemes = append(schemes, normalized(name, lag, values))
		}
	}
	return schemes, nil
}

// Custom wraps a caller-supplied weight vector. With normalize the vector is
// rescaled to sum to one; without it the vector must already do so.
func Custom(name string, values []float64, normalize bool) (Scheme, error) {
	if err := model.CheckComponent(name); err != nil {
		return Scheme{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if len(values) == 0 {
		return Scheme{}, fmt.Errorf("%w: scheme %q has no values", ErrConfig, name)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return Scheme{}, fmt.Errorf("%w: scheme %q: weight[%d] = %v", ErrConfig, name, i, v)
		}
	}
	sum := floats.Sum(values)
	if sum <= 0 {
		return Scheme{}, fmt.Errorf("%w: scheme %q: weights sum to %v", ErrConfig, name, sum)
	}
	if !normalize && math.Abs(sum-1) > 1e-6 {
		return Scheme{}, fmt.Errorf("%w: scheme %q: weights sum to %v, want 1", ErrConfig, name, sum)
	}
	out := make([]float64, len(values))
	copy(out, values)
	floats.Scale(1/sum, out)
	return Scheme{Name: name, Lag: len(out), Values: out}, nil
}

func normalized(name string, lag int, values []float64) Scheme {
	floats.Scale(1/floats.Sum(values), values)
	return Scheme{Name: name, Lag: lag, Values: values}
}
