package weights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestEqual(t *testing.T) {
	s, err := Equal(4)
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	assert.Equal(t, "equal", s.Name)
	assert.Len(t, s.Values, 4)
	for _, v := range s.Values {
		assert.InDelta(t, 0.25, v, 1e-12)
	}
}

func TestLinear_DecaysAndSumsToOne(t *testing.T) {
	s, err := Linear(3)
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	// Proportional to 3, 2, 1.
	assert.InDelta(t, 0.5, s.Values[0], 1e-12)
	assert.InDelta(t, 1.0/3, s.Values[1], 1e-12)
	assert.InDelta(t, 1.0/6, s.Values[2], 1e-12)
}

func TestExponential(t *testing.T) {
	schemes, err := Exponential(5, 0.3, 0.7)
	require.NoError(t, err)
	require.Len(t, schemes, 2)

	for _, s := range schemes {
		require.NoError(t, s.Validate())
		assert.InDelta(t, 1, floats.Sum(s.Values), 1e-12)
		for i := 1; i < len(s.Values); i++ {
			assert.Less(t, s.Values[i], s.Values[i-1], "%s must decay back in time", s.Name)
		}
	}
	assert.Equal(t, "exp0.3", schemes[0].Name)
	assert.Equal(t, "exp0.7", schemes[1].Name)
}

func TestExponential_RejectsAlphaOutsideUnitInterval(t *testing.T) {
	for _, alpha := range []float64{0, 1, -0.2, 1.3} {
		_, err := Exponential(3, alpha)
		assert.ErrorIs(t, err, ErrConfig, "alpha %v", alpha)
	}
}

func TestBeta_GridAndShape(t *testing.T) {
	schemes, err := Beta(10, []float64{1, 2}, []float64{3, 5})
	require.NoError(t, err)
	require.Len(t, schemes, 4)

	names := make([]string, 0, len(schemes))
	for _, s := range schemes {
		require.NoError(t, s.Validate())
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"beta1-3", "beta1-5", "beta2-3", "beta2-5"}, names)

	// b > a loads the recent end of the window.
	recent := schemes[0] // beta1-3
	assert.Greater(t, recent.Values[0], recent.Values[len(recent.Values)-1])
}

func TestBeta_FiniteForShapesBelowOne(t *testing.T) {
	schemes, err := Beta(8, []float64{0.5}, []float64{0.5})
	require.NoError(t, err)
	require.Len(t, schemes, 1)
	require.NoError(t, schemes[0].Validate())
}

func TestCustom(t *testing.T) {
	s, err := Custom("front", []float64{2, 1, 1}, true)
	require.NoError(t, err)
	require.NoError(t, s.Validate())
	assert.InDelta(t, 0.5, s.Values[0], 1e-12)

	_, err = Custom("front", []float64{0.9, 0.2}, false)
	assert.ErrorIs(t, err, ErrConfig, "unnormalized vector must sum to one")

	_, err = Custom("front", []float64{0.5, -0.5, 1}, true)
	assert.ErrorIs(t, err, ErrConfig, "negative weights rejected")

	_, err = Custom("bad--name", []float64{1}, true)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestGrid_Build(t *testing.T) {
	schemes, err := Grid{
		Lag:       6,
		Equal:     true,
		Linear:    true,
		ExpAlphas: []float64{0.5},
		BetaA:     []float64{1},
		BetaB:     []float64{3},
	}.Build()
	require.NoError(t, err)
	assert.Len(t, schemes, 4)
	for _, s := range schemes {
		assert.Equal(t, 6, s.Lag)
		require.NoError(t, s.Validate())
	}

	_, err = Grid{Lag: 6}.Build()
	assert.ErrorIs(t, err, ErrConfig, "empty grid")
}
