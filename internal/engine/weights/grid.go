package weights

import "fmt"

// Grid describes which curve families to build for one lag. It is the
// config-facing way to assemble a scheme set.
type Grid struct {
	Lag       int
	Equal     bool
	Linear    bool
	ExpAlphas []float64
	BetaA     []float64
	BetaB     []float64
}

// Build assembles the scheme set for the grid and verifies name uniqueness.
// At least one family must be enabled.
func (g Grid) Build() ([]Scheme, error) {
	var schemes []Scheme

	if g.Equal {
		s, err := Equal(g.Lag)
		if err != nil {
			return nil, err
		}
		schemes = append(schemes, s)
	}
	if g.Linear {
		s, err := Linear(g.Lag)
		if err != nil {
			return nil, err
		}
		schemes = append(schemes, s)
	}
	if len(g.ExpAlphas) > 0 {
		exp, err := Exponential(g.Lag, g.ExpAlphas...)
		if err != nil {
			return nil, err
		}
		schemes = append(schemes, exp...)
	}
	if len(g.BetaA) > 0 || len(g.BetaB) > 0 {
		beta, err := Beta(g.Lag, g.BetaA, g.BetaB)
		if err != nil {
			return nil, err
		}
		schemes = append(schemes, beta...)
	}

	if len(schemes) == 0 {
		return nil, fmt.Errorf("%w: grid enables no curve family", ErrConfig)
	}
	seen := make(map[string]struct{}, len(schemes))
	for _, s := range schemes {
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate scheme name %q", ErrConfig, s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return schemes, nil
}
