package barometer

import (
	"time"

	"github.com/crimson-sun/barometer/internal/measures"
)

// Measures holds named sentiment series sharing one time index. Transforming
// methods return a new instance; the receiver is never modified.
type Measures struct {
	c *measures.Container
}

// Count returns the number of series.
func (m *Measures) Count() int { return m.c.Count() }

// Names returns the series names, feature--lexicon--scheme, sorted.
func (m *Measures) Names() []string { return m.c.Names() }

// Dates returns the time index.
func (m *Measures) Dates() []time.Time { return m.c.Dates() }

// Values returns a copy of one series by its full name.
func (m *Measures) Values(name string) ([]float64, error) {
	ms, err := m.c.Get(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(ms.Values))
	copy(out, ms.Values)
	return out, nil
}

// Table exports every series as a dated table.
func (m *Measures) Table() Table { return tableFromModel(m.c.Table()) }

// DocCounts reports how many documents entered each feature-lexicon bucket
// per date.
func (m *Measures) DocCounts() Table { return tableFromModel(m.c.DocCounts()) }

// SubsetDates restricts the index to [from, to]. A zero bound is open.
func (m *Measures) SubsetDates(from, to time.Time) (*Measures, error) {
	c, err := m.c.SubsetDates(from, to)
	if err != nil {
		return nil, err
	}
	return &Measures{c: c}, nil
}

// SubsetKeys keeps series matching the given dimension values. A nil slice
// leaves its dimension unrestricted.
func (m *Measures) SubsetKeys(features, lexicons, schemes []string) (*Measures, error) {
	c, err := m.c.SubsetKeys(features, lexicons, schemes)
	if err != nil {
		return nil, err
	}
	return &Measures{c: c}, nil
}

// Select keeps exactly the named series.
func (m *Measures) Select(names ...string) (*Measures, error) {
	c, err := m.c.Select(names...)
	if err != nil {
		return nil, err
	}
	return &Measures{c: c}, nil
}

// MergeSpec names groups per dimension: group name to member values. Members
// are averaged without weighting. With KeepOriginals the merged-away series
// stay alongside the group series.
type MergeSpec struct {
	Features      map[string][]string
	Lexicons      map[string][]string
	Schemes       map[string][]string
	KeepOriginals bool
}

// Merge collapses dimension groups into averaged series.
func (m *Measures) Merge(spec MergeSpec) (*Measures, error) {
	c, err := m.c.Merge(measures.MergeSpec{
		Features:      spec.Features,
		Lexicons:      spec.Lexicons,
		Schemes:       spec.Schemes,
		KeepOriginals: spec.KeepOriginals,
	})
	if err != nil {
		return nil, err
	}
	return &Measures{c: c}, nil
}

// Standardize centers and scales each series to zero mean and unit variance,
// with the moments estimated on [from, to]. Zero bounds take the whole index.
func (m *Measures) Standardize(from, to time.Time) (*Measures, error) {
	c, err := m.c.Standardize(from, to)
	if err != nil {
		return nil, err
	}
	return &Measures{c: c}, nil
}

// ScaleShift maps every value to value*mult + shift.
func (m *Measures) ScaleShift(mult, shift float64) (*Measures, error) {
	c, err := m.c.ScaleShift(mult, shift)
	if err != nil {
		return nil, err
	}
	return &Measures{c: c}, nil
}

// Difference replaces each series by its k-th order differences, shortening
// the index by k.
func (m *Measures) Difference(k int) (*Measures, error) {
	c, err := m.c.Difference(k)
	if err != nil {
		return nil, err
	}
	return &Measures{c: c}, nil
}

// CumSum replaces each series by its running sum.
func (m *Measures) CumSum() (*Measures, error) {
	c, err := m.c.CumSum()
	if err != nil {
		return nil, err
	}
	return &Measures{c: c}, nil
}
