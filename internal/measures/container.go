// Package measures holds the sentiment measures container and its
// transforms. A container couples named measure series to one shared,
// strictly increasing date index, plus the bucket-level series and scheme
// weights they were aggregated from. Containers are immutable; every
// transform returns a new one.
package measures

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/crimson-sun/barometer/internal/model"
)

var (
	// ErrEmpty is returned when a container would hold no measures or dates.
	ErrEmpty = errors.New("measures: empty container")
	// ErrAlignment is returned for a broken date index or mismatched series.
	ErrAlignment = errors.New("measures: date index misaligned")
	// ErrUnknownMeasure is returned for lookups of names not in the
	// container.
	ErrUnknownMeasure = errors.New("measures: unknown measure")
	// ErrDegenerateScale is returned when standardizing a zero-variance
	// series.
	ErrDegenerateScale = errors.New("measures: zero variance under scaling")
)

// Container is an immutable set of sentiment measures.
type Container struct {
	dates  []time.Time
	list   []model.Measure
	byName map[string]int

	// buckets holds the fill-resolved (feature, lexicon) series on the full
	// bucket index the measures were rolled up from. schemes holds the
	// weight vectors by scheme name. Together they let predictions be
	// attributed back through the aggregation.
	buckets []model.BucketSeries
	schemes map[string][]float64

	cadence model.Cadence
	fill    model.FillPolicy

	// derived marks containers whose values no longer equal the weighted
	// roll-up of their buckets (after scaling or differencing).
	derived bool
}

// New builds and validates a container. It takes ownership of the slices it
// is given.
func New(dates []time.Time, ms []model.Measure, buckets []model.BucketSeries,
	schemes map[string][]float64, cadence model.Cadence, fill model.FillPolicy) (*Container, error) {

	c := &Container{
		dates:   dates,
		list:    ms,
		buckets: buckets,
		schemes: schemes,
		cadence: cadence,
		fill:    fill,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	sort.SliceStable(c.list, func(i, j int) bool {
		return c.list[i].Key.Name() < c.list[j].Key.Name()
	})
	c.byName = make(map[string]int, len(c.list))
	for i, m := range c.list {
		name := m.Key.Name()
		if _, dup := c.byName[name]; dup {
			return nil, fmt.Errorf("%w: duplicate measure %q", ErrAlignment, name)
		}
		c.byName[name] = i
	}
	return c, nil
}

func (c *Container) validate() error {
	if len(c.dates) == 0 || len(c.list) == 0 {
		return ErrEmpty
	}
	for i := 1; i < len(c.dates); i++ {
		if !c.dates[i-1].Before(c.dates[i]) {
			return fmt.Errorf("%w: dates not strictly increasing at %s",
				ErrAlignment, c.dates[i].Format("2006-01-02"))
		}
		if c.fill != model.FillDrop && !c.cadence.Next(c.dates[i-1]).Equal(c.dates[i]) {
			return fmt.Errorf("%w: gap between %s and %s at cadence %s",
				ErrAlignment, c.dates[i-1].Format("2006-01-02"),
				c.dates[i].Format("2006-01-02"), c.cadence)
		}
	}

	pairs := make(map[[2]string]int, len(c.buckets))
	var bucketDates []time.Time
	for i, b := range c.buckets {
		if len(b.Values) != len(b.Dates) || len(b.Counts) != len(b.Dates) {
			return fmt.Errorf("%w: bucket series %s/%s length mismatch", ErrAlignment, b.Feature, b.Lexicon)
		}
		if bucketDates == nil {
			bucketDates = b.Dates
		} else if !sameDates(bucketDates, b.Dates) {
			return fmt.Errorf("%w: bucket series %s/%s on a different index", ErrAlignment, b.Feature, b.Lexicon)
		}
		pairs[[2]string{b.Feature, b.Lexicon}] = i
	}

	for _, m := range c.list {
		if len(m.Values) != len(c.dates) {
			return fmt.Errorf("%w: measure %q has %d values for %d dates",
				ErrAlignment, m.Key.Name(), len(m.Values), len(c.dates))
		}
		for t, v := range m.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: measure %q holds %v at %s",
					ErrAlignment, m.Key.Name(), v, c.dates[t].Format("2006-01-02"))
			}
		}
		if _, ok := pairs[[2]string{m.Key.Feature, m.Key.Lexicon}]; !ok {
			return fmt.Errorf("%w: no bucket series for measure %q", ErrAlignment, m.Key.Name())
		}
		if _, ok := c.schemes[m.Key.Scheme]; !ok {
			return fmt.Errorf("%w: no weight vector for scheme %q", ErrAlignment, m.Key.Scheme)
		}
	}
	return nil
}

func sameDates(a, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Dates returns a copy of the shared date index.
func (c *Container) Dates() []time.Time {
	out := make([]time.Time, len(c.dates))
	copy(out, c.dates)
	return out
}

// Names returns the measure names in sorted order.
func (c *Container) Names() []string {
	names := make([]string, len(c.list))
	for i, m := range c.list {
		names[i] = m.Key.Name()
	}
	return names
}

// Count returns the number of measures.
func (c *Container) Count() int { return len(c.list) }

// Get returns the named measure. The returned values must not be mutated.
func (c *Container) Get(name string) (model.Measure, error) {
	i, ok := c.byName[name]
	if !ok {
		return model.Measure{}, fmt.Errorf("%w: %q", ErrUnknownMeasure, name)
	}
	return c.list[i], nil
}

// Measures returns the measures in name order. Shared backing arrays must
// not be mutated.
func (c *Container) Measures() []model.Measure {
	out := make([]model.Measure, len(c.list))
	copy(out, c.list)
	return out
}

// Buckets returns the fill-resolved bucket series.
func (c *Container) Buckets() []model.BucketSeries {
	out := make([]model.BucketSeries, len(c.buckets))
	copy(out, c.buckets)
	return out
}

// Bucket returns the fill-resolved series for one (feature, lexicon) pair.
func (c *Container) Bucket(feature, lexicon string) (model.BucketSeries, error) {
	for _, b := range c.buckets {
		if b.Feature == feature && b.Lexicon == lexicon {
			return b, nil
		}
	}
	return model.BucketSeries{}, fmt.Errorf("%w: no bucket series for %s/%s", ErrUnknownMeasure, feature, lexicon)
}

// SchemeWeights returns the weight vector behind a scheme name.
func (c *Container) SchemeWeights(name string) ([]float64, bool) {
	w, ok := c.schemes[name]
	return w, ok
}

// Cadence returns the bucket cadence.
func (c *Container) Cadence() model.Cadence { return c.cadence }

// Fill returns the fill policy the measures were aggregated under.
func (c *Container) Fill() model.FillPolicy { return c.fill }

// Derived reports whether the values have been transformed away from the
// weighted roll-up of the bucket series.
func (c *Container) Derived() bool { return c.derived }

// Table exports the container as a rectangular date-by-measure table.
func (c *Container) Table() model.Table {
	tb := model.Table{
		Dates:   c.Dates(),
		Columns: c.Names(),
		Rows:    make([][]float64, len(c.dates)),
	}
	for t := range c.dates {
		row := make([]float64, len(c.list))
		for j, m := range c.list {
			row[j] = m.Values[t]
		}
		tb.Rows[t] = row
	}
	return tb
}

// DocCounts exports the per-date document counts behind each (feature,
// lexicon) pair, aligned to the container's date index.
func (c *Container) DocCounts() model.Table {
	tb := model.Table{
		Dates:   c.Dates(),
		Columns: make([]string, len(c.buckets)),
		Rows:    make([][]float64, len(c.dates)),
	}
	pos := make([]map[int64]int, len(c.buckets))
	for j, b := range c.buckets {
		tb.Columns[j] = b.Feature + model.NameSep + b.Lexicon
		pos[j] = make(map[int64]int, len(b.Dates))
		for i, d := range b.Dates {
			pos[j][d.Unix()] = i
		}
	}
	for t, d := range c.dates {
		row := make([]float64, len(c.buckets))
		for j, b := range c.buckets {
			if i, ok := pos[j][d.Unix()]; ok {
				row[j] = float64(b.Counts[i])
			}
		}
		tb.Rows[t] = row
	}
	return tb
}

// dateIndex returns the position of a date in the container index.
func (c *Container) dateIndex(d time.Time) (int, bool) {
	i := sort.Search(len(c.dates), func(i int) bool { return !c.dates[i].Before(d) })
	if i < len(c.dates) && c.dates[i].Equal(d) {
		return i, true
	}
	return 0, false
}
