package measures

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/crimson-sun/barometer/internal/model"
)

// SubsetDates keeps the rows inside [from, to], both inclusive; a zero time
// leaves that end open. Bucket series keep their full history so derived
// containers can still be attributed.
func (c *Container) SubsetDates(from, to time.Time) (*Container, error) {
	var dates []time.Time
	var keep []int
	for i, d := range c.dates {
		if !from.IsZero() && d.Before(from) {
			continue
		}
		if !to.IsZero() && d.After(to) {
			continue
		}
		dates = append(dates, d)
		keep = append(keep, i)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: no dates in [%s, %s]", ErrEmpty,
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	ms := make([]model.Measure, len(c.list))
	for j, m := range c.list {
		values := make([]float64, len(keep))
		for t, i := range keep {
			values[t] = m.Values[i]
		}
		ms[j] = model.Measure{Key: m.Key, Values: values}
	}
	return c.rebuild(dates, ms, c.buckets, c.schemes, c.derived)
}

// SubsetKeys keeps measures whose key components match the given sets; a nil
// set leaves that dimension unfiltered.
func (c *Container) SubsetKeys(features, lexicons, schemes []string) (*Container, error) {
	featSet := toSet(features)
	lexSet := toSet(lexicons)
	schemeSet := toSet(schemes)

	var ms []model.Measure
	for _, m := range c.list {
		if featSet != nil {
			if _, ok := featSet[m.Key.Feature]; !ok {
				continue
			}
		}
		if lexSet != nil {
			if _, ok := lexSet[m.Key.Lexicon]; !ok {
				continue
			}
		}
		if schemeSet != nil {
			if _, ok := schemeSet[m.Key.Scheme]; !ok {
				continue
			}
		}
		ms = append(ms, model.Measure{Key: m.Key, Values: m.Values})
	}
	if len(ms) == 0 {
		return nil, fmt.Errorf("%w: key filter matches nothing", ErrEmpty)
	}
	return c.rebuild(copyDates(c.dates), ms, c.bucketsFor(ms), c.schemesFor(ms), c.derived)
}

// Select keeps exactly the named measures.
func (c *Container) Select(names ...string) (*Container, error) {
	ms := make([]model.Measure, 0, len(names))
	for _, name := range names {
		m, err := c.Get(name)
		if err != nil {
			return nil, err
		}
		ms = append(ms, model.Measure{Key: m.Key, Values: m.Values})
	}
	if len(ms) == 0 {
		return nil, fmt.Errorf("%w: no names given", ErrEmpty)
	}
	return c.rebuild(copyDates(c.dates), ms, c.bucketsFor(ms), c.schemesFor(ms), c.derived)
}

// MergeSpec names groups per dimension: group name to member values. Members
// are averaged without weighting. With KeepOriginals the merged-away
// measures stay alongside the group series, in which case group names must
// not collide with existing dimension values.
type MergeSpec struct {
	Features      map[string][]string
	Lexicons      map[string][]string
	Schemes       map[string][]string
	KeepOriginals bool
}

// Merge collapses dimension groups into averaged series. Each group yields
// exactly one series per combination of the other dimensions.
func (c *Container) Merge(spec MergeSpec) (*Container, error) {
	feats, lexs, schemes := c.dimensions()
	featMap, err := groupMap(spec.Features, feats, "feature", spec.KeepOriginals)
	if err != nil {
		return nil, err
	}
	lexMap, err := groupMap(spec.Lexicons, lexs, "lexicon", spec.KeepOriginals)
	if err != nil {
		return nil, err
	}
	schemeMap, err := groupMap(spec.Schemes, schemes, "scheme", spec.KeepOriginals)
	if err != nil {
		return nil, err
	}

	rename := func(k model.MeasureKey) model.MeasureKey {
		return model.MeasureKey{
			Feature: mapped(featMap, k.Feature),
			Lexicon: mapped(lexMap, k.Lexicon),
			Scheme:  mapped(schemeMap, k.Scheme),
		}
	}

	// Average measures landing on the same renamed key, keeping first-seen
	// order.
	var order []model.MeasureKey
	grouped := make(map[model.MeasureKey][]model.Measure)
	for _, m := range c.list {
		key := rename(m.Key)
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], m)
	}

	ms := make([]model.Measure, 0, len(order))
	for _, key := range order {
		ms = append(ms, model.Measure{Key: key, Values: meanValues(grouped[key], len(c.dates))})
	}
	if spec.KeepOriginals {
		for _, m := range c.list {
			if rename(m.Key) != m.Key {
				ms = append(ms, model.Measure{Key: m.Key, Values: m.Values})
			}
		}
	}

	buckets := mergeBuckets(c.buckets, featMap, lexMap, spec.KeepOriginals)
	schemeW := mergeSchemes(c.schemes, schemeMap, spec.KeepOriginals)
	return c.rebuild(copyDates(c.dates), ms, buckets, schemeW, c.derived)
}

// Standardize z-scores every measure using the mean and standard deviation
// computed over [from, to] (zero times use the whole index) and applies them
// to the full series.
func (c *Container) Standardize(from, to time.Time) (*Container, error) {
	lo, hi := 0, len(c.dates)
	if !from.IsZero() {
		for lo < len(c.dates) && c.dates[lo].Before(from) {
			lo++
		}
	}
	if !to.IsZero() {
		for hi > 0 && c.dates[hi-1].After(to) {
			hi--
		}
	}
	if hi-lo < 2 {
		return nil, fmt.Errorf("%w: standardization window holds %d rows", ErrAlignment, hi-lo)
	}

	ms := make([]model.Measure, len(c.list))
	for j, m := range c.list {
		window := m.Values[lo:hi]
		mean := stat.Mean(window, nil)
		sd := stat.StdDev(window, nil)
		if sd == 0 {
			return nil, fmt.Errorf("%w: measure %q", ErrDegenerateScale, m.Key.Name())
		}
		values := make([]float64, len(m.Values))
		for t, v := range m.Values {
			values[t] = (v - mean) / sd
		}
		ms[j] = model.Measure{Key: m.Key, Values: values}
	}
	return c.rebuild(copyDates(c.dates), ms, c.buckets, c.schemes, true)
}

// ScaleShift maps every value to value*mult + shift. Neutral parameters
// (1, 0) return an equal container.
func (c *Container) ScaleShift(mult, shift float64) (*Container, error) {
	if math.IsNaN(mult) || math.IsInf(mult, 0) || math.IsNaN(shift) || math.IsInf(shift, 0) {
		return nil, fmt.Errorf("%w: scale %v shift %v", ErrAlignment, mult, shift)
	}
	ms := make([]model.Measure, len(c.list))
	for j, m := range c.list {
		values := make([]float64, len(m.Values))
		for t, v := range m.Values {
			values[t] = v*mult + shift
		}
		ms[j] = model.Measure{Key: m.Key, Values: values}
	}
	derived := c.derived || mult != 1 || shift != 0
	return c.rebuild(copyDates(c.dates), ms, c.buckets, c.schemes, derived)
}

// Difference replaces each series by its k-step difference, dropping the
// first k dates.
func (c *Container) Difference(k int) (*Container, error) {
	if k < 1 || k >= len(c.dates) {
		return nil, fmt.Errorf("%w: difference order %d on %d dates", ErrAlignment, k, len(c.dates))
	}
	dates := copyDates(c.dates[k:])
	ms := make([]model.Measure, len(c.list))
	for j, m := range c.list {
		values := make([]float64, len(m.Values)-k)
		for t := k; t < len(m.Values); t++ {
			values[t-k] = m.Values[t] - m.Values[t-k]
		}
		ms[j] = model.Measure{Key: m.Key, Values: values}
	}
	return c.rebuild(dates, ms, c.buckets, c.schemes, true)
}

// CumSum replaces each series by its running sum.
func (c *Container) CumSum() (*Container, error) {
	ms := make([]model.Measure, len(c.list))
	for j, m := range c.list {
		values := make([]float64, len(m.Values))
		var sum float64
		for t, v := range m.Values {
			sum += v
			values[t] = sum
		}
		ms[j] = model.Measure{Key: m.Key, Values: values}
	}
	return c.rebuild(copyDates(c.dates), ms, c.buckets, c.schemes, true)
}

func (c *Container) rebuild(dates []time.Time, ms []model.Measure,
	buckets []model.BucketSeries, schemes map[string][]float64, derived bool) (*Container, error) {

	next, err := New(dates, ms, buckets, schemes, c.cadence, c.fill)
	if err != nil {
		return nil, err
	}
	next.derived = derived
	return next, nil
}

// bucketsFor keeps the bucket series referenced by the measure set.
func (c *Container) bucketsFor(ms []model.Measure) []model.BucketSeries {
	want := make(map[[2]string]struct{}, len(ms))
	for _, m := range ms {
		want[[2]string{m.Key.Feature, m.Key.Lexicon}] = struct{}{}
	}
	var out []model.BucketSeries
	for _, b := range c.buckets {
		if _, ok := want[[2]string{b.Feature, b.Lexicon}]; ok {
			out = append(out, b)
		}
	}
	return out
}

// schemesFor keeps the weight vectors referenced by the measure set.
func (c *Container) schemesFor(ms []model.Measure) map[string][]float64 {
	out := make(map[string][]float64)
	for _, m := range ms {
		if w, ok := c.schemes[m.Key.Scheme]; ok {
			out[m.Key.Scheme] = w
		}
	}
	return out
}

// dimensions returns the value universes of the three key dimensions.
func (c *Container) dimensions() (feats, lexs, schemes map[string]struct{}) {
	feats = make(map[string]struct{})
	lexs = make(map[string]struct{})
	schemes = make(map[string]struct{})
	for _, m := range c.list {
		feats[m.Key.Feature] = struct{}{}
		lexs[m.Key.Lexicon] = struct{}{}
		schemes[m.Key.Scheme] = struct{}{}
	}
	return feats, lexs, schemes
}

// groupMap validates one dimension's groups and flattens them to a member
// rename table.
func groupMap(groups map[string][]string, universe map[string]struct{}, dim string, keepOriginals bool) (map[string]string, error) {
	if len(groups) == 0 {
		return nil, nil
	}
	rename := make(map[string]string)
	for group, members := range groups {
		if err := model.CheckComponent(group); err != nil {
			return nil, fmt.Errorf("measures: merge %s group: %w", dim, err)
		}
		if len(members) == 0 {
			return nil, fmt.Errorf("measures: merge %s group %q is empty", dim, group)
		}
		if _, exists := universe[group]; exists && keepOriginals {
			return nil, fmt.Errorf("measures: merge %s group %q collides with an existing value", dim, group)
		}
		for _, member := range members {
			if _, ok := universe[member]; !ok {
				return nil, fmt.Errorf("measures: merge %s group %q: unknown member %q", dim, group, member)
			}
			if prev, dup := rename[member]; dup && prev != group {
				return nil, fmt.Errorf("measures: %s %q belongs to groups %q and %q", dim, member, prev, group)
			}
			rename[member] = group
		}
	}
	return rename, nil
}

func mapped(rename map[string]string, v string) string {
	if rename == nil {
		return v
	}
	if group, ok := rename[v]; ok {
		return group
	}
	return v
}

// mergeBuckets averages bucket series landing on the same renamed (feature,
// lexicon) pair: values are averaged, document counts summed.
func mergeBuckets(buckets []model.BucketSeries, featMap, lexMap map[string]string, keepOriginals bool) []model.BucketSeries {
	var order [][2]string
	grouped := make(map[[2]string][]model.BucketSeries)
	for _, b := range buckets {
		pair := [2]string{mapped(featMap, b.Feature), mapped(lexMap, b.Lexicon)}
		if _, seen := grouped[pair]; !seen {
			order = append(order, pair)
		}
		grouped[pair] = append(grouped[pair], b)
	}

	out := make([]model.BucketSeries, 0, len(order))
	for _, pair := range order {
		members := grouped[pair]
		if len(members) == 1 && members[0].Feature == pair[0] && members[0].Lexicon == pair[1] {
			out = append(out, members[0])
			continue
		}
		n := len(members[0].Dates)
		merged := model.BucketSeries{
			Feature: pair[0],
			Lexicon: pair[1],
			Dates:   members[0].Dates,
			Values:  make([]float64, n),
			Counts:  make([]int, n),
		}
		for i := 0; i < n; i++ {
			var sum float64
			for _, b := range members {
				sum += b.Values[i]
				merged.Counts[i] += b.Counts[i]
			}
			merged.Values[i] = sum / float64(len(members))
		}
		out = append(out, merged)
	}
	if keepOriginals {
		for _, b := range buckets {
			if mapped(featMap, b.Feature) != b.Feature || mapped(lexMap, b.Lexicon) != b.Lexicon {
				out = append(out, b)
			}
		}
	}
	return out
}

// mergeSchemes averages the weight vectors of merged schemes, which keeps
// merged measures equal to the roll-up of their merged buckets.
func mergeSchemes(schemes map[string][]float64, schemeMap map[string]string, keepOriginals bool) map[string][]float64 {
	if schemeMap == nil {
		return schemes
	}
	counts := make(map[string]int)
	out := make(map[string][]float64)
	for name, w := range schemes {
		target := mapped(schemeMap, name)
		if _, ok := out[target]; !ok {
			out[target] = make([]float64, len(w))
		}
		for i, v := range w {
			out[target][i] += v
		}
		counts[target]++
		if keepOriginals && target != name {
			out[name] = w
			counts[name] = 1
		}
	}
	for name, n := range counts {
		if n > 1 {
			for i := range out[name] {
				out[name][i] /= float64(n)
			}
		}
	}
	return out
}

func meanValues(members []model.Measure, n int) []float64 {
	values := make([]float64, n)
	for _, m := range members {
		for t, v := range m.Values {
			values[t] += v
		}
	}
	for t := range values {
		values[t] /= float64(len(members))
	}
	return values
}

func toSet(items []string) map[string]struct{} {
	if items == nil {
		return nil
	}
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}

func copyDates(dates []time.Time) []time.Time {
	out := make([]time.Time, len(dates))
	copy(out, dates)
	return out
}
