package predict

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/crimson-sun/barometer/internal/measures"
	"github.com/crimson-sun/barometer/internal/model"
)

var (
	// ErrNoWindows is returned when attribution gets no scored windows.
	ErrNoWindows = errors.New("predict: no scored windows")
	// ErrDerived is returned for lag attribution on a container whose values
	// were transformed away from its bucket series.
	ErrDerived = errors.New("predict: container no longer matches its bucket series")
)

// Dimension selects the grouping for an attribution breakdown.
type Dimension int

const (
	ByFeature Dimension = iota + 1
	ByLexicon
	ByScheme
	ByLag
)

// ParseDimension maps a config string onto an attribution dimension.
func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "feature", "features":
		return ByFeature, nil
	case "lexicon", "lexicons":
		return ByLexicon, nil
	case "scheme", "schemes", "time":
		return ByScheme, nil
	case "lag", "lags":
		return ByLag, nil
	}
	return 0, fmt.Errorf("%w: unknown attribution dimension %q", ErrConfig, s)
}

func (d Dimension) String() string {
	switch d {
	case ByFeature:
		return "feature"
	case ByLexicon:
		return "lexicon"
	case ByScheme:
		return "scheme"
	case ByLag:
		return "lag"
	}
	return "unknown"
}

// Breakdown decomposes predictions onto one dimension of the measure space.
// For every date the group contributions sum to Sentiment, the measure-driven
// part of the prediction (everything except the intercept and the
// autoregressive term).
type Breakdown struct {
	Dimension Dimension
	Dates     []time.Time
	Groups    map[string][]float64
	Sentiment []float64
}

// Table renders the breakdown as a dated table with one column per group,
// sorted by name, in the same shape the measure container exports. Lag
// columns sort numerically so lag10 lands after lag2.
func (b *Breakdown) Table() model.Table {
	cols := make([]string, 0, len(b.Groups))
	for name := range b.Groups {
		cols = append(cols, name)
	}
	if b.Dimension == ByLag {
		sort.Slice(cols, func(i, j int) bool {
			li, _ := strconv.Atoi(strings.TrimPrefix(cols[i], "lag"))
			lj, _ := strconv.Atoi(strings.TrimPrefix(cols[j], "lag"))
			return li < lj
		})
	} else {
		sort.Strings(cols)
	}

	rows := make([][]float64, len(b.Dates))
	for i := range b.Dates {
		row := make([]float64, len(cols))
		for j, name := range cols {
			row[j] = b.Groups[name][i]
		}
		rows[i] = row
	}
	return model.Table{Dates: b.Dates, Columns: cols, Rows: rows}
}

// Normalize returns a copy whose group contributions are divided by each
// date's sentiment component, so shares sum to one. Dates with a zero
// sentiment component keep their raw contributions.
func (b *Breakdown) Normalize() *Breakdown {
	n := &Breakdown{
		Dimension: b.Dimension,
		Dates:     append([]time.Time(nil), b.Dates...),
		Groups:    make(map[string][]float64, len(b.Groups)),
		Sentiment: append([]float64(nil), b.Sentiment...),
	}
	for name, g := range b.Groups {
		scaled := make([]float64, len(g))
		for i, v := range g {
			if b.Sentiment[i] != 0 {
				scaled[i] = v / b.Sentiment[i]
			} else {
				scaled[i] = v
			}
		}
		n.Groups[name] = scaled
	}
	return n
}

// Attribute decomposes each scored window's prediction onto the chosen
// dimension. Lag attribution unrolls each coefficient through its weighting
// scheme onto the underlying bucket dates, so it requires a container still
// carrying its aggregation identity.
func Attribute(windows []Window, c *measures.Container, dim Dimension) (*Breakdown, error) {
	if dim == ByLag && c.Derived() {
		return nil, ErrDerived
	}

	scored := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.State == Scored {
			scored = append(scored, w)
		}
	}
	if len(scored) == 0 {
		return nil, ErrNoWindows
	}

	pos := make(map[int64]int)
	for i, d := range c.Dates() {
		pos[d.Unix()] = i
	}

	b := &Breakdown{
		Dimension: dim,
		Dates:     make([]time.Time, len(scored)),
		Groups:    make(map[string][]float64),
		Sentiment: make([]float64, len(scored)),
	}
	group := func(key string) []float64 {
		g, ok := b.Groups[key]
		if !ok {
			g = make([]float64, len(scored))
			b.Groups[key] = g
		}
		return g
	}

	for i, w := range scored {
		b.Dates[i] = w.Date
		t, ok := pos[w.Anchor.Unix()]
		if !ok {
			return nil, fmt.Errorf("predict: anchor %s not in the container",
				w.Anchor.Format("2006-01-02"))
		}
		for name, beta := range w.Model.Coefficients {
			key, err := model.ParseMeasureName(name)
			if err != nil {
				return nil, err
			}
			m, err := c.Get(name)
			if err != nil {
				return nil, err
			}
			contrib := beta * m.Values[t]
			b.Sentiment[i] += contrib

			switch dim {
			case ByFeature:
				group(key.Feature)[i] += contrib
			case ByLexicon:
				group(key.Lexicon)[i] += contrib
			case ByScheme:
				group(key.Scheme)[i] += contrib
			case ByLag:
				if err := lagContributions(c, key, beta, w.Anchor, i, group); err != nil {
					return nil, err
				}
			default:
				return nil, fmt.Errorf("%w: unknown attribution dimension", ErrConfig)
			}
		}
	}
	return b, nil
}

// lagContributions splits one coefficient's contribution across the bucket
// lags its measure was rolled up from: beta * weight[l] * bucket[anchor-l].
func lagContributions(c *measures.Container, key model.MeasureKey, beta float64,
	anchor time.Time, i int, group func(string) []float64) error {

	weights, ok := c.SchemeWeights(key.Scheme)
	if !ok {
		return fmt.Errorf("%w: no weight vector for scheme %q", measures.ErrUnknownMeasure, key.Scheme)
	}
	bucket, err := c.Bucket(key.Feature, key.Lexicon)
	if err != nil {
		return err
	}
	at := -1
	for j, d := range bucket.Dates {
		if d.Equal(anchor) {
			at = j
			break
		}
	}
	if at < 0 || at-len(weights)+1 < 0 {
		return fmt.Errorf("predict: anchor %s outside the bucket index for %s",
			anchor.Format("2006-01-02"), key.Name())
	}
	for l, wl := range weights {
		group("lag"+strconv.Itoa(l))[i] += beta * wl * bucket.Values[at-l]
	}
	return nil
}
