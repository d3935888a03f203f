// Package predict fits penalized regressions of a dated target on sentiment
// measures and rolls them forward through time. Every window trains on pairs
// (x_t, y_t+h) whose response is already realized at the anchor date, so no
// future information leaks into a fit.
package predict

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/crimson-sun/barometer/internal/measures"
	"github.com/crimson-sun/barometer/internal/model"
)

var (
	// ErrConfig is returned for invalid regression configurations.
	ErrConfig = errors.New("predict: invalid configuration")
	// ErrTargetMisaligned is returned when the target and the measures share
	// no dates.
	ErrTargetMisaligned = errors.New("predict: target shares no dates with the measures")
	// ErrInsufficientHistory is returned when the aligned sample cannot fill
	// a single training window.
	ErrInsufficientHistory = errors.New("predict: not enough paired observations")
)

// Selection is the rule used to pick a model along the penalty path.
type Selection int

const (
	BIC Selection = iota + 1
	AIC
	Cp
	CrossValidation
)

// ParseSelection maps a config string onto a selection rule.
func ParseSelection(s string) (Selection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bic":
		return BIC, nil
	case "aic":
		return AIC, nil
	case "cp":
		return Cp, nil
	case "cv":
		return CrossValidation, nil
	}
	return 0, fmt.Errorf("%w: unknown selection rule %q", ErrConfig, s)
}

func (s Selection) String() string {
	switch s {
	case BIC:
		return "bic"
	case AIC:
		return "aic"
	case Cp:
		return "cp"
	case CrossValidation:
		return "cv"
	}
	return "unknown"
}

// FailurePolicy decides how a failed window affects the run.
type FailurePolicy int

const (
	// Abort stops the run on the first failed window.
	Abort FailurePolicy = iota + 1
	// Skip records the failure on the window and keeps going.
	Skip
)

// ParseFailurePolicy maps a config string onto a failure policy.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "abort":
		return Abort, nil
	case "skip":
		return Skip, nil
	}
	return 0, fmt.Errorf("%w: unknown failure policy %q", ErrConfig, s)
}

// WindowState tracks one window through the run.
type WindowState int

const (
	Ready WindowState = iota + 1
	Fitted
	Scored
	Failed
)

func (s WindowState) String() string {
	switch s {
	case Ready:
		return "ready"
	case Fitted:
		return "fitted"
	case Scored:
		return "scored"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Config controls the regression engine.
type Config struct {
	// Alphas is the elastic-net mixing grid, each in [0, 1]. Zero is ridge,
	// one is lasso.
	Alphas []float64
	// NLambda is the number of penalties on the geometric path.
	NLambda int
	// LambdaMinRatio is the ratio of the smallest to the largest penalty.
	LambdaMinRatio float64
	// Selection picks the model along the path.
	Selection Selection
	// CVFolds is the fold count under CrossValidation.
	CVFolds int

	// Horizon is how many aligned steps ahead the response sits.
	Horizon int
	// NSample is the number of training pairs per window when iterating.
	NSample int
	// Step advances the anchor between windows.
	Step int
	// Iterate walks the anchor forward through the sample. When false a
	// single window trains on every available pair.
	Iterate bool
	// AR adds the target's own value at the feature date as a regressor.
	AR bool

	// OnFailure decides whether a failed window aborts the run.
	OnFailure FailurePolicy
	// Workers bounds how many windows fit concurrently.
	Workers int

	// Tolerance stops coordinate descent once no coefficient moves more.
	Tolerance float64
	// MaxIter caps coordinate descent sweeps.
	MaxIter int
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Alphas:         []float64{0, 0.2, 0.4, 0.6, 0.8, 1},
		NLambda:        50,
		LambdaMinRatio: 1e-3,
		Selection:      BIC,
		CVFolds:        5,
		Horizon:        1,
		NSample:        60,
		Step:           1,
		Iterate:        true,
		OnFailure:      Abort,
		Workers:        4,
		Tolerance:      1e-7,
		MaxIter:        1000,
	}
}

// Validate rejects configurations the engine cannot run.
func (cfg Config) Validate() error {
	if len(cfg.Alphas) == 0 {
		return fmt.Errorf("%w: no alphas", ErrConfig)
	}
	for _, a := range cfg.Alphas {
		if math.IsNaN(a) || a < 0 || a > 1 {
			return fmt.Errorf("%w: alpha %v outside [0, 1]", ErrConfig, a)
		}
	}
	if cfg.NLambda < 1 {
		return fmt.Errorf("%w: NLambda %d", ErrConfig, cfg.NLambda)
	}
	if !(cfg.LambdaMinRatio > 0 && cfg.LambdaMinRatio < 1) {
		return fmt.Errorf("%w: LambdaMinRatio %v outside (0, 1)", ErrConfig, cfg.LambdaMinRatio)
	}
	switch cfg.Selection {
	case BIC, AIC, Cp:
	case CrossValidation:
		if cfg.CVFolds < 2 {
			return fmt.Errorf("%w: %d cross-validation folds", ErrConfig, cfg.CVFolds)
		}
	default:
		return fmt.Errorf("%w: unknown selection rule", ErrConfig)
	}
	if cfg.Horizon < 0 {
		return fmt.Errorf("%w: negative horizon %d", ErrConfig, cfg.Horizon)
	}
	if cfg.Iterate && cfg.NSample < 2 {
		return fmt.Errorf("%w: NSample %d", ErrConfig, cfg.NSample)
	}
	if cfg.Step < 1 {
		return fmt.Errorf("%w: step %d", ErrConfig, cfg.Step)
	}
	switch cfg.OnFailure {
	case Abort, Skip:
	default:
		return fmt.Errorf("%w: unknown failure policy", ErrConfig)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("%w: %d workers", ErrConfig, cfg.Workers)
	}
	if !(cfg.Tolerance > 0) {
		return fmt.Errorf("%w: tolerance %v", ErrConfig, cfg.Tolerance)
	}
	if cfg.MaxIter < 1 {
		return fmt.Errorf("%w: MaxIter %d", ErrConfig, cfg.MaxIter)
	}
	return nil
}

// Model is one fitted regression in original units.
type Model struct {
	Alpha     float64
	Lambda    float64
	Intercept float64
	// Coefficients holds the nonzero measure coefficients by measure name.
	Coefficients  map[string]float64
	ARCoefficient float64
	// Criterion is the selection rule's value for the chosen fit.
	Criterion float64
	NObs      int
}

// Window is one anchor of a walk-forward run.
type Window struct {
	// Anchor is the last information date used to fit and score.
	Anchor time.Time
	// Date is the date the prediction targets.
	Date       time.Time
	State      WindowState
	Model      Model
	Prediction float64
	Realized   float64
	// Known reports whether Realized is meaningful.
	Known bool
	// Err is set when State is Failed.
	Err error
}

// Regression drives elastic-net fits of a target on a measures container.
type Regression struct {
	cfg Config
}

// New validates the configuration and builds a regression engine.
func New(cfg Config) (*Regression, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Regression{cfg: cfg}, nil
}

// dataset is the aligned problem: measure columns and the target restricted
// to the intersection of their date indexes.
type dataset struct {
	dates []time.Time
	names []string
	cols  [][]float64
	y     []float64
}

func align(c *measures.Container, target model.Target) (dataset, error) {
	if len(target.Dates) != len(target.Values) {
		return dataset{}, fmt.Errorf("%w: target %q has %d dates for %d values",
			ErrConfig, target.Name, len(target.Dates), len(target.Values))
	}
	want := make(map[int64]float64, len(target.Dates))
	for i, d := range target.Dates {
		v := target.Values[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return dataset{}, fmt.Errorf("%w: target %q holds %v at %s",
				ErrConfig, target.Name, v, d.Format("2006-01-02"))
		}
		want[d.Unix()] = v
	}

	ms := c.Measures()
	ds := dataset{
		names: make([]string, len(ms)),
		cols:  make([][]float64, len(ms)),
	}
	for j, m := range ms {
		ds.names[j] = m.Key.Name()
	}
	for t, d := range c.Dates() {
		v, ok := want[d.Unix()]
		if !ok {
			continue
		}
		ds.dates = append(ds.dates, d)
		ds.y = append(ds.y, v)
		for j, m := range ms {
			ds.cols[j] = append(ds.cols[j], m.Values[t])
		}
	}
	if len(ds.dates) == 0 {
		return dataset{}, fmt.Errorf("%w: target %q", ErrTargetMisaligned, target.Name)
	}
	return ds, nil
}

// trainDesign builds the pairs (x_t, y_t+h) for t in [lo, a-h].
func (ds dataset) trainDesign(lo, a, h int, ar bool) design {
	n := a - h - lo + 1
	p := len(ds.cols)
	if ar {
		p++
	}
	d := design{y: make([]float64, 0, n), cols: make([][]float64, p)}
	for j := range d.cols {
		d.cols[j] = make([]float64, 0, n)
	}
	for t := lo; t <= a-h; t++ {
		for j, col := range ds.cols {
			d.cols[j] = append(d.cols[j], col[t])
		}
		if ar {
			d.cols[len(ds.cols)] = append(d.cols[len(ds.cols)], ds.y[t])
		}
		d.y = append(d.y, ds.y[t+h])
	}
	return d
}

// fit solves the window's training problem and maps it onto a Model.
func (r *Regression) fit(ds dataset, lo, a int) Model {
	d := ds.trainDesign(lo, a, r.cfg.Horizon, r.cfg.AR)
	sol := solve(d, r.cfg)
	m := Model{
		Alpha:        sol.alpha,
		Lambda:       sol.lambda,
		Intercept:    sol.intercept,
		Coefficients: make(map[string]float64),
		Criterion:    sol.criterion,
		NObs:         d.n(),
	}
	for j, name := range ds.names {
		if sol.betas[j] != 0 {
			m.Coefficients[name] = sol.betas[j]
		}
	}
	if r.cfg.AR {
		m.ARCoefficient = sol.betas[len(ds.names)]
	}
	return m
}

// score applies a fitted model to the feature row at position a.
func (ds dataset) score(m Model, a int, ar bool) float64 {
	pred := m.Intercept
	for j, name := range ds.names {
		if b, ok := m.Coefficients[name]; ok {
			pred += b * ds.cols[j][a]
		}
	}
	if ar {
		pred += m.ARCoefficient * ds.y[a]
	}
	return pred
}

// Fit estimates one model on every available pair. The anchor is the last
// aligned date.
func (r *Regression) Fit(c *measures.Container, target model.Target) (*Model, error) {
	ds, err := align(c, target)
	if err != nil {
		return nil, err
	}
	if len(ds.dates)-r.cfg.Horizon < 2 {
		return nil, fmt.Errorf("%w: %d pairs at horizon %d",
			ErrInsufficientHistory, len(ds.dates)-r.cfg.Horizon, r.cfg.Horizon)
	}
	m := r.fit(ds, 0, len(ds.dates)-1)
	return &m, nil
}

// Run walks anchors forward through the aligned sample. Windows past the end
// of the realized target are genuine forecasts and carry Known == false.
func (r *Regression) Run(ctx context.Context, c *measures.Container, target model.Target) ([]Window, error) {
	ds, err := align(c, target)
	if err != nil {
		return nil, err
	}

	h, last := r.cfg.Horizon, len(ds.dates)-1
	var anchors []int
	if r.cfg.Iterate {
		first := r.cfg.NSample + h - 1
		if first > last {
			return nil, fmt.Errorf("%w: %d aligned dates for NSample %d at horizon %d",
				ErrInsufficientHistory, len(ds.dates), r.cfg.NSample, h)
		}
		for a := first; a <= last; a += r.cfg.Step {
			anchors = append(anchors, a)
		}
	} else {
		if len(ds.dates)-h < 2 {
			return nil, fmt.Errorf("%w: %d pairs at horizon %d",
				ErrInsufficientHistory, len(ds.dates)-h, h)
		}
		anchors = append(anchors, last)
	}

	windows := make([]Window, len(anchors))
	sem := make(chan struct{}, r.cfg.Workers)
	var wg sync.WaitGroup
	for i, a := range anchors {
		wg.Add(1)
		sem <- struct{}{}
		go func(i, a int) {
			defer wg.Done()
			defer func() { <-sem }()
			windows[i] = r.window(ctx, ds, a, c.Cadence())
		}(i, a)
	}
	wg.Wait()

	if r.cfg.OnFailure == Abort {
		for _, w := range windows {
			if w.State == Failed {
				return nil, fmt.Errorf("window at anchor %s: %w",
					w.Anchor.Format("2006-01-02"), w.Err)
			}
		}
	}
	return windows, nil
}

func (r *Regression) window(ctx context.Context, ds dataset, a int, cadence model.Cadence) Window {
	h := r.cfg.Horizon
	w := Window{Anchor: ds.dates[a], State: Ready}
	if a+h < len(ds.dates) {
		w.Date = ds.dates[a+h]
		w.Realized = ds.y[a+h]
		w.Known = true
	} else {
		d := ds.dates[a]
		for k := 0; k < h; k++ {
			d = cadence.Next(d)
		}
		w.Date = d
	}

	if err := ctx.Err(); err != nil {
		w.State, w.Err = Failed, err
		return w
	}

	lo := 0
	if r.cfg.Iterate {
		lo = a - h - r.cfg.NSample + 1
	}
	w.Model = r.fit(ds, lo, a)
	w.State = Fitted

	pred := ds.score(w.Model, a, r.cfg.AR)
	if math.IsNaN(pred) || math.IsInf(pred, 0) {
		w.State = Failed
		w.Err = fmt.Errorf("predict: non-finite prediction at anchor %s",
			w.Anchor.Format("2006-01-02"))
		return w
	}
	w.Prediction, w.State = pred, Scored
	return w
}

// Rows flattens scored windows into prediction rows for output sinks.
func Rows(windows []Window) []model.Prediction {
	rows := make([]model.Prediction, 0, len(windows))
	for _, w := range windows {
		if w.State != Scored {
			continue
		}
		rows = append(rows, model.Prediction{
			Date:     w.Date,
			Anchor:   w.Anchor,
			Value:    w.Prediction,
			Alpha:    w.Model.Alpha,
			Lambda:   w.Model.Lambda,
			Realized: w.Realized,
			Known:    w.Known,
		})
	}
	return rows
}
