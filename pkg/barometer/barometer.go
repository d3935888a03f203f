package barometer

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/crimson-sun/barometer/internal/engine"
	"github.com/crimson-sun/barometer/internal/engine/aggregate"
	"github.com/crimson-sun/barometer/internal/engine/lexicon"
	"github.com/crimson-sun/barometer/internal/engine/score"
	"github.com/crimson-sun/barometer/internal/engine/weights"
	"github.com/crimson-sun/barometer/internal/model"
	"github.com/crimson-sun/barometer/internal/predict"
)

// ErrNoLexicons is returned when ComputeMeasures gets an empty lexicon map.
var ErrNoLexicons = errors.New("barometer: no lexicons")

// Barometer computes sentiment time series from dated documents and runs
// rolling penalized regressions on top of them. Safe for concurrent use.
type Barometer struct {
	score   score.Config
	agg     aggregate.Config
	predict predict.Config
	valence map[string]model.Shifter
}

// New builds a Barometer from the options, validating every setting before
// any document is touched.
func New(opts ...Option) (*Barometer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	scoreCfg, err := buildScoreConfig(o)
	if err != nil {
		return nil, fmt.Errorf("barometer: %w", err)
	}
	aggCfg, err := buildAggConfig(o)
	if err != nil {
		return nil, fmt.Errorf("barometer: %w", err)
	}
	predictCfg, err := buildPredictConfig(o)
	if err != nil {
		return nil, fmt.Errorf("barometer: %w", err)
	}
	valence, err := convertShifters(o.shifters)
	if err != nil {
		return nil, fmt.Errorf("barometer: %w", err)
	}

	return &Barometer{
		score:   scoreCfg,
		agg:     aggCfg,
		predict: predictCfg,
		valence: valence,
	}, nil
}

// ComputeMeasures scores every document against every lexicon and aggregates
// the scores into one named sentiment series per feature, lexicon and
// weighting scheme.
func (b *Barometer) ComputeMeasures(ctx context.Context, docs []Document,
	lexicons map[string]map[string]float64) (*Measures, error) {

	if len(lexicons) == 0 {
		return nil, ErrNoLexicons
	}
	names := make([]string, 0, len(lexicons))
	for name := range lexicons {
		names = append(names, name)
	}
	sort.Strings(names)
	lexs := make([]model.Lexicon, 0, len(names))
	for _, name := range names {
		lexs = append(lexs, model.Lexicon{Name: name, Entries: lexicons[name]})
	}

	set, err := lexicon.NewSet(lexs, b.valence)
	if err != nil {
		return nil, fmt.Errorf("barometer: %w", err)
	}
	eng, err := engine.New(set, b.score, b.agg)
	if err != nil {
		return nil, fmt.Errorf("barometer: %w", err)
	}

	mdocs := make([]model.Document, len(docs))
	for i, d := range docs {
		mdocs[i] = d.internal()
	}
	c, err := eng.ComputeMeasures(ctx, mdocs)
	if err != nil {
		return nil, fmt.Errorf("barometer: %w", err)
	}
	return &Measures{c: c}, nil
}

// Forecast carries walk-forward predictions plus the state attribution needs.
type Forecast struct {
	Predictions []Prediction

	measures *Measures
	windows  []predict.Window
}

// Predict fits one penalized regression of the target on the measures per
// rolling window and scores one prediction per window. Windows whose anchor
// leaves no realized target produce genuine forecasts with a nil Realized.
func (b *Barometer) Predict(ctx context.Context, m *Measures, target Target) (*Forecast, error) {
	r, err := predict.New(b.predict)
	if err != nil {
		return nil, fmt.Errorf("barometer: %w", err)
	}
	windows, err := r.Run(ctx, m.c, target.internal())
	if err != nil {
		return nil, fmt.Errorf("barometer: %w", err)
	}

	f := &Forecast{measures: m, windows: windows}
	for _, row := range predict.Rows(windows) {
		f.Predictions = append(f.Predictions, predictionFromModel(row))
	}
	return f, nil
}

// Attribute decomposes the forecast's predictions onto one dimension of the
// measure space: "feature", "lexicon", "scheme" or "lag". Each returned
// column holds that group's contribution per prediction date, and the columns
// sum to the measure-driven part of each prediction.
func (b *Barometer) Attribute(f *Forecast, dimension string) (Table, error) {
	dim, err := predict.ParseDimension(dimension)
	if err != nil {
		return Table{}, fmt.Errorf("barometer: %w", err)
	}
	breakdown, err := predict.Attribute(f.windows, f.measures.c, dim)
	if err != nil {
		return Table{}, fmt.Errorf("barometer: %w", err)
	}
	return tableFromModel(breakdown.Table()), nil
}

func buildScoreConfig(o options) (score.Config, error) {
	rule, err := score.ParseWithinDocRule(o.docRule)
	if err != nil {
		return score.Config{}, err
	}
	cfg := score.Config{
		Rule:          rule,
		ContextWindow: o.contextWindow,
		Workers:       o.workers,
	}
	if o.adversative {
		scope, err := score.ParseAdversativeScope(o.advScope)
		if err != nil {
			return score.Config{}, err
		}
		cfg.Adversative = score.AdversativePolicy{
			Enabled: true,
			Scope:   scope,
			Factor:  o.advFactor,
		}
	}
	return cfg, cfg.Validate()
}

func buildAggConfig(o options) (aggregate.Config, error) {
	cadence, err := model.ParseCadence(o.cadence)
	if err != nil {
		return aggregate.Config{}, err
	}
	rule, err := aggregate.ParseAcrossDocRule(o.acrossRule)
	if err != nil {
		return aggregate.Config{}, err
	}
	fill, err := model.ParseFillPolicy(o.fill)
	if err != nil {
		return aggregate.Config{}, err
	}
	schemes, err := weights.Grid{
		Lag:       o.lag,
		Equal:     o.equal,
		Linear:    o.linear,
		ExpAlphas: o.expAlphas,
		BetaA:     o.betaA,
		BetaB:     o.betaB,
	}.Build()
	if err != nil {
		return aggregate.Config{}, err
	}
	cfg := aggregate.Config{
		Cadence:     cadence,
		Rule:        rule,
		IgnoreZeros: o.ignoreZeros,
		Fill:        fill,
		Schemes:     schemes,
	}
	return cfg, cfg.Validate()
}

func buildPredictConfig(o options) (predict.Config, error) {
	selection, err := predict.ParseSelection(o.selection)
	if err != nil {
		return predict.Config{}, err
	}
	onFailure, err := predict.ParseFailurePolicy(o.onFailure)
	if err != nil {
		return predict.Config{}, err
	}
	cfg := predict.DefaultConfig()
	cfg.Selection = selection
	cfg.OnFailure = onFailure
	cfg.Horizon = o.horizon
	cfg.NSample = o.nSample
	cfg.Step = o.step
	cfg.Iterate = o.iterate
	cfg.AR = o.ar
	cfg.Workers = o.predictWorkers
	if o.alphas != nil {
		cfg.Alphas = o.alphas
	}
	if o.cvFolds > 0 {
		cfg.CVFolds = o.cvFolds
	}
	return cfg, cfg.Validate()
}

func convertShifters(shifters map[string]Shifter) (map[string]model.Shifter, error) {
	if len(shifters) == 0 {
		return nil, nil
	}
	out := make(map[string]model.Shifter, len(shifters))
	for word, sh := range shifters {
		role, err := model.ParseShifterRole(sh.Role)
		if err != nil {
			return nil, err
		}
		out[word] = model.Shifter{Role: role, Value: sh.Value}
	}
	return out, nil
}
