// Package pipeline wires a corpus source, the scoring engine, the optional
// prediction layer and an output into one batch run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/crimson-sun/barometer/internal/corpus"
	"github.com/crimson-sun/barometer/internal/engine"
	"github.com/crimson-sun/barometer/internal/measures"
	"github.com/crimson-sun/barometer/internal/model"
	"github.com/crimson-sun/barometer/internal/output"
	"github.com/crimson-sun/barometer/internal/predict"
)

// Pipeline connects a corpus source, engine, and output into a batch run.
type Pipeline struct {
	source corpus.Source
	srcCfg corpus.Config
	params corpus.Params
	engine *engine.Engine
	output output.Output
	clock  clockwork.Clock

	reg    *predict.Regression
	target model.Target
}

// Option adjusts pipeline behavior.
type Option func(*Pipeline)

// WithClock injects the clock used for run timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithLoadParams filters the corpus load by date range or document count.
func WithLoadParams(params corpus.Params) Option {
	return func(p *Pipeline) { p.params = params }
}

// WithPrediction adds a walk-forward regression of the target onto the
// computed measures after aggregation.
func WithPrediction(reg *predict.Regression, target model.Target) Option {
	return func(p *Pipeline) {
		p.reg = reg
		p.target = target
	}
}

// New creates a Pipeline from the given components.
func New(src corpus.Source, srcCfg corpus.Config, eng *engine.Engine, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		source: src,
		srcCfg: srcCfg,
		engine: eng,
		output: out,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result summarizes one run and carries its artifacts.
type Result struct {
	RunID     string
	Started   time.Time
	Finished  time.Time
	Documents int
	Container *measures.Container
	Windows   []predict.Window
}

// Run executes one batch: load, score, aggregate, optionally predict, and
// write everything to the output.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: uuid.NewString(), Started: p.clock.Now()}
	log := slog.With("run_id", res.RunID)

	docs, err := p.source.Load(ctx, p.srcCfg, p.params)
	if err != nil {
		return res, fmt.Errorf("pipeline load: %w", err)
	}
	res.Documents = len(docs)
	log.Info("corpus loaded", "documents", len(docs), "elapsed", p.clock.Since(res.Started))

	c, err := p.engine.ComputeMeasures(ctx, docs)
	if err != nil {
		return res, fmt.Errorf("pipeline measures: %w", err)
	}
	res.Container = c
	log.Info("measures computed",
		"measures", c.Count(), "dates", len(c.Dates()), "elapsed", p.clock.Since(res.Started))

	if err := p.output.WriteMeasures(ctx, c.Table()); err != nil {
		return res, fmt.Errorf("pipeline output: %w", err)
	}

	if p.reg != nil {
		windows, err := p.reg.Run(ctx, c, p.target)
		if err != nil {
			return res, fmt.Errorf("pipeline predict: %w", err)
		}
		res.Windows = windows

		rows := predict.Rows(windows)
		if err := p.output.WritePredictions(ctx, rows); err != nil {
			return res, fmt.Errorf("pipeline output: %w", err)
		}
		log.Info("predictions written",
			"windows", len(windows), "scored", len(rows), "elapsed", p.clock.Since(res.Started))
	}

	res.Finished = p.clock.Now()
	log.Info("run finished", "elapsed", res.Finished.Sub(res.Started))
	return res, nil
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	return p.output.Close()
}
