// Package engine orchestrates the score → aggregate path: documents go in,
// a measures container comes out.
package engine

import (
	"context"

	"github.com/crimson-sun/barometer/internal/corpus"
	"github.com/crimson-sun/barometer/internal/engine/aggregate"
	"github.com/crimson-sun/barometer/internal/engine/lexicon"
	"github.com/crimson-sun/barometer/internal/engine/score"
	"github.com/crimson-sun/barometer/internal/measures"
	"github.com/crimson-sun/barometer/internal/model"
)

// Engine turns dated documents into sentiment measures.
type Engine struct {
	scorer *score.Scorer
	agg    aggregate.Config
}

// New creates an Engine with the provided components. Both configurations
// are validated before any document is touched.
func New(set *lexicon.Set, scoreCfg score.Config, aggCfg aggregate.Config) (*Engine, error) {
	scorer, err := score.New(set, scoreCfg)
	if err != nil {
		return nil, err
	}
	if err := aggCfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{scorer: scorer, agg: aggCfg}, nil
}

// Score prepares the documents and scores each one against every lexicon in
// the set. The input slice is normalized and sorted in place.
func (e *Engine) Score(ctx context.Context, docs []model.Document) ([]model.DocScore, error) {
	prepared, err := corpus.Prepare(docs)
	if err != nil {
		return nil, err
	}
	return e.scorer.ScoreAll(ctx, prepared)
}

// ComputeMeasures runs the full path: prepare, score, bucket and roll up
// under every weighting scheme.
func (e *Engine) ComputeMeasures(ctx context.Context, docs []model.Document) (*measures.Container, error) {
	scores, err := e.Score(ctx, docs)
	if err != nil {
		return nil, err
	}
	return aggregate.Run(scores, e.agg)
}
