package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/crimson-sun/barometer/internal/corpus"
	"github.com/crimson-sun/barometer/internal/engine"
	"github.com/crimson-sun/barometer/internal/engine/aggregate"
	"github.com/crimson-sun/barometer/internal/engine/lexicon"
	"github.com/crimson-sun/barometer/internal/engine/score"
	"github.com/crimson-sun/barometer/internal/engine/testdata"
	"github.com/crimson-sun/barometer/internal/engine/weights"
	"github.com/crimson-sun/barometer/internal/model"
	"github.com/crimson-sun/barometer/internal/predict"
)

// --- mocks ---

type mockOutput struct {
	mu          sync.Mutex
	tables      []model.Table
	predictions [][]model.Prediction
	closed      bool
	writeErr    error
}

func (m *mockOutput) WriteMeasures(_ context.Context, tb model.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.tables = append(m.tables, tb)
	return nil
}

func (m *mockOutput) WritePredictions(_ context.Context, rows []model.Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.predictions = append(m.predictions, rows)
	return nil
}

func (m *mockOutput) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

var errLoad = errors.New("mock: load failed")

type failSource struct{}

func (failSource) Load(context.Context, corpus.Config, corpus.Params) ([]model.Document, error) {
	return nil, errLoad
}

// --- fixtures ---

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()

	set, err := lexicon.NewSet(testdata.Lexicons(), testdata.Valence())
	if err != nil {
		t.Fatalf("NewSet() error: %v", err)
	}
	equal, err := weights.Equal(3)
	if err != nil {
		t.Fatalf("Equal(3) error: %v", err)
	}
	linear, err := weights.Linear(3)
	if err != nil {
		t.Fatalf("Linear(3) error: %v", err)
	}
	aggCfg := aggregate.DefaultConfig()
	aggCfg.Schemes = []weights.Scheme{equal, linear}

	eng, err := engine.New(set, score.DefaultConfig(), aggCfg)
	if err != nil {
		t.Fatalf("engine.New() error: %v", err)
	}
	return eng
}

func fixtureSource(t *testing.T) *corpus.Memory {
	t.Helper()
	docs, err := testdata.LoadCorpus()
	if err != nil {
		t.Fatalf("LoadCorpus() error: %v", err)
	}
	return &corpus.Memory{Docs: docs}
}

// fixtureTarget spans the 12 measure dates the fixture corpus produces under
// a lag-3 daily aggregation: 2024-03-03 through 2024-03-14.
func fixtureTarget() model.Target {
	target := model.Target{Name: "activity"}
	start := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		target.Dates = append(target.Dates, start.AddDate(0, 0, i))
		target.Values = append(target.Values, 0.1*float64(i))
	}
	return target
}

func TestRunWritesMeasures(t *testing.T) {
	out := &mockOutput{}
	p := New(fixtureSource(t), corpus.Config{}, newTestEngine(t), out)

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if res.RunID == "" {
		t.Error("RunID is empty")
	}
	if res.Documents != 30 {
		t.Errorf("Documents = %d, want 30", res.Documents)
	}
	if res.Container == nil || res.Container.Count() != 8 {
		t.Fatalf("expected container with 8 measures, got %+v", res.Container)
	}
	if res.Windows != nil {
		t.Errorf("expected no windows without prediction, got %d", len(res.Windows))
	}

	if len(out.tables) != 1 {
		t.Fatalf("expected 1 table written, got %d", len(out.tables))
	}
	tb := out.tables[0]
	if len(tb.Columns) != 8 {
		t.Errorf("table has %d columns, want 8", len(tb.Columns))
	}
	if len(tb.Dates) != 12 {
		t.Errorf("table has %d dates, want 12", len(tb.Dates))
	}
	if len(out.predictions) != 0 {
		t.Errorf("expected no prediction writes, got %d", len(out.predictions))
	}
}

func TestRunWithPrediction(t *testing.T) {
	cfg := predict.DefaultConfig()
	cfg.NSample = 4
	cfg.Workers = 2
	reg, err := predict.New(cfg)
	if err != nil {
		t.Fatalf("predict.New() error: %v", err)
	}

	out := &mockOutput{}
	p := New(fixtureSource(t), corpus.Config{}, newTestEngine(t), out,
		WithPrediction(reg, fixtureTarget()))

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	// 12 aligned dates, NSample 4, horizon 1: anchors at indices 4..11.
	if len(res.Windows) != 8 {
		t.Fatalf("expected 8 windows, got %d", len(res.Windows))
	}
	if len(out.predictions) != 1 {
		t.Fatalf("expected 1 prediction batch, got %d", len(out.predictions))
	}
	rows := out.predictions[0]
	if len(rows) != 8 {
		t.Fatalf("expected 8 prediction rows, got %d", len(rows))
	}

	forecasts := 0
	for _, r := range rows {
		if !r.Known {
			forecasts++
			want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
			if !r.Date.Equal(want) {
				t.Errorf("forecast date = %v, want %v", r.Date, want)
			}
		}
	}
	if forecasts != 1 {
		t.Errorf("expected exactly 1 forecast row, got %d", forecasts)
	}
}

func TestRunLoadError(t *testing.T) {
	p := New(failSource{}, corpus.Config{}, newTestEngine(t), &mockOutput{})

	_, err := p.Run(context.Background())
	if !errors.Is(err, errLoad) {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestRunEmptyCorpus(t *testing.T) {
	p := New(&corpus.Memory{}, corpus.Config{}, newTestEngine(t), &mockOutput{})

	_, err := p.Run(context.Background())
	if !errors.Is(err, corpus.ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
}

func TestRunOutputError(t *testing.T) {
	sink := errors.New("mock: sink down")
	p := New(fixtureSource(t), corpus.Config{}, newTestEngine(t), &mockOutput{writeErr: sink})

	_, err := p.Run(context.Background())
	if !errors.Is(err, sink) {
		t.Fatalf("expected sink error, got %v", err)
	}
}

func TestRunMisalignedTarget(t *testing.T) {
	target := model.Target{
		Name:   "offgrid",
		Dates:  []time.Time{time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		Values: []float64{1},
	}
	cfg := predict.DefaultConfig()
	cfg.NSample = 4
	reg, err := predict.New(cfg)
	if err != nil {
		t.Fatalf("predict.New() error: %v", err)
	}

	p := New(fixtureSource(t), corpus.Config{}, newTestEngine(t), &mockOutput{},
		WithPrediction(reg, target))

	_, err = p.Run(context.Background())
	if !errors.Is(err, predict.ErrTargetMisaligned) {
		t.Fatalf("expected ErrTargetMisaligned, got %v", err)
	}
}

func TestRunUsesInjectedClock(t *testing.T) {
	t0 := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	out := &mockOutput{}
	p := New(fixtureSource(t), corpus.Config{}, newTestEngine(t), out,
		WithClock(clockwork.NewFakeClockAt(t0)))

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !res.Started.Equal(t0) {
		t.Errorf("Started = %v, want %v", res.Started, t0)
	}
	if !res.Finished.Equal(t0) {
		t.Errorf("Finished = %v, want %v", res.Finished, t0)
	}
}

func TestRunWithLoadParams(t *testing.T) {
	from := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	out := &mockOutput{}
	p := New(fixtureSource(t), corpus.Config{}, newTestEngine(t), out,
		WithLoadParams(corpus.Params{From: from}))

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Documents != 15 {
		t.Errorf("Documents = %d, want 15", res.Documents)
	}

	// 7 daily buckets from 2024-03-08 under lag 3 leave 5 dates.
	dates := res.Container.Dates()
	if len(dates) != 5 {
		t.Fatalf("len(dates) = %d, want 5", len(dates))
	}
	if !dates[0].Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first date = %v, want 2024-03-10", dates[0])
	}
}

func TestCloseClosesOutput(t *testing.T) {
	out := &mockOutput{}
	p := New(fixtureSource(t), corpus.Config{}, newTestEngine(t), out)

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !out.closed {
		t.Error("output was not closed")
	}
}
