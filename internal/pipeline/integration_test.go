package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/crimson-sun/barometer/internal/corpus"
	"github.com/crimson-sun/barometer/internal/engine"
	"github.com/crimson-sun/barometer/internal/engine/aggregate"
	"github.com/crimson-sun/barometer/internal/engine/lexicon"
	"github.com/crimson-sun/barometer/internal/engine/score"
	"github.com/crimson-sun/barometer/internal/engine/testdata"
	"github.com/crimson-sun/barometer/internal/engine/weights"
	"github.com/crimson-sun/barometer/internal/output/file"
	"github.com/crimson-sun/barometer/internal/predict"

	_ "github.com/crimson-sun/barometer/internal/corpus/csvfile"
)

const corpusCSV = `id,date,text,econ,markets
doc-01,2024-05-01,Factory orders show strong growth across regions,1.0,0.3
doc-02,2024-05-01,Trading stays volatile while the rate path is unclear,0.4,1.0
doc-03,2024-05-02,Retail sales post gains on steady demand,0.9,0.5
doc-04,2024-05-02,Chip names slump after very weak guidance,0.3,1.0
doc-05,2024-05-03,Hiring remains strong but wage growth slows,1.0,0.4
doc-06,2024-05-03,Credit desks call funding conditions stable,0.5,0.8
doc-07,2024-05-04,Shipping rates decline on weak export volumes,0.8,0.6
doc-08,2024-05-04,Index funds post modest gains in a steady session,0.2,1.0
doc-09,2024-05-05,Energy output shows a downturn amid uncertain supply,0.7,0.5
doc-10,2024-05-05,Banks rally on upbeat earnings and strong margins,0.4,1.0
doc-11,2024-05-06,Construction spending is not weak despite higher rates,0.9,0.3
doc-12,2024-05-06,Options desks flag volatile flows into the close,0.3,1.0
`

const targetCSV = `date,value
2024-05-02,0.5
2024-05-03,0.6
2024-05-04,0.7
2024-05-05,0.8
2024-05-06,0.9
`

// newIntegrationEngine wires the fixture lexicons to a daily lag-2 equal
// aggregation, small enough to predict against a five-point target.
func newIntegrationEngine(t *testing.T) *engine.Engine {
	t.Helper()

	set, err := lexicon.NewSet(testdata.Lexicons(), testdata.Valence())
	if err != nil {
		t.Fatalf("NewSet() error: %v", err)
	}
	equal, err := weights.Equal(2)
	if err != nil {
		t.Fatalf("Equal(2) error: %v", err)
	}
	aggCfg := aggregate.DefaultConfig()
	aggCfg.Schemes = []weights.Scheme{equal}

	eng, err := engine.New(set, score.DefaultConfig(), aggCfg)
	if err != nil {
		t.Fatalf("engine.New() error: %v", err)
	}
	return eng
}

func TestEndToEndCSVToFile(t *testing.T) {
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "corpus.csv")
	targetPath := filepath.Join(dir, "activity.csv")
	outPath := filepath.Join(dir, "results.ndjson")

	if err := os.WriteFile(corpusPath, []byte(corpusCSV), 0644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	if err := os.WriteFile(targetPath, []byte(targetCSV), 0644); err != nil {
		t.Fatalf("write target: %v", err)
	}

	ctor, err := corpus.Get("csv")
	if err != nil {
		t.Fatalf("corpus.Get(csv) error: %v", err)
	}
	source := ctor()

	target, err := corpus.LoadTargetCSV(targetPath, "")
	if err != nil {
		t.Fatalf("LoadTargetCSV() error: %v", err)
	}

	cfg := predict.DefaultConfig()
	cfg.NSample = 3
	cfg.Workers = 2
	reg, err := predict.New(cfg)
	if err != nil {
		t.Fatalf("predict.New() error: %v", err)
	}

	sink, err := file.New(outPath)
	if err != nil {
		t.Fatalf("file.New() error: %v", err)
	}

	p := New(source, corpus.Config{Path: corpusPath}, newIntegrationEngine(t), sink,
		WithPrediction(reg, target))

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	if res.Documents != 12 {
		t.Errorf("Documents = %d, want 12", res.Documents)
	}
	// 2 features x 2 lexicons x 1 scheme.
	if res.Container.Count() != 4 {
		t.Errorf("Count() = %d, want 4", res.Container.Count())
	}
	// Six daily buckets under lag 2 leave five dates; anchors at 3 and 4.
	if len(res.Windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(res.Windows))
	}
	for i, w := range res.Windows {
		if w.State != predict.Scored {
			t.Errorf("window %d state %v, err %v", i, w.State, w.Err)
		}
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	measureLines, predictionLines, forecastLines := 0, 0, 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
		if _, ok := rec["values"]; ok {
			measureLines++
			continue
		}
		if _, ok := rec["anchor"]; ok {
			predictionLines++
			if _, has := rec["realized"]; !has {
				forecastLines++
			}
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan output: %v", err)
	}

	if measureLines != 5 {
		t.Errorf("measure lines = %d, want 5", measureLines)
	}
	if predictionLines != 2 {
		t.Errorf("prediction lines = %d, want 2", predictionLines)
	}
	if forecastLines != 1 {
		t.Errorf("forecast lines without realized = %d, want 1", forecastLines)
	}

	// The forecast window extends one day past the corpus.
	last := res.Windows[len(res.Windows)-1]
	want := time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC)
	if last.Known {
		t.Error("last window should be a forecast")
	}
	if !last.Date.Equal(want) {
		t.Errorf("forecast date = %v, want %v", last.Date, want)
	}
}
