package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/crimson-sun/barometer/internal/config"
	"github.com/crimson-sun/barometer/internal/corpus"
	"github.com/crimson-sun/barometer/internal/engine"
	"github.com/crimson-sun/barometer/internal/engine/aggregate"
	"github.com/crimson-sun/barometer/internal/engine/lexicon"
	"github.com/crimson-sun/barometer/internal/engine/score"
	"github.com/crimson-sun/barometer/internal/engine/weights"
	"github.com/crimson-sun/barometer/internal/logging"
	"github.com/crimson-sun/barometer/internal/model"
	"github.com/crimson-sun/barometer/internal/output"
	"github.com/crimson-sun/barometer/internal/output/async"
	"github.com/crimson-sun/barometer/internal/output/csvout"
	"github.com/crimson-sun/barometer/internal/output/file"
	"github.com/crimson-sun/barometer/internal/output/multi"
	"github.com/crimson-sun/barometer/internal/output/sqlite"
	"github.com/crimson-sun/barometer/internal/output/stdout"
	"github.com/crimson-sun/barometer/internal/output/webhook"
	"github.com/crimson-sun/barometer/internal/pipeline"
	"github.com/crimson-sun/barometer/internal/predict"

	// Register corpus source implementations.
	_ "github.com/crimson-sun/barometer/internal/corpus/csvfile"
	_ "github.com/crimson-sun/barometer/internal/corpus/ndjson"
)

func main() {
	// A missing .env is fine; the environment may already carry everything.
	_ = godotenv.Load()

	corpusPath := flag.String("corpus", "", "corpus file path (overrides BAROMETER_CORPUS_PATH)")
	format := flag.String("format", "", "corpus format, csv or ndjson (overrides BAROMETER_CORPUS)")
	outputs := flag.String("out", "", "comma-separated outputs (overrides BAROMETER_OUTPUT)")
	targetPath := flag.String("predict-target", "", "target CSV enabling prediction (overrides BAROMETER_TARGET_PATH)")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("barometer " + config.Version)
		return
	}

	cfg := config.Load()
	if *corpusPath != "" {
		cfg.Corpus.Path = *corpusPath
	}
	if *format != "" {
		cfg.Corpus.Format = *format
	}
	if *outputs != "" {
		cfg.Output.Formats = splitList(*outputs)
	}
	if *targetPath != "" {
		cfg.Predict.TargetPath = *targetPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logging.Init(dataOnStdout(cfg.Output.Formats), logging.ParseLevel(cfg.LogLevel))

	// Load lexicons and the optional valence table.
	set, err := loadLexicons(cfg.Lexicon)
	if err != nil {
		log.Fatalf("failed to load lexicons: %v", err)
	}

	// Initialize the scoring and aggregation engine.
	scoreCfg, err := buildScoreConfig(cfg.Score)
	if err != nil {
		log.Fatalf("failed to configure scorer: %v", err)
	}
	aggCfg, err := buildAggConfig(cfg.Agg)
	if err != nil {
		log.Fatalf("failed to configure aggregation: %v", err)
	}
	eng, err := engine.New(set, scoreCfg, aggCfg)
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}

	// Initialize outputs.
	sink, err := buildOutput(cfg.Output)
	if err != nil {
		log.Fatalf("failed to create output: %v", err)
	}

	// Resolve the corpus source.
	ctor, err := corpus.Get(cfg.Corpus.Format)
	if err != nil {
		log.Fatalf("failed to get corpus source: %v", err)
	}
	src := ctor()
	srcCfg := corpus.Config{
		Path:  cfg.Corpus.Path,
		Extra: map[string]string{"date_format": cfg.Corpus.DateFormat},
	}
	params, err := loadParams(cfg.Corpus)
	if err != nil {
		log.Fatalf("invalid corpus filter: %v", err)
	}
	opts := []pipeline.Option{pipeline.WithLoadParams(params)}

	// Wire the optional walk-forward regression.
	if cfg.Predict.TargetPath != "" {
		target, err := corpus.LoadTargetCSV(cfg.Predict.TargetPath, cfg.Corpus.DateFormat)
		if err != nil {
			log.Fatalf("failed to load target: %v", err)
		}
		predictCfg, err := buildPredictConfig(cfg.Predict)
		if err != nil {
			log.Fatalf("failed to configure prediction: %v", err)
		}
		reg, err := predict.New(predictCfg)
		if err != nil {
			log.Fatalf("failed to create regression: %v", err)
		}
		opts = append(opts, pipeline.WithPrediction(reg, target))
	}

	// Build pipeline.
	p := pipeline.New(src, srcCfg, eng, sink, opts...)
	defer p.Close()

	// Set up graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "\nreceived %v, shutting down...\n", sig)
		cancel()
	}()

	slog.Info("starting run",
		"version", config.Version,
		"corpus", cfg.Corpus.Path,
		"format", cfg.Corpus.Format,
		"lexicons", set.Names(),
		"outputs", cfg.Output.Formats)
	if _, err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("pipeline error: %v", err)
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// dataOnStdout reports whether the stdout sink is active, which moves logs to
// machine-parseable JSON on stderr.
func dataOnStdout(formats []string) bool {
	for _, f := range formats {
		if f == "stdout" {
			return true
		}
	}
	return false
}

// loadLexicons reads every *.csv in the lexicon directory as one lexicon
// named after the file, skipping the valence table if it lives there too.
func loadLexicons(cfg config.LexiconConfig) (*lexicon.Set, error) {
	paths, err := filepath.Glob(filepath.Join(cfg.Dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	skip := ""
	if cfg.ValencePath != "" {
		skip = filepath.Clean(cfg.ValencePath)
	}

	var lexs []model.Lexicon
	for _, path := range paths {
		if filepath.Clean(path) == skip {
			continue
		}
		lex, err := readLexiconFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		lexs = append(lexs, lex)
	}
	if len(lexs) == 0 {
		return nil, fmt.Errorf("no lexicon files in %s", cfg.Dir)
	}

	var valence map[string]model.Shifter
	if cfg.ValencePath != "" {
		valence, err = readValenceFile(cfg.ValencePath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.ValencePath, err)
		}
	}
	return lexicon.NewSet(lexs, valence)
}

func readLexiconFile(path string) (model.Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Lexicon{}, err
	}
	defer f.Close()
	name := strings.TrimSuffix(filepath.Base(path), ".csv")
	return lexicon.ReadCSV(name, f)
}

func readValenceFile(path string) (map[string]model.Shifter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return lexicon.ReadValenceCSV(f)
}

func buildScoreConfig(cfg config.ScoreConfig) (score.Config, error) {
	rule, err := score.ParseWithinDocRule(cfg.Rule)
	if err != nil {
		return score.Config{}, err
	}
	out := score.Config{
		Rule:          rule,
		ContextWindow: cfg.ContextWindow,
		Workers:       cfg.Workers,
	}
	if cfg.Adversative {
		scope, err := score.ParseAdversativeScope(cfg.AdversativeScope)
		if err != nil {
			return score.Config{}, err
		}
		out.Adversative = score.AdversativePolicy{
			Enabled: true,
			Scope:   scope,
			Factor:  cfg.AdversativeFactor,
		}
	}
	return out, nil
}

func buildAggConfig(cfg config.AggConfig) (aggregate.Config, error) {
	cadence, err := model.ParseCadence(cfg.Cadence)
	if err != nil {
		return aggregate.Config{}, err
	}
	rule, err := aggregate.ParseAcrossDocRule(cfg.Rule)
	if err != nil {
		return aggregate.Config{}, err
	}
	fill, err := model.ParseFillPolicy(cfg.Fill)
	if err != nil {
		return aggregate.Config{}, err
	}
	schemes, err := weights.Grid{
		Lag:       cfg.Lag,
		Equal:     cfg.Equal,
		Linear:    cfg.Linear,
		ExpAlphas: cfg.ExpAlphas,
		BetaA:     cfg.BetaA,
		BetaB:     cfg.BetaB,
	}.Build()
	if err != nil {
		return aggregate.Config{}, err
	}
	return aggregate.Config{
		Cadence:     cadence,
		Rule:        rule,
		IgnoreZeros: cfg.IgnoreZeros,
		Fill:        fill,
		Schemes:     schemes,
	}, nil
}

func buildPredictConfig(cfg config.PredictConfig) (predict.Config, error) {
	selection, err := predict.ParseSelection(cfg.Selection)
	if err != nil {
		return predict.Config{}, err
	}
	onFailure, err := predict.ParseFailurePolicy(cfg.OnFailure)
	if err != nil {
		return predict.Config{}, err
	}
	out := predict.DefaultConfig()
	out.Selection = selection
	out.OnFailure = onFailure
	out.NLambda = cfg.NLambda
	out.CVFolds = cfg.CVFolds
	out.Horizon = cfg.Horizon
	out.NSample = cfg.NSample
	out.Step = cfg.Step
	out.Iterate = cfg.Iterate
	out.AR = cfg.AR
	out.Workers = cfg.Workers
	if len(cfg.Alphas) > 0 {
		out.Alphas = cfg.Alphas
	}
	return out, nil
}

func buildOutput(cfg config.OutputConfig) (output.Output, error) {
	var outs []output.Output
	for _, format := range cfg.Formats {
		switch format {
		case "stdout":
			outs = append(outs, stdout.New(cfg.Pretty))
		case "file":
			o, err := file.New(cfg.FilePath)
			if err != nil {
				return nil, err
			}
			outs = append(outs, o)
		case "csv":
			o, err := csvout.New(cfg.CSVDir)
			if err != nil {
				return nil, err
			}
			outs = append(outs, o)
		case "sqlite":
			o, err := sqlite.New(cfg.SQLitePath)
			if err != nil {
				return nil, err
			}
			outs = append(outs, o)
		case "webhook":
			outs = append(outs, webhook.New(cfg.WebhookURL))
		default:
			return nil, fmt.Errorf("unknown output %q", format)
		}
	}
	sink := outs[0]
	if len(outs) > 1 {
		sink = multi.New(outs...)
	}
	if cfg.Async {
		sink = async.New(sink)
	}
	return sink, nil
}

func loadParams(cfg config.CorpusConfig) (corpus.Params, error) {
	params := corpus.Params{Limit: cfg.Limit}
	if cfg.From != "" {
		t, err := time.Parse(cfg.DateFormat, cfg.From)
		if err != nil {
			return corpus.Params{}, fmt.Errorf("BAROMETER_FROM: %w", err)
		}
		params.From = t
	}
	if cfg.To != "" {
		t, err := time.Parse(cfg.DateFormat, cfg.To)
		if err != nil {
			return corpus.Params{}, fmt.Errorf("BAROMETER_TO: %w", err)
		}
		params.To = t
	}
	return params, nil
}
