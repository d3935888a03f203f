// Package config reads the process configuration from BAROMETER_* environment
// variables. Values stay as plain strings and numbers here; the command wiring
// parses them into domain types.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Version is the release version stamped into logs and the -version flag.
const Version = "0.3.0"

// Config holds all barometer configuration.
type Config struct {
	Corpus  CorpusConfig
	Lexicon LexiconConfig
	Score   ScoreConfig
	Agg     AggConfig
	Predict PredictConfig
	Output  OutputConfig

	LogLevel string
}

// CorpusConfig selects the document source.
type CorpusConfig struct {
	Format     string // registered source name, "csv" or "ndjson"
	Path       string
	DateFormat string
	From       string // optional lower date bound, same layout as DateFormat
	To         string // optional upper date bound
	Limit      int
}

// LexiconConfig locates the scoring vocabularies.
type LexiconConfig struct {
	Dir         string // directory of <name>.csv lexicon files
	ValencePath string // optional valence shifter table
}

// ScoreConfig holds document scorer settings.
type ScoreConfig struct {
	Rule              string // counts, proportional, proportionalPol
	ContextWindow     int
	Workers           int
	Adversative       bool
	AdversativeScope  string // preceding, following
	AdversativeFactor float64
}

// AggConfig holds the two aggregation stages' settings.
type AggConfig struct {
	Cadence     string // day, week, month, year
	Rule        string // equal_weight, proportional
	IgnoreZeros bool
	Fill        string // zero, latest, drop
	Lag         int
	Equal       bool
	Linear      bool
	ExpAlphas   []float64
	BetaA       []float64
	BetaB       []float64
}

// PredictConfig holds the walk-forward regression settings. An empty
// TargetPath disables prediction.
type PredictConfig struct {
	TargetPath string
	Selection  string // bic, aic, cp, cv
	Alphas     []float64
	NLambda    int
	CVFolds    int
	Horizon    int
	NSample    int
	Step       int
	Iterate    bool
	AR         bool
	OnFailure  string // abort, skip
	Workers    int
}

// OutputConfig selects the sinks. Formats is a comma list in the env var.
type OutputConfig struct {
	Formats    []string // stdout, file, csv, sqlite, webhook
	Pretty     bool
	FilePath   string
	CSVDir     string
	SQLitePath string
	WebhookURL string
	Async      bool
}

// Load reads configuration from environment variables with defaults that
// run a daily equal-weight aggregation to stdout.
func Load() Config {
	return Config{
		Corpus: CorpusConfig{
			Format:     getenv("BAROMETER_CORPUS", "csv"),
			Path:       os.Getenv("BAROMETER_CORPUS_PATH"),
			DateFormat: getenv("BAROMETER_DATE_FORMAT", "2006-01-02"),
			From:       os.Getenv("BAROMETER_FROM"),
			To:         os.Getenv("BAROMETER_TO"),
			Limit:      getenvInt("BAROMETER_LIMIT", 0),
		},
		Lexicon: LexiconConfig{
			Dir:         os.Getenv("BAROMETER_LEXICON_DIR"),
			ValencePath: os.Getenv("BAROMETER_VALENCE_PATH"),
		},
		Score: ScoreConfig{
			Rule:              getenv("BAROMETER_DOC_RULE", "proportional"),
			ContextWindow:     getenvInt("BAROMETER_CONTEXT_WINDOW", 4),
			Workers:           getenvInt("BAROMETER_WORKERS", 4),
			Adversative:       getenvBool("BAROMETER_ADVERSATIVE", false),
			AdversativeScope:  getenv("BAROMETER_ADVERSATIVE_SCOPE", "preceding"),
			AdversativeFactor: getenvFloat("BAROMETER_ADVERSATIVE_FACTOR", 0.5),
		},
		Agg: AggConfig{
			Cadence:     getenv("BAROMETER_CADENCE", "day"),
			Rule:        getenv("BAROMETER_AGG_RULE", "equal_weight"),
			IgnoreZeros: getenvBool("BAROMETER_IGNORE_ZEROS", true),
			Fill:        getenv("BAROMETER_FILL", "zero"),
			Lag:         getenvInt("BAROMETER_LAG", 7),
			Equal:       getenvBool("BAROMETER_SCHEME_EQUAL", true),
			Linear:      getenvBool("BAROMETER_SCHEME_LINEAR", false),
			ExpAlphas:   getenvFloats("BAROMETER_EXP_ALPHAS"),
			BetaA:       getenvFloats("BAROMETER_BETA_A"),
			BetaB:       getenvFloats("BAROMETER_BETA_B"),
		},
		Predict: PredictConfig{
			TargetPath: os.Getenv("BAROMETER_TARGET_PATH"),
			Selection:  getenv("BAROMETER_SELECTION", "bic"),
			Alphas:     getenvFloats("BAROMETER_ALPHAS"),
			NLambda:    getenvInt("BAROMETER_NLAMBDA", 50),
			CVFolds:    getenvInt("BAROMETER_CV_FOLDS", 5),
			Horizon:    getenvInt("BAROMETER_HORIZON", 1),
			NSample:    getenvInt("BAROMETER_NSAMPLE", 60),
			Step:       getenvInt("BAROMETER_STEP", 1),
			Iterate:    getenvBool("BAROMETER_ITERATE", true),
			AR:         getenvBool("BAROMETER_AR", false),
			OnFailure:  getenv("BAROMETER_ON_FAILURE", "abort"),
			Workers:    getenvInt("BAROMETER_PREDICT_WORKERS", 4),
		},
		Output: OutputConfig{
			Formats:    splitList(getenv("BAROMETER_OUTPUT", "stdout")),
			Pretty:     getenvBool("BAROMETER_OUTPUT_PRETTY", false),
			FilePath:   getenv("BAROMETER_OUTPUT_PATH", "results.ndjson"),
			CSVDir:     getenv("BAROMETER_CSV_DIR", "results"),
			SQLitePath: getenv("BAROMETER_SQLITE_PATH", "results.db"),
			WebhookURL: os.Getenv("BAROMETER_WEBHOOK_URL"),
			Async:      getenvBool("BAROMETER_OUTPUT_ASYNC", false),
		},
		LogLevel: getenv("BAROMETER_LOG_LEVEL", "info"),
	}
}

// Validate checks everything that can be checked without touching domain
// packages, and joins all failures into one error.
func (c Config) Validate() error {
	var errs []error

	if c.Corpus.Format == "" {
		errs = append(errs, errors.New("config: BAROMETER_CORPUS is empty"))
	}
	if c.Corpus.Path == "" {
		errs = append(errs, errors.New("config: BAROMETER_CORPUS_PATH is required"))
	} else if _, err := os.Stat(c.Corpus.Path); err != nil {
		errs = append(errs, fmt.Errorf("config: corpus path: %w", err))
	}

	if c.Lexicon.Dir == "" {
		errs = append(errs, errors.New("config: BAROMETER_LEXICON_DIR is required"))
	} else if _, err := os.Stat(c.Lexicon.Dir); err != nil {
		errs = append(errs, fmt.Errorf("config: lexicon dir: %w", err))
	}
	if c.Lexicon.ValencePath != "" {
		if _, err := os.Stat(c.Lexicon.ValencePath); err != nil {
			errs = append(errs, fmt.Errorf("config: valence path: %w", err))
		}
	}

	switch c.Score.Rule {
	case "counts", "proportional", "proportionalPol":
	default:
		errs = append(errs, fmt.Errorf("config: unknown document rule %q", c.Score.Rule))
	}
	if c.Score.ContextWindow < 0 {
		errs = append(errs, fmt.Errorf("config: context window %d", c.Score.ContextWindow))
	}
	if c.Score.Workers < 1 {
		errs = append(errs, fmt.Errorf("config: workers %d", c.Score.Workers))
	}
	if c.Score.Adversative {
		if c.Score.AdversativeScope != "preceding" && c.Score.AdversativeScope != "following" {
			errs = append(errs, fmt.Errorf("config: adversative scope %q", c.Score.AdversativeScope))
		}
		if c.Score.AdversativeFactor <= 0 {
			errs = append(errs, fmt.Errorf("config: adversative factor %v", c.Score.AdversativeFactor))
		}
	}

	switch c.Agg.Cadence {
	case "day", "daily", "week", "weekly", "month", "monthly", "year", "yearly":
	default:
		errs = append(errs, fmt.Errorf("config: unknown cadence %q", c.Agg.Cadence))
	}
	switch c.Agg.Rule {
	case "equal_weight", "proportional":
	default:
		errs = append(errs, fmt.Errorf("config: unknown aggregation rule %q", c.Agg.Rule))
	}
	switch c.Agg.Fill {
	case "zero", "latest", "drop":
	default:
		errs = append(errs, fmt.Errorf("config: unknown fill policy %q", c.Agg.Fill))
	}
	if c.Agg.Lag < 1 {
		errs = append(errs, fmt.Errorf("config: lag %d", c.Agg.Lag))
	}
	if !c.Agg.Equal && !c.Agg.Linear && len(c.Agg.ExpAlphas) == 0 && len(c.Agg.BetaA) == 0 {
		errs = append(errs, errors.New("config: no weighting scheme enabled"))
	}

	if c.Predict.TargetPath != "" {
		if _, err := os.Stat(c.Predict.TargetPath); err != nil {
			errs = append(errs, fmt.Errorf("config: target path: %w", err))
		}
		switch c.Predict.Selection {
		case "bic", "aic", "cp", "cv":
		default:
			errs = append(errs, fmt.Errorf("config: unknown selection %q", c.Predict.Selection))
		}
		switch c.Predict.OnFailure {
		case "abort", "skip":
		default:
			errs = append(errs, fmt.Errorf("config: unknown failure policy %q", c.Predict.OnFailure))
		}
	}

	if len(c.Output.Formats) == 0 {
		errs = append(errs, errors.New("config: BAROMETER_OUTPUT is empty"))
	}
	for _, format := range c.Output.Formats {
		switch format {
		case "stdout", "file", "csv", "sqlite":
		case "webhook":
			if c.Output.WebhookURL == "" {
				errs = append(errs, errors.New("config: webhook output needs BAROMETER_WEBHOOK_URL"))
			}
		default:
			errs = append(errs, fmt.Errorf("config: unknown output %q", format))
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log level %q", c.LogLevel))
	}

	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// getenvFloats parses a comma-separated list; malformed entries drop the
// whole list so a typo cannot half-apply.
func getenvFloats(key string) []float64 {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := splitList(v)
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil
		}
		out = append(out, f)
	}
	return out
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
