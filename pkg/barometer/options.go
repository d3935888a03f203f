package barometer

type options struct {
	// scoring
	docRule       string
	contextWindow int
	workers       int
	shifters      map[string]Shifter
	adversative   bool
	advScope      string
	advFactor     float64

	// aggregation
	cadence     string
	acrossRule  string
	ignoreZeros bool
	fill        string
	lag         int
	equal       bool
	linear      bool
	expAlphas   []float64
	betaA       []float64
	betaB       []float64

	// prediction
	horizon        int
	nSample        int
	step           int
	iterate        bool
	ar             bool
	selection      string
	alphas         []float64
	cvFolds        int
	onFailure      string
	predictWorkers int
}

// Option configures a Barometer instance.
type Option func(*options)

// WithDocRule sets how a document's summed hit polarity is normalized:
// "counts", "proportional" or "proportionalPol". Default: "proportional".
func WithDocRule(rule string) Option {
	return func(o *options) {
		o.docRule = rule
	}
}

// WithContextWindow sets how many tokens around a lexicon hit are searched
// for valence shifters. Default: 4.
func WithContextWindow(n int) Option {
	return func(o *options) {
		o.contextWindow = n
	}
}

// WithWorkers sets the scoring concurrency. Default: 4.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithShifters sets the valence table shared by every lexicon that does not
// carry its own.
func WithShifters(shifters map[string]Shifter) Option {
	return func(o *options) {
		o.shifters = shifters
	}
}

// WithAdversatives enables adversative-conjunction handling: hits on the
// scoped side ("preceding" or "following") of a conjunction are multiplied
// by factor. Disabled by default.
func WithAdversatives(scope string, factor float64) Option {
	return func(o *options) {
		o.adversative = true
		o.advScope = scope
		o.advFactor = factor
	}
}

// WithCadence sets the calendar bucket: "day", "week", "month" or "year".
// Default: "day".
func WithCadence(cadence string) Option {
	return func(o *options) {
		o.cadence = cadence
	}
}

// WithAcrossDocRule sets how documents combine within a bucket:
// "equal_weight" or "proportional". Default: "equal_weight".
func WithAcrossDocRule(rule string) Option {
	return func(o *options) {
		o.acrossRule = rule
	}
}

// WithIgnoreZeros controls whether zero-relevance documents count toward
// bucket denominators. Default: true (they do not).
func WithIgnoreZeros(on bool) Option {
	return func(o *options) {
		o.ignoreZeros = on
	}
}

// WithFill sets the empty-bucket policy: "zero", "latest" or "drop".
// Default: "zero".
func WithFill(policy string) Option {
	return func(o *options) {
		o.fill = policy
	}
}

// WithLag sets the across-time window length in buckets. Default: 7.
func WithLag(n int) Option {
	return func(o *options) {
		o.lag = n
	}
}

// WithEqualScheme toggles the flat weighting curve. Default: on.
func WithEqualScheme(on bool) Option {
	return func(o *options) {
		o.equal = on
	}
}

// WithLinearScheme toggles the linearly decaying weighting curve.
// Default: off.
func WithLinearScheme(on bool) Option {
	return func(o *options) {
		o.linear = on
	}
}

// WithExponentialSchemes adds one exponential weighting curve per alpha,
// each in (0, 1).
func WithExponentialSchemes(alphas ...float64) Option {
	return func(o *options) {
		o.expAlphas = alphas
	}
}

// WithBetaSchemes adds one Beta-density weighting curve per (a, b) shape
// pair. The slices run in parallel.
func WithBetaSchemes(a, b []float64) Option {
	return func(o *options) {
		o.betaA = a
		o.betaB = b
	}
}

// WithHorizon sets how many aligned steps ahead the prediction target sits.
// Default: 1.
func WithHorizon(n int) Option {
	return func(o *options) {
		o.horizon = n
	}
}

// WithSampleSize sets the number of training pairs per rolling window.
// Default: 60.
func WithSampleSize(n int) Option {
	return func(o *options) {
		o.nSample = n
	}
}

// WithStep sets how far the anchor advances between windows. Default: 1.
func WithStep(n int) Option {
	return func(o *options) {
		o.step = n
	}
}

// WithIterate controls walking the window forward through the sample. When
// off, a single window trains on every available pair. Default: on.
func WithIterate(on bool) Option {
	return func(o *options) {
		o.iterate = on
	}
}

// WithAutoregression adds the target's own value at the anchor date as a
// regressor. Default: off.
func WithAutoregression(on bool) Option {
	return func(o *options) {
		o.ar = on
	}
}

// WithSelection sets the model-selection rule along the penalty path:
// "bic", "aic", "cp" or "cv". Default: "bic".
func WithSelection(rule string) Option {
	return func(o *options) {
		o.selection = rule
	}
}

// WithAlphaGrid sets the elastic-net mixing grid, each value in [0, 1].
// Default: 0 to 1 in steps of 0.2.
func WithAlphaGrid(alphas ...float64) Option {
	return func(o *options) {
		o.alphas = alphas
	}
}

// WithCVFolds sets the fold count under "cv" selection. Default: 5.
func WithCVFolds(n int) Option {
	return func(o *options) {
		o.cvFolds = n
	}
}

// WithFailurePolicy sets what a failed window does to the run: "abort" or
// "skip". Default: "abort".
func WithFailurePolicy(policy string) Option {
	return func(o *options) {
		o.onFailure = policy
	}
}

// WithPredictWorkers sets the window-fitting concurrency. Default: 4.
func WithPredictWorkers(n int) Option {
	return func(o *options) {
		o.predictWorkers = n
	}
}

func defaultOptions() options {
	return options{
		docRule:        "proportional",
		contextWindow:  4,
		workers:        4,
		advScope:       "preceding",
		advFactor:      0.5,
		cadence:        "day",
		acrossRule:     "equal_weight",
		ignoreZeros:    true,
		fill:           "zero",
		lag:            7,
		equal:          true,
		horizon:        1,
		nSample:        60,
		step:           1,
		iterate:        true,
		selection:      "bic",
		onFailure:      "abort",
		predictWorkers: 4,
	}
}
