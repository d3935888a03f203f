// Package barometer computes textual sentiment time series from dated
// documents and runs rolling penalized regressions on top of them.
//
// Quick start:
//
//	b, err := barometer.New(barometer.WithLag(1))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	lexicons := map[string]map[string]float64{
//	    "tone": {"strong": 1, "weak": -1},
//	}
//	m, err := b.ComputeMeasures(ctx, docs, lexicons)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(m.Names()) // [all--tone--equal]
//
// Each measure is one series per (feature, lexicon, weighting scheme) triple.
// Predict fits a walk-forward elastic net of a target series on the measures,
// and Attribute decomposes the resulting predictions back onto features,
// lexicons, schemes or bucket lags.
//
// A Barometer instance is safe for concurrent use. Create once, reuse across
// corpora.
package barometer
