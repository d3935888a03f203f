package predict

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// elasticFit is one solved elastic-net model on standardized data, mapped
// back to the original units.
type elasticFit struct {
	alpha     float64
	lambda    float64
	intercept float64
	betas     []float64 // per column, original units
	rss       float64
	df        int
	criterion float64
}

// design is a training problem: column-major features and the response.
type design struct {
	cols [][]float64
	y    []float64
}

func (d design) n() int { return len(d.y) }
func (d design) p() int { return len(d.cols) }

// standardized holds a z-scored copy of a design plus the statistics to map
// coefficients back.
type standardized struct {
	cols   [][]float64
	y      []float64 // centered
	xMean  []float64
	xSD    []float64 // population; zero marks a constant column
	yMean  float64
	active []int // columns with nonzero variance
}

func standardize(d design) standardized {
	n := d.n()
	s := standardized{
		cols:  make([][]float64, d.p()),
		y:     make([]float64, n),
		xMean: make([]float64, d.p()),
		xSD:   make([]float64, d.p()),
	}
	s.yMean = stat.Mean(d.y, nil)
	for i, v := range d.y {
		s.y[i] = v - s.yMean
	}
	for j, col := range d.cols {
		mean := stat.Mean(col, nil)
		var ss float64
		for _, v := range col {
			dv := v - mean
			ss += dv * dv
		}
		sd := math.Sqrt(ss / float64(n))
		s.xMean[j] = mean
		s.xSD[j] = sd
		zs := make([]float64, n)
		if sd > 0 {
			for i, v := range col {
				zs[i] = (v - mean) / sd
			}
			s.active = append(s.active, j)
		}
		s.cols[j] = zs
	}
	return s
}

// lambdaMax returns the smallest penalty that zeroes every coefficient for
// the given mixing parameter.
func (s standardized) lambdaMax(alpha float64) float64 {
	n := float64(len(s.y))
	var max float64
	for _, j := range s.active {
		if v := math.Abs(floats.Dot(s.cols[j], s.y)) / n; v > max {
			max = v
		}
	}
	return max / math.Max(alpha, 1e-3)
}

// lambdaPath builds a geometric path from lambdaMax down.
func lambdaPath(lambdaMax float64, nLambda int, minRatio float64) []float64 {
	path := make([]float64, nLambda)
	if nLambda == 1 {
		path[0] = lambdaMax
		return path
	}
	logMax := math.Log(lambdaMax)
	logMin := math.Log(lambdaMax * minRatio)
	for k := range path {
		frac := float64(k) / float64(nLambda-1)
		path[k] = math.Exp(logMax + frac*(logMin-logMax))
	}
	return path
}

// coordinateDescent solves the elastic net on standardized data, warm
// starting from beta (modified in place).
//
// Objective: (1/2n)||y - Xb||^2 + lambda*(alpha*|b|_1 + (1-alpha)/2*|b|_2^2).
func coordinateDescent(s standardized, alpha, lambda float64, beta []float64, tol float64, maxIter int) {
	n := float64(len(s.y))
	resid := make([]float64, len(s.y))
	copy(resid, s.y)
	for _, j := range s.active {
		if beta[j] != 0 {
			floats.AddScaled(resid, -beta[j], s.cols[j])
		}
	}

	l1 := lambda * alpha
	l2 := lambda * (1 - alpha)
	for iter := 0; iter < maxIter; iter++ {
		var maxDelta float64
		for _, j := range s.active {
			old := beta[j]
			// rho is the partial correlation with column j's own
			// contribution added back.
			rho := floats.Dot(s.cols[j], resid)/n + old
			next := softThreshold(rho, l1) / (1 + l2)
			if next != old {
				floats.AddScaled(resid, old-next, s.cols[j])
				beta[j] = next
				if d := math.Abs(next - old); d > maxDelta {
					maxDelta = d
				}
			}
		}
		if maxDelta < tol {
			break
		}
	}
}

func softThreshold(z, gamma float64) float64 {
	switch {
	case z > gamma:
		return z - gamma
	case z < -gamma:
		return z + gamma
	}
	return 0
}

// finish maps standardized coefficients back to original units and computes
// the residual sum of squares.
func finish(d design, s standardized, alpha, lambda float64, betaStd []float64) elasticFit {
	fit := elasticFit{
		alpha:  alpha,
		lambda: lambda,
		betas:  make([]float64, d.p()),
	}
	fit.intercept = s.yMean
	for _, j := range s.active {
		if betaStd[j] == 0 {
			continue
		}
		fit.betas[j] = betaStd[j] / s.xSD[j]
		fit.intercept -= fit.betas[j] * s.xMean[j]
		fit.df++
	}
	for i := range d.y {
		pred := fit.intercept
		for j, b := range fit.betas {
			if b != 0 {
				pred += b * d.cols[j][i]
			}
		}
		r := d.y[i] - pred
		fit.rss += r * r
	}
	return fit
}

// interceptOnly is the fallback when no predictor carries signal.
func interceptOnly(d design, alpha float64) elasticFit {
	mean := stat.Mean(d.y, nil)
	fit := elasticFit{alpha: alpha, intercept: mean, betas: make([]float64, d.p())}
	for _, v := range d.y {
		r := v - mean
		fit.rss += r * r
	}
	return fit
}

// rssGuard keeps information criteria finite on perfect fits.
const rssGuard = 1e-12

// criterionValue computes the model-selection criterion. sigma2 is only used
// by Cp.
func criterionValue(sel Selection, rss float64, df, n int, sigma2 float64) float64 {
	nf := float64(n)
	mse := math.Max(rss/nf, rssGuard)
	switch sel {
	case AIC:
		return nf*math.Log(mse) + 2*float64(df)
	case Cp:
		return rss/nf + 2*float64(df)*sigma2/nf
	default: // BIC
		return nf*math.Log(mse) + float64(df)*math.Log(nf)
	}
}

// fitPath runs the lambda path for one alpha and returns the fit minimizing
// the information criterion.
func fitPath(d design, s standardized, alpha float64, cfg Config) elasticFit {
	lmax := s.lambdaMax(alpha)
	if lmax <= 0 || len(s.active) == 0 {
		fit := interceptOnly(d, alpha)
		fit.criterion = criterionValue(cfg.Selection, fit.rss, 0, d.n(), 0)
		return fit
	}

	path := lambdaPath(lmax, cfg.NLambda, cfg.LambdaMinRatio)
	beta := make([]float64, d.p())
	fits := make([]elasticFit, 0, len(path))
	for _, lambda := range path {
		coordinateDescent(s, alpha, lambda, beta, cfg.Tolerance, cfg.MaxIter)
		cp := make([]float64, len(beta))
		copy(cp, beta)
		fits = append(fits, finish(d, s, alpha, lambda, cp))
	}

	// Error variance for Cp comes from the least penalized model on the
	// path.
	last := fits[len(fits)-1]
	sigma2 := math.Max(last.rss, rssGuard) / math.Max(float64(d.n()-last.df), 1)

	best := 0
	for k := range fits {
		fits[k].criterion = criterionValue(cfg.Selection, fits[k].rss, fits[k].df, d.n(), sigma2)
		if fits[k].criterion < fits[best].criterion {
			best = k
		}
	}
	return fits[best]
}

// fitCV picks (alpha, lambda) by K-fold cross validation with deterministic
// interleaved folds, then refits on the full training data.
func fitCV(d design, s standardized, alpha float64, cfg Config) elasticFit {
	lmax := s.lambdaMax(alpha)
	if lmax <= 0 || len(s.active) == 0 {
		fit := interceptOnly(d, alpha)
		fit.criterion = math.Max(fit.rss/float64(d.n()), rssGuard)
		return fit
	}
	path := lambdaPath(lmax, cfg.NLambda, cfg.LambdaMinRatio)
	folds := cfg.CVFolds
	if folds > d.n() {
		folds = d.n()
	}

	cvErr := make([]float64, len(path))
	cvCnt := make([]int, len(path))
	for f := 0; f < folds; f++ {
		train, test := foldSplit(d, f, folds)
		st := standardize(train)
		beta := make([]float64, train.p())
		for k, lambda := range path {
			coordinateDescent(st, alpha, lambda, beta, cfg.Tolerance, cfg.MaxIter)
			fit := finish(train, st, alpha, lambda, beta)
			for i := range test.y {
				pred := fit.intercept
				for j, b := range fit.betas {
					if b != 0 {
						pred += b * test.cols[j][i]
					}
				}
				r := test.y[i] - pred
				cvErr[k] += r * r
				cvCnt[k]++
			}
		}
	}

	best := 0
	for k := range path {
		if cvErr[k]/float64(cvCnt[k]) < cvErr[best]/float64(cvCnt[best]) {
			best = k
		}
	}

	beta := make([]float64, d.p())
	for k := 0; k <= best; k++ { // warm start down the path
		coordinateDescent(s, alpha, path[k], beta, cfg.Tolerance, cfg.MaxIter)
	}
	fit := finish(d, s, alpha, path[best], beta)
	fit.criterion = cvErr[best] / float64(cvCnt[best])
	return fit
}

// foldSplit partitions rows with fold f = every rows index congruent to f.
func foldSplit(d design, f, folds int) (train, test design) {
	train = design{cols: make([][]float64, d.p())}
	test = design{cols: make([][]float64, d.p())}
	for j := range d.cols {
		train.cols[j] = make([]float64, 0, d.n())
		test.cols[j] = make([]float64, 0, d.n())
	}
	for i := 0; i < d.n(); i++ {
		if i%folds == f {
			test.y = append(test.y, d.y[i])
			for j := range d.cols {
				test.cols[j] = append(test.cols[j], d.cols[j][i])
			}
		} else {
			train.y = append(train.y, d.y[i])
			for j := range d.cols {
				train.cols[j] = append(train.cols[j], d.cols[j][i])
			}
		}
	}
	return train, test
}

// solve fits the alpha grid and returns the best fit under the configured
// selection rule.
func solve(d design, cfg Config) elasticFit {
	s := standardize(d)
	var best elasticFit
	for i, alpha := range cfg.Alphas {
		var fit elasticFit
		if cfg.Selection == CrossValidation {
			fit = fitCV(d, s, alpha, cfg)
		} else {
			fit = fitPath(d, s, alpha, cfg)
		}
		if i == 0 || fit.criterion < best.criterion {
			best = fit
		}
	}
	return best
}
