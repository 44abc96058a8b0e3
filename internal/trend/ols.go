package trend

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cascadia-monitoring/streamtrend/internal/model"
)

// FitLinear fits anomaly on year by ordinary least squares. It is the
// companion summary to the Mann-Kendall test and plays no part in
// significance classification. Requires at least two points; with exactly
// two the residual degrees of freedom are zero, so the standard errors and
// p-value are NaN rather than an error. Zero variance in year degenerates
// the whole fit to NaN. An exact fit reports a p-value of 0, not NaN: the
// t statistic diverges and its tail probability has a well-defined limit.
func FitLinear(points []model.AnomalyPoint) model.LinearFit {
	nan := math.NaN()
	fit := model.LinearFit{
		Intercept:       nan,
		Slope:           nan,
		StdErrIntercept: nan,
		StdErrSlope:     nan,
		R2:              nan,
		PValue:          nan,
	}

	n := len(points)
	if n < 2 {
		return fit
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, p := range points {
		xs[i] = float64(p.Year)
		ys[i] = p.Anomaly
	}

	xbar := stat.Mean(xs, nil)
	sxx := 0.0
	for _, x := range xs {
		sxx += (x - xbar) * (x - xbar)
	}
	if sxx == 0 {
		return fit
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	fit.Intercept = alpha
	fit.Slope = beta
	fit.R2 = stat.RSquared(xs, ys, nil, alpha, beta)

	if n == 2 {
		return fit
	}

	// Residual variance with n-2 degrees of freedom.
	ssr := 0.0
	for i := range xs {
		r := ys[i] - (alpha + beta*xs[i])
		ssr += r * r
	}
	df := float64(n - 2)
	s2 := ssr / df

	fit.StdErrSlope = math.Sqrt(s2 / sxx)
	fit.StdErrIntercept = math.Sqrt(s2 * (1/float64(n) + xbar*xbar/sxx))

	if fit.StdErrSlope == 0 {
		// Exact fit: t -> +/-Inf, so the two-sided tail probability is 0.
		fit.PValue = 0
		return fit
	}

	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	fit.PValue = 2 * t.Survival(math.Abs(beta/fit.StdErrSlope))
	return fit
}
