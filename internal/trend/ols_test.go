package trend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitLinear_PerfectFit(t *testing.T) {
	// y = 2x - 1 exactly.
	fit := FitLinear(points([]int{1, 2, 3}, []float64{1, 3, 5}))

	assert.InDelta(t, -1.0, fit.Intercept, 1e-9)
	assert.InDelta(t, 2.0, fit.Slope, 1e-9)
	assert.InDelta(t, 1.0, fit.R2, 1e-9)
	assert.InDelta(t, 0.0, fit.StdErrSlope, 1e-9)
	assert.InDelta(t, 0.0, fit.PValue, 1e-9)
}

func TestFitLinear_NoisyFit(t *testing.T) {
	fit := FitLinear(points([]int{1, 2, 3, 4}, []float64{1, 2, 2, 3}))

	assert.InDelta(t, 0.6, fit.Slope, 1e-9)
	assert.InDelta(t, 0.5, fit.Intercept, 1e-9)
	assert.InDelta(t, 0.9, fit.R2, 1e-9)
	// s^2 = 0.2/2 = 0.1, se = sqrt(0.1/5)
	assert.InDelta(t, math.Sqrt(0.02), fit.StdErrSlope, 1e-9)
	// t = 0.6/sqrt(0.02) ~= 4.243 with 2 df
	assert.InDelta(t, 0.0513, fit.PValue, 0.001)
}

func TestFitLinear_TwoPoints(t *testing.T) {
	// Legal but degenerate: exact fit, no residual degrees of freedom.
	fit := FitLinear(points([]int{1, 2}, []float64{1, 3}))

	assert.InDelta(t, 2.0, fit.Slope, 1e-9)
	assert.InDelta(t, -1.0, fit.Intercept, 1e-9)
	assert.True(t, math.IsNaN(fit.StdErrSlope))
	assert.True(t, math.IsNaN(fit.StdErrIntercept))
	assert.True(t, math.IsNaN(fit.PValue))
}

func TestFitLinear_TooShort(t *testing.T) {
	fit := FitLinear(points([]int{1}, []float64{1}))
	assert.True(t, math.IsNaN(fit.Slope))
	assert.True(t, math.IsNaN(fit.PValue))
}

func TestFitLinear_ZeroTimeVariance(t *testing.T) {
	// All observations in one year: the whole fit is undefined.
	fit := FitLinear(points([]int{2015, 2015, 2015}, []float64{1, 2, 3}))
	assert.True(t, math.IsNaN(fit.Slope))
	assert.True(t, math.IsNaN(fit.R2))
	assert.True(t, math.IsNaN(fit.PValue))
}
