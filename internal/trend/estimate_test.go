package trend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascadia-monitoring/streamtrend/internal/model"
)

func TestEstimate_ReferenceSeries(t *testing.T) {
	// Values 10..18 over 2015-2019: mean 14, anomalies -4..4 step 2.
	series := model.GroupSeries{
		Group:  model.GroupID{EntityID: "SITE-01"},
		Mean:   14,
		Points: points([]int{2015, 2016, 2017, 2018, 2019}, []float64{-4, -2, 0, 2, 4}),
	}

	r, ok := Estimate(series)
	require.True(t, ok)

	assert.Equal(t, 5, r.N)
	assert.Equal(t, 1.0, r.Tau)
	assert.InDelta(t, 2.0, r.Slope, 1e-9)
	// Asymptotic p for a perfect 5-point trend.
	assert.InDelta(t, 0.0275, r.PValue, 0.0005)
	assert.Equal(t, model.Significant, r.Class)
	assert.InDelta(t, 2.0, r.OLS.Slope, 1e-9)
}

func TestEstimate_ExcludesShortSeries(t *testing.T) {
	series := model.GroupSeries{
		Group:  model.GroupID{EntityID: "SITE-02"},
		Points: points([]int{2015, 2016}, []float64{-1, 1}),
	}

	r, ok := Estimate(series)
	assert.False(t, ok)
	assert.Nil(t, r)
}

func TestEstimate_FlatSeries(t *testing.T) {
	// All ties: the tie-correction path must run without raising and the
	// undefined p-value must classify as not significant.
	series := model.GroupSeries{
		Group:  model.GroupID{EntityID: "SITE-03"},
		Mean:   5,
		Points: points([]int{2015, 2016, 2017, 2018}, []float64{0, 0, 0, 0}),
	}

	r, ok := Estimate(series)
	require.True(t, ok)

	assert.Equal(t, 0.0, r.Tau)
	assert.True(t, math.IsNaN(r.PValue))
	assert.Equal(t, model.NotSignificant, r.Class)
}

func TestEstimate_LongPerfectTrendIsSignificant(t *testing.T) {
	// A strictly increasing series of length >= 5 must not classify ns.
	years := make([]int, 8)
	vals := make([]float64, 8)
	for i := range years {
		years[i] = 2010 + i
		vals[i] = float64(i)
	}

	r, ok := Estimate(model.GroupSeries{Group: model.GroupID{EntityID: "S"}, Points: points(years, vals)})
	require.True(t, ok)

	assert.Equal(t, 1.0, r.Tau)
	assert.NotEqual(t, model.NotSignificant, r.Class)
}
