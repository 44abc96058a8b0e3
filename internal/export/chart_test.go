package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascadia-monitoring/streamtrend/internal/model"
	"github.com/cascadia-monitoring/streamtrend/internal/pipeline"
)

func chartSummary() *pipeline.Summary {
	group := model.GroupID{EntityID: "MC-01", GroupKey: "fry"}
	return &pipeline.Summary{
		Results: []model.TrendResult{
			{Group: group, N: 5, Tau: 1, Slope: 1, PValue: 0.0275, Class: model.Significant},
		},
		Series: []model.GroupSeries{
			{
				Group: group,
				Mean:  3,
				Points: []model.AnomalyPoint{
					{Year: 2015, Value: 1, Anomaly: -2},
					{Year: 2016, Value: 2, Anomaly: -1},
					{Year: 2017, Value: 3, Anomaly: 0},
					{Year: 2018, Value: 4, Anomaly: 1},
					{Year: 2019, Value: 5, Anomaly: 2},
				},
			},
		},
		GroupsTotal:  1,
		Observations: 5,
	}
}

func TestWriteCharts(t *testing.T) {
	dir := t.TempDir()

	n, err := WriteCharts(dir, chartSummary())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	info, err := os.Stat(filepath.Join(dir, "MC-01_fry.png"))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteCharts_SkipsResultsWithoutSeries(t *testing.T) {
	s := chartSummary()
	s.Series = nil

	n, err := WriteCharts(t.TempDir(), s)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestChartFileName(t *testing.T) {
	assert.Equal(t, "MC-01.png", chartFileName(model.GroupID{EntityID: "MC-01"}))
	assert.Equal(t, "MC-01_fry.png", chartFileName(model.GroupID{EntityID: "MC-01", GroupKey: "fry"}))
	assert.Equal(t, "Upper_Creek_0__age.png", chartFileName(model.GroupID{EntityID: "Upper Creek/0+", GroupKey: "age"}))
}
