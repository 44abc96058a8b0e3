package trend

import "github.com/cascadia-monitoring/streamtrend/internal/model"

// MinPoints is the smallest series the rank-correlation test is defined
// for. Sparser groups are a normal boundary condition in monitoring
// records and are excluded rather than zero-filled.
const MinPoints = 3

// Estimate computes the full trend summary for one group series. The
// second return is false when the series is too short, in which case the
// group is excluded from the result set.
func Estimate(series model.GroupSeries) (*model.TrendResult, bool) {
	if len(series.Points) < MinPoints {
		return nil, false
	}

	mk := MannKendall(series.Points)

	return &model.TrendResult{
		Group:  series.Group,
		N:      len(series.Points),
		Tau:    mk.Tau,
		Slope:  TheilSen(series.Points),
		PValue: mk.P,
		Class:  Classify(mk.P),
		OLS:    FitLinear(series.Points),
	}, true
}
