package trend

import (
	"math"
	"sort"

	"github.com/cascadia-monitoring/streamtrend/internal/model"
)

// TheilSen returns the median of all pairwise slopes
// (anomaly_j - anomaly_i) / (year_j - year_i) for i < j. Years must be
// distinct. Fewer than two points yields NaN.
func TheilSen(points []model.AnomalyPoint) float64 {
	n := len(points)
	if n < 2 {
		return math.NaN()
	}

	slopes := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			dt := float64(points[j].Year - points[i].Year)
			if dt == 0 {
				continue
			}
			slopes = append(slopes, (points[j].Anomaly-points[i].Anomaly)/dt)
		}
	}
	if len(slopes) == 0 {
		return math.NaN()
	}

	sort.Float64s(slopes)
	mid := len(slopes) / 2
	if len(slopes)%2 == 1 {
		return slopes[mid]
	}
	return (slopes[mid-1] + slopes[mid]) / 2
}

// TheilSenIntercept returns the conventional companion intercept, the
// median of anomaly_i - slope*year_i.
func TheilSenIntercept(points []model.AnomalyPoint, slope float64) float64 {
	if len(points) == 0 || math.IsNaN(slope) {
		return math.NaN()
	}
	resid := make([]float64, len(points))
	for i, p := range points {
		resid[i] = p.Anomaly - slope*float64(p.Year)
	}
	sort.Float64s(resid)
	mid := len(resid) / 2
	if len(resid)%2 == 1 {
		return resid[mid]
	}
	return (resid[mid-1] + resid[mid]) / 2
}
