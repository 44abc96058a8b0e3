package trend

import (
	"math"

	"github.com/cascadia-monitoring/streamtrend/internal/model"
)

// Significance thresholds. Boundaries are inclusive on the weaker side:
// exactly 0.05 is not significant, exactly 0.005 is significant.
const (
	significantP       = 0.05
	highlySignificantP = 0.005
)

// Classify maps a two-sided p-value to its display class. An undefined
// (NaN) p-value, as produced by a zero-variance series, is not significant.
func Classify(p float64) model.SignificanceClass {
	switch {
	case math.IsNaN(p), p >= significantP:
		return model.NotSignificant
	case p >= highlySignificantP:
		return model.Significant
	default:
		return model.HighlySignificant
	}
}
