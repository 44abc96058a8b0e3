// Package trend implements the non-parametric trend estimator core:
// the Mann-Kendall monotonic trend test with tie-corrected variance, the
// Theil-Sen slope, an OLS companion fit, and significance classification.
package trend

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cascadia-monitoring/streamtrend/internal/model"
)

// Stats holds the Mann-Kendall test quantities for one anomaly series.
type Stats struct {
	S    int     // sum of pairwise signs
	VarS float64 // tie-corrected variance of S
	Tau  float64 // S normalized by the number of pairs
	Z    float64 // continuity-corrected normal deviate; NaN when VarS is 0
	P    float64 // two-sided p-value; NaN when VarS is 0
}

// MannKendall runs the Mann-Kendall test on a series ordered by year.
// Years must be distinct; value ties are legal and handled by the standard
// tie correction. The p-value comes from the normal approximation to the
// S-statistic with a continuity correction. When every value is tied the
// variance collapses to zero and Z and P are NaN.
func MannKendall(points []model.AnomalyPoint) Stats {
	n := len(points)
	st := Stats{Z: math.NaN(), P: math.NaN()}
	if n < 2 {
		return st
	}

	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			switch {
			case points[j].Anomaly > points[i].Anomaly:
				st.S++
			case points[j].Anomaly < points[i].Anomaly:
				st.S--
			}
		}
	}

	pairs := n * (n - 1) / 2
	st.Tau = float64(st.S) / float64(pairs)

	// Var(S) = [n(n-1)(2n+5) - sum t(t-1)(2t+5)] / 18 over tied value groups.
	ties := make(map[float64]int, n)
	for _, p := range points {
		ties[p.Anomaly]++
	}
	tieSum := 0.0
	for _, t := range ties {
		if t > 1 {
			tf := float64(t)
			tieSum += tf * (tf - 1) * (2*tf + 5)
		}
	}
	nf := float64(n)
	st.VarS = (nf*(nf-1)*(2*nf+5) - tieSum) / 18

	if st.VarS <= 0 {
		return st
	}

	sd := math.Sqrt(st.VarS)
	switch {
	case st.S > 0:
		st.Z = (float64(st.S) - 1) / sd
	case st.S < 0:
		st.Z = (float64(st.S) + 1) / sd
	default:
		st.Z = 0
	}
	st.P = 2 * distuv.UnitNormal.Survival(math.Abs(st.Z))
	if st.P > 1 {
		st.P = 1
	}
	return st
}
