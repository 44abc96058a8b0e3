package model

// SignificanceClass is the three-level ordinal bucket a trend p-value maps
// into. Displays render the Label form next to bars and points.
type SignificanceClass string

const (
	NotSignificant    SignificanceClass = "not_significant"
	Significant       SignificanceClass = "significant"
	HighlySignificant SignificanceClass = "highly_significant"
)

// Label returns the fixed display symbol for the class.
func (c SignificanceClass) Label() string {
	switch c {
	case Significant:
		return "*"
	case HighlySignificant:
		return "**"
	default:
		return "ns"
	}
}

// LinearFit holds the ordinary least squares companion fit of anomaly on
// year. With two points the fit is exact and the residual-based fields
// (standard errors, p-value) are NaN.
type LinearFit struct {
	Intercept       float64 `json:"intercept"`
	Slope           float64 `json:"slope"`
	StdErrIntercept float64 `json:"stderr_intercept"`
	StdErrSlope     float64 `json:"stderr_slope"`
	R2              float64 `json:"r_squared"`
	PValue          float64 `json:"p_value"`
}

// TrendResult is the estimator output for one group. Immutable once
// produced; only emitted for groups with at least three distinct years.
type TrendResult struct {
	Group  GroupID           `json:"group"`
	N      int               `json:"n"`
	Tau    float64           `json:"tau"`
	Slope  float64           `json:"slope"`
	PValue float64           `json:"p_value"`
	Class  SignificanceClass `json:"class"`
	OLS    LinearFit         `json:"ols"`
}
