package export

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/cascadia-monitoring/streamtrend/internal/pipeline"
)

// WriteXLSX writes the trend table to an XLSX workbook. Numeric columns
// keep full precision; undefined statistics are left as empty cells.
func WriteXLSX(path string, s *pipeline.Summary) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("trends")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{
		"entity_id", "group_key", "n", "tau", "slope", "p_value", "significance",
		"ols_intercept", "ols_slope", "ols_stderr_slope", "ols_r_squared", "ols_p_value",
	} {
		header.AddCell().Value = h
	}

	for _, r := range s.Results {
		row := sheet.AddRow()
		row.AddCell().Value = r.Group.EntityID
		row.AddCell().Value = r.Group.GroupKey
		row.AddCell().SetInt(r.N)
		setFloat(row, r.Tau)
		setFloat(row, r.Slope)
		setFloat(row, r.PValue)
		row.AddCell().Value = r.Class.Label()
		setFloat(row, r.OLS.Intercept)
		setFloat(row, r.OLS.Slope)
		setFloat(row, r.OLS.StdErrSlope)
		setFloat(row, r.OLS.R2)
		setFloat(row, r.OLS.PValue)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save xlsx")
	}
	return nil
}

func setFloat(row *xlsx.Row, v float64) {
	cell := row.AddCell()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	cell.SetFloat(v)
}
