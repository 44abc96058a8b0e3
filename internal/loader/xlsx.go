package loader

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/cascadia-monitoring/streamtrend/internal/model"
)

// ReadXLSX loads observations from an XLSX workbook. The first row of the
// selected sheet is the header row.
func ReadXLSX(path string, opts Options) ([]model.Observation, error) {
	if opts.Columns == (Columns{}) {
		opts.Columns = DefaultColumns
	}

	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "loader: open xlsx")
	}

	sheet, err := pickSheet(f, opts.Sheet)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = c.String()
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return nil, eris.New("loader: xlsx sheet has no header row")
	}

	entity, group, year, value, err := columnIndexes(rows[0], opts.Columns)
	if err != nil {
		return nil, err
	}

	return parseRows(rows[1:], entity, group, year, value, 2)
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name == "" {
		if len(f.Sheets) == 0 {
			return nil, eris.New("loader: xlsx has no sheets")
		}
		return f.Sheets[0], nil
	}
	sheet, ok := f.Sheet[name]
	if !ok {
		return nil, eris.Errorf("loader: xlsx sheet %q not found", name)
	}
	return sheet, nil
}
