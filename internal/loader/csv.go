package loader

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/cascadia-monitoring/streamtrend/internal/model"
)

// ReadCSV loads observations from a CSV file.
func ReadCSV(path string, opts Options) ([]model.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "loader: open csv")
	}
	defer f.Close() //nolint:errcheck

	return ParseCSV(f, opts)
}

// ParseCSV loads observations from CSV data. The first record is the
// header row.
func ParseCSV(r io.Reader, opts Options) ([]model.Observation, error) {
	if opts.Columns == (Columns{}) {
		opts.Columns = DefaultColumns
	}

	dr, err := decodeReader(r, opts.Charset)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(dr)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "loader: read csv")
	}
	if len(records) == 0 {
		return nil, eris.New("loader: csv has no header row")
	}

	entity, group, year, value, err := columnIndexes(records[0], opts.Columns)
	if err != nil {
		return nil, err
	}

	return parseRows(records[1:], entity, group, year, value, 2)
}
