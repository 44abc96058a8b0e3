// Package loader parses observation tables from CSV and XLSX exports into
// the long format the pipeline consumes. Malformed rows are an error here,
// before anything reaches the pipeline.
package loader

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/cascadia-monitoring/streamtrend/internal/model"
)

// Columns names the header columns to map. Group is optional; the rest are
// required.
type Columns struct {
	Entity string
	Group  string
	Year   string
	Value  string
}

// DefaultColumns matches the common monitoring export headers.
var DefaultColumns = Columns{
	Entity: "site_id",
	Group:  "group",
	Year:   "year",
	Value:  "value",
}

// Options configures parsing.
type Options struct {
	Columns Columns
	Charset string // IANA charset name for non-UTF-8 exports; empty = UTF-8
	Sheet   string // XLSX only: sheet name; empty = first sheet
}

// missingTokens are value cells treated as a missing measurement rather
// than a parse error.
var missingTokens = map[string]bool{
	"":   true,
	"na": true,
	"nd": true,
	"-":  true,
}

// decodeReader wraps r with a charset decoder when a non-UTF-8 charset is
// configured.
func decodeReader(r io.Reader, charset string) (io.Reader, error) {
	if charset == "" {
		return r, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: unknown charset %q", charset)
	}
	return enc.NewDecoder().Reader(r), nil
}

// columnIndexes maps configured header names to column positions.
// The group column is optional; -1 marks it absent.
func columnIndexes(header []string, cols Columns) (entity, group, year, value int, err error) {
	entity, group, year, value = -1, -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case strings.ToLower(cols.Entity):
			entity = i
		case strings.ToLower(cols.Group):
			group = i
		case strings.ToLower(cols.Year):
			year = i
		case strings.ToLower(cols.Value):
			value = i
		}
	}
	if entity < 0 {
		return 0, 0, 0, 0, eris.Errorf("loader: entity column %q not found", cols.Entity)
	}
	if year < 0 {
		return 0, 0, 0, 0, eris.Errorf("loader: year column %q not found", cols.Year)
	}
	if value < 0 {
		return 0, 0, 0, 0, eris.Errorf("loader: value column %q not found", cols.Value)
	}
	return entity, group, year, value, nil
}

// parseRows converts data rows (header excluded) into observations.
// rowBase is the 1-based row number of the first data row, for error
// messages.
func parseRows(rows [][]string, entity, group, year, value, rowBase int) ([]model.Observation, error) {
	out := make([]model.Observation, 0, len(rows))
	for i, row := range rows {
		rowNum := rowBase + i

		// Trailing blank rows are common in spreadsheet exports.
		if blankRow(row) {
			continue
		}
		if len(row) <= entity || len(row) <= year || len(row) <= value {
			return nil, eris.Errorf("loader: row %d: too few columns", rowNum)
		}

		o := model.Observation{
			EntityID: strings.TrimSpace(row[entity]),
		}
		if o.EntityID == "" {
			return nil, eris.Errorf("loader: row %d: empty entity id", rowNum)
		}
		if group >= 0 && len(row) > group {
			o.GroupKey = strings.TrimSpace(row[group])
		}

		y, err := strconv.Atoi(strings.TrimSpace(row[year]))
		if err != nil {
			return nil, eris.Wrapf(err, "loader: row %d: bad year %q", rowNum, row[year])
		}
		o.Year = y

		raw := strings.TrimSpace(row[value])
		if !missingTokens[strings.ToLower(raw)] {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, eris.Wrapf(err, "loader: row %d: bad value %q", rowNum, raw)
			}
			o.Value = model.Float(v)
		}

		out = append(out, o)
	}
	return out, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Aggregate collapses duplicate (entity, group, year) rows to their mean
// over non-missing values, so the pipeline sees at most one value per group
// and year. Rows that are all missing collapse to a single missing row.
// Output is sorted by entity, group, year.
func Aggregate(obs []model.Observation) []model.Observation {
	type key struct {
		entity, group string
		year          int
	}
	type acc struct {
		sum float64
		n   int
	}

	order := make([]key, 0, len(obs))
	seen := make(map[key]*acc, len(obs))
	for _, o := range obs {
		k := key{o.EntityID, o.GroupKey, o.Year}
		a, ok := seen[k]
		if !ok {
			a = &acc{}
			seen[k] = a
			order = append(order, k)
		}
		if o.Value != nil {
			a.sum += *o.Value
			a.n++
		}
	}

	out := make([]model.Observation, 0, len(order))
	for _, k := range order {
		o := model.Observation{EntityID: k.entity, GroupKey: k.group, Year: k.year}
		if a := seen[k]; a.n > 0 {
			o.Value = model.Float(a.sum / float64(a.n))
		}
		out = append(out, o)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].EntityID != out[j].EntityID {
			return out[i].EntityID < out[j].EntityID
		}
		if out[i].GroupKey != out[j].GroupKey {
			return out[i].GroupKey < out[j].GroupKey
		}
		return out[i].Year < out[j].Year
	})
	return out
}
