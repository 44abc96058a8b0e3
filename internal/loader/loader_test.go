package loader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascadia-monitoring/streamtrend/internal/model"
)

func TestParseCSV_Basic(t *testing.T) {
	in := strings.Join([]string{
		"site_id,group,year,value",
		"MC-01,fry,2018,4.2",
		"MC-01,fry,2019,na",
		"MC-02,,2018,7",
	}, "\n")

	got, err := ParseCSV(strings.NewReader(in), Options{})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "MC-01", got[0].EntityID)
	assert.Equal(t, "fry", got[0].GroupKey)
	assert.Equal(t, 2018, got[0].Year)
	require.NotNil(t, got[0].Value)
	assert.Equal(t, 4.2, *got[0].Value)

	// "na" is a missing measurement, not an error.
	assert.Nil(t, got[1].Value)

	assert.Equal(t, "MC-02", got[2].EntityID)
	assert.Empty(t, got[2].GroupKey)
}

func TestParseCSV_MissingTokens(t *testing.T) {
	in := strings.Join([]string{
		"site_id,year,value",
		"A,2018,",
		"A,2019,NA",
		"A,2020,nd",
		"A,2021,-",
	}, "\n")

	got, err := ParseCSV(strings.NewReader(in), Options{})
	require.NoError(t, err)
	require.Len(t, got, 4)
	for _, o := range got {
		assert.Nil(t, o.Value, "year %d", o.Year)
	}
}

func TestParseCSV_CustomColumns(t *testing.T) {
	in := strings.Join([]string{
		"Station,Season,Survey Year,Density",
		"ST-1,spring,2020,0.75",
	}, "\n")

	got, err := ParseCSV(strings.NewReader(in), Options{Columns: Columns{
		Entity: "Station",
		Group:  "Season",
		Year:   "Survey Year",
		Value:  "Density",
	}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ST-1", got[0].EntityID)
	assert.Equal(t, "spring", got[0].GroupKey)
	assert.Equal(t, 0.75, *got[0].Value)
}

func TestParseCSV_HeaderCaseInsensitive(t *testing.T) {
	in := "Site_ID,Year,Value\nA,2018,1\n"

	got, err := ParseCSV(strings.NewReader(in), Options{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestParseCSV_SkipsBlankRows(t *testing.T) {
	in := "site_id,year,value\nA,2018,1\n,,\n"

	got, err := ParseCSV(strings.NewReader(in), Options{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"missing entity column", "station,year,value\nA,2018,1\n", `entity column "site_id" not found`},
		{"missing year column", "site_id,yr,value\nA,2018,1\n", `year column "year" not found`},
		{"missing value column", "site_id,year,count\nA,2018,1\n", `value column "value" not found`},
		{"bad year", "site_id,year,value\nA,20X8,1\n", "row 2: bad year"},
		{"bad value", "site_id,year,value\nA,2018,lots\n", "row 2: bad value"},
		{"empty entity", "site_id,year,value\n,2018,1\n", "row 2: empty entity id"},
		{"no header", "", "no header row"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tc.in), Options{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParseCSV_Charset(t *testing.T) {
	// "Rivière" in windows-1252: è is 0xE8.
	in := "site_id,year,value\nRivi\xe8re,2018,1\n"

	got, err := ParseCSV(strings.NewReader(in), Options{Charset: "windows-1252"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Rivière", got[0].EntityID)
}

func TestParseCSV_UnknownCharset(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("site_id,year,value\n"), Options{Charset: "no-such-charset"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown charset")
}

func TestAggregate_CollapsesDuplicates(t *testing.T) {
	in := []model.Observation{
		{EntityID: "A", Year: 2018, Value: model.Float(2)},
		{EntityID: "A", Year: 2018, Value: model.Float(4)},
		{EntityID: "A", Year: 2019, Value: model.Float(5)},
	}

	got := Aggregate(in)
	require.Len(t, got, 2)
	assert.Equal(t, 3.0, *got[0].Value)
	assert.Equal(t, 5.0, *got[1].Value)
}

func TestAggregate_MissingValues(t *testing.T) {
	in := []model.Observation{
		// Mean over non-missing values only.
		{EntityID: "A", Year: 2018, Value: model.Float(6)},
		{EntityID: "A", Year: 2018, Value: nil},
		// All-missing collapses to one missing row.
		{EntityID: "A", Year: 2019, Value: nil},
		{EntityID: "A", Year: 2019, Value: nil},
	}

	got := Aggregate(in)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].Value)
	assert.Equal(t, 6.0, *got[0].Value)
	assert.Nil(t, got[1].Value)
}

func TestAggregate_Sorted(t *testing.T) {
	in := []model.Observation{
		{EntityID: "B", Year: 2018, Value: model.Float(1)},
		{EntityID: "A", GroupKey: "z", Year: 2018, Value: model.Float(1)},
		{EntityID: "A", GroupKey: "a", Year: 2019, Value: model.Float(1)},
		{EntityID: "A", GroupKey: "a", Year: 2018, Value: model.Float(1)},
	}

	got := Aggregate(in)
	require.Len(t, got, 4)
	assert.Equal(t, model.Observation{EntityID: "A", GroupKey: "a", Year: 2018, Value: model.Float(1)}, got[0])
	assert.Equal(t, "a", got[1].GroupKey)
	assert.Equal(t, 2019, got[1].Year)
	assert.Equal(t, "z", got[2].GroupKey)
	assert.Equal(t, "B", got[3].EntityID)
}
