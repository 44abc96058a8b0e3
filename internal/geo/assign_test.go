package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascadia-monitoring/streamtrend/internal/model"
)

// unit squares at (0,0)-(1,1) and (2,2)-(3,3), closed rings.
func testSheds() []Watershed {
	return []Watershed{
		{Name: "Mill", Rings: [][]float64{{0, 0, 1, 0, 1, 1, 0, 1, 0, 0}}},
		{Name: "Cedar", Rings: [][]float64{{2, 2, 3, 2, 3, 3, 2, 3, 2, 2}}},
	}
}

func TestLocate(t *testing.T) {
	sheds := testSheds()

	name, ok := Locate(0.5, 0.5, sheds)
	require.True(t, ok)
	assert.Equal(t, "Mill", name)

	name, ok = Locate(2.5, 2.9, sheds)
	require.True(t, ok)
	assert.Equal(t, "Cedar", name)

	_, ok = Locate(1.5, 1.5, sheds)
	assert.False(t, ok)
}

func TestAssignWatersheds(t *testing.T) {
	sites := []model.Site{
		{ID: "A", Lon: 0.5, Lat: 0.5},
		{ID: "B", Lon: 2.1, Lat: 2.1},
		{ID: "C", Lon: 9, Lat: 9},
		{ID: "D", Lon: 0.5, Lat: 0.5, Watershed: "Preset"},
	}

	n := AssignWatersheds(sites, testSheds())
	assert.Equal(t, 2, n)

	assert.Equal(t, "Mill", sites[0].Watershed)
	assert.Equal(t, "Cedar", sites[1].Watershed)
	assert.Empty(t, sites[2].Watershed)
	// An existing assignment is never overwritten.
	assert.Equal(t, "Preset", sites[3].Watershed)
}

func TestAssignWatersheds_NoSheds(t *testing.T) {
	sites := []model.Site{{ID: "A", Lon: 0.5, Lat: 0.5}}
	assert.Zero(t, AssignWatersheds(sites, nil))
	assert.Empty(t, sites[0].Watershed)
}
