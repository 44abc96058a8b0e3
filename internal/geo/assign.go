package geo

import (
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/cascadia-monitoring/streamtrend/internal/model"
)

// AssignWatersheds fills the watershed of each site that lacks one by
// point-in-ring containment against the watershed polygons. Holes are
// ignored; watershed layers in practice are simple outer boundaries.
// Returns the number of sites assigned.
func AssignWatersheds(sites []model.Site, sheds []Watershed) int {
	assigned := 0
	for i := range sites {
		if sites[i].Watershed != "" {
			continue
		}
		if name, ok := Locate(sites[i].Lon, sites[i].Lat, sheds); ok {
			sites[i].Watershed = name
			assigned++
		}
	}
	return assigned
}

// Locate returns the first watershed containing the point.
func Locate(lon, lat float64, sheds []Watershed) (string, bool) {
	p := geom.Coord{lon, lat}
	for _, shed := range sheds {
		for _, ring := range shed.Rings {
			if xy.IsPointInRing(geom.XY, p, ring) {
				return shed.Name, true
			}
		}
	}
	return "", false
}
