// Package geo loads monitoring site and watershed layers from shapefiles
// and assigns sites to watersheds.
package geo

import (
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cascadia-monitoring/streamtrend/internal/model"
)

// Site attribute fields, in preference order.
var (
	siteIDFields    = []string{"SITE_ID", "SITEID", "ID"}
	siteNameFields  = []string{"SITE_NAME", "NAME"}
	watershedFields = []string{"WATERSHED", "WTRSHD", "HUC_NAME"}
)

// LoadSites reads a point shapefile of monitoring sites. Watershed is taken
// from the attribute table when present; otherwise left empty for
// AssignWatersheds to fill.
func LoadSites(path string) ([]model.Site, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "geo: open sites shapefile")
	}
	defer reader.Close() //nolint:errcheck

	idIdx := firstFieldIndex(reader, siteIDFields)
	if idIdx < 0 {
		return nil, eris.Errorf("geo: no site id field (looked for %s)", strings.Join(siteIDFields, ", "))
	}
	nameIdx := firstFieldIndex(reader, siteNameFields)
	shedIdx := firstFieldIndex(reader, watershedFields)

	var sites []model.Site
	for reader.Next() {
		_, shape := reader.Shape()
		pt, ok := asPoint(shape)
		if !ok {
			continue
		}

		site := model.Site{
			ID:  strings.Trim(reader.Attribute(idIdx), " \x00"),
			Lon: pt.X,
			Lat: pt.Y,
		}
		if site.ID == "" {
			continue
		}
		if nameIdx >= 0 {
			site.Name = strings.Trim(reader.Attribute(nameIdx), " \x00")
		}
		if shedIdx >= 0 {
			site.Watershed = strings.Trim(reader.Attribute(shedIdx), " \x00")
		}
		sites = append(sites, site)
	}

	zap.L().Info("geo: sites loaded", zap.String("path", path), zap.Int("sites", len(sites)))
	return sites, nil
}

// Watershed is one named polygon from a watershed layer. Rings hold the
// outer ring of each polygon part as flat XY coordinates.
type Watershed struct {
	Name  string
	Rings [][]float64
}

// LoadWatersheds reads a polygon shapefile of watershed boundaries.
func LoadWatersheds(path string) ([]Watershed, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "geo: open watershed shapefile")
	}
	defer reader.Close() //nolint:errcheck

	nameIdx := firstFieldIndex(reader, append(watershedFields, "NAME"))
	if nameIdx < 0 {
		return nil, eris.New("geo: no watershed name field")
	}

	var sheds []Watershed
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}

		name := strings.Trim(reader.Attribute(nameIdx), " \x00")
		if name == "" {
			continue
		}

		sheds = append(sheds, Watershed{Name: name, Rings: polygonRings(poly)})
	}

	zap.L().Info("geo: watersheds loaded", zap.String("path", path), zap.Int("watersheds", len(sheds)))
	return sheds, nil
}

// firstFieldIndex returns the index of the first matching attribute field.
// Shapefile field names are fixed-width and NUL padded.
func firstFieldIndex(reader *shp.Reader, names []string) int {
	for _, name := range names {
		for i, f := range reader.Fields() {
			if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
				return i
			}
		}
	}
	return -1
}

func asPoint(s shp.Shape) (shp.Point, bool) {
	switch pt := s.(type) {
	case *shp.Point:
		return *pt, true
	case *shp.PointZ:
		return shp.Point{X: pt.X, Y: pt.Y}, true
	case *shp.PointM:
		return shp.Point{X: pt.X, Y: pt.Y}, true
	default:
		return shp.Point{}, false
	}
}

// polygonRings splits a shapefile polygon into per-part flat coordinate
// rings.
func polygonRings(p *shp.Polygon) [][]float64 {
	if p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	rings := make([][]float64, 0, p.NumParts)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		ring := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			ring = append(ring, p.Points[j].X, p.Points[j].Y)
		}
		rings = append(rings, ring)
	}
	return rings
}
