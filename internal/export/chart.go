package export

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cascadia-monitoring/streamtrend/internal/model"
	"github.com/cascadia-monitoring/streamtrend/internal/pipeline"
	"github.com/cascadia-monitoring/streamtrend/internal/trend"
)

// WriteCharts renders one anomaly chart per trend result into dir.
// Returns the number of charts written.
func WriteCharts(dir string, s *pipeline.Summary) (int, error) {
	byGroup := make(map[model.GroupID]model.GroupSeries, len(s.Series))
	for _, gs := range s.Series {
		byGroup[gs.Group] = gs
	}

	written := 0
	for _, r := range s.Results {
		gs, ok := byGroup[r.Group]
		if !ok {
			continue
		}
		path := filepath.Join(dir, chartFileName(r.Group))
		if err := WriteChart(path, gs, r); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// WriteChart renders one group's anomaly series with its Theil-Sen trend
// line to a PNG file.
func WriteChart(path string, gs model.GroupSeries, r model.TrendResult) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s  (tau=%.2f, slope=%.2f, %s)", gs.Group, r.Tau, r.Slope, r.Class.Label())
	p.X.Label.Text = "year"
	p.Y.Label.Text = "anomaly"

	pts := make(plotter.XYs, len(gs.Points))
	for i, ap := range gs.Points {
		pts[i].X = float64(ap.Year)
		pts[i].Y = ap.Anomaly
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return eris.Wrap(err, "export: build scatter")
	}
	scatter.GlyphStyle.Radius = vg.Points(3)
	p.Add(plotter.NewGrid(), scatter)

	// Theil-Sen line across the observed year span.
	if !math.IsNaN(r.Slope) {
		intercept := trend.TheilSenIntercept(gs.Points, r.Slope)
		x0 := float64(gs.Points[0].Year)
		x1 := float64(gs.Points[len(gs.Points)-1].Year)
		line, err := plotter.NewLine(plotter.XYs{
			{X: x0, Y: intercept + r.Slope*x0},
			{X: x1, Y: intercept + r.Slope*x1},
		})
		if err != nil {
			return eris.Wrap(err, "export: build trend line")
		}
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(line)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return eris.Wrap(err, "export: save chart")
	}
	return nil
}

// chartFileName builds a filesystem-safe PNG name for a group.
func chartFileName(g model.GroupID) string {
	name := g.String()
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	return name + ".png"
}
