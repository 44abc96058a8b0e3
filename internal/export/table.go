// Package export renders trend summaries for external consumers: a text
// table, an XLSX workbook, and per-group anomaly charts. Display values
// round tau and slope to 2 decimals; stored values keep full precision.
package export

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cascadia-monitoring/streamtrend/internal/pipeline"
)

// WriteTable renders the summary as an aligned text table.
func WriteTable(w io.Writer, s *pipeline.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "GROUP\tN\tTAU\tSLOPE\tP\tSIG")
	for _, r := range s.Results {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%s\t%s\n",
			r.Group, r.N, r.Tau, r.Slope, formatP(r.PValue), r.Class.Label())
	}
	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "export: flush table")
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(w, "\n%d observations, %d groups (%d excluded: fewer than 3 years)\n",
		s.Observations, s.GroupsTotal, s.GroupsExcluded)
	return nil
}

// formatP renders a p-value, distinguishing undefined tests.
func formatP(p float64) string {
	if math.IsNaN(p) {
		return "n/a"
	}
	if p < 0.0001 {
		return "<0.0001"
	}
	return fmt.Sprintf("%.4f", p)
}
