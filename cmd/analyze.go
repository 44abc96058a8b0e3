package main

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cascadia-monitoring/streamtrend/internal/export"
	"github.com/cascadia-monitoring/streamtrend/internal/pipeline"
	"github.com/cascadia-monitoring/streamtrend/internal/selector"
	"github.com/cascadia-monitoring/streamtrend/internal/store"
)

var (
	analyzeDataset   string
	analyzeStart     int
	analyzeEnd       int
	analyzeEntities  string
	analyzeGroups    string
	analyzeWatershed string
	analyzeOut       string
	analyzeChartDir  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute per-group baselines and trend statistics for a dataset",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		f := selector.Filter{
			Entities:  splitList(analyzeEntities),
			GroupKeys: splitList(analyzeGroups),
			StartYear: analyzeStart,
			EndYear:   analyzeEnd,
		}

		if analyzeWatershed != "" {
			entities, err := watershedEntities(ctx, st, analyzeWatershed)
			if err != nil {
				return err
			}
			if len(entities) == 0 {
				return eris.Errorf("no sites found in watershed %q", analyzeWatershed)
			}
			// --entities narrows within the watershed; both filters apply.
			if len(f.Entities) > 0 {
				entities = intersect(f.Entities, entities)
				if len(entities) == 0 {
					return eris.Errorf("no requested entities in watershed %q", analyzeWatershed)
				}
			}
			f.Entities = entities
		}

		obs, err := st.ListObservations(ctx, analyzeDataset)
		if err != nil {
			return err
		}
		if len(obs) == 0 {
			return eris.Errorf("dataset %q is empty or unknown", analyzeDataset)
		}

		analyzer := pipeline.NewAnalyzer(cfg.Analyze.Workers)
		sum, err := analyzer.Run(ctx, obs, f)
		if err != nil {
			return err
		}

		if err := export.WriteTable(os.Stdout, sum); err != nil {
			return err
		}

		if analyzeOut != "" {
			if err := export.WriteXLSX(analyzeOut, sum); err != nil {
				return err
			}
			zap.L().Info("trend table written", zap.String("path", analyzeOut))
		}

		if analyzeChartDir != "" {
			if err := os.MkdirAll(analyzeChartDir, 0o755); err != nil {
				return eris.Wrap(err, "create chart dir")
			}
			n, err := export.WriteCharts(analyzeChartDir, sum)
			if err != nil {
				return err
			}
			zap.L().Info("charts written", zap.String("dir", analyzeChartDir), zap.Int("charts", n))
		}

		return nil
	},
}

// watershedEntities expands a watershed name to its member site ids.
func watershedEntities(ctx context.Context, st store.Store, watershed string) ([]string, error) {
	sites, err := st.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, site := range sites {
		if strings.EqualFold(site.Watershed, watershed) {
			out = append(out, site.ID)
		}
	}
	return out, nil
}

// intersect keeps the values of a that also appear in b.
func intersect(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, v := range b {
		in[v] = true
	}
	var out []string
	for _, v := range a {
		if in[v] {
			out = append(out, v)
		}
	}
	return out
}

// splitList parses a comma-separated flag value.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeDataset, "dataset", "", "dataset name (required)")
	analyzeCmd.Flags().IntVar(&analyzeStart, "start-year", 0, "inclusive first year (0 = open)")
	analyzeCmd.Flags().IntVar(&analyzeEnd, "end-year", 0, "inclusive last year (0 = open)")
	analyzeCmd.Flags().StringVar(&analyzeEntities, "entities", "", "comma-separated entity ids")
	analyzeCmd.Flags().StringVar(&analyzeGroups, "groups", "", "comma-separated group keys")
	analyzeCmd.Flags().StringVar(&analyzeWatershed, "watershed", "", "restrict to sites in this watershed")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "write the trend table to this XLSX path")
	analyzeCmd.Flags().StringVar(&analyzeChartDir, "charts", "", "write per-group anomaly charts into this directory")
	_ = analyzeCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(analyzeCmd)
}
