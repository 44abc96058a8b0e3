package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cascadia-monitoring/streamtrend/internal/geo"
)

var (
	sitesShapefile     string
	sitesWatershedFile string
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Manage monitoring site metadata",
}

var sitesImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import sites from a point shapefile",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("sites"); err != nil {
			return err
		}

		sites, err := geo.LoadSites(sitesShapefile)
		if err != nil {
			return err
		}

		if sitesWatershedFile != "" {
			sheds, err := geo.LoadWatersheds(sitesWatershedFile)
			if err != nil {
				return err
			}
			assigned := geo.AssignWatersheds(sites, sheds)
			zap.L().Info("watersheds assigned",
				zap.Int("sites", len(sites)),
				zap.Int("assigned", assigned),
			)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.UpsertSites(ctx, sites)
		if err != nil {
			return eris.Wrap(err, "upsert sites")
		}

		zap.L().Info("sites import complete", zap.Int("sites", n))
		return nil
	},
}

func init() {
	sitesImportCmd.Flags().StringVar(&sitesShapefile, "shapefile", "", "path to site point shapefile (required)")
	sitesImportCmd.Flags().StringVar(&sitesWatershedFile, "watersheds", "", "path to watershed polygon shapefile")
	_ = sitesImportCmd.MarkFlagRequired("shapefile")
	sitesCmd.AddCommand(sitesImportCmd)
	rootCmd.AddCommand(sitesCmd)
}
