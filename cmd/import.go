package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cascadia-monitoring/streamtrend/internal/loader"
	"github.com/cascadia-monitoring/streamtrend/internal/model"
)

var (
	importCSVPath  string
	importXLSXPath string
	importDataset  string
	importSheet    string
	importCharset  string
	importCols     = loader.DefaultColumns
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import observations from CSV or XLSX into the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("import"); err != nil {
			return err
		}
		if (importCSVPath == "") == (importXLSXPath == "") {
			return eris.New("exactly one of --csv or --xlsx is required")
		}

		opts := loader.Options{
			Columns: importCols,
			Charset: importCharset,
			Sheet:   importSheet,
		}

		var (
			obs []model.Observation
			err error
		)
		if importCSVPath != "" {
			obs, err = loader.ReadCSV(importCSVPath, opts)
		} else {
			obs, err = loader.ReadXLSX(importXLSXPath, opts)
		}
		if err != nil {
			return err
		}

		// The pipeline assumes one value per entity, group, and year;
		// importRows aggregates duplicates first.
		n, err := importRows(ctx, importDataset, obs)
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.String("dataset", importDataset),
			zap.Int("rows", n),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to CSV file")
	importCmd.Flags().StringVar(&importXLSXPath, "xlsx", "", "path to XLSX file")
	importCmd.Flags().StringVar(&importDataset, "dataset", "", "dataset name (required)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default first)")
	importCmd.Flags().StringVar(&importCharset, "charset", "", "source charset for non-UTF-8 CSV exports (e.g. windows-1252)")
	importCmd.Flags().StringVar(&importCols.Entity, "entity-col", importCols.Entity, "entity id column header")
	importCmd.Flags().StringVar(&importCols.Group, "group-col", importCols.Group, "group key column header")
	importCmd.Flags().StringVar(&importCols.Year, "year-col", importCols.Year, "year column header")
	importCmd.Flags().StringVar(&importCols.Value, "value-col", importCols.Value, "value column header")
	_ = importCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(importCmd)
}
