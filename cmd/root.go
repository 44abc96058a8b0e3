package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cascadia-monitoring/streamtrend/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "streamtrend",
	Short: "Trend analysis for long-term stream monitoring data",
	Long:  "Imports fish density, habitat, and flow observation tables, and computes per-group anomaly baselines with Mann-Kendall/Theil-Sen trend statistics for display.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
