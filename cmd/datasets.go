package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List imported datasets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("datasets"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		datasets, err := st.ListDatasets(ctx)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATASET\tROWS\tENTITIES\tYEARS")
		for _, d := range datasets {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d-%d\n", d.Name, d.Observations, d.Entities, d.MinYear, d.MaxYear)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
}
