package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/cardscan/internal/monitoring"
	"github.com/sells-group/cardscan/internal/store"
)

var statusSample int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize recent run health",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		sample := statusSample
		if sample <= 0 {
			sample = cfg.Monitoring.SampleSize
		}

		// Quota state lives in-process; a fresh CLI run has none to report.
		collector := monitoring.NewCollector(st, nil)
		snap, err := collector.Collect(ctx, sample)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusSample, "sample", 0, "number of recent runs to summarize (default from config)")
	rootCmd.AddCommand(statusCmd)
}
