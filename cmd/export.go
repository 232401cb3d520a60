package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/cardscan/internal/export"
	"github.com/sells-group/cardscan/internal/store"
)

var (
	exportFormat string
	exportLimit  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export processed contacts to a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		exporter, err := export.NewExporter(cfg.Export.OutputDir)
		if err != nil {
			return err
		}

		path, err := exporter.Export(ctx, st, exportFormat, exportLimit)
		if err != nil {
			return err
		}

		zap.L().Info("export complete", zap.String("path", path))
		fmt.Println(path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or xlsx")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 1000, "maximum number of runs to export")
	rootCmd.AddCommand(exportCmd)
}
