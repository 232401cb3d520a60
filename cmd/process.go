package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/cardscan/internal/export"
	"github.com/sells-group/cardscan/internal/pipeline"
)

var (
	processNoEnrich      bool
	processForceFallback bool
	processCSV           string
	processXLSX          string
)

var processCmd = &cobra.Command{
	Use:   "process <image>",
	Short: "Process a single business card image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		image, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read image %s", args[0])
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		opts := []pipeline.Option{pipeline.WithImageName(filepath.Base(args[0]))}
		if processNoEnrich {
			opts = append(opts, pipeline.WithoutEnrichment())
		}
		if processForceFallback {
			opts = append(opts, pipeline.ForceFallback())
		}

		result := env.Pipeline.Process(ctx, image, opts...)

		zap.L().Info("processing complete",
			zap.String("image", args[0]),
			zap.Bool("success", result.Success),
			zap.String("ocr_method", string(result.OCRMethod)),
			zap.Int64("duration_ms", result.ProcessingTimeMS),
		)

		if result.Success {
			row := export.FromResult(filepath.Base(args[0]), result)
			if processCSV != "" {
				f, err := os.Create(processCSV)
				if err != nil {
					return eris.Wrap(err, "create csv")
				}
				defer f.Close()
				if err := export.WriteCSV(f, []export.Row{row}); err != nil {
					return err
				}
			}
			if processXLSX != "" {
				if err := export.WriteXLSX(processXLSX, []export.Row{row}); err != nil {
					return err
				}
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	processCmd.Flags().BoolVar(&processNoEnrich, "no-enrich", false, "skip company enrichment")
	processCmd.Flags().BoolVar(&processForceFallback, "force-fallback", false, "skip the primary engine and use the vision fallback")
	processCmd.Flags().StringVar(&processCSV, "csv", "", "also write the contact to this CSV file")
	processCmd.Flags().StringVar(&processXLSX, "xlsx", "", "also write the contact to this XLSX file")
	rootCmd.AddCommand(processCmd)
}
