package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/cardscan/internal/pipeline"
)

var (
	batchNoEnrich    bool
	batchConcurrency int
)

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".webp": {},
}

var batchCmd = &cobra.Command{
	Use:   "batch <dir-or-images...>",
	Short: "Process a directory or list of card images",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		paths, err := collectImagePaths(args)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return eris.New("no card images found")
		}

		items := make([]pipeline.Item, 0, len(paths))
		for _, path := range paths {
			data, err := os.ReadFile(path)
			if err != nil {
				return eris.Wrapf(err, "read image %s", path)
			}
			items = append(items, pipeline.Item{Name: filepath.Base(path), Image: data})
		}

		if batchConcurrency > 0 {
			cfg.Batch.MaxConcurrentImages = batchConcurrency
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var opts []pipeline.Option
		if batchNoEnrich {
			opts = append(opts, pipeline.WithoutEnrichment())
		}

		results := env.Pipeline.ProcessBatch(ctx, items, opts...)

		succeeded := 0
		for _, r := range results {
			if r.Success {
				succeeded++
			}
		}
		zap.L().Info("batch complete",
			zap.Int("total", len(results)),
			zap.Int("succeeded", succeeded),
			zap.Int("failed", len(results)-succeeded),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

// collectImagePaths expands directory arguments into their image files and
// passes file arguments through. Order follows the arguments, directory
// entries sorted by name.
func collectImagePaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, eris.Wrapf(err, "stat %s", arg)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, eris.Wrapf(err, "read dir %s", arg)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if _, ok := imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
				paths = append(paths, filepath.Join(arg, entry.Name()))
			}
		}
	}
	return paths, nil
}

func init() {
	batchCmd.Flags().BoolVar(&batchNoEnrich, "no-enrich", false, "skip company enrichment")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max images processed at once (default from config)")
	rootCmd.AddCommand(batchCmd)
}
