package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/cardscan/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "cardscan",
	Short: "Business card OCR and contact enrichment pipeline",
	Long:  "Extracts structured contact records from business card images via Tesseract with a Claude vision fallback, then enriches them from Hunter and Clearbit.",
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
