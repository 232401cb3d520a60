package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/cardscan/internal/model"
)

var (
	enrichEmail   string
	enrichCompany string
	enrichWebsite string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a contact from known fields without OCR",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if enrichEmail == "" && enrichCompany == "" && enrichWebsite == "" {
			return eris.New("nothing to enrich; pass --email, --company, or --website")
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		record := model.ContactRecord{
			Email:   enrichEmail,
			Company: enrichCompany,
			Website: enrichWebsite,
		}

		ce := env.Pipeline.EnrichOnly(ctx, record)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ce)
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichEmail, "email", "", "contact email address")
	enrichCmd.Flags().StringVar(&enrichCompany, "company", "", "company name")
	enrichCmd.Flags().StringVar(&enrichWebsite, "website", "", "company website")
	rootCmd.AddCommand(enrichCmd)
}
