package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/cardscan/internal/model"
	"github.com/sells-group/cardscan/internal/parser"
)

var (
	parseText string
	parseFile string
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse already-transcribed card text into a contact record",
	Long:  "Reads card text from --text or stdin and runs field extraction without OCR or enrichment.",
	RunE: func(cmd *cobra.Command, args []string) error {
		text := parseText
		if text == "" && parseFile != "" {
			data, err := os.ReadFile(parseFile)
			if err != nil {
				return eris.Wrapf(err, "read %s", parseFile)
			}
			text = string(data)
		}
		if text == "" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return eris.Wrap(err, "read stdin")
			}
			text = string(data)
		}
		if text == "" {
			return eris.New("no text to parse; pass --text, --file, or pipe to stdin")
		}

		record, fc := parser.ParseText(text)

		out := struct {
			ContactData     model.ContactRecord   `json:"contact_data"`
			FieldConfidence model.FieldConfidence `json:"field_confidence"`
		}{record, fc}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseText, "text", "", "card text, one line per card line")
	parseCmd.Flags().StringVarP(&parseFile, "file", "f", "", "read card text from a file")
	rootCmd.AddCommand(parseCmd)
}
