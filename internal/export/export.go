// Package export writes processed contact records to CSV and XLSX files
// for download or handoff to a CRM import.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/cardscan/internal/model"
	"github.com/sells-group/cardscan/internal/store"
)

// Row is one exported contact, flattened for tabular output. Column order
// follows the struct field order.
type Row struct {
	ImageName   string  `csv:"image_name"`
	Name        string  `csv:"name"`
	FirstName   string  `csv:"first_name"`
	LastName    string  `csv:"last_name"`
	Title       string  `csv:"title"`
	Company     string  `csv:"company"`
	Email       string  `csv:"email"`
	Phone       string  `csv:"phone"`
	Website     string  `csv:"website"`
	Address     string  `csv:"address"`
	Industry    string  `csv:"industry"`
	LinkedIn    string  `csv:"linkedin"`
	CompanyLogo string  `csv:"company_logo"`
	Confidence  float64 `csv:"confidence"`
	OCRMethod   string  `csv:"ocr_method"`
	ProcessedAt string  `csv:"processed_at"`
}

// FromRun flattens a stored run into an export row. Runs without contact
// data produce a row with only run metadata.
func FromRun(run model.Run) Row {
	row := Row{
		ImageName:   run.ImageName,
		Confidence:  run.Confidence,
		OCRMethod:   string(run.OCRMethod),
		ProcessedAt: run.CreatedAt.UTC().Format(time.RFC3339),
	}
	if run.Contact == nil {
		return row
	}
	c := run.Contact
	row.Name = c.Name
	row.FirstName = c.FirstName
	row.LastName = c.LastName
	row.Title = c.Title
	row.Company = c.Company
	row.Email = c.Email
	row.Phone = strings.Join(c.Phone, "; ")
	row.Website = c.Website
	row.Address = c.Address
	row.Industry = c.Industry
	row.LinkedIn = c.LinkedIn
	row.CompanyLogo = c.CompanyLogo
	return row
}

// FromResult flattens a fresh pipeline result, before it ever reaches the
// store.
func FromResult(imageName string, r model.PipelineResult) Row {
	run := model.Run{
		ImageName: imageName,
		Success:   r.Success,
		OCRMethod: r.OCRMethod,
		Contact:   r.ContactData,
		CreatedAt: r.ProcessedAt,
	}
	if r.ContactData != nil {
		run.Confidence = r.ContactData.ConfidenceScore
	}
	return FromRun(run)
}

// WriteCSV writes rows as CSV with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return eris.Wrap(err, "export: encode csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX writes rows to a single-sheet XLSX file at path.
func WriteXLSX(path string, rows []Row) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Contacts")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range []string{
		"image_name", "name", "first_name", "last_name", "title", "company",
		"email", "phone", "website", "address", "industry", "linkedin",
		"company_logo", "confidence", "ocr_method", "processed_at",
	} {
		header.AddCell().Value = col
	}

	for _, row := range rows {
		r := sheet.AddRow()
		for _, v := range []string{
			row.ImageName, row.Name, row.FirstName, row.LastName, row.Title,
			row.Company, row.Email, row.Phone, row.Website, row.Address,
			row.Industry, row.LinkedIn, row.CompanyLogo,
		} {
			r.AddCell().Value = v
		}
		r.AddCell().SetFloat(row.Confidence)
		r.AddCell().Value = row.OCRMethod
		r.AddCell().Value = row.ProcessedAt
	}

	return eris.Wrap(f.Save(path), "export: save xlsx")
}

// Exporter materializes store runs into files under a single output
// directory.
type Exporter struct {
	dir string
}

// NewExporter creates the output directory if needed.
func NewExporter(dir string) (*Exporter, error) {
	if dir == "" {
		dir = "outputs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "export: create output dir")
	}
	return &Exporter{dir: dir}, nil
}

// Dir returns the output directory.
func (e *Exporter) Dir() string { return e.dir }

// Export writes the most recent successful runs in the given format
// ("csv" or "xlsx") and returns the created file path.
func (e *Exporter) Export(ctx context.Context, st store.Store, format string, limit int) (string, error) {
	runs, err := st.ListRuns(ctx, limit)
	if err != nil {
		return "", eris.Wrap(err, "export: list runs")
	}

	var rows []Row
	for _, run := range runs {
		if !run.Success {
			continue
		}
		rows = append(rows, FromRun(run))
	}
	if len(rows) == 0 {
		return "", eris.New("export: no successful runs to export")
	}

	stamp := time.Now().UTC().Format("20060102_150405")
	switch format {
	case "csv", "":
		path := filepath.Join(e.dir, fmt.Sprintf("contacts_%s.csv", stamp))
		f, err := os.Create(path)
		if err != nil {
			return "", eris.Wrap(err, "export: create csv")
		}
		defer f.Close()
		if err := WriteCSV(f, rows); err != nil {
			return "", err
		}
		return path, nil
	case "xlsx":
		path := filepath.Join(e.dir, fmt.Sprintf("contacts_%s.xlsx", stamp))
		if err := WriteXLSX(path, rows); err != nil {
			return "", err
		}
		return path, nil
	default:
		return "", eris.Errorf("export: unknown format %q", format)
	}
}
