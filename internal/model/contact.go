package model

import "strings"

// RecognizedLine is one unit of OCR output: a line of text with the engine's
// recognition confidence, in top-to-bottom reading order as it appeared on
// the card.
type RecognizedLine struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// ContactRecord is the structured contact extracted from a business card.
// Fields are populated during parsing and enrichment; callers treat the
// record as immutable once returned from the pipeline.
type ContactRecord struct {
	Name        string   `json:"name,omitempty"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	Title       string   `json:"title,omitempty"`
	Company     string   `json:"company,omitempty"`
	Email       string   `json:"email,omitempty"`
	Phone       []string `json:"phone"`
	Website     string   `json:"website,omitempty"`
	Address     string   `json:"address,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	LinkedIn    string   `json:"linkedin,omitempty"`
	CompanyLogo string   `json:"company_logo,omitempty"`

	// ConfidenceScore is the overall record confidence in [0,1].
	ConfidenceScore float64 `json:"confidence_score"`
}

// IsEmpty reports whether no field was extracted at all.
func (c ContactRecord) IsEmpty() bool {
	return c.Name == "" && c.Title == "" && c.Company == "" &&
		c.Email == "" && len(c.Phone) == 0 && c.Website == ""
}

// SplitName derives first/last name from the full name: first whitespace
// token becomes FirstName, the remainder LastName.
func (c *ContactRecord) SplitName() {
	parts := strings.Fields(c.Name)
	switch len(parts) {
	case 0:
	case 1:
		c.FirstName = parts[0]
	default:
		c.FirstName = parts[0]
		c.LastName = strings.Join(parts[1:], " ")
	}
}
