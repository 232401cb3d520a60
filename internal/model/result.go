package model

import "time"

// OCRMethod records which recognition path produced the contact.
type OCRMethod string

const (
	OCRMethodFast     OCRMethod = "fast"
	OCRMethodFallback OCRMethod = "fallback"
)

// SourceStatus is the per-source outcome of an enrichment query.
type SourceStatus string

const (
	SourceStatusOK          SourceStatus = "ok"
	SourceStatusRateLimited SourceStatus = "rate_limited"
	SourceStatusUnavailable SourceStatus = "unavailable"
	SourceStatusError       SourceStatus = "error"
)

// EnrichmentOutcome records what a single source returned. Payload fields
// that are empty were not supplied by the source.
type EnrichmentOutcome struct {
	Source string       `json:"source"`
	Status SourceStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// CompanyEnrichment is the merged company metadata across all sources.
type CompanyEnrichment struct {
	Domain      string `json:"domain,omitempty"`
	LogoURL     string `json:"logo_url,omitempty"`
	Industry    string `json:"industry,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`

	EmailVerified    bool    `json:"email_verified,omitempty"`
	EmailScore       float64 `json:"email_score,omitempty"`
	EmailDeliverable bool    `json:"email_deliverable,omitempty"`

	Sources []EnrichmentOutcome `json:"sources,omitempty"`
}

// HasData reports whether any source contributed a company field.
func (ce CompanyEnrichment) HasData() bool {
	return ce.LogoURL != "" || ce.Industry != "" || ce.LinkedInURL != "" || ce.Domain != ""
}

// PipelineResult is the unit returned per processed image. Immutable once
// constructed. Error is set only when Success is false.
type PipelineResult struct {
	Success           bool               `json:"success"`
	ContactData       *ContactRecord     `json:"contact_data,omitempty"`
	FieldConfidence   *FieldConfidence   `json:"field_confidence,omitempty"`
	CompanyEnrichment *CompanyEnrichment `json:"company_enrichment,omitempty"`
	OCRMethod         OCRMethod          `json:"ocr_method,omitempty"`
	ProcessingTimeMS  int64              `json:"processing_time_ms"`
	Error             string             `json:"error,omitempty"`
	ProcessedAt       time.Time          `json:"processed_at"`
}
