package model

import "time"

// Run is the stored record of one processed card, kept for export and
// monitoring.
type Run struct {
	ID          string         `json:"id"`
	ImageName   string         `json:"image_name"`
	Success     bool           `json:"success"`
	OCRMethod   OCRMethod      `json:"ocr_method"`
	DurationMS  int64          `json:"duration_ms"`
	Confidence  float64        `json:"confidence"`
	Contact     *ContactRecord `json:"contact,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
