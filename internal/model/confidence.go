package model

import "encoding/json"

// Quality labels a field's trust level for downstream consumers.
type Quality string

const (
	QualityVerified    Quality = "verified"
	QualityValidFormat Quality = "valid_format"
	QualityComplete    Quality = "complete"
	QualityPartial     Quality = "partial"
	QualityUnverified  Quality = "unverified"
	QualityMissing     Quality = "missing"
)

// Field names used as keys in FieldConfidence maps.
const (
	FieldName     = "name"
	FieldTitle    = "title"
	FieldCompany  = "company"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldWebsite  = "website"
	FieldLinkedIn = "linkedin"
	FieldAddress  = "address"
)

// FieldConfidence holds per-field confidence scores and quality labels.
// It is computed once after parsing/enrichment completes and never mutated
// afterward. On the wire the per-field scores are flattened to top-level
// keys alongside "overall" and "quality"; see MarshalJSON.
type FieldConfidence struct {
	Scores  map[string]float64
	Quality map[string]Quality

	// Overall mirrors ContactRecord.ConfidenceScore for convenience.
	Overall float64
}

// NewFieldConfidence returns an empty FieldConfidence with initialized maps.
func NewFieldConfidence() FieldConfidence {
	return FieldConfidence{
		Scores:  make(map[string]float64),
		Quality: make(map[string]Quality),
	}
}

// Set records a score and quality label for a field.
func (fc FieldConfidence) Set(field string, score float64, q Quality) {
	fc.Scores[field] = score
	fc.Quality[field] = q
}

// Score returns the confidence for a field, 0 if unknown.
func (fc FieldConfidence) Score(field string) float64 {
	return fc.Scores[field]
}

// QualityOf returns the quality label for a field, QualityMissing if unknown.
func (fc FieldConfidence) QualityOf(field string) Quality {
	if q, ok := fc.Quality[field]; ok {
		return q
	}
	return QualityMissing
}

// MarshalJSON flattens per-field scores to top-level keys:
//
//	{"email": 0.9, "phone": 0.8, "overall": 0.75, "quality": {...}}
//
// Field names never collide with the reserved "overall" and "quality" keys.
func (fc FieldConfidence) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(fc.Scores)+2)
	for field, score := range fc.Scores {
		flat[field] = score
	}
	flat["overall"] = fc.Overall
	quality := fc.Quality
	if quality == nil {
		quality = map[string]Quality{}
	}
	flat["quality"] = quality
	return json.Marshal(flat)
}

// UnmarshalJSON reads the flat wire shape back into the struct.
func (fc *FieldConfidence) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := NewFieldConfidence()
	for key, val := range raw {
		switch key {
		case "overall":
			if err := json.Unmarshal(val, &out.Overall); err != nil {
				return err
			}
		case "quality":
			if err := json.Unmarshal(val, &out.Quality); err != nil {
				return err
			}
		default:
			var score float64
			if err := json.Unmarshal(val, &score); err != nil {
				return err
			}
			out.Scores[key] = score
		}
	}
	*fc = out
	return nil
}
