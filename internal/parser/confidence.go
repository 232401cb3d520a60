package parser

import "github.com/sells-group/cardscan/internal/model"

// fieldWeights bias the overall score toward the fields that matter most for
// lead capture: a record is only as good as its reachable contact points.
var fieldWeights = map[string]float64{
	model.FieldEmail:    0.25,
	model.FieldPhone:    0.20,
	model.FieldName:     0.20,
	model.FieldCompany:  0.15,
	model.FieldTitle:    0.10,
	model.FieldWebsite:  0.05,
	model.FieldLinkedIn: 0.05,
	model.FieldAddress:  0.05,
}

// coreFields are the fields whose presence scales the overall score: a
// record with only a company name scores low even when that one field is
// OCR-certain.
var coreFields = []string{
	model.FieldName,
	model.FieldEmail,
	model.FieldPhone,
	model.FieldCompany,
}

// overallConfidence computes the record-level score: the weighted average of
// populated field confidences, scaled by the fraction of core fields present.
func overallConfidence(record model.ContactRecord, fc model.FieldConfidence) float64 {
	var weighted, totalWeight float64
	for field, weight := range fieldWeights {
		if fc.QualityOf(field) == model.QualityMissing {
			continue
		}
		weighted += fc.Score(field) * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 0
	}

	present := 0
	for _, f := range coreFields {
		if fc.QualityOf(f) != model.QualityMissing {
			present++
		}
	}
	coreFraction := float64(present) / float64(len(coreFields))

	score := (weighted / totalWeight) * coreFraction
	if score > 1 {
		score = 1
	}
	return score
}
