package detection

import (
	"math"
	"strconv"
)

// DeepfakeThreshold is the exclusive lower bound of is_deepfake for a face to
// be reported as fake. A score equal to the threshold is authentic.
const DeepfakeThreshold = 0.5

const (
	LabelDeepfake  = "DEEPFAKE DETECTED"
	LabelAuthentic = "AUTHENTIC IMAGE"
)

// Card is the presentation model of one detected face.
type Card struct {
	Deepfake bool
	Label    string
	// ConfidenceKind is "Fake" or "Authentic" and names what Confidence measures.
	ConfidenceKind      string
	Confidence          float64
	DetectionConfidence float64
	Detection           Detection
}

// ConfidenceText formats Confidence with one decimal place.
func (c Card) ConfidenceText() string {
	return strconv.FormatFloat(c.Confidence, 'f', 1, 64)
}

// DetectionConfidenceText formats DetectionConfidence with one decimal place.
func (c Card) DetectionConfidenceText() string {
	return strconv.FormatFloat(c.DetectionConfidence, 'f', 1, 64)
}

// Report is the rendered results section.
type Report struct {
	Message string
	Cards   []Card
}

// Render builds the results section for resp. The boolean is false when there
// is nothing to show: a nil response, a missing body or a missing
// detection_result. An empty data array yields a report with no cards.
func Render(resp *Response) (*Report, bool) {
	if resp == nil || resp.Body == nil || resp.Body.DetectionResult == nil {
		return nil, false
	}
	report := &Report{Message: resp.Body.Message}
	data := resp.Body.DetectionResult.Data
	if len(data) == 0 {
		return report, true
	}
	report.Cards = make([]Card, 0, len(data[0].BoundingBoxes))
	for _, d := range data[0].BoundingBoxes {
		report.Cards = append(report.Cards, NewCard(d))
	}
	return report, true
}

// NewCard classifies a single detection.
func NewCard(d Detection) Card {
	card := Card{
		Deepfake:            d.IsDeepfake > DeepfakeThreshold,
		DetectionConfidence: Percent(d.BBoxConfidence),
		Detection:           d,
	}
	if card.Deepfake {
		card.Label = LabelDeepfake
		card.ConfidenceKind = "Fake"
		card.Confidence = Percent(d.IsDeepfake)
	} else {
		card.Label = LabelAuthentic
		card.ConfidenceKind = "Authentic"
		card.Confidence = Percent(1 - d.IsDeepfake)
	}
	return card
}

// Percent converts a probability to a percentage rounded to one decimal.
func Percent(p float64) float64 {
	return math.Round(p*1000) / 10
}
