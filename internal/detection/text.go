package detection

import (
	"fmt"
	"io"
	"math"
	"strings"
)

const barWidth = 30

// WriteText prints the report as one block per face, in detection order.
func WriteText(w io.Writer, report *Report) error {
	if report == nil {
		return nil
	}
	var b strings.Builder
	b.WriteString("Analysis Complete\n")
	if len(report.Cards) == 0 {
		b.WriteString("No faces detected.\n")
	}
	for i, card := range report.Cards {
		fmt.Fprintf(&b, "\n[%d] %s\n", i+1, card.Label)
		fmt.Fprintf(&b, "    %s Confidence: %s%%\n", card.ConfidenceKind, card.ConfidenceText())
		fmt.Fprintf(&b, "    Detection Accuracy: %s%%\n", card.DetectionConfidenceText())
		fmt.Fprintf(&b, "    %s\n", confidenceBar(card.Confidence))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func confidenceBar(percent float64) string {
	filled := int(math.Round(percent / 100 * barWidth))
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}
