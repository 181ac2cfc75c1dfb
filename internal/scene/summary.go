package scene

import (
	"fmt"
	"strings"

	"sketchflow/internal/element"
)

// summaryCap bounds how many elements are described to the model.
const summaryCap = 50

// Summarize renders a compact, model-readable description of the current
// scene: one line per element with id, type, position, size, label and
// colors, capped at 50 elements.
func Summarize(elements []*element.Element) string {
	if len(elements) == 0 {
		return ""
	}
	shown := elements
	truncated := 0
	if len(shown) > summaryCap {
		truncated = len(shown) - summaryCap
		shown = shown[:summaryCap]
	}

	var b strings.Builder
	for _, el := range shown {
		fmt.Fprintf(&b, "- id=%s type=%s pos=(%.0f,%.0f) size=(%.0f,%.0f)",
			el.ID, el.Type, el.X, el.Y, el.Width, el.Height)
		if el.LabelText != "" {
			fmt.Fprintf(&b, " label=%q", el.LabelText)
		}
		if el.BackgroundColor != "" && el.BackgroundColor != "transparent" {
			fmt.Fprintf(&b, " bg=%s", el.BackgroundColor)
		}
		if el.StrokeColor != "" {
			fmt.Fprintf(&b, " stroke=%s", el.StrokeColor)
		}
		b.WriteString("\n")
	}
	if truncated > 0 {
		fmt.Fprintf(&b, "(+%d more elements omitted)\n", truncated)
	}
	return b.String()
}
