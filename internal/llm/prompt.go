package llm

import "strings"

// historyLimit bounds how many trailing conversation turns are forwarded
// upstream with each request.
const historyLimit = 10

const systemInstruction = `You are a diagram assistant for a drawing canvas.
Respond with a single JSON object and nothing else:
{"action": "add" | "replace" | "modify", "elements": [...]}

Each element has: "type" (rectangle, ellipse, diamond, text, arrow, line),
optional "id" (unique within this response, used so arrows can reference
shapes), "x", "y", "width", "height" (numbers; width/height may be negative
on arrows and lines to encode direction), optional "backgroundColor" and
"strokeColor", optional "label": {"text": "..."}.
Arrows and lines may carry "start" and "end" as {"type": "...", "id": "..."}
referencing shapes from this same response, and "points" as [[dx, dy], ...]
offsets from the element's x/y.

Use "add" to extend the current scene, "replace" to start over, "modify"
to update existing elements by their id.`

// BuildMessages assembles the upstream request: the fixed system
// instruction, the current scene summary, the caller-supplied canvas
// context, then the most recent conversation turns.
func BuildMessages(history []Message, sceneSummary, canvasContext string) []Message {
	var sys strings.Builder
	sys.WriteString(systemInstruction)
	if sceneSummary != "" {
		sys.WriteString("\n\nCurrent scene:\n")
		sys.WriteString(sceneSummary)
	}
	if canvasContext != "" {
		sys.WriteString("\n\nCanvas context:\n")
		sys.WriteString(canvasContext)
	}

	trimmed := history
	if len(trimmed) > historyLimit {
		trimmed = trimmed[len(trimmed)-historyLimit:]
	}

	out := make([]Message, 0, len(trimmed)+1)
	out = append(out, Message{Role: "system", Content: sys.String()})
	out = append(out, trimmed...)
	return out
}
