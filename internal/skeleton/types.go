package skeleton

import "strings"

// Kind is the shape discriminant a model response may use.
type Kind string

const (
	KindRectangle Kind = "rectangle"
	KindEllipse   Kind = "ellipse"
	KindDiamond   Kind = "diamond"
	KindText      Kind = "text"
	KindArrow     Kind = "arrow"
	KindLine      Kind = "line"
)

// Valid reports whether k is one of the recognized shape kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindRectangle, KindEllipse, KindDiamond, KindText, KindArrow, KindLine:
		return true
	}
	return false
}

// Linear reports whether the kind is connector-like (arrow or line).
func (k Kind) Linear() bool {
	return k == KindArrow || k == KindLine
}

// Point is a [dx, dy] offset relative to an element's x/y anchor.
// Decoding tolerates longer JSON arrays; extra coordinates are dropped.
type Point [2]float64

// Ref names another skeleton in the same batch by its type and id.
type Ref struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id,omitempty"`
}

// Label is the optional text attached to a shape.
type Label struct {
	Text string `json:"text,omitempty"`
}

// Skeleton is the minimal, model-authored element description.
// The id is unique within one generation batch only; it exists solely so
// arrows can reference shapes via Start/End.
type Skeleton struct {
	Type   Kind    `json:"type"`
	ID     string  `json:"id,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	BackgroundColor string `json:"backgroundColor,omitempty"`
	StrokeColor     string `json:"strokeColor,omitempty"`
	Label           *Label `json:"label,omitempty"`

	// Connector-only fields.
	Start  *Ref    `json:"start,omitempty"`
	End    *Ref    `json:"end,omitempty"`
	Points []Point `json:"points,omitempty"`
}

// Action values recognized by the reconciler. Anything else merges as
// ActionAdd but is preserved verbatim for user-facing labeling.
const (
	ActionAdd     = "add"
	ActionReplace = "replace"
	ActionModify  = "modify"
)

// MergeAction maps a raw action string onto the merge policy the
// reconciler understands. Unknown values fall back to add.
func MergeAction(raw string) string {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case ActionReplace:
		return ActionReplace
	case ActionModify:
		return ActionModify
	default:
		return ActionAdd
	}
}
