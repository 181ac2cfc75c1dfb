package element

import (
	"sketchflow/internal/skeleton"
)

// Binding attaches one end of a connector to a shape. Focus is the
// fractional attachment point along the bound shape's edge and must stay
// inside [-1, 1]; Gap is a pixel offset from the shape boundary.
type Binding struct {
	ElementID string  `json:"elementId"`
	Focus     float64 `json:"focus"`
	Gap       float64 `json:"gap"`
}

// Element is the fully expanded, drawable form of a skeleton. Identifiers
// are globally unique within a scene; Version counts structural mutations;
// Seed keeps the hand-drawn look stable across re-renders.
type Element struct {
	Type   skeleton.Kind `json:"type"`
	ID     string        `json:"id"`
	X      float64       `json:"x"`
	Y      float64       `json:"y"`
	Width  float64       `json:"width"`
	Height float64       `json:"height"`

	Version int   `json:"version"`
	Seed    int64 `json:"seed"`

	BackgroundColor string `json:"backgroundColor"`
	StrokeColor     string `json:"strokeColor"`
	LabelText       string `json:"labelText,omitempty"`

	Points       []skeleton.Point `json:"points,omitempty"`
	StartBinding *Binding         `json:"startBinding,omitempty"`
	EndBinding   *Binding         `json:"endBinding,omitempty"`
}

// Linear reports whether the element is connector-like.
func (e *Element) Linear() bool {
	return e != nil && e.Type.Linear()
}

// Clone returns a deep copy. Repair passes operate on copies so they never
// corrupt object graphs the canvas layer may cache internally.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	out := *e
	if e.Points != nil {
		out.Points = make([]skeleton.Point, len(e.Points))
		copy(out.Points, e.Points)
	}
	if e.StartBinding != nil {
		b := *e.StartBinding
		out.StartBinding = &b
	}
	if e.EndBinding != nil {
		b := *e.EndBinding
		out.EndBinding = &b
	}
	return &out
}

// CloneBatch deep-copies a whole batch.
func CloneBatch(batch []*Element) []*Element {
	out := make([]*Element, len(batch))
	for i, e := range batch {
		out[i] = e.Clone()
	}
	return out
}
