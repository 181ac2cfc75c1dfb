package element

import (
	"crypto/rand"
	"encoding/hex"
	mathrand "math/rand/v2"

	"sketchflow/internal/skeleton"
)

// Expander completes skeletons into drawable elements. The canvas layer
// ships its own conversion routine; DefaultExpander stands in for it with
// the same invocation contract: incoming identifiers are preserved, and a
// start/end reference that resolves to no shape in the batch drops that
// binding instead of failing the whole batch.
type Expander interface {
	Expand(batch []skeleton.Skeleton) ([]*Element, error)
}

const (
	defaultStrokeColor     = "#1e1e1e"
	defaultBackgroundColor = "transparent"
	defaultBindingGap      = 4
)

// DefaultExpander is the built-in expansion routine.
type DefaultExpander struct{}

// Expand populates identifiers, version, seed, default styling and
// resolved connector bindings for every skeleton in the batch, in order.
func (DefaultExpander) Expand(batch []skeleton.Skeleton) ([]*Element, error) {
	shapes := make(map[string]*Element, len(batch))
	out := make([]*Element, 0, len(batch))

	for _, sk := range batch {
		el := &Element{
			Type:            sk.Type,
			ID:              sk.ID,
			X:               sk.X,
			Y:               sk.Y,
			Width:           sk.Width,
			Height:          sk.Height,
			Version:         1,
			Seed:            mathrand.Int64(),
			BackgroundColor: sk.BackgroundColor,
			StrokeColor:     sk.StrokeColor,
		}
		if el.ID == "" {
			el.ID = newID()
		}
		if el.BackgroundColor == "" {
			el.BackgroundColor = defaultBackgroundColor
		}
		if el.StrokeColor == "" {
			el.StrokeColor = defaultStrokeColor
		}
		if sk.Label != nil {
			el.LabelText = sk.Label.Text
		}
		if el.Type.Linear() {
			el.Points = linearPoints(sk)
		}
		out = append(out, el)
		if !el.Type.Linear() && el.Type != skeleton.KindText {
			shapes[el.ID] = el
		}
	}

	// Second pass: connectors bind only to shapes that actually exist in
	// this batch. Anything else (typos, references to elements already on
	// the canvas) is silently left unbound.
	for i, sk := range batch {
		el := out[i]
		if !el.Type.Linear() {
			continue
		}
		if sk.Start != nil && sk.Start.ID != "" {
			if target, ok := shapes[sk.Start.ID]; ok {
				el.StartBinding = bindTo(target, el.X, el.Y)
			}
		}
		if sk.End != nil && sk.End.ID != "" {
			if target, ok := shapes[sk.End.ID]; ok {
				el.EndBinding = bindTo(target, el.X+el.Width, el.Y+el.Height)
			}
		}
	}
	return out, nil
}

func linearPoints(sk skeleton.Skeleton) []skeleton.Point {
	if len(sk.Points) >= 2 {
		pts := make([]skeleton.Point, len(sk.Points))
		copy(pts, sk.Points)
		return pts
	}
	return []skeleton.Point{{0, 0}, {sk.Width, sk.Height}}
}

// bindTo derives a binding for the connector endpoint at (px, py). The
// focus fraction comes from projecting the endpoint against the shape's
// center; misaligned model coordinates can push it outside [-1, 1], which
// the normalizer clamps afterwards.
func bindTo(target *Element, px, py float64) *Binding {
	focus := 0.0
	if target.Height != 0 {
		cy := target.Y + target.Height/2
		focus = 2 * (py - cy) / target.Height
	}
	return &Binding{
		ElementID: target.ID,
		Focus:     focus,
		Gap:       defaultBindingGap,
	}
}

func newID() string {
	var b [10]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "el-" + hex.EncodeToString([]byte{byte(mathrand.Uint32())})
	}
	return hex.EncodeToString(b[:])
}
