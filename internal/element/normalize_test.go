package element

import (
	"reflect"
	"testing"

	"sketchflow/internal/skeleton"
)

func arrowWithOffset() *Element {
	return &Element{
		Type:         skeleton.KindArrow,
		ID:           "a1",
		X:            100,
		Y:            200,
		Points:       []skeleton.Point{{5, -3}, {70, 40}, {90, 90}},
		StartBinding: &Binding{ElementID: "box1", Focus: 1.7, Gap: 4},
		EndBinding:   &Binding{ElementID: "box2", Focus: -2.5, Gap: 4},
	}
}

func TestNormalizeLinear_OriginShift(t *testing.T) {
	out := NormalizeLinear([]*Element{arrowWithOffset()})
	el := out[0]

	if el.Points[0] != (skeleton.Point{0, 0}) {
		t.Fatalf("first point must be [0,0], got %v", el.Points[0])
	}
	if el.X != 105 || el.Y != 197 {
		t.Fatalf("anchor must absorb the offset, got (%v,%v)", el.X, el.Y)
	}
	// Absolute position of every point is unchanged.
	if el.X+el.Points[1][0] != 170 || el.Y+el.Points[1][1] != 243 {
		t.Fatalf("second point moved in absolute terms: %v at (%v,%v)", el.Points[1], el.X, el.Y)
	}
}

func TestNormalizeLinear_FocusClamp(t *testing.T) {
	out := NormalizeLinear([]*Element{arrowWithOffset()})
	el := out[0]

	for _, b := range []*Binding{el.StartBinding, el.EndBinding} {
		if b.Focus < -1 || b.Focus > 1 {
			t.Fatalf("focus out of range after normalization: %v", b.Focus)
		}
	}
	if el.StartBinding.Focus != 1 {
		t.Fatalf("expected start focus clamped to 1, got %v", el.StartBinding.Focus)
	}
	if el.EndBinding.Focus != -1 {
		t.Fatalf("expected end focus clamped to -1, got %v", el.EndBinding.Focus)
	}
}

func TestNormalizeLinear_Idempotent(t *testing.T) {
	once := NormalizeLinear([]*Element{arrowWithOffset()})
	twice := NormalizeLinear(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("normalization is not idempotent:\n%+v\nvs\n%+v", once, twice)
	}
}

func TestNormalizeLinear_DoesNotMutateInput(t *testing.T) {
	in := arrowWithOffset()
	want := *in.Clone()
	_ = NormalizeLinear([]*Element{in})
	if !reflect.DeepEqual(*in, want) {
		t.Fatalf("input element was mutated: %+v", in)
	}
}

func TestNormalizeLinear_SkipsShortAndNonLinear(t *testing.T) {
	rect := &Element{Type: skeleton.KindRectangle, ID: "r", X: 1, Y: 2}
	stub := &Element{Type: skeleton.KindLine, ID: "l", X: 9, Y: 9, Points: []skeleton.Point{{3, 3}}}
	out := NormalizeLinear([]*Element{rect, stub})

	if out[0].X != 1 || out[0].Y != 2 {
		t.Fatalf("rectangle moved: %+v", out[0])
	}
	if out[1].X != 9 || out[1].Points[0] != (skeleton.Point{3, 3}) {
		t.Fatalf("single-point line must be left alone: %+v", out[1])
	}
}
