package element

import (
	"testing"

	"sketchflow/internal/skeleton"
)

func TestExpand_PreservesIncomingIDs(t *testing.T) {
	out, err := DefaultExpander{}.Expand([]skeleton.Skeleton{
		{Type: skeleton.KindRectangle, ID: "box1", X: 10, Y: 20, Width: 100, Height: 50},
	})
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	if out[0].ID != "box1" {
		t.Fatalf("incoming id must be preserved, got %q", out[0].ID)
	}
}

func TestExpand_FillsStructuralFields(t *testing.T) {
	out, err := DefaultExpander{}.Expand([]skeleton.Skeleton{
		{Type: skeleton.KindEllipse, X: 0, Y: 0, Width: 40, Height: 40},
	})
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	el := out[0]
	if el.ID == "" {
		t.Fatal("missing id must be generated")
	}
	if el.Version != 1 {
		t.Fatalf("new element version must be 1, got %d", el.Version)
	}
	if el.StrokeColor == "" || el.BackgroundColor == "" {
		t.Fatalf("default styling missing: %+v", el)
	}
}

func TestExpand_ResolvesBindings(t *testing.T) {
	out, err := DefaultExpander{}.Expand([]skeleton.Skeleton{
		{Type: skeleton.KindRectangle, ID: "r1", X: 0, Y: 0, Width: 100, Height: 60},
		{Type: skeleton.KindRectangle, ID: "r2", X: 300, Y: 0, Width: 100, Height: 60},
		{Type: skeleton.KindArrow, ID: "a1", X: 100, Y: 30, Width: 200, Height: 0,
			Start: &skeleton.Ref{Type: "rectangle", ID: "r1"},
			End:   &skeleton.Ref{Type: "rectangle", ID: "r2"},
		},
	})
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	arrow := out[2]
	if arrow.StartBinding == nil || arrow.StartBinding.ElementID != "r1" {
		t.Fatalf("start binding not resolved: %+v", arrow.StartBinding)
	}
	if arrow.EndBinding == nil || arrow.EndBinding.ElementID != "r2" {
		t.Fatalf("end binding not resolved: %+v", arrow.EndBinding)
	}
}

func TestExpand_DanglingBindingSilentlyOmitted(t *testing.T) {
	out, err := DefaultExpander{}.Expand([]skeleton.Skeleton{
		{Type: skeleton.KindRectangle, ID: "r1", X: 0, Y: 0, Width: 100, Height: 60},
		{Type: skeleton.KindArrow, ID: "a1", X: 100, Y: 30, Width: 50, Height: 0,
			Start: &skeleton.Ref{Type: "rectangle", ID: "r1"},
			End:   &skeleton.Ref{Type: "rectangle", ID: "no-such-shape"},
		},
	})
	if err != nil {
		t.Fatalf("dangling reference must not fail the batch: %v", err)
	}
	arrow := out[1]
	if arrow.StartBinding == nil {
		t.Fatal("valid start binding dropped")
	}
	if arrow.EndBinding != nil {
		t.Fatalf("dangling end binding must be omitted, got %+v", arrow.EndBinding)
	}
}

func TestExpand_LinearDefaultsToTwoPoints(t *testing.T) {
	out, err := DefaultExpander{}.Expand([]skeleton.Skeleton{
		{Type: skeleton.KindLine, ID: "l1", X: 0, Y: 0, Width: -80, Height: 20},
	})
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	pts := out[0].Points
	if len(pts) != 2 {
		t.Fatalf("expected 2 default points, got %v", pts)
	}
	// Negative width encodes direction and must survive expansion.
	if pts[1] != (skeleton.Point{-80, 20}) {
		t.Fatalf("direction lost: %v", pts[1])
	}
}
