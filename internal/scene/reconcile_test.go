package scene

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sketchflow/internal/element"
	"sketchflow/internal/skeleton"
)

func el(id string) *element.Element {
	return &element.Element{Type: skeleton.KindRectangle, ID: id, Version: 1}
}

func ids(elements []*element.Element) []string {
	out := make([]string, len(elements))
	for i, e := range elements {
		out[i] = e.ID
	}
	return out
}

func TestReconcile_Add(t *testing.T) {
	a, b := el("a"), el("b")
	x, y := el("x"), el("y")

	next, framed := Reconcile([]*element.Element{a, b}, []*element.Element{x, y}, skeleton.ActionAdd)

	require.Equal(t, []string{"a", "b", "x", "y"}, ids(next))
	require.Equal(t, []string{"x", "y"}, framed)
	// Existing elements are reused untouched, pointer and all.
	require.Same(t, a, next[0])
	require.Same(t, b, next[1])
}

func TestReconcile_Replace(t *testing.T) {
	existing := []*element.Element{el("a"), el("b"), el("c")}
	incoming := []*element.Element{el("n1"), el("n2")}

	next, _ := Reconcile(existing, incoming, skeleton.ActionReplace)

	require.Equal(t, []string{"n1", "n2"}, ids(next))
}

func TestReconcile_ReplaceEmptyBatchClearsScene(t *testing.T) {
	next, _ := Reconcile([]*element.Element{el("a")}, nil, skeleton.ActionReplace)
	require.Empty(t, next)
}

func TestReconcile_Modify(t *testing.T) {
	a, b, c := el("a"), el("b"), el("c")
	bPrime := el("b")
	bPrime.Version = 2
	d := el("d")

	next, framed := Reconcile([]*element.Element{a, b, c}, []*element.Element{bPrime, d}, skeleton.ActionModify)

	require.Equal(t, []string{"a", "b", "c", "d"}, ids(next))
	require.Same(t, a, next[0])
	require.Same(t, bPrime, next[1], "matched element must be substituted in place")
	require.Same(t, c, next[2])
	require.Same(t, d, next[3], "unmatched incoming element must be appended")
	require.Equal(t, []string{"b", "d"}, framed)
}

func TestReconcile_ModifyWholeElementReplacement(t *testing.T) {
	old := el("a")
	old.LabelText = "keep me?"
	repl := el("a") // no label: incoming element wholly supersedes the old one

	next, _ := Reconcile([]*element.Element{old}, []*element.Element{repl}, skeleton.ActionModify)

	require.Len(t, next, 1)
	require.Empty(t, next[0].LabelText)
}

func TestReconcile_UnknownActionMergesAsAdd(t *testing.T) {
	next, _ := Reconcile([]*element.Element{el("a")}, []*element.Element{el("x")}, "redraw")
	require.Equal(t, []string{"a", "x"}, ids(next))
}

func TestReconcile_DoesNotMutateSnapshot(t *testing.T) {
	existing := []*element.Element{el("a"), el("b")}
	_, _ = Reconcile(existing, []*element.Element{el("b"), el("z")}, skeleton.ActionModify)

	require.Equal(t, []string{"a", "b"}, ids(existing))
}
