package scene

import (
	"sketchflow/internal/element"
	"sketchflow/internal/skeleton"
)

// Reconcile applies one generation batch to a scene snapshot and returns
// the complete replacement sequence plus the ids the viewport should
// frame. The snapshot itself is never mutated; add and modify reuse the
// untouched element pointers so unchanged elements stay identical.
//
//   - replace: the batch becomes the entire scene.
//   - modify:  an incoming element with an existing id substitutes the old
//     one in place (whole-element replacement, not a field merge);
//     incoming elements with unmatched ids are appended.
//   - add:     the batch is appended after all existing elements.
func Reconcile(existing, incoming []*element.Element, action string) (next []*element.Element, framed []string) {
	framed = make([]string, 0, len(incoming))
	for _, el := range incoming {
		framed = append(framed, el.ID)
	}

	switch skeleton.MergeAction(action) {
	case skeleton.ActionReplace:
		next = append([]*element.Element(nil), incoming...)
	case skeleton.ActionModify:
		next = reconcileModify(existing, incoming)
	default:
		next = make([]*element.Element, 0, len(existing)+len(incoming))
		next = append(next, existing...)
		next = append(next, incoming...)
	}
	return next, framed
}

func reconcileModify(existing, incoming []*element.Element) []*element.Element {
	byID := make(map[string]*element.Element, len(incoming))
	for _, el := range incoming {
		byID[el.ID] = el
	}

	next := make([]*element.Element, 0, len(existing)+len(incoming))
	matched := make(map[string]bool, len(incoming))
	for _, el := range existing {
		if repl, ok := byID[el.ID]; ok {
			next = append(next, repl)
			matched[el.ID] = true
			continue
		}
		next = append(next, el)
	}
	for _, el := range incoming {
		if !matched[el.ID] {
			next = append(next, el)
		}
	}
	return next
}
