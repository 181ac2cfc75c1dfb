package element

// NormalizeLinear repairs geometric drift the expansion step can introduce
// in arrow and line elements, on a deep copy of the batch:
//
//   - the first point of a linear element must be [0,0] relative to its
//     own x/y anchor; any offset is folded into the anchor so the absolute
//     position is unchanged,
//   - binding focus values are clamped into [-1, 1].
//
// The pass is idempotent. Non-linear elements pass through untouched
// (still copied, so callers may mutate the result freely).
func NormalizeLinear(batch []*Element) []*Element {
	out := CloneBatch(batch)
	for _, el := range out {
		if !el.Linear() {
			continue
		}
		normalizeOrigin(el)
		clampBinding(el.StartBinding)
		clampBinding(el.EndBinding)
	}
	return out
}

func normalizeOrigin(el *Element) {
	if len(el.Points) < 2 {
		return
	}
	dx, dy := el.Points[0][0], el.Points[0][1]
	if dx == 0 && dy == 0 {
		return
	}
	el.X += dx
	el.Y += dy
	for i := range el.Points {
		el.Points[i][0] -= dx
		el.Points[i][1] -= dy
	}
}

func clampBinding(b *Binding) {
	if b == nil {
		return
	}
	if b.Focus > 1 {
		b.Focus = 1
	} else if b.Focus < -1 {
		b.Focus = -1
	}
}
