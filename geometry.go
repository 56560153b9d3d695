package pdflayout

// Rect is an axis-aligned rectangle in top-left origin coordinates: X grows
// right, Y grows down, so Y0 is the top edge and Y1 the bottom edge.
type Rect struct {
	X0 float64
	Y0 float64
	X1 float64
	Y1 float64
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.X0 >= r.X1 || r.Y0 >= r.Y1
}

// Intersect returns the overlap of r and other, or the zero Rect when they
// do not overlap. Rectangles that only touch edges do not intersect.
func (r Rect) Intersect(other Rect) Rect {
	out := Rect{
		X0: max(r.X0, other.X0),
		Y0: max(r.Y0, other.Y0),
		X1: min(r.X1, other.X1),
		Y1: min(r.Y1, other.Y1),
	}
	if out.IsEmpty() {
		return Rect{}
	}
	return out
}

// Union returns the smallest rectangle covering both r and other. An empty
// rectangle is the identity, so unions can be accumulated from a zero Rect.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	return Rect{
		X0: min(r.X0, other.X0),
		Y0: min(r.Y0, other.Y0),
		X1: max(r.X1, other.X1),
		Y1: max(r.Y1, other.Y1),
	}
}

// Contains reports whether other lies entirely within r.
func (r Rect) Contains(other Rect) bool {
	return other.X0 >= r.X0 && other.Y0 >= r.Y0 &&
		other.X1 <= r.X1 && other.Y1 <= r.Y1
}

// Intersects reports whether r and other overlap with positive area.
func (r Rect) Intersects(other Rect) bool {
	return !r.Intersect(other).IsEmpty()
}

// containerIndex returns the 1-based index of the first rectangle in rects
// that fully contains r, or 0 when none does. The offset keeps "inside some
// rect" distinguishable from "inside the first rect" in sort keys.
func containerIndex(r Rect, rects []Rect) int {
	for i, candidate := range rects {
		if candidate.Contains(r) {
			return i + 1
		}
	}
	return 0
}

func intersectsAny(r Rect, rects []Rect) bool {
	for _, candidate := range rects {
		if r.Intersects(candidate) {
			return true
		}
	}
	return false
}
