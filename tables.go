package pdflayout

import "math"

// mergeTables coalesces raw table rectangles that are fragments of one
// logical table. Detectors tend to split a single table at internal ruling
// boundaries; aligned fragments within tolerance of each other are rejoined
// into their bounding rectangle. Input order is preserved.
func mergeTables(tables []Rect, tolerance float64) []Rect {
	if len(tables) == 0 {
		return nil
	}

	var merged []Rect
	group := tables[0]
	for _, bbox := range tables[1:] {
		if shouldMergeTables(group, bbox, tolerance) {
			group = group.Union(bbox)
		} else {
			merged = append(merged, group)
			group = bbox
		}
	}
	return append(merged, group)
}

// shouldMergeTables reports whether two table rectangles belong to the same
// logical table: aligned on one axis and closer than tolerance on the other.
func shouldMergeTables(a, b Rect, tolerance float64) bool {
	horizontallyAligned := math.Abs(a.Y0-b.Y0) <= tolerance && math.Abs(a.Y1-b.Y1) <= tolerance
	verticallyAligned := math.Abs(a.X0-b.X0) <= tolerance && math.Abs(a.X1-b.X1) <= tolerance

	horizontalGap := math.Min(math.Abs(a.X1-b.X0), math.Abs(b.X1-a.X0))
	verticalGap := math.Min(math.Abs(a.Y1-b.Y0), math.Abs(b.Y1-a.Y0))
	near := horizontalGap < tolerance || verticalGap < tolerance

	return (horizontallyAligned || verticallyAligned) && near
}
