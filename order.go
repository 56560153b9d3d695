package pdflayout

import (
	"sort"
	"strings"
)

// extractFunc returns the raw text inside a rectangle on the current page.
type extractFunc func(Rect) (string, error)

// composeRegions interleaves column rectangles and merged table rectangles
// into one reading-order sequence. A column intersected by a table is split
// around it; slices with no visible text are dropped, and a table shared by
// several columns is emitted only once.
func composeRegions(columns, tables []Rect, extract extractFunc) ([]ContentRegion, error) {
	var regions []ContentRegion
	emitted := make(map[Rect]bool)

	for _, col := range columns {
		var intersecting []Rect
		for _, table := range tables {
			if col.Intersects(table) {
				intersecting = append(intersecting, table)
			}
		}
		if len(intersecting) == 0 {
			regions = append(regions, ContentRegion{Box: col, Kind: RegionText})
			continue
		}

		sort.Slice(intersecting, func(i, j int) bool {
			return intersecting[i].Y0 < intersecting[j].Y0
		})

		current := col
		for _, table := range intersecting {
			above, below, err := splitByTable(current, table, extract)
			if err != nil {
				return nil, err
			}
			if above != nil {
				regions = append(regions, ContentRegion{Box: *above, Kind: RegionText})
			}
			if !emitted[table] {
				regions = append(regions, ContentRegion{Box: table, Kind: RegionTable})
				emitted[table] = true
			}
			if below == nil {
				current = Rect{}
				break
			}
			current = *below
		}
		if !current.IsEmpty() {
			regions = append(regions, ContentRegion{Box: current, Kind: RegionText})
		}
	}
	return regions, nil
}

// splitByTable cuts a text rectangle into the slices above and below a
// table. A slice is kept only when it holds visible text, since splitting
// frequently produces geometrically valid but blank strips.
func splitByTable(text, table Rect, extract extractFunc) (above, below *Rect, err error) {
	if text.Y0 < table.Y0 {
		candidate := Rect{X0: text.X0, Y0: text.Y0, X1: text.X1, Y1: table.Y0}
		content, err := extract(candidate)
		if err != nil {
			return nil, nil, err
		}
		if strings.TrimSpace(content) != "" {
			above = &candidate
		}
	}
	if text.Y1 > table.Y1 {
		candidate := Rect{X0: text.X0, Y0: table.Y1, X1: text.X1, Y1: text.Y1}
		content, err := extract(candidate)
		if err != nil {
			return nil, nil, err
		}
		if strings.TrimSpace(content) != "" {
			below = &candidate
		}
	}
	return above, below, nil
}
