package pdflayout

import (
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// sentinelCoord marks bounding box coordinates the decoder emits when it
// fails to resolve glyph positions. Any block containing one is unusable.
const sentinelCoord = float64(1<<31 - 1000)

// bandTolerance is the vertical slack used when re-sorting rectangles whose
// bottom edges sit on the same horizontal band.
const bandTolerance = 10.0

// columnRects groups a page's text blocks into column rectangles ordered
// top-to-bottom and, within a band, left-to-right. It never fails: on
// degenerate input or any backend error it degrades to the usable page area
// as a single region.
func columnRects(page Page, clip Rect, noImageText bool, log *slog.Logger) []Rect {
	fallback := []Rect{clip}

	paths, err := page.DrawingRects()
	if err != nil {
		log.Warn("drawing extraction failed, falling back to single region", "error", err)
		return fallback
	}
	imgs, err := page.ImageRects()
	if err != nil {
		log.Warn("image extraction failed, falling back to single region", "error", err)
		return fallback
	}
	blocks, err := page.TextBlocks()
	if err != nil {
		log.Warn("text extraction failed, falling back to single region", "error", err)
		return fallback
	}
	if len(blocks) == 0 {
		log.Warn("no text blocks, falling back to single region")
		return fallback
	}
	for _, b := range blocks {
		if hasSentinelCoords(b.Box) {
			log.Warn("invalid block bbox, falling back to single region", "bbox", b.Box)
			return fallback
		}
	}

	sort.Slice(paths, func(i, j int) bool {
		if paths[i].Y0 != paths[j].Y0 {
			return paths[i].Y0 < paths[j].Y0
		}
		return paths[i].X0 < paths[j].X0
	})

	var bboxes []Rect
	var vertBoxes []Rect
	for _, b := range blocks {
		if len(b.Lines) == 0 {
			continue
		}
		// Header and footer margins are applied here: blocks outside the
		// usable area never become columns.
		if !b.Box.Intersects(clip) {
			continue
		}
		if noImageText && containerIndex(b.Box, imgs) > 0 {
			continue
		}
		if !b.Lines[0].Horizontal {
			vertBoxes = append(vertBoxes, b.Box)
			continue
		}
		// Tight bbox over real lines only; one-character lines are noise.
		var tight Rect
		for _, line := range b.Lines {
			if utf8.RuneCountInString(strings.TrimSpace(line.Text)) > 1 {
				tight = tight.Union(line.Box.Intersect(clip))
			}
		}
		if !tight.IsEmpty() {
			bboxes = append(bboxes, tight)
		}
	}
	if len(bboxes) == 0 {
		log.Warn("no usable text rectangles, falling back to single region")
		return fallback
	}

	sort.Slice(bboxes, func(i, j int) bool {
		pi, pj := containerIndex(bboxes[i], paths), containerIndex(bboxes[j], paths)
		if pi != pj {
			return pi < pj
		}
		if bboxes[i].Y0 != bboxes[j].Y0 {
			return bboxes[i].Y0 < bboxes[j].Y0
		}
		return bboxes[i].X0 < bboxes[j].X0
	})

	bboxes = extendRight(bboxes, clip.X1, paths, vertBoxes, imgs)
	merged := mergeColumns(bboxes, paths, vertBoxes)
	return cleanColumns(merged)
}

func hasSentinelCoords(r Rect) bool {
	for _, v := range []float64{r.X0, r.Y0, r.X1, r.Y1} {
		if math.Abs(v) >= sentinelCoord {
			return true
		}
	}
	return false
}

// canExtend reports whether temp may replace member without crossing a
// vertical-text rectangle or overlapping any other rectangle in others.
func canExtend(temp, member Rect, others, vertBoxes []Rect) bool {
	if len(others) == 0 {
		return true
	}
	if intersectsAny(temp, vertBoxes) {
		return false
	}
	for _, other := range others {
		if other == member || temp.Intersect(other).IsEmpty() {
			continue
		}
		return false
	}
	return true
}

// extendRight widens each rectangle to the page's right edge when nothing
// obstructs it. This closes the gap between a narrow column fragment and the
// margin without bridging across a gutter that holds content.
func extendRight(bboxes []Rect, right float64, paths, vertBoxes, imgs []Rect) []Rect {
	for i, bb := range bboxes {
		if containerIndex(bb, paths) > 0 || containerIndex(bb, imgs) > 0 {
			continue
		}
		temp := bb
		temp.X1 = right
		if intersectsAny(temp, paths) || intersectsAny(temp, vertBoxes) || intersectsAny(temp, imgs) {
			continue
		}
		if canExtend(temp, bb, bboxes, vertBoxes) {
			bboxes[i] = temp
		}
	}
	return bboxes
}

// mergeColumns greedily joins horizontally touching rectangles that share
// drawing-path membership, as long as the joined rectangle stays clear of
// every other candidate.
func mergeColumns(bboxes []Rect, paths, vertBoxes []Rect) []Rect {
	merged := []Rect{bboxes[0]}
	for _, bb := range bboxes[1:] {
		joined := false
		for j, nbb := range merged {
			if nbb.X1 < bb.X0 || bb.X1 < nbb.X0 {
				continue
			}
			if containerIndex(nbb, paths) != containerIndex(bb, paths) {
				continue
			}
			union := bb.Union(nbb)
			if canExtend(union, nbb, merged, vertBoxes) {
				merged[j] = union
				joined = true
				break
			}
		}
		if !joined {
			merged = append(merged, bb)
		}
	}
	return merged
}

// cleanColumns drops consecutive duplicates, then re-sorts each horizontal
// band left-to-right. The merge pass walks top-to-bottom and can interleave
// rectangles that belong to the same row of columns.
func cleanColumns(rects []Rect) []Rect {
	if len(rects) < 2 {
		return rects
	}
	deduped := make([]Rect, 0, len(rects))
	deduped = append(deduped, rects[0])
	for _, r := range rects[1:] {
		if r != deduped[len(deduped)-1] {
			deduped = append(deduped, r)
		}
	}

	bandY1 := deduped[0].Y1
	start := 0
	for i := 1; i <= len(deduped); i++ {
		if i < len(deduped) && math.Abs(deduped[i].Y1-bandY1) <= bandTolerance {
			continue
		}
		if i-start > 1 {
			band := deduped[start:i]
			sort.Slice(band, func(a, b int) bool { return band[a].X0 < band[b].X0 })
		}
		if i < len(deduped) {
			bandY1 = deduped[i].Y1
			start = i
		}
	}
	return deduped
}
