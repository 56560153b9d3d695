package pdflayout

// Source produces independent views of one immutable document. Parse opens
// a fresh Document per worker because decoded document handles are not safe
// to share across goroutines.
type Source interface {
	Open() (Document, error)
}

// Document is one decoded view of a PDF.
type Document interface {
	PageCount() (int, error)
	Page(index int) (Page, error)
	Close() error
}

// Page exposes the geometric primitives the layout core consumes. All
// rectangles use top-left origin coordinates.
type Page interface {
	// UsableRect returns the page rectangle reduced by a header margin at
	// the top and a footer margin at the bottom.
	UsableRect(headerMargin, footerMargin float64) (Rect, error)

	// TextBlocks returns the page's text blocks in layout order.
	TextBlocks() ([]TextBlock, error)

	// DrawingRects returns the bounding boxes of vector drawing paths.
	DrawingRects() ([]Rect, error)

	// ImageRects returns the bounding boxes of placed images.
	ImageRects() ([]Rect, error)

	// DetectedTables returns raw table bounding boxes, possibly several
	// fragments per logical table.
	DetectedTables() ([]Rect, error)

	// ExtractText returns the text inside clip, untrimmed.
	ExtractText(clip Rect) (string, error)

	Close() error
}
