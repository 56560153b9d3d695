package pdflayout

// TextLine is a single line of text within a block, as reported by the
// decoding backend.
type TextLine struct {
	Box        Rect
	Text       string // concatenated, trimmed span text
	Horizontal bool   // writing direction; false for rotated/vertical text
}

// TextBlock is a group of lines with a shared bounding box, as reported by
// the decoding backend.
type TextBlock struct {
	Box   Rect
	Lines []TextLine
}

// RegionKind identifies the content kind of a page region.
type RegionKind int

const (
	RegionText RegionKind = iota
	RegionTable
)

// ContentRegion is one rectangular area of a page carrying a single kind of
// content. The order of regions within a page is the reading order.
type ContentRegion struct {
	Box  Rect
	Kind RegionKind
}

// PageResult holds the ordered regions detected on one page.
type PageResult struct {
	PageIndex int
	Regions   []ContentRegion
}

// Category labels the content type of an Element. The layout core only
// emits CategoryText and CategoryTable; the remaining values exist so
// upstream classifiers can pass richer labels through unchanged.
type Category string

const (
	CategoryCaption            Category = "caption"
	CategoryFootnote           Category = "footnote"
	CategoryFormula            Category = "formula"
	CategoryListItem           Category = "list_item"
	CategoryPageFooter         Category = "page_footer"
	CategoryPageHeader         Category = "page_header"
	CategoryPicture            Category = "picture"
	CategorySectionHeader      Category = "section_header"
	CategoryTable              Category = "table"
	CategoryText               Category = "text"
	CategoryTitle              Category = "title"
	CategoryDocumentIndex      Category = "document_index"
	CategoryCode               Category = "code"
	CategoryCheckboxSelected   Category = "checkbox_selected"
	CategoryCheckboxUnselected Category = "checkbox_unselected"
	CategoryForm               Category = "form"
	CategoryKeyValueRegion     Category = "key_value_region"
	CategoryParagraph          Category = "paragraph"
	CategoryReference          Category = "reference"
	CategoryImage              Category = "image"
)

// Element is the externally visible unit of parsed content. StartPage and
// EndPage are 1-based and equal, since the core never merges content across
// page boundaries.
type Element struct {
	Text      string   `json:"text"`
	Category  Category `json:"category"`
	StartPage int      `json:"start_page"`
	EndPage   int      `json:"end_page"`
	B64       string   `json:"b64,omitempty"` // encoded payload for non-text content
}
