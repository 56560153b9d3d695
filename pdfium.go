package pdflayout

import (
	"math"
	"strings"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/enums"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/pkg/errors"
)

// PdfiumSource adapts a pdfium worker pool to the Source interface. Every
// Open acquires its own instance from the pool and decodes the shared byte
// buffer into a fresh document handle, so parallel workers never touch the
// same handle.
type PdfiumSource struct {
	pool    pdfium.Pool
	data    []byte
	timeout time.Duration
}

// NewPdfiumSource creates a Source over the given PDF bytes. The pool must
// be sized for the number of concurrent workers (Config.MaxProcessors plus
// one primary view).
func NewPdfiumSource(pool pdfium.Pool, data []byte) *PdfiumSource {
	return &PdfiumSource{
		pool:    pool,
		data:    data,
		timeout: 30 * time.Second,
	}
}

func (s *PdfiumSource) Open() (Document, error) {
	instance, err := s.pool.GetInstance(s.timeout)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pdfium instance")
	}
	doc, err := instance.OpenDocument(&requests.OpenDocument{
		File: &s.data,
	})
	if err != nil {
		instance.Close()
		return nil, errors.Wrap(err, "failed to open PDF document")
	}
	return &pdfiumDocument{instance: instance, doc: doc.Document}, nil
}

type pdfiumDocument struct {
	instance pdfium.Pdfium
	doc      references.FPDF_DOCUMENT
}

func (d *pdfiumDocument) PageCount() (int, error) {
	resp, err := d.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: d.doc,
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to get page count")
	}
	return resp.PageCount, nil
}

func (d *pdfiumDocument) Page(index int) (Page, error) {
	pageResp, err := d.instance.FPDF_LoadPage(&requests.FPDF_LoadPage{
		Document: d.doc,
		Index:    index,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load page %d", index+1)
	}

	widthResp, err := d.instance.FPDF_GetPageWidthF(&requests.FPDF_GetPageWidthF{
		Page: requests.Page{ByReference: &pageResp.Page},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get page width")
	}
	heightResp, err := d.instance.FPDF_GetPageHeightF(&requests.FPDF_GetPageHeightF{
		Page: requests.Page{ByReference: &pageResp.Page},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get page height")
	}

	textResp, err := d.instance.FPDFText_LoadPage(&requests.FPDFText_LoadPage{
		Page: requests.Page{ByReference: &pageResp.Page},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load text page")
	}

	return &pdfiumPage{
		instance: d.instance,
		page:     pageResp.Page,
		textPage: textResp.TextPage,
		width:    float64(widthResp.PageWidth),
		height:   float64(heightResp.PageHeight),
	}, nil
}

func (d *pdfiumDocument) Close() error {
	_, err := d.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: d.doc,
	})
	if cerr := d.instance.Close(); err == nil {
		err = cerr
	}
	return err
}

// pdfiumPage exposes one loaded pdfium page through the Page interface. All
// coordinates are converted from pdfium's bottom-left origin to top-left.
type pdfiumPage struct {
	instance pdfium.Pdfium
	page     references.FPDF_PAGE
	textPage references.FPDF_TEXTPAGE
	width    float64
	height   float64
}

func (p *pdfiumPage) UsableRect(headerMargin, footerMargin float64) (Rect, error) {
	return Rect{
		X0: 0,
		Y0: headerMargin,
		X1: p.width,
		Y1: p.height - footerMargin,
	}, nil
}

func (p *pdfiumPage) ExtractText(clip Rect) (string, error) {
	resp, err := p.instance.FPDFText_GetBoundedText(&requests.FPDFText_GetBoundedText{
		TextPage: p.textPage,
		Left:     clip.X0,
		Right:    clip.X1,
		Top:      p.height - clip.Y0,
		Bottom:   p.height - clip.Y1,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to extract bounded text")
	}
	return resp.Text, nil
}

func (p *pdfiumPage) DrawingRects() ([]Rect, error) {
	return p.objectBounds(enums.FPDF_PAGEOBJ_PATH)
}

func (p *pdfiumPage) ImageRects() ([]Rect, error) {
	return p.objectBounds(enums.FPDF_PAGEOBJ_IMAGE)
}

// objectBounds collects bounding boxes of all page objects of one type.
func (p *pdfiumPage) objectBounds(objType enums.FPDF_PAGEOBJ) ([]Rect, error) {
	countResp, err := p.instance.FPDFPage_CountObjects(&requests.FPDFPage_CountObjects{
		Page: requests.Page{ByReference: &p.page},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to count page objects")
	}

	var rects []Rect
	for i := 0; i < countResp.Count; i++ {
		objResp, err := p.instance.FPDFPage_GetObject(&requests.FPDFPage_GetObject{
			Page:  requests.Page{ByReference: &p.page},
			Index: i,
		})
		if err != nil {
			continue
		}
		typeResp, err := p.instance.FPDFPageObj_GetType(&requests.FPDFPageObj_GetType{
			PageObject: objResp.PageObject,
		})
		if err != nil || typeResp.Type != objType {
			continue
		}
		boundsResp, err := p.instance.FPDFPageObj_GetBounds(&requests.FPDFPageObj_GetBounds{
			PageObject: objResp.PageObject,
		})
		if err != nil {
			continue
		}
		rects = append(rects, Rect{
			X0: float64(boundsResp.Left),
			Y0: p.height - float64(boundsResp.Top),
			X1: float64(boundsResp.Right),
			Y1: p.height - float64(boundsResp.Bottom),
		})
	}
	return rects, nil
}

// Table detection: ruling segments are thin path objects; a cluster with at
// least two rulings in each direction is reported as one table rectangle.
const (
	rulingThickness  = 4.0  // max thickness of a ruling segment
	rulingMinLength  = 10.0 // min length of a ruling segment
	rulingJoinSlack  = 6.0  // slack when clustering nearby rulings
	borderSpanRatio  = 0.9  // rulings spanning this much of the page are borders
	borderEdgeMargin = 20.0
)

func (p *pdfiumPage) DetectedTables() ([]Rect, error) {
	paths, err := p.DrawingRects()
	if err != nil {
		return nil, err
	}
	return detectTableRects(paths, p.width, p.height), nil
}

// detectTableRects turns a page's path bounding boxes into table candidate
// rectangles by clustering ruling segments.
func detectTableRects(paths []Rect, pageWidth, pageHeight float64) []Rect {
	var horizontal, vertical []Rect
	for _, r := range paths {
		switch {
		case r.Height() <= rulingThickness && r.Width() >= rulingMinLength:
			if isBorderRuling(r, true, pageWidth, pageHeight) {
				continue
			}
			horizontal = append(horizontal, r)
		case r.Width() <= rulingThickness && r.Height() >= rulingMinLength:
			if isBorderRuling(r, false, pageWidth, pageHeight) {
				continue
			}
			vertical = append(vertical, r)
		}
	}
	if len(horizontal) < 2 || len(vertical) < 2 {
		return nil
	}

	type cluster struct {
		box    Rect
		hCount int
		vCount int
	}
	var clusters []cluster
	add := func(r Rect, isHorizontal bool) {
		grown := Rect{
			X0: r.X0 - rulingJoinSlack,
			Y0: r.Y0 - rulingJoinSlack,
			X1: r.X1 + rulingJoinSlack,
			Y1: r.Y1 + rulingJoinSlack,
		}
		for i := range clusters {
			if grown.Intersects(clusters[i].box) {
				clusters[i].box = clusters[i].box.Union(r)
				if isHorizontal {
					clusters[i].hCount++
				} else {
					clusters[i].vCount++
				}
				return
			}
		}
		c := cluster{box: r}
		if isHorizontal {
			c.hCount = 1
		} else {
			c.vCount = 1
		}
		clusters = append(clusters, c)
	}
	for _, r := range horizontal {
		add(r, true)
	}
	for _, r := range vertical {
		add(r, false)
	}

	// Clusters seeded from distant segments can grow into each other.
	for {
		mergedAny := false
		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				if clusters[i].box.Intersects(clusters[j].box) {
					clusters[i].box = clusters[i].box.Union(clusters[j].box)
					clusters[i].hCount += clusters[j].hCount
					clusters[i].vCount += clusters[j].vCount
					clusters = append(clusters[:j], clusters[j+1:]...)
					mergedAny = true
					j--
				}
			}
		}
		if !mergedAny {
			break
		}
	}

	var tables []Rect
	for _, c := range clusters {
		if c.hCount >= 2 && c.vCount >= 2 {
			tables = append(tables, c.box)
		}
	}
	return tables
}

// isBorderRuling filters page and content-frame borders so a fully ruled
// page is not mistaken for one giant table.
func isBorderRuling(r Rect, isHorizontal bool, pageWidth, pageHeight float64) bool {
	if isHorizontal {
		if r.Y0 < borderEdgeMargin || r.Y1 > pageHeight-borderEdgeMargin {
			return true
		}
		return r.Width() > pageWidth*borderSpanRatio
	}
	if r.X0 < borderEdgeMargin || r.X1 > pageWidth-borderEdgeMargin {
		return true
	}
	return r.Height() > pageHeight*borderSpanRatio
}

func (p *pdfiumPage) TextBlocks() ([]TextBlock, error) {
	chars, err := p.extractChars()
	if err != nil {
		return nil, err
	}
	lines := groupCharsIntoLines(chars)
	return groupLinesIntoBlocks(lines), nil
}

func (p *pdfiumPage) Close() error {
	_, err := p.instance.FPDFText_ClosePage(&requests.FPDFText_ClosePage{
		TextPage: p.textPage,
	})
	if _, cerr := p.instance.FPDF_ClosePage(&requests.FPDF_ClosePage{
		Page: p.page,
	}); err == nil && cerr != nil {
		err = cerr
	}
	return err
}

type pdfChar struct {
	text  rune
	box   Rect
	angle float32
}

func (p *pdfiumPage) extractChars() ([]pdfChar, error) {
	countResp, err := p.instance.FPDFText_CountChars(&requests.FPDFText_CountChars{
		TextPage: p.textPage,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to count characters")
	}

	chars := make([]pdfChar, 0, countResp.Count)
	for i := 0; i < countResp.Count; i++ {
		unicodeResp, err := p.instance.FPDFText_GetUnicode(&requests.FPDFText_GetUnicode{
			TextPage: p.textPage,
			Index:    i,
		})
		if err != nil || unicodeResp.Unicode == 0 {
			continue
		}
		boxResp, err := p.instance.FPDFText_GetCharBox(&requests.FPDFText_GetCharBox{
			TextPage: p.textPage,
			Index:    i,
		})
		if err != nil {
			continue
		}
		angleResp, err := p.instance.FPDFText_GetCharAngle(&requests.FPDFText_GetCharAngle{
			TextPage: p.textPage,
			Index:    i,
		})
		angle := float32(0)
		if err == nil {
			angle = angleResp.CharAngle
		}
		chars = append(chars, pdfChar{
			text: rune(unicodeResp.Unicode),
			box: Rect{
				X0: boxResp.Left,
				Y0: p.height - boxResp.Top,
				X1: boxResp.Right,
				Y1: p.height - boxResp.Bottom,
			},
			angle: angle,
		})
	}
	return chars, nil
}

// angleIsHorizontal reports whether the character angle (radians) is within
// tolerance of normal left-to-right orientation.
func angleIsHorizontal(angle float32) bool {
	degrees := math.Mod(float64(angle)*180/math.Pi, 360)
	if degrees < 0 {
		degrees += 360
	}
	const tolerance = 10.0
	return degrees < tolerance || degrees > 360-tolerance ||
		(degrees > 180-tolerance && degrees < 180+tolerance)
}

// groupCharsIntoLines splits the page's character stream into lines,
// breaking on explicit newlines and on vertical jumps.
func groupCharsIntoLines(chars []pdfChar) []TextLine {
	var lines []TextLine
	var text strings.Builder
	var box Rect
	var horizontal bool
	open := false

	flush := func() {
		if !open {
			return
		}
		lines = append(lines, TextLine{
			Box:        box,
			Text:       strings.TrimSpace(text.String()),
			Horizontal: horizontal,
		})
		text.Reset()
		open = false
	}

	for _, ch := range chars {
		if ch.text == '\n' || ch.text == '\r' {
			flush()
			continue
		}
		sameLine := open &&
			angleIsHorizontal(ch.angle) == horizontal &&
			ch.box.Y0 < box.Y1 && ch.box.Y1 > box.Y0
		if !sameLine {
			flush()
			box = ch.box
			horizontal = angleIsHorizontal(ch.angle)
			open = true
		} else {
			box = box.Union(ch.box)
		}
		text.WriteRune(ch.text)
	}
	flush()
	return lines
}

// groupLinesIntoBlocks joins consecutive lines with matching orientation,
// overlapping horizontal extent and a small vertical gap.
func groupLinesIntoBlocks(lines []TextLine) []TextBlock {
	var blocks []TextBlock
	for _, line := range lines {
		if len(blocks) > 0 {
			last := &blocks[len(blocks)-1]
			prev := last.Lines[len(last.Lines)-1]
			gap := line.Box.Y0 - prev.Box.Y1
			maxGap := math.Max(prev.Box.Height(), line.Box.Height()) * 0.8
			if line.Horizontal == prev.Horizontal &&
				line.Box.X0 < last.Box.X1 && line.Box.X1 > last.Box.X0 &&
				gap <= maxGap {
				last.Lines = append(last.Lines, line)
				last.Box = last.Box.Union(line.Box)
				continue
			}
		}
		blocks = append(blocks, TextBlock{Box: line.Box, Lines: []TextLine{line}})
	}
	return blocks
}
