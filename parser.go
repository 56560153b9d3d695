package pdflayout

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Config controls layout reconstruction behavior.
type Config struct {
	// MaxProcessors caps the number of parallel page workers. Must be > 0.
	MaxProcessors int

	// HeaderMargin is trimmed from the top of every page before layout.
	HeaderMargin float64

	// FooterMargin is trimmed from the bottom of every page before layout.
	FooterMargin float64

	// NoImageText drops text blocks that sit inside an image rectangle.
	NoImageText bool

	// Tolerance is the alignment/proximity tolerance for coalescing table
	// fragments into logical tables.
	Tolerance float64

	// Logger receives progress and layout-fallback diagnostics.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the default parser configuration.
func DefaultConfig() Config {
	return Config{
		MaxProcessors: 2,
		HeaderMargin:  10,
		FooterMargin:  10,
		NoImageText:   false,
		Tolerance:     20,
	}
}

// Parser reconstructs the reading order of a document's pages.
type Parser struct {
	config Config
}

// NewParser creates a parser with the default configuration.
func NewParser() *Parser {
	return NewParserWithConfig(DefaultConfig())
}

// NewParserWithConfig creates a parser with a custom configuration.
func NewParserWithConfig(config Config) *Parser {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Parser{config: config}
}

// Parse reconstructs the document's reading order and returns one Element
// per content region, in page order, together with the page count.
//
// Pages are sharded into contiguous ranges and processed by parallel
// workers; every worker opens its own document view through src because
// decoded handles cannot be shared. Any worker or decoding failure aborts
// the whole parse.
func (p *Parser) Parse(ctx context.Context, src Source) ([]Element, int, error) {
	if p.config.MaxProcessors <= 0 {
		return nil, 0, ErrInvalidProcessorCount
	}
	log := p.config.Logger
	started := time.Now()

	doc, err := src.Open()
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to open document")
	}
	defer doc.Close()

	numPages, err := doc.PageCount()
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to get page count")
	}

	segments, err := pageSegments(numPages, p.config.MaxProcessors)
	if err != nil {
		return nil, 0, err
	}
	log.Info("processing document", "pages", numPages, "workers", len(segments))

	results := make(chan []PageResult, len(segments))
	g, ctx := errgroup.WithContext(ctx)
	for _, seg := range segments {
		g.Go(func() error {
			chunk, err := p.processSegment(ctx, src, seg, log)
			if err != nil {
				return err
			}
			results <- chunk
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	close(results)

	var pages []PageResult
	for chunk := range results {
		pages = append(pages, chunk...)
	}
	// Workers finish in arbitrary order.
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].PageIndex < pages[j].PageIndex
	})

	elements, err := p.assembleElements(doc, pages)
	if err != nil {
		return nil, 0, err
	}

	log.Debug("parse complete",
		"pages", numPages,
		"elements", len(elements),
		"duration", time.Since(started))
	return elements, numPages, nil
}

// processSegment runs layout reconstruction over one worker's page range
// using its own document view.
func (p *Parser) processSegment(ctx context.Context, src Source, seg pageSegment, log *slog.Logger) ([]PageResult, error) {
	doc, err := src.Open()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open document view")
	}
	defer doc.Close()

	results := make([]PageResult, 0, seg.End-seg.Start)
	for i := seg.Start; i < seg.End; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		regions, err := p.processPage(doc, i, log)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to process page %d", i+1)
		}
		results = append(results, PageResult{PageIndex: i, Regions: regions})
	}
	return results, nil
}

// processPage runs column detection, table merging and reading-order
// composition for a single page.
func (p *Parser) processPage(doc Document, index int, log *slog.Logger) ([]ContentRegion, error) {
	page, err := doc.Page(index)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load page")
	}
	defer page.Close()

	clip, err := page.UsableRect(p.config.HeaderMargin, p.config.FooterMargin)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get page bounds")
	}

	columns := columnRects(page, clip, p.config.NoImageText, log.With("page", index+1))

	rawTables, err := page.DetectedTables()
	if err != nil {
		return nil, errors.Wrap(err, "failed to detect tables")
	}
	tables := mergeTables(rawTables, p.config.Tolerance)

	return composeRegions(columns, tables, page.ExtractText)
}

// assembleElements flattens ordered page results into Elements, extracting
// each region's text from the primary document view.
func (p *Parser) assembleElements(doc Document, pages []PageResult) ([]Element, error) {
	var elements []Element
	for _, result := range pages {
		if len(result.Regions) == 0 {
			continue
		}
		page, err := doc.Page(result.PageIndex)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load page %d", result.PageIndex+1)
		}
		for _, region := range result.Regions {
			text, err := page.ExtractText(region.Box)
			if err != nil {
				page.Close()
				return nil, errors.Wrapf(err, "failed to extract text on page %d", result.PageIndex+1)
			}
			var category Category
			switch region.Kind {
			case RegionText:
				category = CategoryText
			case RegionTable:
				category = CategoryTable
			}
			elements = append(elements, Element{
				Text:      strings.TrimSpace(text),
				Category:  category,
				StartPage: result.PageIndex + 1,
				EndPage:   result.PageIndex + 1,
			})
		}
		if err := page.Close(); err != nil {
			return nil, errors.Wrapf(err, "failed to close page %d", result.PageIndex+1)
		}
	}
	return elements, nil
}
