package pdflayout

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeDocument struct {
	pages   []*fakePage
	pageErr map[int]error
}

func (d *fakeDocument) PageCount() (int, error) {
	return len(d.pages), nil
}

func (d *fakeDocument) Page(index int) (Page, error) {
	if err := d.pageErr[index]; err != nil {
		return nil, err
	}
	return d.pages[index], nil
}

func (d *fakeDocument) Close() error { return nil }

type fakeSource struct {
	pages   []*fakePage
	pageErr map[int]error
	openErr error
	opens   atomic.Int32
}

func (s *fakeSource) Open() (Document, error) {
	s.opens.Add(1)
	if s.openErr != nil {
		return nil, s.openErr
	}
	return &fakeDocument{pages: s.pages, pageErr: s.pageErr}, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.HeaderMargin = 0
	cfg.FooterMargin = 0
	cfg.Logger = discardLogger()
	return cfg
}

func TestParseSinglePageRoundTrip(t *testing.T) {
	bounds := Rect{X0: 0, Y0: 0, X1: 100, Y1: 200}
	page := &fakePage{
		bounds: bounds,
		blocks: []TextBlock{
			textBlock(Rect{X0: 10, Y0: 20, X1: 60, Y1: 40}, "hello world"),
		},
		text: "  Hello world  ",
	}
	src := &fakeSource{pages: []*fakePage{page}}

	parser := NewParserWithConfig(testConfig())
	elements, numPages, err := parser.Parse(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, 1, numPages)
	require.Len(t, elements, 1)

	want, err := page.ExtractText(bounds)
	require.NoError(t, err)
	require.Equal(t, Element{
		Text:      "Hello world",
		Category:  CategoryText,
		StartPage: 1,
		EndPage:   1,
	}, elements[0])
	require.Equal(t, "  Hello world  ", want)
}

func TestParsePreservesPageOrderAcrossWorkers(t *testing.T) {
	const numPages = 10
	pages := make([]*fakePage, numPages)
	for i := range pages {
		pages[i] = &fakePage{
			bounds: Rect{X0: 0, Y0: 0, X1: 100, Y1: 200},
			blocks: []TextBlock{
				textBlock(Rect{X0: 10, Y0: 20, X1: 60, Y1: 40}, "body text"),
			},
			text: fmt.Sprintf("page-%d", i+1),
		}
	}
	src := &fakeSource{pages: pages}

	cfg := testConfig()
	cfg.MaxProcessors = 4
	parser := NewParserWithConfig(cfg)

	elements, got, err := parser.Parse(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, numPages, got)
	require.Len(t, elements, numPages)

	for i, el := range elements {
		require.Equal(t, i+1, el.StartPage)
		require.Equal(t, i+1, el.EndPage)
		require.Equal(t, fmt.Sprintf("page-%d", i+1), el.Text)
	}

	// Primary view plus one per utilized worker.
	require.Equal(t, int32(5), src.opens.Load())
}

func TestParseInterleavesTableWithText(t *testing.T) {
	page := &fakePage{
		bounds: Rect{X0: 0, Y0: 0, X1: 100, Y1: 200},
		blocks: []TextBlock{
			textBlock(Rect{X0: 0, Y0: 10, X1: 100, Y1: 100}, "column with a table inside"),
		},
		// Two fragments of one logical table, split at x=50.
		tables: []Rect{
			{X0: 0, Y0: 40, X1: 50, Y1: 60},
			{X0: 50, Y0: 40, X1: 100, Y1: 60},
		},
		text: "content",
	}
	src := &fakeSource{pages: []*fakePage{page}}

	parser := NewParserWithConfig(testConfig())
	elements, _, err := parser.Parse(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, elements, 3)
	require.Equal(t, CategoryText, elements[0].Category)
	require.Equal(t, CategoryTable, elements[1].Category)
	require.Equal(t, CategoryText, elements[2].Category)
}

func TestParseZeroPages(t *testing.T) {
	src := &fakeSource{}

	parser := NewParserWithConfig(testConfig())
	elements, numPages, err := parser.Parse(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, 0, numPages)
	require.Empty(t, elements)

	// Even an empty document gets one (empty) worker segment.
	require.Equal(t, int32(2), src.opens.Load())
}

func TestParseInvalidProcessorCount(t *testing.T) {
	cfg := testConfig()
	cfg.MaxProcessors = 0
	parser := NewParserWithConfig(cfg)

	src := &fakeSource{}
	_, _, err := parser.Parse(context.Background(), src)
	require.True(t, errors.Is(err, ErrInvalidProcessorCount))
	require.Equal(t, int32(0), src.opens.Load(), "no work may start on bad config")
}

func TestParseFailsWhenWorkerFails(t *testing.T) {
	pages := make([]*fakePage, 3)
	for i := range pages {
		pages[i] = &fakePage{
			bounds: Rect{X0: 0, Y0: 0, X1: 100, Y1: 200},
			blocks: []TextBlock{
				textBlock(Rect{X0: 10, Y0: 20, X1: 60, Y1: 40}, "body text"),
			},
			text: "content",
		}
	}
	src := &fakeSource{
		pages:   pages,
		pageErr: map[int]error{1: errors.New("page decode failure")},
	}

	cfg := testConfig()
	cfg.MaxProcessors = 3
	parser := NewParserWithConfig(cfg)

	_, _, err := parser.Parse(context.Background(), src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to process page 2")
}

func TestParseFailsWhenDocumentCannotBeOpened(t *testing.T) {
	src := &fakeSource{openErr: errors.New("not a PDF")}

	parser := NewParserWithConfig(testConfig())
	_, _, err := parser.Parse(context.Background(), src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to open document")
}

func TestParseHonorsContextCancellation(t *testing.T) {
	pages := make([]*fakePage, 5)
	for i := range pages {
		pages[i] = &fakePage{
			bounds: Rect{X0: 0, Y0: 0, X1: 100, Y1: 200},
			blocks: []TextBlock{
				textBlock(Rect{X0: 10, Y0: 20, X1: 60, Y1: 40}, "body text"),
			},
			text: "content",
		}
	}
	src := &fakeSource{pages: pages}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	parser := NewParserWithConfig(testConfig())
	_, _, err := parser.Parse(ctx, src)
	require.ErrorIs(t, err, context.Canceled)
}
