package engine

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"

	"pdf-toolkit/internal/domain"
)

const (
	baseDPI     = 72.0
	pageTimeout = 90 * time.Second

	// Glyph runs closer than this many font sizes on one line join into one item.
	mergeGapFactor = 1.5
	sameLineDelta  = 0.5
)

// ErrNoTextLayer is returned when only the rasterizer could open a document.
var ErrNoTextLayer = errors.New("text layer unavailable")

// Engine reads positioned text with ledongthuc/pdf and rasterizes pages with
// MuPDF through go-fitz.
type Engine struct {
	logger domain.Logger
}

// NewEngine creates a new PDF engine
func NewEngine(logger domain.Logger) *Engine {
	return &Engine{logger: logger}
}

// Load opens a PDF held in memory. When the text parser rejects the file the
// rasterizer is tried, so image export still works on such documents.
func (e *Engine) Load(data []byte) (domain.EngineDocument, error) {
	doc := &document{data: data, logger: e.logger, timeout: pageTimeout, open: openRaster}

	reader, textErr := openText(data)
	if textErr == nil {
		doc.reader = reader
		doc.pages = reader.NumPage()
		return doc, nil
	}

	raster, err := openRaster(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", textErr)
	}
	if raster.NumPage() < 1 {
		raster.Close()
		return nil, fmt.Errorf("failed to open PDF: %w", textErr)
	}
	e.logger.Warn("Text layer unreadable, using rasterizer only", "error", textErr.Error())
	doc.raster = raster
	doc.pages = raster.NumPage()
	return doc, nil
}

func openText(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

// rasterDoc is the part of *fitz.Document used for rendering.
type rasterDoc interface {
	NumPage() int
	ImageDPI(pageNumber int, dpi float64) (*image.RGBA, error)
	Close() error
}

type document struct {
	data    []byte
	logger  domain.Logger
	reader  *pdf.Reader
	pages   int
	timeout time.Duration
	open    func(data []byte) (rasterDoc, error)

	mu       sync.Mutex
	raster   rasterDoc
	inflight int
	closed   bool
}

func (d *document) PageCount() int { return d.pages }

func (d *document) Page(n int) (domain.EnginePage, error) {
	if n < 1 || n > d.pages {
		return nil, fmt.Errorf("page %d out of range 1..%d", n, d.pages)
	}
	return &page{doc: d, n: n}, nil
}

// Close releases the rasterizer. MuPDF must not be freed under a running
// render, so while one is in flight the last render to finish closes it.
func (d *document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.raster == nil || d.inflight > 0 {
		return nil
	}
	err := d.raster.Close()
	d.raster = nil
	return err
}

// acquire opens the MuPDF document on first use and counts one render.
func (d *document) acquire() (rasterDoc, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, errors.New("document closed")
	}
	if d.raster == nil {
		raster, err := d.open(d.data)
		if err != nil {
			return nil, fmt.Errorf("failed to open PDF for rendering: %w", err)
		}
		d.raster = raster
	}
	d.inflight++
	return d.raster, nil
}

// release ends one render and closes the rasterizer if Close ran meanwhile.
func (d *document) release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inflight--
	if d.closed && d.inflight == 0 && d.raster != nil {
		if err := d.raster.Close(); err != nil {
			d.logger.Warn("Closing rasterizer failed", "error", err.Error())
		}
		d.raster = nil
	}
}

func openRaster(data []byte) (rasterDoc, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

type page struct {
	doc *document
	n   int
}

func (p *page) TextItems() ([]domain.TextItem, error) {
	if p.doc.reader == nil {
		return nil, ErrNoTextLayer
	}
	p.doc.logger.Debug("Extracting page text", "page", p.n, "total", p.doc.pages)
	return extractItems(p.doc.reader.Page(p.n))
}

// Render rasterizes the page. A page that takes longer than the document
// timeout is reported as failed; the MuPDF call is left to finish in the
// background and keeps the rasterizer open until it does.
func (p *page) Render(scale float64) (image.Image, error) {
	raster, err := p.doc.acquire()
	if err != nil {
		return nil, err
	}

	type renderResult struct {
		img image.Image
		err error
	}
	resultCh := make(chan renderResult, 1)
	go func() {
		defer p.doc.release()
		img, err := raster.ImageDPI(p.n-1, baseDPI*scale)
		if err != nil {
			resultCh <- renderResult{err: err}
			return
		}
		resultCh <- renderResult{img: img}
	}()

	timeout := p.doc.timeout
	if timeout <= 0 {
		timeout = pageTimeout
	}
	select {
	case res := <-resultCh:
		return res.img, res.err
	case <-time.After(timeout):
		p.doc.logger.Warn("Page render timeout", "page", p.n, "timeout_sec", int(timeout.Seconds()))
		return nil, fmt.Errorf("render page %d: timeout after %v", p.n, timeout)
	}
}

// extractItems turns the page's glyph runs into text items. ledongthuc/pdf
// reports one run per glyph for many producers, so neighbouring runs on the
// same line are joined into words.
func extractItems(pg pdf.Page) (items []domain.TextItem, err error) {
	if pg.V.IsNull() {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			items, err = nil, fmt.Errorf("malformed content stream: %v", r)
		}
	}()

	var (
		current strings.Builder
		start   pdf.Text
		last    pdf.Text
		open    bool
	)
	flush := func() {
		if !open {
			return
		}
		if s := sanitizeText(current.String()); strings.TrimSpace(s) != "" {
			items = append(items, domain.TextItem{Str: strings.TrimSpace(s), X: start.X, Y: start.Y})
		}
		current.Reset()
		open = false
	}

	for _, run := range pg.Content().Text {
		if open && continues(last, run) {
			current.WriteString(run.S)
			last = run
			continue
		}
		flush()
		start, last, open = run, run, true
		current.WriteString(run.S)
	}
	flush()
	return items, nil
}

func continues(prev, next pdf.Text) bool {
	if math.Abs(prev.Y-next.Y) >= sameLineDelta {
		return false
	}
	gap := next.X - (prev.X + prev.W)
	size := prev.FontSize
	if size <= 0 {
		size = 1
	}
	return gap >= -size && gap < mergeGapFactor*size
}

// sanitizeText drops NUL and other control characters except tab and newline.
func sanitizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\t' || r == '\n':
			b.WriteRune(r)
		case r < 0x20 || r == 0x7F:
		case r >= 0xD800 && r <= 0xDFFF:
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
