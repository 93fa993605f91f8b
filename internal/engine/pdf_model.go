package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"pdf-toolkit/internal/domain"
)

var disableConfigDir sync.Once

// Model edits PDFs with pdfcpu: page copies go through Trim and MergeRaw,
// content rewrites edit the page streams of a parsed context.
type Model struct {
	conf *model.Configuration
}

// NewModel creates a pdfcpu-backed document model. pdfcpu's on-disk config
// directory is disabled.
func NewModel() *Model {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Model{conf: conf}
}

// Create returns an empty document that grows through CopyPages.
func (m *Model) Create() domain.PDFDocument {
	return &pdfDocument{model: m}
}

// Load parses and validates data.
func (m *Model) Load(data []byte) (domain.PDFDocument, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), m.conf)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("validate pdf: %w", err)
	}
	return &pdfDocument{model: m, data: data, ctx: ctx, pages: ctx.PageCount}, nil
}

// pdfDocument is either loaded (ctx set) or assembled from copied parts.
type pdfDocument struct {
	model *Model

	data  []byte
	ctx   *model.Context
	dirty bool

	parts [][]byte
	pages int
}

func (d *pdfDocument) PageCount() int { return d.pages }

// CopyPages appends pages of src. Ascending selections are trimmed in one
// pass; any other order is trimmed page by page to keep the requested order.
func (d *pdfDocument) CopyPages(src domain.PDFDocument, pages []int) error {
	if d.ctx != nil {
		return errors.New("copy into a loaded document is not supported")
	}
	s, ok := src.(*pdfDocument)
	if !ok {
		return fmt.Errorf("unsupported source document %T", src)
	}
	if len(pages) == 0 {
		return nil
	}
	for _, p := range pages {
		if p < 1 || p > s.pages {
			return fmt.Errorf("page %d out of range 1..%d", p, s.pages)
		}
	}

	data, err := s.Save()
	if err != nil {
		return err
	}

	if isAscending(pages) {
		part, err := d.trim(data, pages, s.pages)
		if err != nil {
			return err
		}
		d.parts = append(d.parts, part)
		d.pages += len(pages)
		return nil
	}

	for _, p := range pages {
		part, err := d.trim(data, []int{p}, s.pages)
		if err != nil {
			return err
		}
		d.parts = append(d.parts, part)
		d.pages++
	}
	return nil
}

func (d *pdfDocument) trim(data []byte, pages []int, total int) ([]byte, error) {
	if len(pages) == total {
		return data, nil
	}
	selected := make([]string, len(pages))
	for i, p := range pages {
		selected[i] = strconv.Itoa(p)
	}
	var buf bytes.Buffer
	if err := api.Trim(bytes.NewReader(data), &buf, selected, d.model.conf); err != nil {
		return nil, fmt.Errorf("extract pages %v: %w", pages, err)
	}
	return buf.Bytes(), nil
}

// RewritePageContent passes every content stream of page through fn.
func (d *pdfDocument) RewritePageContent(page int, fn func([]byte) []byte) error {
	if d.ctx == nil {
		return errors.New("rewrite needs a loaded document")
	}
	if page < 1 || page > d.pages {
		return fmt.Errorf("page %d out of range 1..%d", page, d.pages)
	}

	pageDict, _, _, err := d.ctx.PageDict(page, false)
	if err != nil {
		return fmt.Errorf("page %d dict: %w", page, err)
	}
	if pageDict == nil {
		return fmt.Errorf("page %d: missing page dict", page)
	}

	obj, found := pageDict.Find("Contents")
	if !found || obj == nil {
		return nil
	}

	refs, err := d.contentRefs(obj)
	if err != nil {
		return fmt.Errorf("page %d contents: %w", page, err)
	}
	for _, ref := range refs {
		if err := d.rewriteStream(ref, fn); err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
	}
	return nil
}

// contentRefs resolves /Contents to the indirect references of its streams.
func (d *pdfDocument) contentRefs(obj types.Object) ([]types.IndirectRef, error) {
	switch o := obj.(type) {
	case types.IndirectRef:
		entry, ok := d.ctx.FindTableEntryForIndRef(&o)
		if !ok || entry == nil {
			return nil, fmt.Errorf("dangling reference %s", o)
		}
		if arr, isArray := entry.Object.(types.Array); isArray {
			return d.contentRefs(arr)
		}
		return []types.IndirectRef{o}, nil
	case types.Array:
		refs := make([]types.IndirectRef, 0, len(o))
		for _, item := range o {
			ref, ok := item.(types.IndirectRef)
			if !ok {
				continue
			}
			refs = append(refs, ref)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("unexpected /Contents type %T", obj)
	}
}

func (d *pdfDocument) rewriteStream(ref types.IndirectRef, fn func([]byte) []byte) error {
	entry, ok := d.ctx.FindTableEntryForIndRef(&ref)
	if !ok || entry == nil {
		return fmt.Errorf("dangling reference %s", ref)
	}
	sd, ok := entry.Object.(types.StreamDict)
	if !ok {
		return fmt.Errorf("object %s is not a stream", ref)
	}
	if err := sd.Decode(); err != nil {
		return fmt.Errorf("decode stream %s: %w", ref, err)
	}

	rewritten := fn(sd.Content)
	if bytes.Equal(rewritten, sd.Content) {
		return nil
	}
	sd.Content = rewritten
	if err := sd.Encode(); err != nil {
		return fmt.Errorf("encode stream %s: %w", ref, err)
	}
	entry.Object = sd
	d.dirty = true
	return nil
}

// Save serializes the document.
func (d *pdfDocument) Save() ([]byte, error) {
	if d.ctx != nil {
		if !d.dirty {
			return d.data, nil
		}
		var buf bytes.Buffer
		if err := api.WriteContext(d.ctx, &buf); err != nil {
			return nil, fmt.Errorf("write pdf: %w", err)
		}
		return buf.Bytes(), nil
	}

	switch len(d.parts) {
	case 0:
		return nil, domain.ErrEmptyDocument
	case 1:
		return d.parts[0], nil
	}

	readers := make([]io.ReadSeeker, len(d.parts))
	for i, part := range d.parts {
		readers[i] = bytes.NewReader(part)
	}
	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, d.model.conf); err != nil {
		return nil, fmt.Errorf("merge pdf parts: %w", err)
	}
	return buf.Bytes(), nil
}

func isAscending(pages []int) bool {
	for i := 1; i < len(pages); i++ {
		if pages[i] <= pages[i-1] {
			return false
		}
	}
	return true
}
