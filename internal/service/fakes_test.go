package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"sync"

	"pdf-toolkit/internal/domain"
)

type testLogger struct{}

func (testLogger) Info(string, ...interface{})         {}
func (testLogger) Error(string, error, ...interface{}) {}
func (testLogger) Debug(string, ...interface{})        {}
func (testLogger) Warn(string, ...interface{})         {}

// countingFile records how many times it was opened.
type countingFile struct {
	name  string
	data  []byte
	mu    sync.Mutex
	opens int
}

func newCountingFile(name string) *countingFile {
	return &countingFile{name: name, data: []byte("%PDF-1.7 " + name)}
}

func (f *countingFile) Name() string { return f.name }
func (f *countingFile) Size() int64  { return int64(len(f.data)) }
func (f *countingFile) Open() (io.ReadCloser, error) {
	f.mu.Lock()
	f.opens++
	f.mu.Unlock()
	return io.NopCloser(strings.NewReader(string(f.data))), nil
}

func (f *countingFile) Opens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

// fakeEngine serves documents keyed by file content.
type fakeEngine struct {
	mu        sync.Mutex
	docs      map[string][][]domain.TextItem
	loadErr   error
	onPage    func(i int)
	processed int
	scales    []float64
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{docs: make(map[string][][]domain.TextItem)}
}

// add registers a document whose pages each hold one item per text.
func (e *fakeEngine) add(f *countingFile, pages ...string) {
	doc := make([][]domain.TextItem, len(pages))
	for i, text := range pages {
		if text != "" {
			doc[i] = []domain.TextItem{{Str: text, X: 10, Y: 700}}
		}
	}
	e.docs[string(f.data)] = doc
}

func (e *fakeEngine) Load(data []byte) (domain.EngineDocument, error) {
	if e.loadErr != nil {
		return nil, e.loadErr
	}
	pages, ok := e.docs[string(data)]
	if !ok {
		return nil, errors.New("malformed document")
	}
	return &fakeEngineDoc{engine: e, pages: pages}, nil
}

func (e *fakeEngine) Processed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.processed
}

type fakeEngineDoc struct {
	engine *fakeEngine
	pages  [][]domain.TextItem
	closed bool
}

func (d *fakeEngineDoc) PageCount() int { return len(d.pages) }

func (d *fakeEngineDoc) Page(n int) (domain.EnginePage, error) {
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("page %d out of range", n)
	}
	return &fakePage{doc: d, n: n}, nil
}

func (d *fakeEngineDoc) Close() error {
	d.closed = true
	return nil
}

type fakePage struct {
	doc *fakeEngineDoc
	n   int
}

func (p *fakePage) done() {
	e := p.doc.engine
	e.mu.Lock()
	e.processed++
	hook := e.onPage
	e.mu.Unlock()
	if hook != nil {
		hook(p.n)
	}
}

func (p *fakePage) TextItems() ([]domain.TextItem, error) {
	defer p.done()
	return p.doc.pages[p.n-1], nil
}

func (p *fakePage) Render(scale float64) (image.Image, error) {
	defer p.done()
	e := p.doc.engine
	e.mu.Lock()
	e.scales = append(e.scales, scale)
	e.mu.Unlock()
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

// fakeModel loads documents whose pages are plain labels.
type fakeModel struct {
	docs    map[string][]string
	saveErr error
}

func newFakeModel() *fakeModel {
	return &fakeModel{docs: make(map[string][]string)}
}

func (m *fakeModel) add(f *countingFile, pages ...string) {
	m.docs[string(f.data)] = pages
}

func (m *fakeModel) Create() domain.PDFDocument {
	return &fakePDF{model: m}
}

func (m *fakeModel) Load(data []byte) (domain.PDFDocument, error) {
	pages, ok := m.docs[string(data)]
	if !ok {
		return nil, errors.New("malformed document")
	}
	return &fakePDF{model: m, pages: append([]string(nil), pages...)}, nil
}

type fakePDF struct {
	model *fakeModel
	pages []string
}

func (d *fakePDF) PageCount() int { return len(d.pages) }

func (d *fakePDF) CopyPages(src domain.PDFDocument, pages []int) error {
	s, ok := src.(*fakePDF)
	if !ok {
		return errors.New("foreign document")
	}
	for _, p := range pages {
		if p < 1 || p > len(s.pages) {
			return fmt.Errorf("page %d out of range", p)
		}
		d.pages = append(d.pages, s.pages[p-1])
	}
	return nil
}

func (d *fakePDF) RewritePageContent(page int, fn func([]byte) []byte) error {
	if page < 1 || page > len(d.pages) {
		return fmt.Errorf("page %d out of range", page)
	}
	d.pages[page-1] = string(fn([]byte(d.pages[page-1])))
	return nil
}

func (d *fakePDF) Save() ([]byte, error) {
	if d.model.saveErr != nil {
		return nil, d.model.saveErr
	}
	return []byte(strings.Join(d.pages, "|")), nil
}

type fakeWord struct {
	paragraphs []string
	err        error
}

func (w *fakeWord) EncodeDocument(paragraphs []string) ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.paragraphs = paragraphs
	return []byte(strings.Join(paragraphs, "\n")), nil
}

type fakeSheet struct {
	name string
	rows [][]string
}

func (s *fakeSheet) EncodeSheet(name string, rows [][]string) ([]byte, error) {
	s.name = name
	s.rows = rows
	return []byte("xlsx"), nil
}

type fakeArchiver struct {
	last *fakeArchive
}

func (a *fakeArchiver) NewArchive() domain.ArchivePacker {
	a.last = &fakeArchive{}
	return a.last
}

type fakeArchive struct {
	names []string
	data  [][]byte
}

func (a *fakeArchive) AddEntry(name string, data []byte) error {
	a.names = append(a.names, name)
	a.data = append(a.data, data)
	return nil
}

func (a *fakeArchive) Finalize() ([]byte, error) {
	return []byte(strings.Join(a.names, ",")), nil
}

type savedFile struct {
	filename string
	data     []byte
}

type fakeSaver struct {
	mu    sync.Mutex
	saved []savedFile
	err   error
}

func (s *fakeSaver) Save(_ context.Context, data []byte, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, savedFile{filename: filename, data: data})
	return nil
}

// progressLog records every update a job emits.
type progressLog struct {
	mu       sync.Mutex
	percents []float64
	messages []string
	hook     func(percent float64)
}

func (p *progressLog) Update(percent float64, message string) {
	p.mu.Lock()
	p.percents = append(p.percents, percent)
	p.messages = append(p.messages, message)
	hook := p.hook
	p.mu.Unlock()
	if hook != nil {
		hook(percent)
	}
}

func (p *progressLog) Percents() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.percents...)
}

type harness struct {
	engine     *fakeEngine
	model      *fakeModel
	word       *fakeWord
	sheet      *fakeSheet
	archiver   *fakeArchiver
	saver      *fakeSaver
	store      *ArtifactStore
	hub        *ProgressHub
	dispatcher *Dispatcher
}

func newHarness() *harness {
	h := &harness{
		engine:   newFakeEngine(),
		model:    newFakeModel(),
		word:     &fakeWord{},
		sheet:    &fakeSheet{},
		archiver: &fakeArchiver{},
		saver:    &fakeSaver{},
		store:    NewArtifactStore(),
		hub:      NewProgressHub(100),
	}
	strategies := NewStrategies(Collaborators{
		Engine:          h.engine,
		Model:           h.model,
		Word:            h.word,
		Sheet:           h.sheet,
		Archiver:        h.archiver,
		MaxFileSize:     1 << 20,
		JPEGQuality:     80,
		CompressQuality: 50,
	})
	h.dispatcher = NewDispatcher(strategies, h.store, h.saver, h.hub, testLogger{})
	return h
}

func files(fs ...*countingFile) []domain.FileHandle {
	out := make([]domain.FileHandle, len(fs))
	for i, f := range fs {
		out[i] = f
	}
	return out
}
