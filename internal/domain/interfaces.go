package domain

import (
	"context"
	"image"
	"io"

	"github.com/supabase-community/supabase-go"
)

// FileHandle is an uploaded or local input file.
type FileHandle interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// ProgressReporter receives progress updates from a running job.
// An empty message leaves the previous message in place.
type ProgressReporter interface {
	Update(percent float64, message string)
}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(percent float64, message string)

// Update calls f.
func (f ProgressFunc) Update(percent float64, message string) {
	if f != nil {
		f(percent, message)
	}
}

// NopProgress discards every update.
var NopProgress ProgressReporter = ProgressFunc(nil)

// TextItem is one run of text on a page with its origin in PDF user space.
type TextItem struct {
	Str string
	X   float64
	Y   float64
}

// PDFEngine parses PDFs for reading and rendering.
type PDFEngine interface {
	Load(data []byte) (EngineDocument, error)
}

// EngineDocument is a loaded PDF. Pages are 1-indexed.
type EngineDocument interface {
	PageCount() int
	Page(n int) (EnginePage, error)
	Close() error
}

// EnginePage exposes one page's content.
type EnginePage interface {
	TextItems() ([]TextItem, error)
	Render(scale float64) (image.Image, error)
}

// DocumentModel creates and loads editable PDF documents.
type DocumentModel interface {
	Create() PDFDocument
	Load(data []byte) (PDFDocument, error)
}

// PDFDocument is an editable PDF. Pages are 1-indexed.
type PDFDocument interface {
	PageCount() int
	// CopyPages appends the given pages of src, in the given order.
	CopyPages(src PDFDocument, pages []int) error
	// RewritePageContent replaces every content stream of a page with fn's result.
	RewritePageContent(page int, fn func(content []byte) []byte) error
	Save() ([]byte, error)
}

// WordEncoder serializes paragraphs into a word-processor document.
type WordEncoder interface {
	EncodeDocument(paragraphs []string) ([]byte, error)
}

// SheetEncoder serializes rows into a single-sheet workbook.
type SheetEncoder interface {
	EncodeSheet(name string, rows [][]string) ([]byte, error)
}

// ArchivePacker collects named entries in insertion order.
type ArchivePacker interface {
	AddEntry(name string, data []byte) error
	Finalize() ([]byte, error)
}

// Archiver creates a fresh ArchivePacker per job.
type Archiver interface {
	NewArchive() ArchivePacker
}

// Saver persists bytes under a filename. Callers do not act on the result
// beyond logging it.
type Saver interface {
	Save(ctx context.Context, data []byte, filename string) error
}

// SupabaseClient is a connection to the project holding saved artifacts.
type SupabaseClient interface {
	Initialize() error
	DB() *supabase.Client
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetLogFormat() string
	GetMaxFileSize() int64
	GetMaxFiles() int
	GetOutputDir() string
	GetJPEGQuality() int
	GetCompressQuality() int
	GetAllowedOrigins() []string
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetSupabaseBucket() string
}
