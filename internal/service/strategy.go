package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pdf-toolkit/internal/domain"
)

// Strategy converts the inputs of one job into an artifact.
type Strategy interface {
	Convert(ctx context.Context, job *domain.ConversionJob) (*domain.Artifact, error)
}

// Collaborators are the external pieces the strategies drive.
type Collaborators struct {
	Engine          domain.PDFEngine
	Model           domain.DocumentModel
	Word            domain.WordEncoder
	Sheet           domain.SheetEncoder
	Archiver        domain.Archiver
	MaxFileSize     int64
	JPEGQuality     int
	CompressQuality int
}

// NewStrategies builds the strategy table. Every tool has exactly one entry.
func NewStrategies(c Collaborators) map[domain.Tool]Strategy {
	return map[domain.Tool]Strategy{
		domain.ToolPDFToWord:   &wordStrategy{c: c},
		domain.ToolPDFToExcel:  &excelStrategy{c: c},
		domain.ToolPDFToJPG:    &imageStrategy{c: c, format: formatJPEG},
		domain.ToolPDFToPNG:    &imageStrategy{c: c, format: formatPNG},
		domain.ToolPDFToText:   &textStrategy{c: c},
		domain.ToolMergePDF:    &mergeStrategy{c: c},
		domain.ToolSplitPDF:    &splitStrategy{c: c},
		domain.ToolCompressPDF: &compressStrategy{c: c},
	}
}

// iteratePages runs fn for units 1..n. The token is polled before every unit
// and once more after the last, and each unit emits span.At(i, n).
func iteratePages(job *domain.ConversionJob, n int, span Span, label string, fn func(i int) error) error {
	for i := 1; i <= n; i++ {
		if err := job.Cancel.Err(); err != nil {
			return err
		}
		job.Progress.Update(span.At(i, n), fmt.Sprintf("%s %d of %d...", label, i, n))
		if err := fn(i); err != nil {
			return err
		}
	}
	return job.Cancel.Err()
}

// readInput loads one input file, honouring the job's token.
func readInput(job *domain.ConversionJob, fh domain.FileHandle, maxSize int64) ([]byte, error) {
	if err := job.Cancel.Err(); err != nil {
		return nil, err
	}
	data, err := ReadFile(job.Cancel.Context(), fh, maxSize)
	if err != nil {
		if job.Cancel.Tripped() && errors.Is(err, context.Canceled) {
			return nil, domain.ErrCancelled
		}
		return nil, err
	}
	return data, nil
}

// openDocument reads the job's first file and loads it in the engine.
func openDocument(job *domain.ConversionJob, c Collaborators) (domain.EngineDocument, error) {
	fh := job.Files[0]
	data, err := readInput(job, fh, c.MaxFileSize)
	if err != nil {
		return nil, err
	}

	doc, err := c.Engine.Load(data)
	if err != nil {
		return nil, &domain.ParseError{File: fh.Name(), Err: err}
	}
	if doc.PageCount() < 1 {
		doc.Close()
		return nil, &domain.ParseError{File: fh.Name(), Err: domain.ErrEmptyDocument}
	}
	return doc, nil
}

// loadModel reads fh and loads it as an editable document.
func loadModel(job *domain.ConversionJob, c Collaborators, fh domain.FileHandle) (domain.PDFDocument, error) {
	data, err := readInput(job, fh, c.MaxFileSize)
	if err != nil {
		return nil, err
	}

	doc, err := c.Model.Load(data)
	if err != nil {
		return nil, &domain.ParseError{File: fh.Name(), Err: err}
	}
	if doc.PageCount() < 1 {
		return nil, &domain.ParseError{File: fh.Name(), Err: domain.ErrEmptyDocument}
	}
	return doc, nil
}

// pageText fetches the text items of page i.
func pageText(doc domain.EngineDocument, file string, i int) ([]domain.TextItem, error) {
	page, err := doc.Page(i)
	if err != nil {
		return nil, &domain.ParseError{File: file, Page: i, Err: err}
	}
	items, err := page.TextItems()
	if err != nil {
		return nil, &domain.ParseError{File: file, Page: i, Err: err}
	}
	return items, nil
}

// joinItems joins the item strings of one page with single spaces.
func joinItems(items []domain.TextItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.Str
	}
	return strings.Join(parts, " ")
}

func pageRange(n int) []int {
	pages := make([]int, n)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}
