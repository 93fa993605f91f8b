package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"pdf-toolkit/internal/domain"
)

// pdfMagic must appear within the first sniffLen bytes of a PDF.
var pdfMagic = []byte("%PDF-")

const sniffLen = 1024

// ReadFile loads a whole input file into memory. maxSize <= 0 disables the
// size check.
func ReadFile(ctx context.Context, fh domain.FileHandle, maxSize int64) ([]byte, error) {
	if fh == nil {
		return nil, &domain.ValidationError{Field: "files", Message: "file is required"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maxSize > 0 && fh.Size() > maxSize {
		return nil, &domain.ValidationError{
			Field:   fh.Name(),
			Message: fmt.Sprintf("file too large (%d bytes, limit %d)", fh.Size(), maxSize),
		}
	}

	rc, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fh.Name(), err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if maxSize > 0 {
		r = io.LimitReader(rc, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fh.Name(), err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, &domain.ValidationError{
			Field:   fh.Name(),
			Message: fmt.Sprintf("file too large (limit %d bytes)", maxSize),
		}
	}
	if !LooksLikePDF(data) {
		return nil, &domain.ValidationError{Field: fh.Name(), Message: domain.ErrInvalidFile.Error() + ": not a PDF"}
	}
	return data, nil
}

// LooksLikePDF reports whether data carries a PDF header near its start.
func LooksLikePDF(data []byte) bool {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	return bytes.Contains(head, pdfMagic)
}

// MultipartFile adapts an uploaded form file.
type MultipartFile struct {
	Header *multipart.FileHeader
}

func (f MultipartFile) Name() string {
	name := filepath.Base(f.Header.Filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "document.pdf"
	}
	return name
}

func (f MultipartFile) Size() int64 { return f.Header.Size }

func (f MultipartFile) Open() (io.ReadCloser, error) { return f.Header.Open() }

// LocalFile adapts a path on disk.
type LocalFile struct {
	Path string
}

func (f LocalFile) Name() string { return filepath.Base(f.Path) }

func (f LocalFile) Size() int64 {
	info, err := os.Stat(f.Path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func (f LocalFile) Open() (io.ReadCloser, error) { return os.Open(f.Path) }

// MemoryFile is an in-memory input, used by tests and internal callers.
type MemoryFile struct {
	Filename string
	Data     []byte
}

func (f MemoryFile) Name() string { return f.Filename }

func (f MemoryFile) Size() int64 { return int64(len(f.Data)) }

func (f MemoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}
