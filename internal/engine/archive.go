package engine

import (
	"bytes"
	"fmt"
	"time"

	"github.com/klauspost/compress/zip"

	"pdf-toolkit/internal/domain"
)

// ZipArchiver creates zip packers.
type ZipArchiver struct{}

func NewZipArchiver() *ZipArchiver {
	return &ZipArchiver{}
}

func (ZipArchiver) NewArchive() domain.ArchivePacker {
	return NewZipPacker()
}

// ZipPacker writes entries into an in-memory zip in insertion order.
type ZipPacker struct {
	buf      bytes.Buffer
	w        *zip.Writer
	names    map[string]struct{}
	modified time.Time
	done     bool
}

func NewZipPacker() *ZipPacker {
	p := &ZipPacker{names: make(map[string]struct{}), modified: time.Now()}
	p.w = zip.NewWriter(&p.buf)
	return p
}

func (p *ZipPacker) AddEntry(name string, data []byte) error {
	if p.done {
		return fmt.Errorf("archive already finalized")
	}
	if _, dup := p.names[name]; dup {
		return fmt.Errorf("duplicate archive entry %q", name)
	}
	p.names[name] = struct{}{}

	w, err := p.w.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: p.modified,
	})
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

func (p *ZipPacker) Finalize() ([]byte, error) {
	if !p.done {
		p.done = true
		if err := p.w.Close(); err != nil {
			return nil, fmt.Errorf("close archive: %w", err)
		}
	}
	return p.buf.Bytes(), nil
}
