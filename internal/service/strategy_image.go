package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"time"

	"pdf-toolkit/internal/domain"
)

const (
	renderDPI = 150.0
	baseDPI   = 72.0

	// renderScale maps the 72 dpi user space onto a 150 dpi raster.
	renderScale = renderDPI / baseDPI

	defaultJPEGQuality = 92
)

type imageFormat string

const (
	formatJPEG imageFormat = "jpg"
	formatPNG  imageFormat = "png"
)

// imageStrategy rasterizes every page and packs the images into one archive.
type imageStrategy struct {
	c      Collaborators
	format imageFormat
}

func (s *imageStrategy) Convert(_ context.Context, job *domain.ConversionJob) (*domain.Artifact, error) {
	job.Progress.Update(10, "Loading PDF...")
	doc, err := openDocument(job, s.c)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	job.Progress.Update(20, "Preparing images...")
	file := job.Files[0].Name()
	n := doc.PageCount()
	archive := s.c.Archiver.NewArchive()
	err = iteratePages(job, n, Span{Start: 20, End: 90}, "Converting page", func(i int) error {
		page, err := doc.Page(i)
		if err != nil {
			return &domain.ParseError{File: file, Page: i, Err: err}
		}
		img, err := page.Render(renderScale)
		if err != nil {
			return &domain.ParseError{File: file, Page: i, Err: err}
		}
		data, err := s.encode(img)
		if err != nil {
			return &domain.EncodingError{Stage: fmt.Sprintf("encode page %d", i), Err: err}
		}
		if err := archive.AddEntry(fmt.Sprintf("page_%d.%s", i, s.format), data); err != nil {
			return &domain.EncodingError{Stage: "add archive entry", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	job.Progress.Update(95, "Creating download package...")
	data, err := archive.Finalize()
	if err != nil {
		return nil, &domain.EncodingError{Stage: "finalize archive", Err: err}
	}

	return &domain.Artifact{
		Tool:        job.Tool,
		Filename:    domain.OutputFilename(job.Tool),
		ContentType: domain.ContentTypeZip,
		Kind:        domain.ArtifactArchive,
		Entries:     n,
		Data:        data,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func (s *imageStrategy) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	switch s.format {
	case formatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		quality := s.c.JPEGQuality
		if quality <= 0 || quality > 100 {
			quality = defaultJPEGQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
