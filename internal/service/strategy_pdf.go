package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"pdf-toolkit/internal/domain"
)

const defaultCompressQuality = 50

// qualityMarker matches the quality operand some producers leave in page
// content streams.
var qualityMarker = regexp.MustCompile(`/Quality\s+\d+`)

type mergeStrategy struct {
	c Collaborators
}

func (s *mergeStrategy) Convert(_ context.Context, job *domain.ConversionJob) (*domain.Artifact, error) {
	job.Progress.Update(5, "Initializing merger...")
	out := s.c.Model.Create()

	n := len(job.Files)
	err := iteratePages(job, n, Span{Start: 5, End: 95}, "Merging file", func(i int) error {
		fh := job.Files[i-1]
		src, err := loadModel(job, s.c, fh)
		if err != nil {
			return err
		}
		if err := out.CopyPages(src, pageRange(src.PageCount())); err != nil {
			return &domain.EncodingError{Stage: "copy pages from " + fh.Name(), Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	job.Progress.Update(98, "Finalizing merged document...")
	data, err := out.Save()
	if err != nil {
		return nil, &domain.EncodingError{Stage: "save merged pdf", Err: err}
	}

	return newArtifact(job.Tool, domain.ContentTypePDF, data), nil
}

// splitStrategy writes every page as its own document inside one archive.
type splitStrategy struct {
	c Collaborators
}

func (s *splitStrategy) Convert(_ context.Context, job *domain.ConversionJob) (*domain.Artifact, error) {
	job.Progress.Update(10, "Loading PDF...")
	src, err := loadModel(job, s.c, job.Files[0])
	if err != nil {
		return nil, err
	}

	n := src.PageCount()
	archive := s.c.Archiver.NewArchive()
	err = iteratePages(job, n, Span{Start: 30, End: 90}, "Splitting page", func(i int) error {
		single := s.c.Model.Create()
		if err := single.CopyPages(src, []int{i}); err != nil {
			return &domain.EncodingError{Stage: fmt.Sprintf("copy page %d", i), Err: err}
		}
		data, err := single.Save()
		if err != nil {
			return &domain.EncodingError{Stage: fmt.Sprintf("save page %d", i), Err: err}
		}
		if err := archive.AddEntry(fmt.Sprintf("page_%d.pdf", i), data); err != nil {
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

// compressStrategy rewrites quality markers in page content streams. It is a
// textual substitution, not recompression: most documents carry no marker
// and come out the same size or larger.
type compressStrategy struct {
	c Collaborators
}

func (s *compressStrategy) Convert(_ context.Context, job *domain.ConversionJob) (*domain.Artifact, error) {
	job.Progress.Update(10, "Loading PDF...")
	fh := job.Files[0]
	doc, err := loadModel(job, s.c, fh)
	if err != nil {
		return nil, err
	}

	rewrite := QualityRewriter(s.c.CompressQuality)
	err = iteratePages(job, doc.PageCount(), Span{Start: 30, End: 80}, "Optimizing page", func(i int) error {
		if err := doc.RewritePageContent(i, rewrite); err != nil {
			return &domain.ParseError{File: fh.Name(), Page: i, Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	job.Progress.Update(80, "Saving compressed PDF...")
	data, err := doc.Save()
	if err != nil {
		return nil, &domain.EncodingError{Stage: "save compressed pdf", Err: err}
	}

	return newArtifact(job.Tool, domain.ContentTypePDF, data), nil
}

// QualityRewriter returns a content filter that sets every /Quality marker
// to quality. Out-of-range values fall back to 50.
func QualityRewriter(quality int) func([]byte) []byte {
	if quality <= 0 || quality > 100 {
		quality = defaultCompressQuality
	}
	replacement := []byte("/Quality " + strconv.Itoa(quality))
	return func(content []byte) []byte {
		return qualityMarker.ReplaceAllLiteral(content, replacement)
	}
}
