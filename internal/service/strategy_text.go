package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"pdf-toolkit/internal/domain"
)

// excelBucketHeight groups text items whose y positions share floor(y/20)
// into one row.
const excelBucketHeight = 20

type wordStrategy struct {
	c Collaborators
}

func (s *wordStrategy) Convert(_ context.Context, job *domain.ConversionJob) (*domain.Artifact, error) {
	job.Progress.Update(10, "Loading PDF...")
	doc, err := openDocument(job, s.c)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	file := job.Files[0].Name()
	n := doc.PageCount()
	paragraphs := make([]string, 0, n)
	err = iteratePages(job, n, Span{Start: 30, End: 80}, "Processing page", func(i int) error {
		items, err := pageText(doc, file, i)
		if err != nil {
			return err
		}
		paragraphs = append(paragraphs, joinItems(items))
		return nil
	})
	if err != nil {
		return nil, err
	}

	job.Progress.Update(90, "Generating Word document...")
	data, err := s.c.Word.EncodeDocument(paragraphs)
	if err != nil {
		return nil, &domain.EncodingError{Stage: "encode docx", Err: err}
	}

	return newArtifact(job.Tool, domain.ContentTypeDOCX, data), nil
}

type excelStrategy struct {
	c Collaborators
}

func (s *excelStrategy) Convert(_ context.Context, job *domain.ConversionJob) (*domain.Artifact, error) {
	job.Progress.Update(10, "Loading PDF...")
	doc, err := openDocument(job, s.c)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	file := job.Files[0].Name()
	var rows [][]string
	err = iteratePages(job, doc.PageCount(), Span{Start: 30, End: 80}, "Processing page", func(i int) error {
		items, err := pageText(doc, file, i)
		if err != nil {
			return err
		}
		rows = append(rows, bucketRows(items)...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	job.Progress.Update(90, "Generating Excel file...")
	data, err := s.c.Sheet.EncodeSheet("Sheet1", rows)
	if err != nil {
		return nil, &domain.EncodingError{Stage: "encode xlsx", Err: err}
	}

	return newArtifact(job.Tool, domain.ContentTypeXLSX, data), nil
}

// bucketRows approximates table rows. Items are bucketed by floor(y/20) and
// each bucket becomes one row, cells in extraction order. Non-negative
// buckets come first in ascending order, then negative buckets in the order
// they were first seen. Items on one visual line that straddle a bucket
// boundary land in different rows and columns are never aligned by x; this
// is lossy on purpose and is not table detection.
func bucketRows(items []domain.TextItem) [][]string {
	lines := make(map[int]*strings.Builder)
	keys := make([]int, 0)
	for _, item := range items {
		key := int(math.Floor(item.Y / excelBucketHeight))
		b, ok := lines[key]
		if !ok {
			b = &strings.Builder{}
			lines[key] = b
			keys = append(keys, key)
		}
		b.WriteString(item.Str)
		b.WriteByte('\t')
	}
	keys = orderBuckets(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		var row []string
		for _, cell := range strings.Split(lines[key].String(), "\t") {
			if strings.TrimSpace(cell) != "" {
				row = append(row, cell)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// orderBuckets sorts non-negative keys ascending and appends negative keys
// in first-seen order.
func orderBuckets(seen []int) []int {
	ordered := make([]int, 0, len(seen))
	var negative []int
	for _, key := range seen {
		if key < 0 {
			negative = append(negative, key)
			continue
		}
		ordered = append(ordered, key)
	}
	sort.Ints(ordered)
	return append(ordered, negative...)
}

type textStrategy struct {
	c Collaborators
}

func (s *textStrategy) Convert(_ context.Context, job *domain.ConversionJob) (*domain.Artifact, error) {
	job.Progress.Update(10, "Loading PDF...")
	doc, err := openDocument(job, s.c)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	file := job.Files[0].Name()
	var b strings.Builder
	err = iteratePages(job, doc.PageCount(), Span{Start: 30, End: 90}, "Extracting text from page", func(i int) error {
		items, err := pageText(doc, file, i)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "=== Page %d ===\n%s\n\n", i, joinItems(items))
		return nil
	})
	if err != nil {
		return nil, err
	}

	job.Progress.Update(95, "Preparing text file...")
	return newArtifact(job.Tool, domain.ContentTypeText, []byte(b.String())), nil
}

func newArtifact(tool domain.Tool, contentType string, data []byte) *domain.Artifact {
	return &domain.Artifact{
		Tool:        tool,
		Filename:    domain.OutputFilename(tool),
		ContentType: contentType,
		Kind:        domain.ArtifactSingle,
		Data:        data,
		CreatedAt:   time.Now().UTC(),
	}
}
