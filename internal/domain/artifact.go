package domain

import "time"

// ArtifactKind distinguishes a single blob from a packaged set of blobs.
type ArtifactKind string

const (
	ArtifactSingle  ArtifactKind = "single"
	ArtifactArchive ArtifactKind = "archive"
)

// Content types produced by the conversions.
const (
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypePDF  = "application/pdf"
	ContentTypeZip  = "application/zip"
)

// Artifact is the output of a completed job.
type Artifact struct {
	Tool        Tool         `json:"tool"`
	Filename    string       `json:"filename"`
	ContentType string       `json:"content_type"`
	Kind        ArtifactKind `json:"kind"`
	Entries     int          `json:"entries,omitempty"`
	Data        []byte       `json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Size returns the artifact length in bytes.
func (a *Artifact) Size() int64 {
	if a == nil {
		return 0
	}
	return int64(len(a.Data))
}
