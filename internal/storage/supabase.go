package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	storage_go "github.com/supabase-community/storage-go"

	"pdf-toolkit/internal/domain"
)

// ObjectUploader is the part of the Supabase storage client the saver uses.
type ObjectUploader interface {
	UploadFile(bucketID, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
}

// SupabaseSaver uploads artifacts to a Supabase Storage bucket under a
// date prefix.
type SupabaseSaver struct {
	uploader ObjectUploader
	bucket   string
	logger   domain.Logger
	now      func() time.Time
}

// NewSupabaseSaver builds a saver on an initialized client.
func NewSupabaseSaver(client domain.SupabaseClient, bucket string, logger domain.Logger) (*SupabaseSaver, error) {
	if client == nil || client.DB() == nil || client.DB().Storage == nil {
		return nil, fmt.Errorf("supabase storage client not initialized")
	}
	return newSupabaseSaver(client.DB().Storage, bucket, logger), nil
}

func newSupabaseSaver(uploader ObjectUploader, bucket string, logger domain.Logger) *SupabaseSaver {
	return &SupabaseSaver{
		uploader: uploader,
		bucket:   bucket,
		logger:   logger,
		now:      time.Now,
	}
}

// Save uploads data, replacing any object at the same path.
func (s *SupabaseSaver) Save(ctx context.Context, data []byte, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := cleanName(filename)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	objectPath := path.Join(now.Format("2006-01-02"), fmt.Sprintf("%d-%s", now.UnixNano(), name))
	contentType := contentTypeFor(name)
	upsert := true

	_, err = s.uploader.UploadFile(s.bucket, objectPath, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("upload %s to bucket %s: %w", objectPath, s.bucket, err)
	}

	s.logger.Info("Artifact uploaded", "bucket", s.bucket, "path", objectPath, "bytes", len(data))
	return nil
}

func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".zip":
		return domain.ContentTypeZip
	case ".pdf":
		return domain.ContentTypePDF
	case ".docx":
		return domain.ContentTypeDOCX
	case ".xlsx":
		return domain.ContentTypeXLSX
	case ".txt":
		return domain.ContentTypeText
	default:
		return "application/octet-stream"
	}
}
