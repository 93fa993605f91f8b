package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"pdf-toolkit/internal/domain"
)

// LocalSaver writes artifacts into a directory.
type LocalSaver struct {
	dir    string
	logger domain.Logger
}

func NewLocalSaver(dir string, logger domain.Logger) *LocalSaver {
	return &LocalSaver{dir: dir, logger: logger}
}

// Dir returns the target directory.
func (s *LocalSaver) Dir() string {
	return s.dir
}

// Save writes data to dir/filename through a temp file, so readers never see
// a partial file. An existing file is replaced.
func (s *LocalSaver) Save(ctx context.Context, data []byte, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := cleanName(filename)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}

	target := filepath.Join(s.dir, name)
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("move %s into place: %w", name, err)
	}

	s.logger.Info("Artifact saved", "path", target, "bytes", len(data))
	return nil
}

func cleanName(filename string) (string, error) {
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." || name == "" {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	return name, nil
}
