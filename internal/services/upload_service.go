package services

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"csvinsight/internal/models"

	"github.com/spf13/afero"
)

// UploadService persists uploaded CSV files.
type UploadService struct {
	fs  afero.Fs
	dir string
}

// NewUploadService creates an UploadService writing into dir on fs.
func NewUploadService(fs afero.Fs, dir string) *UploadService {
	return &UploadService{fs: fs, dir: dir}
}

// Ingest stores the contents of r under the base name of filename and returns
// the stored path. An existing file with the same name is overwritten.
func (s *UploadService) Ingest(filename string, r io.Reader) (string, error) {
	name := baseName(filename)
	if name == "" {
		return "", models.ErrNoFileSelected
	}
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		return "", models.ErrUnsupportedFormat
	}

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst := filepath.Join(s.dir, name)
	f, err := s.fs.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", dst, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", dst, err)
	}
	return dst, nil
}

// baseName strips any client-supplied directories, including Windows ones.
func baseName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
