package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore writes uploads to a directory served under /uploads.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir when missing.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir is the directory files are written to.
func (s *LocalStore) Dir() string { return s.dir }

// Save writes the file as <uuid><ext> and returns the bare filename. The
// folder is ignored; local uploads share one flat directory.
func (s *LocalStore) Save(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	name := uuid.New().String() + strings.ToLower(filepath.Ext(file.Filename))
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return name, nil
}

// Delete removes a stored filename. Full URLs belong to another driver and
// are ignored.
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	if ref == "" || isAbsoluteURL(ref) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(ref)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
