// Package storage abstracts file persistence for uploaded case documents.
// Two backends are provided: a local-disk store for development and a
// Cloudflare R2 store for production.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo describes a stored file.
type FileInfo struct {
	URL      string
	FileName string
	FileSize int64
	FileType string
}

// Store is the file persistence interface handlers depend on.
type Store interface {
	// Save writes the file at the given key and returns its metadata.
	Save(ctx context.Context, path string, file io.Reader, contentType string) (*FileInfo, error)
	// Delete removes a stored file.
	Delete(ctx context.Context, path string) error
	// URL returns the public URL for a stored file.
	URL(path string) string
}

// LocalStore saves files to a directory on disk. Development backend; files
// are served back through the API's /api/files route.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates the upload directory if needed.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save writes the file under the store's directory, creating intermediate
// directories as needed. The key must not escape the upload directory.
func (s *LocalStore) Save(ctx context.Context, path string, file io.Reader, contentType string) (*FileInfo, error) {
	clean, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return nil, fmt.Errorf("create dir: %w", err)
	}

	dst, err := os.Create(clean)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, file)
	if err != nil {
		os.Remove(clean)
		return nil, fmt.Errorf("write file: %w", err)
	}

	return &FileInfo{
		URL:      s.URL(path),
		FileName: filepath.Base(clean),
		FileSize: size,
		FileType: contentType,
	}, nil
}

// Delete removes the file. A missing file is not an error.
func (s *LocalStore) Delete(ctx context.Context, path string) error {
	clean, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(clean); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// URL returns the serve-route URL for a stored file.
func (s *LocalStore) URL(path string) string {
	return s.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Path maps a storage key to its on-disk location, for serving local files.
func (s *LocalStore) Path(path string) (string, error) {
	return s.resolve(path)
}

func (s *LocalStore) resolve(path string) (string, error) {
	clean := filepath.Join(s.dir, filepath.Clean("/"+path))
	if !strings.HasPrefix(clean, filepath.Clean(s.dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid storage key: %q", path)
	}
	return clean, nil
}
