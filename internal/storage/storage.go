// Package storage persists image bytes. Keys are slash-separated relative
// paths derived from tenant and profile secrets:
//
//	<api token>/<profile token>/images/<image name>
//
// The default backend is a directory tree on disk; an S3-compatible
// backend is available for deployments that keep the tree in object
// storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrInvalidKey = errors.New("invalid storage key")

type BlobStore interface {
	// EnsureDir creates the directory for a key prefix if the backend has
	// directories; otherwise it is a no-op.
	EnsureDir(ctx context.Context, key string) error
	Write(ctx context.Context, key string, data []byte, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

func APIKey(apiToken string) string {
	return apiToken
}

func ProfileKey(apiToken, profileToken string) string {
	return path.Join(apiToken, profileToken)
}

func ImagesKey(apiToken, profileToken string) string {
	return path.Join(apiToken, profileToken, "images")
}

func ImageKey(apiToken, profileToken, name string) string {
	return path.Join(apiToken, profileToken, "images", name)
}

// FileStore keeps blobs under a root directory. Directories are created
// lazily on first write.
type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &FileStore{root: abs}, nil
}

func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *FileStore) EnsureDir(_ context.Context, key string) error {
	dir, err := s.resolve(key)
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *FileStore) Write(_ context.Context, key string, data []byte, _ string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	return nil
}

func (s *FileStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FileStore) Remove(_ context.Context, key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
