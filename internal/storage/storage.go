package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Store is the blob backend for uploaded documents (pitch decks, financial
// statements, legal papers). Metadata lives in the database; the Store only
// sees opaque paths.
type Store interface {
	Save(ctx context.Context, path string, reader io.Reader) (int64, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

// AferoStore implements Store over any afero filesystem. Production wraps
// the OS filesystem rooted at the documents directory; tests use memfs.
type AferoStore struct {
	fs afero.Fs
}

// NewAferoStore creates a store over the given filesystem.
func NewAferoStore(fs afero.Fs) *AferoStore {
	return &AferoStore{fs: fs}
}

// NewOSStore creates a store rooted at baseDir on the real filesystem.
// Paths handed to the store cannot escape baseDir.
func NewOSStore(baseDir string) *AferoStore {
	return &AferoStore{fs: afero.NewBasePathFs(afero.NewOsFs(), baseDir)}
}

// NewMemStore creates an in-memory store.
func NewMemStore() *AferoStore {
	return &AferoStore{fs: afero.NewMemMapFs()}
}

// Save writes the reader's content to path, creating parent directories.
func (s *AferoStore) Save(ctx context.Context, path string, reader io.Reader) (int64, error) {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	f, err := s.fs.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(f, reader)
}

// Open opens the blob at path for reading.
func (s *AferoStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return s.fs.OpenFile(path, os.O_RDONLY, 0)
}

// Delete removes the blob at path.
func (s *AferoStore) Delete(ctx context.Context, path string) error {
	return s.fs.Remove(path)
}
