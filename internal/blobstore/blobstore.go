// Package blobstore keeps raw file bytes under a single root directory.
//
// Every Write lands at <root>/<uuid>, so concurrent uploads never share a
// path. The store knows nothing about the catalog.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"filesmanager/internal/fsutil"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	// ErrNotFound is returned when a blob path does not exist.
	ErrNotFound = errors.New("blob not found")
	// ErrWriteFailed wraps any I/O failure while persisting bytes.
	ErrWriteFailed = errors.New("blob write failed")
)

const (
	dirPerm  os.FileMode = 0o700
	filePerm os.FileMode = 0o600
)

type Store struct {
	root string
	fs   afero.Fs
}

// New returns a store rooted at root on the OS filesystem.
func New(root string) (*Store, error) {
	return NewWithFs(afero.NewOsFs(), root)
}

// NewWithFs returns a store on an arbitrary afero filesystem.
func NewWithFs(fsys afero.Fs, root string) (*Store, error) {
	r, err := fsutil.CleanRoot(root)
	if err != nil {
		return nil, err
	}
	return &Store{root: r, fs: fsys}, nil
}

// Root returns the cleaned storage root.
func (s *Store) Root() string { return s.root }

// Write persists data at a freshly generated path and returns that path.
// The root directory is created on demand.
func (s *Store) Write(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	p := filepath.Join(s.root, id.String())
	if err := s.put(p, data); err != nil {
		return "", err
	}
	return p, nil
}

// Put writes data at an explicit path below the root, replacing any
// previous content. Derived blobs use this.
func (s *Store) Put(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := fsutil.WithinRoot(s.root, path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return s.put(p, data)
}

func (s *Store) put(p string, data []byte) error {
	if err := s.fs.MkdirAll(filepath.Dir(p), dirPerm); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := afero.WriteFile(s.fs, p, data, filePerm); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

// Read returns the bytes stored at path.
func (s *Store) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := fsutil.WithinRoot(s.root, path)
	if err != nil {
		return nil, ErrNotFound
	}
	b, err := afero.ReadFile(s.fs, p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Remove deletes the blob at path. A missing blob is not an error.
func (s *Store) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := fsutil.WithinRoot(s.root, path)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Exists reports whether path holds a regular file.
func (s *Store) Exists(ctx context.Context, path string) bool {
	if ctx.Err() != nil {
		return false
	}
	p, err := fsutil.WithinRoot(s.root, path)
	if err != nil {
		return false
	}
	st, err := s.fs.Stat(p)
	return err == nil && !st.IsDir()
}

// VariantPath names the derived blob of path for a given size label.
func VariantPath(path, size string) string {
	return path + "_" + size
}
