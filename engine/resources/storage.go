package resources

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/spaghettifunk/anima-loader/engine/core"
)

// Storage is the removable-storage root. Relative paths are resolved against
// Root; files are read through a billy filesystem rooted at "/".
type Storage struct {
	root string
	fs   billy.Filesystem
}

type StorageOption func(*Storage)

// WithFilesystem replaces the OS filesystem, e.g. with memfs in tests.
func WithFilesystem(fs billy.Filesystem) StorageOption {
	return func(s *Storage) {
		s.fs = fs
	}
}

func NewStorage(root string, opts ...StorageOption) (*Storage, error) {
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("storage root '%s' is not absolute", root)
	}
	s := &Storage{
		root: filepath.Clean(root),
		fs:   osfs.New("/"),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *Storage) Root() string {
	return s.root
}

func (s *Storage) Filesystem() billy.Filesystem {
	return s.fs
}

// Resolve returns the absolute path for p. It is recomputed on every call.
func (s *Storage) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(s.root, p)
}

// Open opens p for reading. Missing, unreadable and directory paths all
// fail with ErrNotFound.
func (s *Storage) Open(p string) (io.ReadCloser, error) {
	abs := s.Resolve(p)
	info, err := s.fs.Stat(toSlash(abs))
	if err != nil {
		return nil, fmt.Errorf("%w: storage '%s': %w", core.ErrNotFound, abs, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: storage '%s' is a directory", core.ErrNotFound, abs)
	}
	f, err := s.fs.Open(toSlash(abs))
	if err != nil {
		return nil, fmt.Errorf("%w: storage '%s': %w", core.ErrNotFound, abs, err)
	}
	return f, nil
}

func (s *Storage) Exists(p string) bool {
	info, err := s.fs.Stat(toSlash(s.Resolve(p)))
	return err == nil && !info.IsDir()
}

// toSlash converts paths to use forward slashes consistently.
func toSlash(p string) string {
	return filepath.ToSlash(p)
}
