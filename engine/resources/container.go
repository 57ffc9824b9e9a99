package resources

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/klauspost/compress/zip"
	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/anima-loader/engine/core"
)

// AssetContainer opens named entries of a bundle of assets.
type AssetContainer interface {
	Open(name string) (io.ReadCloser, error)
}

// cleanEntry turns an asset path into a slash separated path without a
// leading slash, the form used by io/fs and zip archives.
func cleanEntry(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

// FSContainer serves assets from any io/fs filesystem, e.g. an embed.FS.
type FSContainer struct {
	fsys fs.FS
}

func NewFSContainer(fsys fs.FS) *FSContainer {
	return &FSContainer{fsys: fsys}
}

func (c *FSContainer) Open(name string) (io.ReadCloser, error) {
	entry := cleanEntry(name)
	f, err := c.fsys.Open(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: asset '%s': %w", core.ErrNotFound, name, err)
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: asset '%s' is not a file", core.ErrNotFound, name)
	}
	return f, nil
}

// BillyContainer serves assets from a subtree of a billy filesystem.
type BillyContainer struct {
	fs billy.Filesystem
}

func NewBillyContainer(fs billy.Filesystem, root string) (*BillyContainer, error) {
	if root != "" && root != "/" {
		sub, err := fs.Chroot(root)
		if err != nil {
			return nil, err
		}
		fs = sub
	}
	return &BillyContainer{fs: fs}, nil
}

func (c *BillyContainer) Open(name string) (io.ReadCloser, error) {
	entry := cleanEntry(name)
	info, err := c.fs.Stat(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: asset '%s': %w", core.ErrNotFound, name, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: asset '%s' is a directory", core.ErrNotFound, name)
	}
	f, err := c.fs.Open(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: asset '%s': %w", core.ErrNotFound, name, err)
	}
	return f, nil
}

// ZipContainer serves assets from a zip bundle.
type ZipContainer struct {
	reader  *zip.Reader
	closer  io.Closer
	entries map[string]*zip.File
}

func NewZipContainer(r io.ReaderAt, size int64) (*ZipContainer, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("asset bundle: %w", err)
	}
	c := &ZipContainer{
		reader:  zr,
		entries: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		c.entries[cleanEntry(f.Name)] = f
	}
	return c, nil
}

// OpenZipContainer opens the bundle at bundlePath on fs. Close releases it.
func OpenZipContainer(fs billy.Filesystem, bundlePath string) (*ZipContainer, error) {
	f, err := fs.Open(toSlash(bundlePath))
	if err != nil {
		return nil, fmt.Errorf("%w: asset bundle '%s': %w", core.ErrNotFound, bundlePath, err)
	}
	info, err := fs.Stat(toSlash(bundlePath))
	if err != nil {
		f.Close()
		return nil, err
	}
	c, err := NewZipContainer(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	c.closer = f
	return c, nil
}

func (c *ZipContainer) Open(name string) (io.ReadCloser, error) {
	f, ok := c.entries[cleanEntry(name)]
	if !ok {
		return nil, fmt.Errorf("%w: asset '%s' not in bundle", core.ErrNotFound, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: asset '%s': %w", core.ErrNotFound, name, err)
	}
	return rc, nil
}

// Names lists the file entries of the bundle in lexical order.
func (c *ZipContainer) Names() []string {
	names := make([]string, 0, len(c.entries))
	for n := range c.entries {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func (c *ZipContainer) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
