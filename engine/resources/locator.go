package resources

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/anima-loader/engine/core"
)

// Locator maps an Origin to an open stream and answers path queries about
// it without opening anything.
type Locator struct {
	storage *Storage
}

func NewLocator(storage *Storage) *Locator {
	return &Locator{storage: storage}
}

func (l *Locator) Storage() *Storage {
	return l.storage
}

// Open acquires a stream for o. The caller owns the stream and must close it.
// Resolution failures wrap core.ErrNotFound; an origin without a known kind
// fails with core.ErrUnsupportedOrigin.
func (l *Locator) Open(o Origin) (io.ReadCloser, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	switch o.Kind() {
	case OriginStorage:
		p, _ := o.StoragePath()
		if l.storage == nil {
			return nil, fmt.Errorf("%w: no storage root configured for '%s'", core.ErrNotFound, p)
		}
		rc, err = l.storage.Open(p)
	case OriginRaw:
		table, id, _ := o.Raw()
		if table == nil {
			return nil, fmt.Errorf("%w: no resource table for raw resource %d", core.ErrNotFound, id)
		}
		rc, err = table.OpenRawResource(id)
	case OriginAsset:
		container, p, _ := o.Asset()
		if container == nil {
			return nil, fmt.Errorf("%w: no asset container for '%s'", core.ErrNotFound, p)
		}
		rc, err = container.Open(p)
	default:
		return nil, fmt.Errorf("%w: kind %d", core.ErrUnsupportedOrigin, o.Kind())
	}
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			err = fmt.Errorf("%w: %s: %w", core.ErrNotFound, o, err)
		}
		return nil, err
	}
	return rc, nil
}

// FilePath returns the asset or storage path verbatim. Raw resources have no path.
func (l *Locator) FilePath(o Origin) (string, bool) {
	switch o.Kind() {
	case OriginAsset:
		_, p, _ := o.Asset()
		return p, true
	case OriginStorage:
		return o.StoragePath()
	default:
		return "", false
	}
}

// ParentFolder returns the folder holding the origin's file. For bundled
// assets this is the text before the last '/' ("" when there is none). For
// storage it is the directory of the resolved absolute path.
func (l *Locator) ParentFolder(o Origin) (string, bool) {
	switch o.Kind() {
	case OriginAsset:
		_, p, _ := o.Asset()
		lastPos := strings.LastIndex(p, "/")
		if lastPos == -1 {
			return "", true
		}
		return p[:lastPos], true
	case OriginStorage:
		p, _ := o.StoragePath()
		if l.storage != nil {
			p = l.storage.Resolve(p)
		}
		return filepath.Dir(p), true
	default:
		return "", false
	}
}
