package resources

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/anima-loader/engine/core"
)

// ResourceTable opens raw resources by numeric id.
type ResourceTable interface {
	OpenRawResource(id int) (io.ReadCloser, error)
}

// ResourceNamer is implemented by tables that can look a resource id up by
// its name. Mesh loaders use it to find files referenced by raw meshes.
type ResourceNamer interface {
	Identifier(name string) (int, bool)
}

/** @brief A single raw resource of a manifest. */
type ManifestEntry struct {
	/** @brief Numeric resource identifier. */
	ID int `toml:"id"`
	/** @brief Lookup name, usually the file stem. */
	Name string `toml:"name"`
	/** @brief Path of the backing file inside the table filesystem. */
	Path string `toml:"path"`
}

type manifestFile struct {
	Resources []ManifestEntry `toml:"resource"`
}

// ManifestTable is a ResourceTable described by a TOML manifest:
//
//	[[resource]]
//	id = 2131099648
//	name = "chair"
//	path = "raw/chair.3ds"
type ManifestTable struct {
	fs     billy.Filesystem
	byID   map[int]ManifestEntry
	byName map[string]int
}

func NewManifestTable(fs billy.Filesystem, entries []ManifestEntry) (*ManifestTable, error) {
	t := &ManifestTable{
		fs:     fs,
		byID:   make(map[int]ManifestEntry, len(entries)),
		byName: make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if e.Path == "" {
			return nil, fmt.Errorf("raw resource %d has no path", e.ID)
		}
		if _, exists := t.byID[e.ID]; exists {
			return nil, fmt.Errorf("raw resource id %d declared twice", e.ID)
		}
		t.byID[e.ID] = e
		if e.Name != "" {
			t.byName[strings.ToLower(e.Name)] = e.ID
		}
	}
	return t, nil
}

// LoadManifest reads a manifest from fs. Entry paths are relative to the
// manifest directory.
func LoadManifest(fs billy.Filesystem, manifestPath string) (*ManifestTable, error) {
	f, err := fs.Open(manifestPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var mf manifestFile
	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&mf); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", manifestPath, err)
	}
	dir := path.Dir(toSlash(manifestPath))
	for i := range mf.Resources {
		if p := mf.Resources[i].Path; p != "" && !path.IsAbs(p) {
			mf.Resources[i].Path = path.Join(dir, p)
		}
	}
	return NewManifestTable(fs, mf.Resources)
}

func (t *ManifestTable) OpenRawResource(id int) (io.ReadCloser, error) {
	e, ok := t.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: raw resource id %d", core.ErrNotFound, id)
	}
	f, err := t.fs.Open(e.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: raw resource %d (%s): %w", core.ErrNotFound, id, e.Path, err)
	}
	return f, nil
}

// Entry returns the manifest entry declared for id.
func (t *ManifestTable) Entry(id int) (ManifestEntry, bool) {
	e, ok := t.byID[id]
	return e, ok
}

func (t *ManifestTable) Identifier(name string) (int, bool) {
	id, ok := t.byName[strings.ToLower(name)]
	return id, ok
}

// Entries returns the manifest entries ordered by id.
func (t *ManifestTable) Entries() []ManifestEntry {
	out := make([]ManifestEntry, 0, len(t.byID))
	for _, e := range t.byID {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b ManifestEntry) int {
		return a.ID - b.ID
	})
	return out
}
