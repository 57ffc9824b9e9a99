package resources

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/fstest"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-loader/engine/core"
)

var fixture = []byte{0x4d, 0x4d, 0x10, 0x00}

func newMemFS(t *testing.T, files map[string][]byte) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for name, data := range files {
		require.NoError(t, util.WriteFile(fs, name, data, 0o644))
	}
	return fs
}

func newZip(t *testing.T, files map[string][]byte) *ZipContainer {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	c, err := NewZipContainer(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return c
}

func readAll(t *testing.T, rc io.ReadCloser) []byte {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

func newTestLocator(t *testing.T) (*Locator, billy.Filesystem) {
	t.Helper()
	fs := newMemFS(t, map[string][]byte{
		"/sdcard/models/chair.3ds": fixture,
		"/opt/abs.3ds":             fixture,
		"/res/raw/chair.3ds":       fixture,
	})
	storage, err := NewStorage("/sdcard", WithFilesystem(fs))
	require.NoError(t, err)
	return NewLocator(storage), fs
}

func TestOrigin_Variants(t *testing.T) {
	table, err := NewManifestTable(memfs.New(), nil)
	require.NoError(t, err)
	container := NewFSContainer(fstest.MapFS{})

	raw := RawResource(table, 7)
	assert.Equal(t, OriginRaw, raw.Kind())
	gotTable, id, ok := raw.Raw()
	assert.True(t, ok)
	assert.Equal(t, 7, id)
	assert.Same(t, table, gotTable)
	_, ok = raw.StoragePath()
	assert.False(t, ok)
	assert.Equal(t, "raw:7", raw.String())

	st := RemovableStorage("models/chair.3ds")
	p, ok := st.StoragePath()
	assert.True(t, ok)
	assert.Equal(t, "models/chair.3ds", p)
	_, _, ok = st.Asset()
	assert.False(t, ok)
	assert.Equal(t, "storage:models/chair.3ds", st.String())

	as := BundledAsset(container, "models/chair.obj")
	_, p, ok = as.Asset()
	assert.True(t, ok)
	assert.Equal(t, "models/chair.obj", p)
	_, _, ok = as.Raw()
	assert.False(t, ok)

	var zero Origin
	assert.Equal(t, OriginUnknown, zero.Kind())
	assert.Equal(t, "unknown", zero.String())
}

func TestLocator_OpenAllOrigins(t *testing.T) {
	loc, fs := newTestLocator(t)
	table, err := NewManifestTable(fs, []ManifestEntry{{ID: 0x7f010000, Name: "chair", Path: "/res/raw/chair.3ds"}})
	require.NoError(t, err)
	bundle := newZip(t, map[string][]byte{"models/chair.3ds": fixture})

	tests := []struct {
		name   string
		origin Origin
	}{
		{"storage relative", RemovableStorage("models/chair.3ds")},
		{"storage absolute", RemovableStorage("/opt/abs.3ds")},
		{"raw", RawResource(table, 0x7f010000)},
		{"asset zip", BundledAsset(bundle, "models/chair.3ds")},
		{"asset fs", BundledAsset(NewFSContainer(fstest.MapFS{"models/chair.3ds": {Data: fixture}}), "models/chair.3ds")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := loc.Open(tt.origin)
			require.NoError(t, err)
			assert.Equal(t, fixture, readAll(t, rc))
		})
	}
}

func TestLocator_OpenNotFound(t *testing.T) {
	loc, fs := newTestLocator(t)
	table, err := NewManifestTable(fs, []ManifestEntry{{ID: 1, Path: "/res/raw/missing.3ds"}})
	require.NoError(t, err)
	bundle := newZip(t, map[string][]byte{"models/chair.3ds": fixture})

	tests := []struct {
		name   string
		origin Origin
	}{
		{"storage missing", RemovableStorage("models/table.3ds")},
		{"storage directory", RemovableStorage("models")},
		{"raw unknown id", RawResource(table, 99)},
		{"raw missing file", RawResource(table, 1)},
		{"raw nil table", RawResource(nil, 1)},
		{"asset missing", BundledAsset(bundle, "models/table.3ds")},
		{"asset nil container", BundledAsset(nil, "models/table.3ds")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loc.Open(tt.origin)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
		})
	}
}

type failingTable struct{}

func (failingTable) OpenRawResource(id int) (io.ReadCloser, error) {
	return nil, errors.New("resources not available")
}

func TestLocator_ForeignErrorsBecomeNotFound(t *testing.T) {
	loc, _ := newTestLocator(t)
	_, err := loc.Open(RawResource(failingTable{}, 3))
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestLocator_UnsupportedOrigin(t *testing.T) {
	loc, _ := newTestLocator(t)
	_, err := loc.Open(Origin{})
	assert.True(t, errors.Is(err, core.ErrUnsupportedOrigin))
	assert.False(t, errors.Is(err, core.ErrNotFound))
}

func TestLocator_NoStorage(t *testing.T) {
	_, err := NewLocator(nil).Open(RemovableStorage("a.obj"))
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestLocator_FilePath(t *testing.T) {
	loc, _ := newTestLocator(t)

	p, ok := loc.FilePath(BundledAsset(nil, "models/chair.obj"))
	assert.True(t, ok)
	assert.Equal(t, "models/chair.obj", p)

	p, ok = loc.FilePath(RemovableStorage("models/chair.obj"))
	assert.True(t, ok)
	assert.Equal(t, "models/chair.obj", p)

	_, ok = loc.FilePath(RawResource(nil, 1))
	assert.False(t, ok)
}

func TestLocator_ParentFolder(t *testing.T) {
	loc, _ := newTestLocator(t)

	tests := []struct {
		name   string
		origin Origin
		want   string
		ok     bool
	}{
		{"asset nested", BundledAsset(nil, "models/chair.obj"), "models", true},
		{"asset deep", BundledAsset(nil, "a/b/c.obj"), "a/b", true},
		{"asset root", BundledAsset(nil, "chair.obj"), "", true},
		{"storage relative", RemovableStorage("models/chair.obj"), "/sdcard/models", true},
		{"storage absolute", RemovableStorage("/opt/abs.3ds"), "/opt", true},
		{"raw", RawResource(nil, 1), "", false},
		{"unknown", Origin{}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := loc.ParentFolder(tt.origin)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewStorage_RequiresAbsoluteRoot(t *testing.T) {
	_, err := NewStorage("relative/root")
	assert.Error(t, err)

	s, err := NewStorage("/sdcard/")
	require.NoError(t, err)
	assert.Equal(t, "/sdcard", s.Root())
	assert.Equal(t, "/sdcard/a/b.obj", s.Resolve("a/b.obj"))
	assert.Equal(t, "/x/y.obj", s.Resolve("/x/../x/y.obj"))
}

func TestStorage_Exists(t *testing.T) {
	loc, _ := newTestLocator(t)
	assert.True(t, loc.Storage().Exists("models/chair.3ds"))
	assert.False(t, loc.Storage().Exists("models"))
	assert.False(t, loc.Storage().Exists("models/none.3ds"))
}

func TestLoadManifest(t *testing.T) {
	fs := newMemFS(t, map[string][]byte{
		"/res/resources.toml": []byte(`
[[resource]]
id = 2
name = "Chair_Diffuse"
path = "drawable/chair_diffuse.png"

[[resource]]
id = 1
name = "chair"
path = "raw/chair.obj"
`),
		"/res/raw/chair.obj": []byte("v 0 0 0\n"),
	})

	table, err := LoadManifest(fs, "/res/resources.toml")
	require.NoError(t, err)

	entries := table.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].ID)
	assert.Equal(t, "/res/raw/chair.obj", entries[0].Path)

	id, ok := table.Identifier("chair_diffuse")
	assert.True(t, ok)
	assert.Equal(t, 2, id)
	_, ok = table.Identifier("sofa")
	assert.False(t, ok)

	e, ok := table.Entry(2)
	assert.True(t, ok)
	assert.Equal(t, "/res/drawable/chair_diffuse.png", e.Path)
	_, ok = table.Entry(3)
	assert.False(t, ok)

	rc, err := table.OpenRawResource(1)
	require.NoError(t, err)
	assert.Equal(t, "v 0 0 0\n", string(readAll(t, rc)))
}

func TestManifestTable_Invalid(t *testing.T) {
	_, err := NewManifestTable(memfs.New(), []ManifestEntry{{ID: 1, Path: "a"}, {ID: 1, Path: "b"}})
	assert.Error(t, err)
	_, err = NewManifestTable(memfs.New(), []ManifestEntry{{ID: 1}})
	assert.Error(t, err)

	fs := newMemFS(t, map[string][]byte{"/m.toml": []byte("[[resource]]\nid = 1\nfile = \"x\"\n")})
	_, err = LoadManifest(fs, "/m.toml")
	assert.Error(t, err)
}

func TestZipContainer(t *testing.T) {
	fs := memfs.New()
	f, err := fs.Create("/bundle.zip")
	require.NoError(t, err)
	w := zip.NewWriter(f)
	entry, err := w.Create("models/chair.obj")
	require.NoError(t, err)
	_, err = entry.Write([]byte("o chair\n"))
	require.NoError(t, err)
	_, err = w.Create("textures/")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	c, err := OpenZipContainer(fs, "/bundle.zip")
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, []string{"models/chair.obj"}, c.Names())

	rc, err := c.Open("/models/chair.obj")
	require.NoError(t, err)
	assert.Equal(t, "o chair\n", string(readAll(t, rc)))

	_, err = c.Open("textures")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	_, err = OpenZipContainer(fs, "/missing.zip")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestBillyContainer(t *testing.T) {
	fs := newMemFS(t, map[string][]byte{"/assets/models/chair.obj": []byte("o chair\n")})
	c, err := NewBillyContainer(fs, "/assets")
	require.NoError(t, err)

	rc, err := c.Open("models/chair.obj")
	require.NoError(t, err)
	assert.Equal(t, "o chair\n", string(readAll(t, rc)))

	_, err = c.Open("models")
	assert.True(t, errors.Is(err, core.ErrNotFound))
	_, err = c.Open("models/sofa.obj")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestFSContainer_Backslashes(t *testing.T) {
	c := NewFSContainer(fstest.MapFS{"models/chair.obj": {Data: []byte("x")}})
	rc, err := c.Open(`models\chair.obj`)
	require.NoError(t, err)
	assert.Equal(t, "x", string(readAll(t, rc)))

	_, err = c.Open("models")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}
