package loaders

import (
	"bytes"
	"errors"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-loader/engine/core"
	"github.com/spaghettifunk/anima-loader/engine/resources"
	"github.com/spaghettifunk/anima-loader/engine/scene"
)

func TestFormatForPath(t *testing.T) {
	for _, p := range []string{"a.obj", "DIR\\A.OBJ", "x/y.3ds", "Some Dir/chair.3DS"} {
		_, ok := FormatForPath(p)
		assert.True(t, ok, p)
	}
	for _, p := range []string{"a.fbx", "obj", "dir.obj/file", ""} {
		_, ok := FormatForPath(p)
		assert.False(t, ok, p)
	}
}

func TestDetermineResourceType(t *testing.T) {
	cases := map[string]resources.ResourceType{
		"m/chair.obj":  resources.ResourceTypeMesh,
		"m/chair.3ds":  resources.ResourceTypeMesh,
		"m/chair.mtl":  resources.ResourceTypeMaterial,
		"t/brick.PNG":  resources.ResourceTypeImage,
		"t/brick.webp": resources.ResourceTypeImage,
		"notes.txt":    resources.ResourceTypeText,
		"blob.bin":     resources.ResourceTypeBinary,
		"shader.glsl":  resources.ResourceTypeNone,
		"no_extension": resources.ResourceTypeNone,
	}
	for p, want := range cases {
		assert.Equal(t, want, DetermineResourceType(p), p)
	}
}

func TestBinaryLoader(t *testing.T) {
	locator := newStorageLocator(t, map[string][]byte{
		"/data/blob.bin": {1, 0, 0, 0, 2, 0, 0, 0, 9},
	})
	bl := &BinaryLoader{Locator: locator}

	res, err := bl.Load(resources.RemovableStorage("blob.bin"), map[string]string{"name": "words"})
	require.NoError(t, err)
	assert.Equal(t, "words", res.Name)
	assert.Equal(t, "/data/blob.bin", res.FullPath)
	assert.Equal(t, []uint32{1, 2}, res.Data)
	assert.Equal(t, uint64(2), res.DataSize)
	assert.NoError(t, bl.Unload(res))
}

func TestTextLoader(t *testing.T) {
	locator := newStorageLocator(t, map[string][]byte{"/data/readme.txt": []byte("hello")})
	res, err := (&TextLoader{Locator: locator}).Load(resources.RemovableStorage("readme.txt"), nil)
	require.NoError(t, err)
	assert.Equal(t, "readme", res.Name)
	assert.Equal(t, "hello", res.Data)
}

func TestMeshResourceLoader(t *testing.T) {
	quietLogs(t)
	tri := []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")
	locator := newStorageLocator(t, map[string][]byte{
		"/data/m/tri.obj": tri,
		"/data/m/tri.fbx": tri,
		"/data/raw/tri.o": tri,
	})
	ml := &MeshResourceLoader{Locator: locator}

	res, err := ml.Load(resources.RemovableStorage("m/tri.obj"), nil)
	require.NoError(t, err)
	assert.Equal(t, "tri", res.Name)
	assert.Equal(t, uint64(3), res.DataSize)
	root, ok := res.Data.(*scene.Object3D)
	require.True(t, ok)
	assert.Equal(t, 1, root.NumChildren())
	require.NoError(t, ml.Unload(res))
	assert.Nil(t, res.Data)

	_, err = ml.Load(resources.RemovableStorage("m/tri.fbx"), nil)
	assert.True(t, errors.Is(err, core.ErrFormat))

	_, err = ml.Load(resources.RemovableStorage("m/tri.obj"), 42)
	assert.True(t, errors.Is(err, core.ErrFormat))

	_, err = ml.Load(resources.RemovableStorage("m/missing.obj"), nil)
	assert.True(t, errors.Is(err, core.ErrNotFound))

	table, err := resources.NewManifestTable(locator.Storage().Filesystem(), []resources.ManifestEntry{
		{ID: 5, Name: "tri", Path: "/data/raw/tri.o"},
	})
	require.NoError(t, err)
	_, err = ml.Load(resources.RawResource(table, 5), nil)
	assert.True(t, errors.Is(err, core.ErrFormat))

	res, err = ml.Load(resources.RawResource(table, 5), &MeshParams{Name: "raw-tri", Format: OBJFormat})
	require.NoError(t, err)
	assert.Equal(t, "raw-tri", res.Name)
	assert.Equal(t, "", res.FullPath)
}

func TestMaterialAndImageLoaders(t *testing.T) {
	img := encoded(t, func(b *bytes.Buffer) error { return png.Encode(b, testImage(255)) })
	locator := newStorageLocator(t, map[string][]byte{
		"/data/m/lib.mtl":       []byte("newmtl a\nnewmtl b\n"),
		"/data/t/Red Brick.PNG": img,
	})
	res, err := (&MaterialLoader{Locator: locator}).Load(resources.RemovableStorage("m/lib.mtl"), nil)
	require.NoError(t, err)
	lib, ok := res.Data.(*MaterialLibrary)
	require.True(t, ok)
	assert.Len(t, lib.Materials, 2)
	assert.Equal(t, uint64(2), res.DataSize)

	il := &ImageLoader{Locator: locator}
	res, err = il.Load(resources.RemovableStorage("t/Red Brick.PNG"), nil)
	require.NoError(t, err)
	tex, ok := res.Data.(*scene.Texture)
	require.True(t, ok)
	assert.Equal(t, "red_brick.png", tex.Name)
	assert.Equal(t, "red_brick", res.Name)
	assert.Equal(t, uint64(4*2*4), res.DataSize)
	require.NoError(t, il.Unload(res))
}
