package systems

import (
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-loader/engine/core"
	"github.com/spaghettifunk/anima-loader/engine/parser"
	"github.com/spaghettifunk/anima-loader/engine/resources"
)

var _ parser.TextureManager = (*TextureSystem)(nil)

func TestTextureSystem_AcquireRelease(t *testing.T) {
	quietLogs(t)
	locator := memLocator(t, map[string][]byte{
		"/data/t/a.png": pngBytes(t, 2, 3),
		"/data/t/b.png": pngBytes(t, 1, 1),
	})
	ts, err := NewTextureSystem(&TextureSystemConfig{MaxTextureCount: 2}, locator)
	require.NoError(t, err)

	a1, err := ts.Acquire("a.png", resources.RemovableStorage("t/a.png"))
	require.NoError(t, err)
	assert.Equal(t, uint32(2), a1.Width)
	assert.Equal(t, uint32(3), a1.Height)
	assert.Equal(t, "png", a1.Format)

	// A registered key is served from memory, whatever the origin.
	a2, err := ts.Acquire("a.png", resources.RemovableStorage("t/missing.png"))
	require.NoError(t, err)
	assert.Same(t, a1, a2)
	assert.Equal(t, 1, ts.Count())

	_, err = ts.Acquire("b.png", resources.RemovableStorage("t/b.png"))
	require.NoError(t, err)
	_, err = ts.Acquire("c.png", resources.RemovableStorage("t/c.png"))
	assert.Error(t, err, "system is full")

	ts.Release("a.png")
	_, ok := ts.Get("a.png")
	assert.True(t, ok)
	ts.Release("a.png")
	_, ok = ts.Get("a.png")
	assert.False(t, ok)
	ts.Release("a.png")

	_, err = ts.Acquire("missing.png", resources.RemovableStorage("t/missing.png"))
	assert.True(t, errors.Is(err, core.ErrNotFound))
	assert.Equal(t, 1, ts.Count())

	assert.True(t, ts.Evict("b.png"))
	assert.False(t, ts.Evict("b.png"))
	require.NoError(t, ts.Shutdown())
	assert.Equal(t, 0, ts.Count())
}

func TestTextureSystem_EvictKeepsHolderReferences(t *testing.T) {
	quietLogs(t)
	locator := memLocator(t, map[string][]byte{"/data/t.png": pngBytes(t, 1, 1)})
	ts, err := NewTextureSystem(&TextureSystemConfig{MaxTextureCount: 4}, locator)
	require.NoError(t, err)
	origin := resources.RemovableStorage("t.png")

	// Meshes A and B share the texture.
	old, err := ts.Acquire("t.png", origin)
	require.NoError(t, err)
	_, err = ts.Acquire("t.png", origin)
	require.NoError(t, err)

	require.NoError(t, util.WriteFile(locator.Storage().Filesystem(), "/data/t.png", pngBytes(t, 4, 4), 0o644))
	assert.True(t, ts.Evict("t.png"))
	assert.False(t, ts.Evict("t.png"))
	assert.False(t, ts.Evict("nope.png"))

	// A is invalidated and reloaded.
	ts.Release("t.png")
	fresh, err := ts.Acquire("t.png", origin)
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)
	assert.Equal(t, uint32(4), fresh.Width)

	// B unloads; A still holds the reloaded texture.
	ts.Release("t.png")
	got, ok := ts.Get("t.png")
	require.True(t, ok)
	assert.Same(t, fresh, got)
	assert.Equal(t, 1, ts.Count())

	ts.Release("t.png")
	_, ok = ts.Get("t.png")
	assert.False(t, ok)
}

func TestTextureSystem_StaleReloadFailureKeepsEntry(t *testing.T) {
	quietLogs(t)
	locator := memLocator(t, map[string][]byte{"/data/t.png": pngBytes(t, 1, 1)})
	ts, err := NewTextureSystem(&TextureSystemConfig{MaxTextureCount: 1}, locator)
	require.NoError(t, err)

	held, err := ts.Acquire("t.png", resources.RemovableStorage("t.png"))
	require.NoError(t, err)
	require.True(t, ts.Evict("t.png"))

	_, err = ts.Acquire("t.png", resources.RemovableStorage("gone.png"))
	assert.True(t, errors.Is(err, core.ErrNotFound))
	got, ok := ts.Get("t.png")
	require.True(t, ok)
	assert.Same(t, held, got)

	ts.Release("t.png")
	assert.Equal(t, 0, ts.Count())
}

func TestTextureSystem_Default(t *testing.T) {
	quietLogs(t)
	_, err := NewTextureSystem(&TextureSystemConfig{}, nil)
	assert.Error(t, err)

	ts, err := NewTextureSystem(&TextureSystemConfig{MaxTextureCount: 1}, nil)
	require.NoError(t, err)
	def := ts.GetDefaultTexture()
	require.NotNil(t, def)
	assert.Equal(t, uint32(256), def.Width)
	assert.False(t, def.HasTransparency)

	got, err := ts.Acquire(DefaultTextureName, resources.Origin{})
	require.NoError(t, err)
	assert.Same(t, def, got)
	got, ok := ts.Get(DefaultTextureName)
	assert.True(t, ok)
	assert.Same(t, def, got)
	ts.Release(DefaultTextureName)
	assert.Equal(t, 0, ts.Count())
}
