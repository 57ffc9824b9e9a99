package systems

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/spaghettifunk/anima-loader/engine/assets/loaders"
	"github.com/spaghettifunk/anima-loader/engine/core"
	"github.com/spaghettifunk/anima-loader/engine/parser"
	"github.com/spaghettifunk/anima-loader/engine/resources"
	"github.com/spaghettifunk/anima-loader/engine/scene"
)

/** @brief The name of the generated fallback texture. */
const DefaultTextureName string = "default"

type TextureSystemConfig struct {
	/** @brief The maximum number of textures that can be loaded at once. */
	MaxTextureCount uint32
}

type textureReference struct {
	texture        *scene.Texture
	referenceCount uint64
	/** @brief Set by Evict; the next Acquire reloads the image. */
	stale bool
}

// TextureSystem loads textures on first Acquire and shares them by key until
// the last reference is released. It serves as the parser's TextureManager.
type TextureSystem struct {
	Config         *TextureSystemConfig
	DefaultTexture *scene.Texture

	locator *resources.Locator
	opts    []parser.LoaderOption

	mu sync.Mutex
	// Hashtable for texture lookups.
	registeredTextureTable map[string]*textureReference
}

func NewTextureSystem(config *TextureSystemConfig, locator *resources.Locator, opts ...parser.LoaderOption) (*TextureSystem, error) {
	if config.MaxTextureCount == 0 {
		err := fmt.Errorf("func NewTextureSystem - config.MaxTextureCount must be > 0")
		core.LogError("%s", err)
		return nil, err
	}

	return &TextureSystem{
		Config:                 config,
		DefaultTexture:         createDefaultTexture(),
		locator:                locator,
		opts:                   opts,
		registeredTextureTable: make(map[string]*textureReference),
	}, nil
}

func (ts *TextureSystem) Shutdown() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.registeredTextureTable = make(map[string]*textureReference)
	return nil
}

// Acquire returns the texture registered under key, loading it from origin
// when it is not registered yet, and takes a reference on it.
func (ts *TextureSystem) Acquire(key string, origin resources.Origin) (*scene.Texture, error) {
	// Return default texture, but warn about it since this should be returned via GetDefaultTexture();
	if key == DefaultTextureName {
		core.LogWarn("func texture system Acquire called for default texture. Use GetDefaultTexture for texture 'default'")
		return ts.DefaultTexture, nil
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	ref, ok := ts.registeredTextureTable[key]
	if ok && !ref.stale {
		ref.referenceCount++
		return ref.texture, nil
	}
	if !ok && uint32(len(ts.registeredTextureTable)) >= ts.Config.MaxTextureCount {
		return nil, fmt.Errorf("texture system is full (max %d), cannot load '%s'", ts.Config.MaxTextureCount, key)
	}

	dec := &loaders.TextureDecoder{Key: key}
	if _, err := parser.NewLoader(origin, ts.locator, dec, ts.opts...).Parse(); err != nil {
		return nil, err
	}
	if ok {
		// Earlier holders keep their image and still count.
		ref.texture = dec.Texture
		ref.stale = false
		ref.referenceCount++
	} else {
		ts.registeredTextureTable[key] = &textureReference{texture: dec.Texture, referenceCount: 1}
	}
	core.LogDebug("texture '%s' loaded (%dx%d %s)", key, dec.Texture.Width, dec.Texture.Height, dec.Texture.Format)
	return dec.Texture, nil
}

// Get returns a registered texture without taking a reference.
func (ts *TextureSystem) Get(key string) (*scene.Texture, bool) {
	if key == DefaultTextureName {
		return ts.DefaultTexture, true
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ref, ok := ts.registeredTextureTable[key]
	if !ok {
		return nil, false
	}
	return ref.texture, true
}

// Release drops one reference. The texture is unloaded with the last one.
func (ts *TextureSystem) Release(key string) {
	// Ignore release requests for the default texture.
	if key == DefaultTextureName {
		return
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ref, ok := ts.registeredTextureTable[key]
	if !ok {
		core.LogWarn("texture system release called for unknown texture '%s'", key)
		return
	}
	ref.referenceCount--
	if ref.referenceCount == 0 {
		delete(ts.registeredTextureTable, key)
		core.LogDebug("texture '%s' released", key)
	}
}

// Evict marks a texture stale so the next Acquire reloads it. References
// taken before the eviction stay counted and are released as usual. It
// reports false for unknown or already stale keys.
func (ts *TextureSystem) Evict(key string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ref, ok := ts.registeredTextureTable[key]
	if !ok || ref.stale {
		return false
	}
	ref.stale = true
	return true
}

func (ts *TextureSystem) Count() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.registeredTextureTable)
}

func (ts *TextureSystem) GetDefaultTexture() *scene.Texture {
	return ts.DefaultTexture
}

// createDefaultTexture builds a 256x256 blue/white checkerboard, done in code
// to avoid any asset dependency.
func createDefaultTexture() *scene.Texture {
	const texDimension = 256
	img := image.NewRGBA(image.Rect(0, 0, texDimension, texDimension))
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	for row := 0; row < texDimension; row++ {
		for col := 0; col < texDimension; col++ {
			if (row%2 == 0) == (col%2 == 0) {
				img.SetRGBA(col, row, blue)
			} else {
				img.SetRGBA(col, row, white)
			}
		}
	}
	return scene.NewTexture(DefaultTextureName, "generated", img)
}
