package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/spaghettifunk/anima-loader/engine/core"
	"github.com/spaghettifunk/anima-loader/engine/resources"
	"github.com/spaghettifunk/anima-loader/engine/scene"
)

// TextureManager hands out textures keyed by their normalized name.
type TextureManager interface {
	Acquire(key string, origin resources.Origin) (*scene.Texture, error)
}

// MeshDecoder is a Decoder that produces a scene graph.
type MeshDecoder interface {
	Decoder
	Root() *scene.Object3D
}

// MeshFormat creates a fresh decoder for each parse of a mesh.
type MeshFormat func(mc *MeshContext) MeshDecoder

// MeshContext is what a mesh decoder knows about the file being parsed.
type MeshContext struct {
	Origin   resources.Origin
	Locator  *resources.Locator
	Textures TextureManager

	loader *Loader
	opts   []LoaderOption
}

// Sibling resolves a file referenced by the mesh (a material library, a
// texture) to an origin of the same kind. Storage and asset references are
// looked up next to the mesh; raw references go through the table's
// ResourceNamer using the stem of the name.
func (mc *MeshContext) Sibling(name string) (resources.Origin, error) {
	file := fileComponent(name)
	if file == "" {
		return resources.Origin{}, fmt.Errorf("%w: empty file reference '%s'", core.ErrNotFound, name)
	}

	switch mc.Origin.Kind() {
	case resources.OriginStorage:
		p, _ := mc.Origin.StoragePath()
		return resources.RemovableStorage(filepath.Join(filepath.Dir(p), file)), nil
	case resources.OriginAsset:
		container, _, _ := mc.Origin.Asset()
		parent, _ := mc.Locator.ParentFolder(mc.Origin)
		if parent == "" {
			return resources.BundledAsset(container, file), nil
		}
		return resources.BundledAsset(container, parent+"/"+file), nil
	case resources.OriginRaw:
		table, _, _ := mc.Origin.Raw()
		namer, ok := table.(resources.ResourceNamer)
		if !ok {
			return resources.Origin{}, fmt.Errorf("%w: resource table cannot resolve '%s' by name", core.ErrNotFound, name)
		}
		id, ok := namer.Identifier(StemName(name))
		if !ok {
			return resources.Origin{}, fmt.Errorf("%w: no raw resource named '%s'", core.ErrNotFound, StemName(name))
		}
		return resources.RawResource(table, id), nil
	default:
		return resources.Origin{}, fmt.Errorf("%w: kind %d", core.ErrUnsupportedOrigin, mc.Origin.Kind())
	}
}

// LoadTexture acquires the texture referenced by name. Failures are logged
// and give nil so that a missing texture never fails the mesh.
func (mc *MeshContext) LoadTexture(name string) *scene.Texture {
	if mc.Textures == nil || name == "" {
		return nil
	}
	logger := mc.logger()
	origin, err := mc.Sibling(name)
	if err != nil {
		logger.Warn("texture not resolved", "texture", name, "err", err)
		return nil
	}
	tex, err := mc.Textures.Acquire(BaseName(name), origin)
	if err != nil {
		logger.Warn("texture not loaded", "texture", name, "err", err)
		return nil
	}
	return tex
}

func (mc *MeshContext) logger() *log.Logger {
	if mc.loader == nil {
		return core.LogWith("origin", mc.Origin.String())
	}
	return mc.loader.sessionLogger()
}

// NewLoader creates a loader sharing the options of the mesh loader, for
// files parsed on the side such as material libraries.
func (mc *MeshContext) NewLoader(origin resources.Origin, decoder Decoder) *Loader {
	return NewLoader(origin, mc.Locator, decoder, mc.opts...)
}

// MeshLoader parses a mesh file into a scene graph. A new decoder is built
// for every Parse, so repeated parses never share decoder state.
type MeshLoader struct {
	*Loader

	ctx     *MeshContext
	format  MeshFormat
	decoder MeshDecoder
	root    *scene.Object3D
}

func NewMeshLoader(origin resources.Origin, locator *resources.Locator, format MeshFormat, opts ...LoaderOption) *MeshLoader {
	l := NewLoader(origin, locator, nil, opts...)
	return &MeshLoader{
		Loader: l,
		format: format,
		ctx: &MeshContext{
			Origin:  origin,
			Locator: locator,
			loader:  l,
			opts:    opts,
		},
	}
}

func (ml *MeshLoader) SetTextureManager(tm TextureManager) {
	ml.ctx.Textures = tm
}

func (ml *MeshLoader) TextureManager() TextureManager {
	return ml.ctx.Textures
}

// Parse decodes the mesh. ParsedObject holds the result once it succeeds.
func (ml *MeshLoader) Parse() (*MeshLoader, error) {
	if ml.format == nil {
		ml.Loader.decoder = nil
	} else {
		ml.decoder = ml.format(ml.ctx)
		ml.Loader.decoder = ml.decoder
	}
	if _, err := ml.Loader.Parse(); err != nil {
		return nil, err
	}
	ml.root = ml.decoder.Root()
	if ml.root == nil {
		ml.root = scene.NewObject3D("")
	}
	return ml, nil
}

// ParsedObject returns the root of the last successful parse, or nil.
func (ml *MeshLoader) ParsedObject() *scene.Object3D {
	return ml.root
}

// fileComponent strips any directory part written with either separator.
func fileComponent(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, "\\"); i > -1 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "/"); i > -1 {
		name = name[i+1:]
	}
	return name
}
