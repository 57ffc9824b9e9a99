package loaders

import (
	"fmt"

	"github.com/spaghettifunk/anima-loader/engine/core"
	"github.com/spaghettifunk/anima-loader/engine/parser"
	"github.com/spaghettifunk/anima-loader/engine/resources"
)

/** @brief Parameters accepted by MeshResourceLoader. */
type MeshParams struct {
	/** @brief Resource name; defaults to the file stem. */
	Name string
	/** @brief Format override, required for raw resources. */
	Format parser.MeshFormat
	/** @brief Texture manager handed to the mesh loader, may be nil. */
	Textures parser.TextureManager
}

// MeshResourceLoader parses a mesh into a *scene.Object3D resource.
type MeshResourceLoader struct {
	Locator *resources.Locator
	Options []parser.LoaderOption
}

func (ml *MeshResourceLoader) Load(origin resources.Origin, params interface{}) (*resources.Resource, error) {
	var p MeshParams
	switch typed := params.(type) {
	case nil:
	case MeshParams:
		p = typed
	case *MeshParams:
		p = *typed
	default:
		return nil, fmt.Errorf("%w: mesh loader params of type %T", core.ErrFormat, params)
	}

	format := p.Format
	if format == nil {
		path, _ := ml.Locator.FilePath(origin)
		var ok bool
		if format, ok = FormatForPath(path); !ok {
			return nil, fmt.Errorf("%w: no mesh format for '%s'", core.ErrFormat, origin)
		}
	}

	loader := parser.NewMeshLoader(origin, ml.Locator, format, ml.Options...)
	loader.SetTextureManager(p.Textures)
	if _, err := loader.Parse(); err != nil {
		return nil, err
	}
	root := loader.ParsedObject()
	_, vertices, _ := root.Stats()

	name := p.Name
	if name == "" {
		name = resourceName(origin, nil)
	}
	return newResource(ml.Locator, origin, name, uint64(vertices), root), nil
}

func (ml *MeshResourceLoader) Unload(r *resources.Resource) error {
	if r != nil {
		r.Data = nil
		r.DataSize = 0
	}
	return nil
}

// MaterialLoader parses a material library into a *MaterialLibrary resource.
type MaterialLoader struct {
	Locator *resources.Locator
}

func (ml *MaterialLoader) Load(origin resources.Origin, params interface{}) (*resources.Resource, error) {
	mtl := &MTLDecoder{}
	if _, err := parser.NewLoader(origin, ml.Locator, mtl).Parse(); err != nil {
		return nil, err
	}
	return newResource(ml.Locator, origin, resourceName(origin, params), uint64(len(mtl.Library.Materials)), mtl.Library), nil
}

func (ml *MaterialLoader) Unload(*resources.Resource) error {
	return nil
}

// ImageLoader decodes an image into a *scene.Texture resource keyed by the
// normalized file name.
type ImageLoader struct {
	Locator *resources.Locator
}

func (il *ImageLoader) Load(origin resources.Origin, params interface{}) (*resources.Resource, error) {
	name := resourceName(origin, params)
	key := name
	if path, ok := il.Locator.FilePath(origin); ok && params == nil {
		key = parser.BaseName(path)
	}
	dec := &TextureDecoder{Key: key}
	if _, err := parser.NewLoader(origin, il.Locator, dec).Parse(); err != nil {
		return nil, err
	}
	size := uint64(dec.Texture.Width) * uint64(dec.Texture.Height) * 4
	return newResource(il.Locator, origin, name, size, dec.Texture), nil
}

func (il *ImageLoader) Unload(r *resources.Resource) error {
	if r != nil {
		r.Data = nil
	}
	return nil
}
