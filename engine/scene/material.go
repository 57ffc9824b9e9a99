package scene

import "github.com/spaghettifunk/anima-loader/engine/math"

/** @brief The name of the default material. */
const DefaultMaterialName string = "default"

/**
 * @brief Material definition as read from a model or material library file,
 * before any texture is acquired.
 */
type MaterialDef struct {
	Name                string
	AmbientColour       math.Vec4
	DiffuseColour       math.Vec4
	SpecularColour      math.Vec4
	SpecularCoefficient float32
	Alpha               float32
	/** @brief Texture file names, exactly as referenced by the source file. */
	AmbientTexture           string
	DiffuseTexture           string
	SpecularColourTexture    string
	SpecularHighlightTexture string
	AlphaTexture             string
	BumpTexture              string
}

func NewMaterialDef(name string) *MaterialDef {
	return &MaterialDef{
		Name:          name,
		DiffuseColour: math.Vec4{X: 1, Y: 1, Z: 1, W: 1},
		Alpha:         1,
	}
}

// TextureNames returns the non-empty texture file names of the definition.
func (d *MaterialDef) TextureNames() []string {
	var names []string
	for _, n := range []string{
		d.AmbientTexture,
		d.DiffuseTexture,
		d.SpecularColourTexture,
		d.SpecularHighlightTexture,
		d.AlphaTexture,
		d.BumpTexture,
	} {
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}

/**
 * @brief A material bound to a node: its definition plus the textures that
 * could be acquired for it. Missing textures stay nil.
 */
type Material struct {
	Def         *MaterialDef
	DiffuseMap  *Texture
	SpecularMap *Texture
	AlphaMap    *Texture
	BumpMap     *Texture
}

func (m *Material) Name() string {
	if m == nil || m.Def == nil {
		return DefaultMaterialName
	}
	return m.Def.Name
}
