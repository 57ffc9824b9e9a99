package scene

import (
	"image"

	"github.com/google/uuid"
)

/**
 * @brief A decoded texture image.
 */
type Texture struct {
	/** @brief The unique texture identifier. */
	ID uuid.UUID
	/** @brief The normalized lookup key of the texture. */
	Name string
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	/** @brief The decoded image format, e.g. png. */
	Format string
	/** @brief Indicates if the texture has transparency. */
	HasTransparency bool
	Image           image.Image
}

func NewTexture(name, format string, img image.Image) *Texture {
	b := img.Bounds()
	return &Texture{
		ID:              uuid.New(),
		Name:            name,
		Width:           uint32(b.Dx()),
		Height:          uint32(b.Dy()),
		Format:          format,
		HasTransparency: !opaque(img),
		Image:           img,
	}
}

func opaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return true
}
