package loaders

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/anima-loader/engine/core"
	"github.com/spaghettifunk/anima-loader/engine/parser"
	"github.com/spaghettifunk/anima-loader/engine/scene"
)

// TextureDecoder decodes png, jpeg, gif, bmp, tiff and webp images into a
// texture named Key.
type TextureDecoder struct {
	Key     string
	Texture *scene.Texture
}

func (d *TextureDecoder) Decode(s *parser.Stream) error {
	img, format, err := image.Decode(s)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return fmt.Errorf("%w: %w", core.ErrFormat, err)
		}
		return err
	}
	d.Texture = scene.NewTexture(d.Key, format, img)
	return nil
}

// ImageConfigDecoder reads only the header of an image.
type ImageConfigDecoder struct {
	Config image.Config
	Format string
}

func (d *ImageConfigDecoder) Decode(s *parser.Stream) error {
	cfg, format, err := image.DecodeConfig(s)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return fmt.Errorf("%w: %w", core.ErrFormat, err)
		}
		return err
	}
	d.Config = cfg
	d.Format = format
	return nil
}
