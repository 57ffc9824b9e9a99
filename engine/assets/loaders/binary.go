package loaders

import (
	"errors"
	"io"

	"github.com/spaghettifunk/anima-loader/engine/core"
	"github.com/spaghettifunk/anima-loader/engine/parser"
	"github.com/spaghettifunk/anima-loader/engine/resources"
)

// BinaryLoader reads a resource as little-endian 32 bit words. A trailing
// partial word is dropped.
type BinaryLoader struct {
	Locator *resources.Locator
	Options []parser.LoaderOption
}

func (bl *BinaryLoader) Load(origin resources.Origin, params interface{}) (*resources.Resource, error) {
	var words []uint32
	decoder := parser.DecoderFunc(func(s *parser.Stream) error {
		for {
			w, err := s.ReadUint32()
			if errors.Is(err, core.ErrShortRead) {
				return nil
			}
			if err != nil {
				return err
			}
			words = append(words, w)
		}
	})
	if _, err := parser.NewLoader(origin, bl.Locator, decoder, bl.Options...).Parse(); err != nil {
		return nil, err
	}
	return newResource(bl.Locator, origin, resourceName(origin, params), uint64(len(words)), words), nil
}

func (bl *BinaryLoader) Unload(*resources.Resource) error {
	return nil
}

// TextLoader reads a resource as a string.
type TextLoader struct {
	Locator *resources.Locator
}

func (tl *TextLoader) Load(origin resources.Origin, params interface{}) (*resources.Resource, error) {
	var text string
	decoder := parser.DecoderFunc(func(s *parser.Stream) error {
		b, err := io.ReadAll(s)
		text = string(b)
		return err
	})
	if _, err := parser.NewLoader(origin, tl.Locator, decoder).Parse(); err != nil {
		return nil, err
	}
	return newResource(tl.Locator, origin, resourceName(origin, params), uint64(len(text)), text), nil
}

func (tl *TextLoader) Unload(*resources.Resource) error {
	return nil
}

// newResource fills the bookkeeping fields shared by every loader.
func newResource(locator *resources.Locator, origin resources.Origin, name string, size uint64, data interface{}) *resources.Resource {
	full, _ := locator.FilePath(origin)
	if locator != nil && locator.Storage() != nil && origin.Kind() == resources.OriginStorage {
		full = locator.Storage().Resolve(full)
	}
	return &resources.Resource{
		Name:     name,
		FullPath: full,
		Origin:   origin,
		DataSize: size,
		Data:     data,
	}
}

// resourceName takes the name from params when given as a string or a
// map with a "name" key, else from the origin itself.
func resourceName(origin resources.Origin, params interface{}) string {
	switch p := params.(type) {
	case string:
		if p != "" {
			return p
		}
	case map[string]string:
		if n := p["name"]; n != "" {
			return n
		}
	}
	if p, ok := origin.StoragePath(); ok {
		return parser.StemName(p)
	}
	if _, p, ok := origin.Asset(); ok {
		return parser.StemName(p)
	}
	return origin.String()
}
