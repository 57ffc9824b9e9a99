package loaders

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-loader/engine/core"
	"github.com/spaghettifunk/anima-loader/engine/resources"
	"github.com/spaghettifunk/anima-loader/engine/scene"
)

func newStorageLocator(t *testing.T, files map[string][]byte) *resources.Locator {
	t.Helper()
	fs := memfs.New()
	for name, data := range files {
		require.NoError(t, util.WriteFile(fs, name, data, 0o644))
	}
	storage, err := resources.NewStorage("/data", resources.WithFilesystem(fs))
	require.NoError(t, err)
	return resources.NewLocator(storage)
}

func quietLogs(t *testing.T) {
	t.Helper()
	core.SetLogOutput(io.Discard)
}

type recordingTextures struct {
	keys  []string
	paths []string
}

func (r *recordingTextures) Acquire(key string, origin resources.Origin) (*scene.Texture, error) {
	r.keys = append(r.keys, key)
	p, _ := origin.StoragePath()
	r.paths = append(r.paths, p)
	return &scene.Texture{Name: key}, nil
}

// chunk builds 3DS test fixtures.
type chunk struct {
	id       uint16
	body     []byte
	children []chunk
}

func (c chunk) bytes() []byte {
	var payload bytes.Buffer
	payload.Write(c.body)
	for _, child := range c.children {
		payload.Write(child.bytes())
	}
	var out bytes.Buffer
	_ = binary.Write(&out, binary.LittleEndian, c.id)
	_ = binary.Write(&out, binary.LittleEndian, uint32(6+payload.Len()))
	out.Write(payload.Bytes())
	return out.Bytes()
}

func f32s(values ...float32) []byte {
	out := make([]byte, 0, len(values)*4)
	for _, v := range values {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}

func u16s(values ...uint16) []byte {
	out := make([]byte, 0, len(values)*2)
	for _, v := range values {
		out = binary.LittleEndian.AppendUint16(out, v)
	}
	return out
}

func cstr(s string) []byte {
	return append([]byte(s), 0)
}

func join(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}
