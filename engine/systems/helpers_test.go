package systems

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-loader/engine/core"
	"github.com/spaghettifunk/anima-loader/engine/resources"
)

const texturedOBJ = `mtllib tri.mtl
o face
v 0 0 0
v 1 0 0
v 0 1 0
usemtl brick
f 1 2 3
`

const brickMTL = `newmtl brick
Kd 0.8 0.3 0.2
map_Kd Brick.png
map_Bump brick bump.png
`

func quietLogs(t *testing.T) {
	t.Helper()
	core.SetLogOutput(io.Discard)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetRGBA(0, 0, color.RGBA{R: 1, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func memLocator(t *testing.T, files map[string][]byte) *resources.Locator {
	t.Helper()
	fs := memfs.New()
	for name, data := range files {
		require.NoError(t, util.WriteFile(fs, name, data, 0o644))
	}
	storage, err := resources.NewStorage("/data", resources.WithFilesystem(fs))
	require.NoError(t, err)
	return resources.NewLocator(storage)
}

func meshFiles(t *testing.T) map[string][]byte {
	return map[string][]byte{
		"/data/models/tri.obj":        []byte(texturedOBJ),
		"/data/models/tri.mtl":        []byte(brickMTL),
		"/data/models/Brick.png":      pngBytes(t, 2, 2),
		"/data/models/brick bump.png": pngBytes(t, 4, 4),
	}
}

func writeTree(t *testing.T, root string, files map[string][]byte) {
	t.Helper()
	for name, data := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, data, 0o644))
	}
}
