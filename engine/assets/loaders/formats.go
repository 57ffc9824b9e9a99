package loaders

import (
	"strings"

	"github.com/spaghettifunk/anima-loader/engine/parser"
	"github.com/spaghettifunk/anima-loader/engine/resources"
)

// FormatForPath picks a mesh format from the extension of a file name.
func FormatForPath(p string) (parser.MeshFormat, bool) {
	switch extension(p) {
	case ".obj":
		return OBJFormat, true
	case ".3ds":
		return Max3DSFormat, true
	default:
		return nil, false
	}
}

// DetermineResourceType maps a file name to the kind of resource it holds.
func DetermineResourceType(p string) resources.ResourceType {
	switch extension(p) {
	case ".obj", ".3ds":
		return resources.ResourceTypeMesh
	case ".mtl":
		return resources.ResourceTypeMaterial
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return resources.ResourceTypeImage
	case ".txt", ".toml":
		return resources.ResourceTypeText
	case ".bin":
		return resources.ResourceTypeBinary
	default:
		return resources.ResourceTypeNone
	}
}

// extension returns the lowercased extension of the file component of p,
// whichever separator it uses.
func extension(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i > -1 {
		p = p[i+1:]
	}
	if dot := strings.LastIndex(p, "."); dot > -1 {
		return strings.ToLower(p[dot:])
	}
	return ""
}
