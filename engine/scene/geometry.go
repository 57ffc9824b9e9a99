package scene

import (
	"fmt"

	"github.com/spaghettifunk/anima-loader/engine/math"
)

/**
 * @brief Vertex data of a single mesh. Positions are required; normals and
 * texture coordinates are either empty or have one entry per position.
 */
type Geometry struct {
	/** @brief Vertex positions. */
	Vertices []math.Vec3
	/** @brief Per-vertex normals, optional. */
	Normals []math.Vec3
	/** @brief Per-vertex texture coordinates, optional. */
	TexCoords []math.Vec2
	/** @brief Triangle list indices into the vertex arrays. */
	Indices []uint32
	/** @brief The extents of the geometry in local coordinates. */
	Extents math.Extents3D
	/** @brief The center of the geometry in local coordinates. */
	Center math.Vec3
}

// NewGeometry validates the vertex streams and computes the bounds.
func NewGeometry(vertices, normals []math.Vec3, texCoords []math.Vec2, indices []uint32) (*Geometry, error) {
	if len(normals) != 0 && len(normals) != len(vertices) {
		return nil, fmt.Errorf("geometry has %d normals for %d vertices", len(normals), len(vertices))
	}
	if len(texCoords) != 0 && len(texCoords) != len(vertices) {
		return nil, fmt.Errorf("geometry has %d texture coordinates for %d vertices", len(texCoords), len(vertices))
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("geometry index count %d is not a multiple of 3", len(indices))
	}
	for _, idx := range indices {
		if int(idx) >= len(vertices) {
			return nil, fmt.Errorf("geometry index %d out of range (vertices=%d)", idx, len(vertices))
		}
	}
	extents := math.ExtentsOf(vertices)
	return &Geometry{
		Vertices:  vertices,
		Normals:   normals,
		TexCoords: texCoords,
		Indices:   indices,
		Extents:   extents,
		Center:    extents.Center(),
	}, nil
}

func (g *Geometry) VertexCount() int {
	return len(g.Vertices)
}

func (g *Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}
