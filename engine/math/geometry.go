package math

import gomath "math"

// GenerateNormals computes one normal per vertex by summing the face normals
// of every triangle sharing it. Faces are weighted by their area.
func GenerateNormals(vertices []Vec3, indices []uint32) []Vec3 {
	normals := make([]Vec3, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		i0 := indices[i+0]
		i1 := indices[i+1]
		i2 := indices[i+2]

		edge1 := vertices[i1].Sub(vertices[i0])
		edge2 := vertices[i2].Sub(vertices[i0])
		c := edge1.Cross(edge2)

		normals[i0] = normals[i0].Add(c)
		normals[i1] = normals[i1].Add(c)
		normals[i2] = normals[i2].Add(c)
	}
	for i := range normals {
		normals[i] = normals[i].Normalized()
	}
	return normals
}

// DeduplicateVertices merges positions closer than tolerance and rewrites the
// indices to point at the surviving vertex. Survivors keep their first
// occurrence order.
func DeduplicateVertices(vertices []Vec3, indices []uint32, tolerance float32) ([]Vec3, []uint32) {
	unique := make([]Vec3, 0, len(vertices))
	remap := make([]uint32, len(vertices))
	grid := make(map[[3]int64][]uint32)
	for i, v := range vertices {
		c := cellOf(v, tolerance)
		idx, found := lookupCell(grid, unique, c, v, tolerance)
		if !found {
			idx = uint32(len(unique))
			unique = append(unique, v)
			grid[c] = append(grid[c], idx)
		}
		remap[i] = idx
	}
	out := make([]uint32, len(indices))
	for i, idx := range indices {
		out[i] = remap[idx]
	}
	return unique, out
}

func cellOf(v Vec3, tolerance float32) [3]int64 {
	if tolerance <= 0 {
		tolerance = 1e-6
	}
	size := float64(tolerance)
	return [3]int64{
		int64(gomath.Floor(float64(v.X) / size)),
		int64(gomath.Floor(float64(v.Y) / size)),
		int64(gomath.Floor(float64(v.Z) / size)),
	}
}

// lookupCell searches c and its 26 neighbours for a vertex matching v.
func lookupCell(grid map[[3]int64][]uint32, unique []Vec3, c [3]int64, v Vec3, tolerance float32) (uint32, bool) {
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, idx := range grid[[3]int64{c[0] + dx, c[1] + dy, c[2] + dz}] {
					if v.Compare(unique[idx], tolerance) {
						return idx, true
					}
				}
			}
		}
	}
	return 0, false
}
