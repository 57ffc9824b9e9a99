package loaders

import (
	"fmt"

	"github.com/spaghettifunk/anima-loader/engine/core"
	"github.com/spaghettifunk/anima-loader/engine/math"
	"github.com/spaghettifunk/anima-loader/engine/parser"
	"github.com/spaghettifunk/anima-loader/engine/scene"
)

/** @brief Autodesk 3DS chunk identifiers understood by the decoder. */
const (
	chunkMain         uint16 = 0x4D4D
	chunkEditor       uint16 = 0x3D3D
	chunkObject       uint16 = 0x4000
	chunkTriMesh      uint16 = 0x4100
	chunkVertices     uint16 = 0x4110
	chunkFaces        uint16 = 0x4120
	chunkFaceMaterial uint16 = 0x4130
	chunkTexCoords    uint16 = 0x4140
	chunkMaterial     uint16 = 0xAFFF
	chunkMatName      uint16 = 0xA000
	chunkMatAmbient   uint16 = 0xA010
	chunkMatDiffuse   uint16 = 0xA020
	chunkMatSpecular  uint16 = 0xA030
	chunkMatTexture   uint16 = 0xA200
	chunkMatMapFile   uint16 = 0xA300
	chunkColourF      uint16 = 0x0010
	chunkColourB      uint16 = 0x0011
)

// chunkHeaderSize is the id plus the length of a chunk.
const chunkHeaderSize = 6

// weldTolerance is the distance under which untextured vertices are merged.
const weldTolerance float32 = 1e-5

// Max3DSFormat builds an Autodesk 3DS decoder for a mesh loader.
func Max3DSFormat(mc *parser.MeshContext) parser.MeshDecoder {
	return &Max3DSDecoder{mc: mc}
}

// Max3DSDecoder reads the editor section of a 3DS file: named triangle
// meshes and their materials. Keyframer data is skipped. 3DS is Z-up; the
// decoder rotates positions to Y-up.
type Max3DSDecoder struct {
	mc        *parser.MeshContext
	s         *parser.Stream
	root      *scene.Object3D
	objects   []*max3dsObject
	materials map[string]*scene.MaterialDef
}

type max3dsObject struct {
	name      string
	vertices  []math.Vec3
	texCoords []math.Vec2
	indices   []uint32
	groups    []max3dsGroup
}

// max3dsGroup lists the faces drawn with one material.
type max3dsGroup struct {
	material string
	faces    []uint16
}

func (d *Max3DSDecoder) Root() *scene.Object3D {
	return d.root
}

func (d *Max3DSDecoder) Decode(s *parser.Stream) error {
	d.s = s
	d.objects = nil
	d.materials = make(map[string]*scene.MaterialDef)

	id, end, err := readChunkHeader(s, -1)
	if err != nil {
		return err
	}
	if id != chunkMain {
		return s.Errorf("not a 3DS file: first chunk is 0x%04X", id)
	}
	err = walkChunks(s, end, func(id uint16, end int64) error {
		if id == chunkEditor {
			return walkChunks(s, end, d.editorChunk)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return d.build()
}

// readChunkHeader reads a chunk id and length and returns the stream offset
// the chunk ends at. A parent end of -1 means unbounded.
func readChunkHeader(s *parser.Stream, parentEnd int64) (uint16, int64, error) {
	start := s.Pos()
	id, err := s.ReadUint16()
	if err != nil {
		return 0, 0, err
	}
	length, err := s.ReadUint32()
	if err != nil {
		return 0, 0, err
	}
	if length < chunkHeaderSize {
		return 0, 0, s.Errorf("chunk 0x%04X has invalid length %d", id, length)
	}
	end := start + int64(length)
	if parentEnd >= 0 && end > parentEnd {
		return 0, 0, s.Errorf("chunk 0x%04X overruns its parent (%d > %d)", id, end, parentEnd)
	}
	return id, end, nil
}

// walkChunks calls fn for every sub-chunk up to end. Whatever fn leaves
// unread of a chunk is skipped.
func walkChunks(s *parser.Stream, end int64, fn func(id uint16, end int64) error) error {
	for s.Pos() < end {
		if end-s.Pos() < chunkHeaderSize {
			return s.Skip(end - s.Pos())
		}
		id, chunkEnd, err := readChunkHeader(s, end)
		if err != nil {
			return err
		}
		if err := fn(id, chunkEnd); err != nil {
			return err
		}
		if s.Pos() > chunkEnd {
			return s.Errorf("chunk 0x%04X read past its end", id)
		}
		if err := s.Skip(chunkEnd - s.Pos()); err != nil {
			return err
		}
	}
	return nil
}

func (d *Max3DSDecoder) editorChunk(id uint16, end int64) error {
	switch id {
	case chunkObject:
		return d.readObject(end)
	case chunkMaterial:
		return d.readMaterial(end)
	}
	return nil
}

func (d *Max3DSDecoder) readObject(end int64) error {
	s := d.s
	name, err := s.ReadCString()
	if err != nil {
		return err
	}
	obj := &max3dsObject{name: name}
	err = walkChunks(s, end, func(id uint16, end int64) error {
		if id != chunkTriMesh {
			return nil
		}
		return walkChunks(s, end, func(id uint16, end int64) error {
			return d.triMeshChunk(obj, id, end)
		})
	})
	if err != nil {
		return err
	}
	if len(obj.indices) > 0 {
		d.objects = append(d.objects, obj)
	}
	return nil
}

func (d *Max3DSDecoder) triMeshChunk(obj *max3dsObject, id uint16, end int64) error {
	s := d.s
	switch id {
	case chunkVertices:
		count, err := s.ReadUint16()
		if err != nil {
			return err
		}
		obj.vertices = make([]math.Vec3, count)
		for i := range obj.vertices {
			var xyz [3]float32
			for j := range xyz {
				if xyz[j], err = s.ReadFloat32(); err != nil {
					return err
				}
			}
			obj.vertices[i] = math.Vec3{X: xyz[0], Y: xyz[2], Z: -xyz[1]}
		}
	case chunkTexCoords:
		count, err := s.ReadUint16()
		if err != nil {
			return err
		}
		obj.texCoords = make([]math.Vec2, count)
		for i := range obj.texCoords {
			u, err := s.ReadFloat32()
			if err != nil {
				return err
			}
			v, err := s.ReadFloat32()
			if err != nil {
				return err
			}
			obj.texCoords[i] = math.Vec2{X: u, Y: v}
		}
	case chunkFaces:
		count, err := s.ReadUint16()
		if err != nil {
			return err
		}
		obj.indices = make([]uint32, 0, int(count)*3)
		for i := 0; i < int(count); i++ {
			var abc [3]uint16
			for j := range abc {
				if abc[j], err = s.ReadUint16(); err != nil {
					return err
				}
			}
			// edge visibility flags
			if _, err := s.ReadUint16(); err != nil {
				return err
			}
			for _, idx := range abc {
				if int(idx) >= len(obj.vertices) {
					return s.Errorf("object '%s': face %d references vertex %d of %d", obj.name, i, idx, len(obj.vertices))
				}
			}
			obj.indices = append(obj.indices, uint32(abc[0]), uint32(abc[1]), uint32(abc[2]))
		}
		return walkChunks(s, end, func(id uint16, end int64) error {
			if id != chunkFaceMaterial {
				return nil
			}
			return d.readFaceMaterial(obj, count)
		})
	}
	return nil
}

func (d *Max3DSDecoder) readFaceMaterial(obj *max3dsObject, faceCount uint16) error {
	s := d.s
	name, err := s.ReadCString()
	if err != nil {
		return err
	}
	count, err := s.ReadUint16()
	if err != nil {
		return err
	}
	group := max3dsGroup{material: name, faces: make([]uint16, count)}
	for i := range group.faces {
		if group.faces[i], err = s.ReadUint16(); err != nil {
			return err
		}
		if group.faces[i] >= faceCount {
			return s.Errorf("material '%s' references face %d of %d", name, group.faces[i], faceCount)
		}
	}
	obj.groups = append(obj.groups, group)
	return nil
}

func (d *Max3DSDecoder) readMaterial(end int64) error {
	s := d.s
	def := scene.NewMaterialDef("")
	err := walkChunks(s, end, func(id uint16, end int64) error {
		var err error
		switch id {
		case chunkMatName:
			def.Name, err = s.ReadCString()
		case chunkMatAmbient:
			def.AmbientColour, err = d.readColour(end)
		case chunkMatDiffuse:
			def.DiffuseColour, err = d.readColour(end)
		case chunkMatSpecular:
			def.SpecularColour, err = d.readColour(end)
		case chunkMatTexture:
			err = walkChunks(s, end, func(id uint16, end int64) error {
				if id != chunkMatMapFile {
					return nil
				}
				var ferr error
				def.DiffuseTexture, ferr = s.ReadCString()
				return ferr
			})
		}
		return err
	})
	if err != nil {
		return err
	}
	if def.Name == "" {
		return s.Errorf("material without a name")
	}
	d.materials[def.Name] = def
	return nil
}

// readColour reads the first colour sub-chunk, float or byte encoded.
func (d *Max3DSDecoder) readColour(end int64) (math.Vec4, error) {
	s := d.s
	colour := math.Vec4{W: 1}
	found := false
	err := walkChunks(s, end, func(id uint16, end int64) error {
		if found {
			return nil
		}
		switch id {
		case chunkColourF:
			var rgb [3]float32
			for i := range rgb {
				var err error
				if rgb[i], err = s.ReadFloat32(); err != nil {
					return err
				}
			}
			colour = math.ColourFromRGB(rgb[0], rgb[1], rgb[2])
			found = true
		case chunkColourB:
			var rgb [3]uint8
			for i := range rgb {
				var err error
				if rgb[i], err = s.ReadUint8(); err != nil {
					return err
				}
			}
			colour = math.ColourFromARGB(0xff000000 | uint32(rgb[0])<<16 | uint32(rgb[1])<<8 | uint32(rgb[2]))
			found = true
		}
		return nil
	})
	return colour, err
}

func (d *Max3DSDecoder) build() error {
	d.root = scene.NewObject3D(rootName(d.mc))
	bound := make(map[string]*scene.Material)

	for _, obj := range d.objects {
		var texCoords []math.Vec2
		if len(obj.texCoords) == len(obj.vertices) {
			texCoords = obj.texCoords
		} else if len(obj.texCoords) != 0 {
			core.LogWarn("3ds: object '%s' has %d texture coordinates for %d vertices, dropping them", obj.name, len(obj.texCoords), len(obj.vertices))
		}
		vertices, indices := obj.vertices, obj.indices
		if texCoords == nil {
			// Without UVs, split vertices only break smoothing.
			vertices, indices = math.DeduplicateVertices(vertices, indices, weldTolerance)
		}
		normals := math.GenerateNormals(vertices, indices)

		node := scene.NewObject3D(obj.name)
		switch len(obj.groups) {
		case 0:
			g, err := scene.NewGeometry(vertices, normals, texCoords, indices)
			if err != nil {
				return fmt.Errorf("%w: object '%s': %w", core.ErrFormat, obj.name, err)
			}
			node.Geometry = g
			node.Material = d.material(bound, "")
		case 1:
			g, err := scene.NewGeometry(vertices, normals, texCoords, subset(indices, obj.groups[0].faces))
			if err != nil {
				return fmt.Errorf("%w: object '%s': %w", core.ErrFormat, obj.name, err)
			}
			node.Geometry = g
			node.Material = d.material(bound, obj.groups[0].material)
		default:
			for _, group := range obj.groups {
				g, err := scene.NewGeometry(vertices, normals, texCoords, subset(indices, group.faces))
				if err != nil {
					return fmt.Errorf("%w: object '%s': %w", core.ErrFormat, obj.name, err)
				}
				part := scene.NewObject3D(obj.name + "." + group.material)
				part.Geometry = g
				part.Material = d.material(bound, group.material)
				node.AddChild(part)
			}
		}
		d.root.AddChild(node)
	}
	return nil
}

func (d *Max3DSDecoder) material(cache map[string]*scene.Material, name string) *scene.Material {
	if mat, ok := cache[name]; ok {
		return mat
	}
	def, ok := d.materials[name]
	if !ok {
		if name != "" {
			core.LogWarn("3ds: material '%s' not found, using default", name)
		}
		def = scene.NewMaterialDef(scene.DefaultMaterialName)
	}
	mat := bindMaterial(d.mc, def)
	cache[name] = mat
	return mat
}

// subset picks the triangles of faces out of a triangle list.
func subset(indices []uint32, faces []uint16) []uint32 {
	out := make([]uint32, 0, len(faces)*3)
	for _, f := range faces {
		i := int(f) * 3
		out = append(out, indices[i:i+3]...)
	}
	return out
}
