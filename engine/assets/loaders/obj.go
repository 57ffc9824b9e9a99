package loaders

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spaghettifunk/anima-loader/engine/core"
	"github.com/spaghettifunk/anima-loader/engine/math"
	"github.com/spaghettifunk/anima-loader/engine/parser"
	"github.com/spaghettifunk/anima-loader/engine/scene"
)

// maxOBJLine bounds a single OBJ statement.
const maxOBJLine = 1 << 20

// OBJFormat builds a Wavefront OBJ decoder for a mesh loader.
func OBJFormat(mc *parser.MeshContext) parser.MeshDecoder {
	return &OBJDecoder{mc: mc}
}

// OBJDecoder turns a Wavefront OBJ file into a root object holding one child
// per object, group or material switch. Polygons are triangulated as fans.
type OBJDecoder struct {
	mc   *parser.MeshContext
	root *scene.Object3D

	positions []math.Vec3
	texCoords []math.Vec2
	normals   []math.Vec3

	library  *MaterialLibrary
	current  *objMesh
	finished []*objMesh
}

// objMesh gathers the faces of one child object. Vertices are unique per
// position/uv/normal triple.
type objMesh struct {
	name     string
	material string

	lookup    map[[3]int]uint32
	vertices  []math.Vec3
	texCoords []math.Vec2
	normals   []math.Vec3
	hasUV     bool
	hasNormal []bool
	indices   []uint32
}

func newOBJMesh(name, material string) *objMesh {
	return &objMesh{
		name:     name,
		material: material,
		lookup:   make(map[[3]int]uint32),
	}
}

func (d *OBJDecoder) Root() *scene.Object3D {
	return d.root
}

func (d *OBJDecoder) Decode(s *parser.Stream) error {
	d.library = NewMaterialLibrary()
	d.current = newOBJMesh("", "")

	scanner := bufio.NewScanner(s)
	scanner.Buffer(make([]byte, 0, 64*1024), maxOBJLine)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}
		fields := strings.Fields(line)
		key, args := fields[0], fields[1:]

		var err error
		switch key {
		case "v":
			var v math.Vec3
			v, err = parseVec3(args)
			d.positions = append(d.positions, v)
		case "vt":
			var vt math.Vec2
			vt, err = parseVec2(args)
			d.texCoords = append(d.texCoords, vt)
		case "vn":
			var vn math.Vec3
			vn, err = parseVec3(args)
			d.normals = append(d.normals, vn)
		case "f":
			err = d.face(args)
		case "o", "g":
			d.startMesh(strings.TrimSpace(line[len(key):]), d.current.material)
		case "usemtl":
			name := strings.TrimSpace(line[len(key):])
			if len(d.current.indices) == 0 {
				d.current.material = name
			} else {
				d.startMesh(d.current.name, name)
			}
		case "mtllib":
			d.loadLibrary(strings.TrimSpace(line[len(key):]))
		case "s", "l", "p":
			// smoothing groups, lines and points are not meshes
		default:
			core.LogDebug("obj: unknown statement '%s' on line %d. Skipping...", key, lineNo)
		}
		if err != nil {
			return fmt.Errorf("%w: line %d: %w", core.ErrFormat, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	d.startMesh("", "")
	return d.build()
}

func (d *OBJDecoder) startMesh(name, material string) {
	if len(d.current.indices) > 0 {
		d.finished = append(d.finished, d.current)
	}
	d.current = newOBJMesh(name, material)
}

// face adds a polygon as a triangle fan around its first vertex.
func (d *OBJDecoder) face(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("face with %d vertices", len(args))
	}
	corners := make([]uint32, len(args))
	for i, ref := range args {
		idx, err := d.corner(ref)
		if err != nil {
			return err
		}
		corners[i] = idx
	}
	for i := 1; i+1 < len(corners); i++ {
		d.current.indices = append(d.current.indices, corners[0], corners[i], corners[i+1])
	}
	return nil
}

// corner resolves a v, v/vt, v//vn or v/vt/vn reference to a vertex of the
// current mesh.
func (d *OBJDecoder) corner(ref string) (uint32, error) {
	parts := strings.Split(ref, "/")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid face vertex '%s'", ref)
	}
	key := [3]int{-1, -1, -1}
	counts := [3]int{len(d.positions), len(d.texCoords), len(d.normals)}
	for i, p := range parts {
		if p == "" {
			if i == 0 {
				return 0, fmt.Errorf("face vertex '%s' has no position", ref)
			}
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid face vertex '%s'", ref)
		}
		idx, err := resolveIndex(n, counts[i])
		if err != nil {
			return 0, fmt.Errorf("face vertex '%s': %w", ref, err)
		}
		key[i] = idx
	}

	m := d.current
	if v, ok := m.lookup[key]; ok {
		return v, nil
	}
	v := uint32(len(m.vertices))
	m.lookup[key] = v
	m.vertices = append(m.vertices, d.positions[key[0]])
	if key[1] >= 0 {
		m.hasUV = true
		m.texCoords = append(m.texCoords, d.texCoords[key[1]])
	} else {
		m.texCoords = append(m.texCoords, math.Vec2{})
	}
	if key[2] >= 0 {
		m.normals = append(m.normals, d.normals[key[2]])
		m.hasNormal = append(m.hasNormal, true)
	} else {
		m.normals = append(m.normals, math.Vec3{})
		m.hasNormal = append(m.hasNormal, false)
	}
	return v, nil
}

// resolveIndex maps a 1-based or negative (relative to the end) index to a
// 0-based one.
func resolveIndex(n, count int) (int, error) {
	switch {
	case n > 0 && n <= count:
		return n - 1, nil
	case n < 0 && -n <= count:
		return count + n, nil
	default:
		return 0, fmt.Errorf("index %d out of range (count=%d)", n, count)
	}
}

// loadLibrary parses every material library named on an mtllib line. A
// missing or broken library only loses its materials.
func (d *OBJDecoder) loadLibrary(names string) {
	for _, name := range strings.Fields(names) {
		origin, err := d.mc.Sibling(name)
		if err != nil {
			core.LogWarn("obj: material library '%s' not resolved: %s", name, err)
			continue
		}
		mtl := &MTLDecoder{}
		if _, err := d.mc.NewLoader(origin, mtl).Parse(); err != nil {
			core.LogWarn("obj: material library '%s' not loaded: %s", name, err)
			continue
		}
		d.library.Merge(mtl.Library)
	}
}

func (d *OBJDecoder) build() error {
	d.root = scene.NewObject3D(rootName(d.mc))
	materials := make(map[string]*scene.Material)

	for _, m := range d.finished {
		normals := m.normals
		for _, ok := range m.hasNormal {
			if !ok {
				normals = math.GenerateNormals(m.vertices, m.indices)
				break
			}
		}
		var texCoords []math.Vec2
		if m.hasUV {
			texCoords = m.texCoords
		}
		geometry, err := scene.NewGeometry(m.vertices, normals, texCoords, m.indices)
		if err != nil {
			return fmt.Errorf("%w: object '%s': %w", core.ErrFormat, m.name, err)
		}

		child := scene.NewObject3D(m.name)
		child.Geometry = geometry
		child.Material = d.material(materials, m.material)
		d.root.AddChild(child)
	}
	return nil
}

// material binds a material definition once per name and shares it between
// the children using it.
func (d *OBJDecoder) material(cache map[string]*scene.Material, name string) *scene.Material {
	if mat, ok := cache[name]; ok {
		return mat
	}
	def, ok := d.library.Get(name)
	if !ok {
		if name != "" {
			core.LogWarn("obj: material '%s' not found, using default", name)
		}
		def = scene.NewMaterialDef(scene.DefaultMaterialName)
	}
	mat := bindMaterial(d.mc, def)
	cache[name] = mat
	return mat
}

// bindMaterial acquires the textures of def through the mesh context.
func bindMaterial(mc *parser.MeshContext, def *scene.MaterialDef) *scene.Material {
	return &scene.Material{
		Def:         def,
		DiffuseMap:  mc.LoadTexture(def.DiffuseTexture),
		SpecularMap: mc.LoadTexture(def.SpecularColourTexture),
		AlphaMap:    mc.LoadTexture(def.AlphaTexture),
		BumpMap:     mc.LoadTexture(def.BumpTexture),
	}
}

// rootName names the root after the mesh file, without its extension.
func rootName(mc *parser.MeshContext) string {
	if mc == nil || mc.Locator == nil {
		return ""
	}
	p, ok := mc.Locator.FilePath(mc.Origin)
	if !ok {
		return ""
	}
	return parser.StemName(p)
}

func parseVec3(args []string) (math.Vec3, error) {
	if len(args) < 3 {
		return math.Vec3{}, fmt.Errorf("expected 3 values, got %d", len(args))
	}
	var f [3]float32
	for i := range f {
		v, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("invalid value '%s'", args[i])
		}
		f[i] = float32(v)
	}
	return math.Vec3{X: f[0], Y: f[1], Z: f[2]}, nil
}

func parseVec2(args []string) (math.Vec2, error) {
	if len(args) < 1 {
		return math.Vec2{}, fmt.Errorf("expected 2 values, got %d", len(args))
	}
	u, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		return math.Vec2{}, fmt.Errorf("invalid value '%s'", args[0])
	}
	var v float64
	if len(args) > 1 {
		if v, err = strconv.ParseFloat(args[1], 32); err != nil {
			return math.Vec2{}, fmt.Errorf("invalid value '%s'", args[1])
		}
	}
	return math.Vec2{X: float32(u), Y: float32(v)}, nil
}
