package loaders

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spaghettifunk/anima-loader/engine/core"
	"github.com/spaghettifunk/anima-loader/engine/math"
	"github.com/spaghettifunk/anima-loader/engine/parser"
	"github.com/spaghettifunk/anima-loader/engine/scene"
)

/**
 * @brief The materials declared by a Wavefront material library, in file
 * order.
 */
type MaterialLibrary struct {
	Materials []*scene.MaterialDef
	byName    map[string]*scene.MaterialDef
}

func NewMaterialLibrary() *MaterialLibrary {
	return &MaterialLibrary{byName: make(map[string]*scene.MaterialDef)}
}

// Add registers def. A material redeclared under the same name replaces the
// earlier one in place.
func (lib *MaterialLibrary) Add(def *scene.MaterialDef) {
	if old, exists := lib.byName[def.Name]; exists {
		for i, m := range lib.Materials {
			if m == old {
				lib.Materials[i] = def
			}
		}
	} else {
		lib.Materials = append(lib.Materials, def)
	}
	lib.byName[def.Name] = def
}

// Get looks a material up by the name used in usemtl.
func (lib *MaterialLibrary) Get(name string) (*scene.MaterialDef, bool) {
	if lib == nil {
		return nil, false
	}
	def, ok := lib.byName[name]
	return def, ok
}

// Merge copies every material of other into lib. Later libraries win.
func (lib *MaterialLibrary) Merge(other *MaterialLibrary) {
	if other == nil {
		return
	}
	for _, def := range other.Materials {
		lib.Add(def)
	}
}

// MTLDecoder parses a material library. Library holds the result.
type MTLDecoder struct {
	Library *MaterialLibrary
}

func (d *MTLDecoder) Decode(s *parser.Stream) error {
	lib, err := ParseMaterialLibrary(s)
	if err != nil {
		return err
	}
	d.Library = lib
	return nil
}

// ParseMaterialLibrary reads newmtl blocks. Unknown statements are skipped.
func ParseMaterialLibrary(r io.Reader) (*MaterialLibrary, error) {
	scanner := bufio.NewScanner(r)
	lib := NewMaterialLibrary()
	var current *scene.MaterialDef
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		fields := strings.Fields(line)
		key := fields[0]
		args := fields[1:]
		value := strings.TrimSpace(line[len(key):])

		if key == "newmtl" {
			if value == "" {
				return nil, fmt.Errorf("%w: line %d: newmtl without a name", core.ErrFormat, lineNo)
			}
			current = scene.NewMaterialDef(value)
			lib.Add(current)
			continue
		}
		if current == nil {
			core.LogDebug("mtl: statement '%s' before any newmtl, skipping", key)
			continue
		}

		var err error
		switch key {
		case "Ka":
			current.AmbientColour, err = parseColour(args)
		case "Kd":
			current.DiffuseColour, err = parseColour(args)
		case "Ks":
			current.SpecularColour, err = parseColour(args)
		case "Ns":
			current.SpecularCoefficient, err = parseFloat(args)
		case "d":
			current.Alpha, err = parseFloat(args)
		case "Tr":
			var tr float32
			tr, err = parseFloat(args)
			current.Alpha = 1 - tr
		case "map_Ka":
			current.AmbientTexture = mapFile(args)
		case "map_Kd":
			current.DiffuseTexture = mapFile(args)
		case "map_Ks":
			current.SpecularColourTexture = mapFile(args)
		case "map_Ns":
			current.SpecularHighlightTexture = mapFile(args)
		case "map_d":
			current.AlphaTexture = mapFile(args)
		case "map_Bump", "map_bump", "bump":
			current.BumpTexture = mapFile(args)
		default:
			core.LogDebug("mtl: unknown statement '%s' found in file. Skipping...", key)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s: %w", core.ErrFormat, lineNo, key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	for _, def := range lib.Materials {
		clampMaterial(def)
	}
	return lib, nil
}

// clampMaterial pulls colours into [0, 1], Ns to >= 0 and dissolve into
// [0, 1]. Exporters routinely write Ks above 1.
func clampMaterial(def *scene.MaterialDef) {
	if !isValidVec4(def.AmbientColour) || !isValidVec4(def.DiffuseColour) || !isValidVec4(def.SpecularColour) {
		core.LogWarn("mtl: material '%s' has colour values outside [0, 1], clamping", def.Name)
		def.AmbientColour = clampVec4(def.AmbientColour)
		def.DiffuseColour = clampVec4(def.DiffuseColour)
		def.SpecularColour = clampVec4(def.SpecularColour)
	}
	if def.SpecularCoefficient < 0 {
		core.LogWarn("mtl: material '%s' has a negative Ns, using 0", def.Name)
		def.SpecularCoefficient = 0
	}
	if !inRange(def.Alpha) {
		core.LogWarn("mtl: material '%s' has dissolve %g outside [0, 1], clamping", def.Name, def.Alpha)
		def.Alpha = math.Clamp(def.Alpha, 0, 1)
	}
}

func clampVec4(v math.Vec4) math.Vec4 {
	return math.Vec4{
		X: math.Clamp(v.X, 0, 1),
		Y: math.Clamp(v.Y, 0, 1),
		Z: math.Clamp(v.Z, 0, 1),
		W: math.Clamp(v.W, 0, 1),
	}
}

func parseColour(args []string) (math.Vec4, error) {
	if len(args) == 0 || args[0] == "spectral" || args[0] == "xyz" {
		return math.Vec4{}, fmt.Errorf("expected r g b values, got %v", args)
	}
	var rgb [3]float32
	for i := range rgb {
		// A single value sets all three channels.
		v := args[0]
		if i < len(args) {
			v = args[i]
		}
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return math.Vec4{}, fmt.Errorf("invalid colour value: %s", v)
		}
		rgb[i] = float32(f)
	}
	return math.Vec4{X: rgb[0], Y: rgb[1], Z: rgb[2], W: 1}, nil
}

func parseFloat(args []string) (float32, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("missing value")
	}
	f, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value: %s", args[0])
	}
	return float32(f), nil
}

// mapFile returns the file name of a map statement, skipping its options
// such as -bm 0.5, -s 2 2 or -clamp on. File names may contain spaces.
func mapFile(args []string) string {
	i := 0
	for i < len(args) && strings.HasPrefix(args[i], "-") {
		opt := args[i]
		i++
		switch opt {
		case "-o", "-s", "-t":
			// u [v [w]]
			for n := 0; n < 3 && i < len(args) && isNumber(args[i]); n++ {
				i++
			}
		case "-mm":
			i += 2
		default:
			i++
		}
	}
	if i >= len(args) {
		return ""
	}
	return strings.Join(args[i:], " ")
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 32)
	return err == nil
}

// Helper function to validate Vec4 fields (must be between 0.0 and 1.0)
func isValidVec4(v math.Vec4) bool {
	return inRange(v.X) && inRange(v.Y) && inRange(v.Z) && inRange(v.W)
}

// Check if a float32 value is within [0.0, 1.0]
func inRange(value float32) bool {
	return value >= 0.0 && value <= 1.0
}
