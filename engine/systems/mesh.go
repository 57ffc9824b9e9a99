package systems

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spaghettifunk/anima-loader/engine/assets/loaders"
	"github.com/spaghettifunk/anima-loader/engine/core"
	"github.com/spaghettifunk/anima-loader/engine/parser"
	"github.com/spaghettifunk/anima-loader/engine/resources"
	"github.com/spaghettifunk/anima-loader/engine/scene"
)

/** @brief A mesh held by the mesh loader system. */
type Mesh struct {
	/** @brief The name the mesh was loaded under. */
	Name string
	/** @brief Where the mesh was loaded from. */
	Origin resources.Origin
	/** @brief The parsed scene graph. */
	Root *scene.Object3D
	/** @brief Incremented every time the mesh is reloaded under the same name. */
	Generation uint32

	resource *resources.Resource
	path     string
	textures []string
}

/** @brief Parameters of an asynchronous mesh load. */
type MeshLoadParams struct {
	ResourceName string
	Origin       resources.Origin
}

// MeshLoaderSystem loads meshes through the resource system and caches them
// by name.
type MeshLoaderSystem struct {
	resourceSystem *ResourceSystem
	textureSystem  *TextureSystem
	jobSystem      *JobSystem
	locator        *resources.Locator

	mu          sync.Mutex
	meshes      map[string]*Mesh
	generations map[string]uint32
}

func NewMeshLoaderSystem(rs *ResourceSystem, ts *TextureSystem, js *JobSystem, locator *resources.Locator) (*MeshLoaderSystem, error) {
	if rs == nil {
		return nil, fmt.Errorf("mesh loader system requires a resource system")
	}
	return &MeshLoaderSystem{
		resourceSystem: rs,
		textureSystem:  ts,
		jobSystem:      js,
		locator:        locator,
		meshes:         make(map[string]*Mesh),
		generations:    make(map[string]uint32),
	}, nil
}

func (mls *MeshLoaderSystem) Shutdown() error {
	mls.mu.Lock()
	names := make([]string, 0, len(mls.meshes))
	for name := range mls.meshes {
		names = append(names, name)
	}
	mls.mu.Unlock()

	for _, name := range names {
		mls.Unload(name)
	}
	return nil
}

// Load returns the cached mesh named name, or parses origin and caches it.
func (mls *MeshLoaderSystem) Load(name string, origin resources.Origin) (*Mesh, error) {
	mls.mu.Lock()
	if m, ok := mls.meshes[name]; ok {
		mls.mu.Unlock()
		return m, nil
	}
	mls.mu.Unlock()

	params := loaders.MeshParams{Name: name, Format: mls.formatFor(origin)}
	if mls.textureSystem != nil {
		params.Textures = mls.textureSystem
	}
	res, err := mls.resourceSystem.Load(origin, resources.ResourceTypeMesh, params)
	if err != nil {
		return nil, err
	}
	root, ok := res.Data.(*scene.Object3D)
	if !ok {
		_ = mls.resourceSystem.Unload(res)
		return nil, fmt.Errorf("%w: mesh loader returned %T", core.ErrFormat, res.Data)
	}

	m := &Mesh{
		Name:     name,
		Origin:   origin,
		Root:     root,
		resource: res,
		textures: textureKeys(root),
	}
	if origin.Kind() == resources.OriginStorage {
		m.path = res.FullPath
	}

	return mls.adopt(m), nil
}

// adopt caches m unless a concurrent load of the same name got there first,
// in which case m is discarded and the cached mesh returned.
func (mls *MeshLoaderSystem) adopt(m *Mesh) *Mesh {
	mls.mu.Lock()
	existing, ok := mls.meshes[m.Name]
	if !ok {
		m.Generation = mls.generations[m.Name]
		mls.meshes[m.Name] = m
	}
	mls.mu.Unlock()

	if ok {
		mls.discard(m)
		return existing
	}
	core.LogDebug("Successfully loaded mesh '%s'.", m.Name)
	return m
}

// discard drops the texture references and the resource held by m.
func (mls *MeshLoaderSystem) discard(m *Mesh) {
	mls.releaseTextures(m)
	if err := mls.resourceSystem.Unload(m.resource); err != nil {
		core.LogWarn("mesh '%s' unload: %s", m.Name, err)
	}
}

// LoadAsync loads the mesh on the job system. onDone runs on a worker.
func (mls *MeshLoaderSystem) LoadAsync(params MeshLoadParams, onDone func(*Mesh, error)) error {
	if mls.jobSystem == nil {
		return fmt.Errorf("mesh loader system has no job system")
	}
	return mls.jobSystem.Submit(JobTask{
		InputParams: params,
		OnStart:     mls.meshLoadJobStart,
		OnComplete: func(result interface{}) {
			if onDone != nil {
				onDone(result.(*Mesh), nil)
			}
		},
		OnFailure: func(err error) {
			core.LogError("Failed to load mesh '%s'.", params.ResourceName)
			if onDone != nil {
				onDone(nil, err)
			}
		},
	})
}

func (mls *MeshLoaderSystem) meshLoadJobStart(params interface{}) (interface{}, error) {
	loadParams, ok := params.(MeshLoadParams)
	if !ok {
		return nil, fmt.Errorf("failed to cast params to `MeshLoadParams`")
	}
	return mls.Load(loadParams.ResourceName, loadParams.Origin)
}

func (mls *MeshLoaderSystem) Get(name string) (*Mesh, bool) {
	mls.mu.Lock()
	defer mls.mu.Unlock()
	m, ok := mls.meshes[name]
	return m, ok
}

// Unload drops the mesh and the texture references it holds.
func (mls *MeshLoaderSystem) Unload(name string) bool {
	mls.mu.Lock()
	m, ok := mls.meshes[name]
	delete(mls.meshes, name)
	mls.mu.Unlock()
	if !ok {
		return false
	}
	mls.discard(m)
	return true
}

// Invalidate unloads every storage mesh that depends on the file at path:
// the mesh file itself, or a material library or texture next to it. It
// returns the names of the unloaded meshes; the next Load reparses them.
func (mls *MeshLoaderSystem) Invalidate(path string) []string {
	path = filepath.Clean(path)
	mls.mu.Lock()
	var names []string
	for name, m := range mls.meshes {
		if m.path == "" {
			continue
		}
		if m.path == path || (filepath.Dir(m.path) == filepath.Dir(path) && loaders.DetermineResourceType(path) != resources.ResourceTypeMesh) {
			names = append(names, name)
			mls.generations[name] = m.Generation + 1
		}
	}
	mls.mu.Unlock()

	for _, name := range names {
		mls.Unload(name)
		core.LogInfo("mesh '%s' invalidated by change to '%s'", name, path)
	}
	return names
}

// formatFor picks the mesh format of raw resources from the manifest entry
// path. Other origins are resolved by the loader from their own path.
func (mls *MeshLoaderSystem) formatFor(origin resources.Origin) parser.MeshFormat {
	table, id, ok := origin.Raw()
	if !ok {
		return nil
	}
	manifest, ok := table.(*resources.ManifestTable)
	if !ok {
		return nil
	}
	entry, ok := manifest.Entry(id)
	if !ok {
		return nil
	}
	format, _ := loaders.FormatForPath(entry.Path)
	return format
}

func (mls *MeshLoaderSystem) releaseTextures(m *Mesh) {
	if mls.textureSystem == nil {
		return
	}
	for _, key := range m.textures {
		mls.textureSystem.Release(key)
	}
}

// textureKeys lists the key of every texture reference taken while the
// mesh was parsed, one per bound material slot.
func textureKeys(root *scene.Object3D) []string {
	var keys []string
	seen := make(map[*scene.Material]bool)
	root.Walk(func(n *scene.Object3D, _ int) bool {
		if n.Material == nil || seen[n.Material] {
			return true
		}
		seen[n.Material] = true
		for _, tex := range []*scene.Texture{n.Material.DiffuseMap, n.Material.SpecularMap, n.Material.AlphaMap, n.Material.BumpMap} {
			if tex != nil {
				keys = append(keys, tex.Name)
			}
		}
		return true
	})
	return keys
}
