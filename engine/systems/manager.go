package systems

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spaghettifunk/anima-loader/engine/assets"
	"github.com/spaghettifunk/anima-loader/engine/assets/loaders"
	"github.com/spaghettifunk/anima-loader/engine/core"
	"github.com/spaghettifunk/anima-loader/engine/parser"
	"github.com/spaghettifunk/anima-loader/engine/resources"
	resloaders "github.com/spaghettifunk/anima-loader/engine/resources/loaders"
)

// maxLoaderCount is the size of the resource system loader table.
const maxLoaderCount uint32 = 16

type SystemManager struct {
	config *core.Config

	storage  *resources.Storage
	locator  *resources.Locator
	bundle   *resources.ZipContainer
	manifest *resources.ManifestTable

	jobSystem        *JobSystem
	resourceSystem   *ResourceSystem
	textureSystem    *TextureSystem
	meshLoaderSystem *MeshLoaderSystem
	assetManager     *assets.AssetManager
}

// NewSystemManager builds every system from cfg: the storage rooted at
// storage.root, the optional zip bundle and raw resource manifest, the job,
// resource, texture and mesh systems and, when assets.watch is set, the
// watcher invalidating cached meshes.
func NewSystemManager(cfg *core.Config) (*SystemManager, error) {
	if cfg == nil {
		cfg = core.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sm := &SystemManager{config: cfg}
	var err error

	if sm.storage, err = resources.NewStorage(cfg.Storage.Root); err != nil {
		return nil, err
	}
	sm.locator = resources.NewLocator(sm.storage)

	if cfg.Assets.Bundle != "" {
		if sm.bundle, err = resources.OpenZipContainer(sm.storage.Filesystem(), sm.storage.Resolve(cfg.Assets.Bundle)); err != nil {
			return nil, fmt.Errorf("asset bundle: %w", err)
		}
	}
	if cfg.Assets.Manifest != "" {
		if sm.manifest, err = resources.LoadManifest(sm.storage.Filesystem(), sm.storage.Resolve(cfg.Assets.Manifest)); err != nil {
			sm.closeBundle()
			return nil, fmt.Errorf("raw resource manifest: %w", err)
		}
	}

	opts := []parser.LoaderOption{parser.WithStringLimit(cfg.Parser.MaxStringLength)}

	if sm.jobSystem, err = NewJobSystem(cfg.Jobs.Workers, cfg.Jobs.QueueSize); err != nil {
		sm.closeBundle()
		return nil, err
	}
	if sm.resourceSystem, err = NewResourceSystem(ResourceSystemConfig{MaxLoaderCount: maxLoaderCount}); err != nil {
		sm.abort()
		return nil, err
	}
	for _, l := range []resloaders.ResourceLoader{
		{ResourceType: resources.ResourceTypeMesh, ResourceLoaderInterface: &loaders.MeshResourceLoader{Locator: sm.locator, Options: opts}},
		{ResourceType: resources.ResourceTypeImage, ResourceLoaderInterface: &loaders.ImageLoader{Locator: sm.locator}},
		{ResourceType: resources.ResourceTypeMaterial, ResourceLoaderInterface: &loaders.MaterialLoader{Locator: sm.locator}},
		{ResourceType: resources.ResourceTypeText, ResourceLoaderInterface: &loaders.TextLoader{Locator: sm.locator}},
		{ResourceType: resources.ResourceTypeBinary, ResourceLoaderInterface: &loaders.BinaryLoader{Locator: sm.locator, Options: opts}},
	} {
		if err := sm.resourceSystem.RegisterLoader(l); err != nil {
			sm.abort()
			return nil, err
		}
	}
	if sm.textureSystem, err = NewTextureSystem(&TextureSystemConfig{MaxTextureCount: cfg.Textures.MaxCount}, sm.locator, opts...); err != nil {
		sm.abort()
		return nil, err
	}
	if sm.meshLoaderSystem, err = NewMeshLoaderSystem(sm.resourceSystem, sm.textureSystem, sm.jobSystem, sm.locator); err != nil {
		sm.abort()
		return nil, err
	}

	if cfg.Assets.Watch {
		if sm.assetManager, err = assets.NewAssetManager(sm.storage.Root()); err != nil {
			sm.abort()
			return nil, err
		}
		sm.assetManager.OnChange(sm.onAssetChange)
		sm.assetManager.RegisterLoader(resources.ResourceTypeMesh, &loaders.MeshResourceLoader{Locator: sm.locator, Options: opts})
		sm.assetManager.RegisterLoader(resources.ResourceTypeImage, &loaders.ImageLoader{Locator: sm.locator})
		sm.assetManager.RegisterLoader(resources.ResourceTypeMaterial, &loaders.MaterialLoader{Locator: sm.locator})
		if err := sm.assetManager.Initialize(true); err != nil {
			sm.abort()
			return nil, err
		}
	}

	core.LogInfo("Systems initialized with storage root '%s'.", sm.storage.Root())
	return sm, nil
}

func (sm *SystemManager) onAssetChange(c assets.Change) {
	path := filepath.Join(sm.storage.Root(), filepath.FromSlash(c.Asset.Path))
	if c.Asset.Type == resources.ResourceTypeImage {
		sm.textureSystem.Evict(parser.BaseName(c.Asset.Path))
	}
	sm.meshLoaderSystem.Invalidate(path)
}

// ResolveOrigin turns a command line reference into an origin:
//
//	asset:<path>       entry of the zip bundle
//	raw:<id|name>      entry of the raw resource manifest
//	<path>             file on storage, relative to the storage root
func (sm *SystemManager) ResolveOrigin(ref string) (resources.Origin, error) {
	switch {
	case strings.HasPrefix(ref, "asset:"):
		if sm.bundle == nil {
			return resources.Origin{}, fmt.Errorf("%w: no asset bundle configured for '%s'", core.ErrNotFound, ref)
		}
		return resources.BundledAsset(sm.bundle, strings.TrimPrefix(ref, "asset:")), nil
	case strings.HasPrefix(ref, "raw:"):
		if sm.manifest == nil {
			return resources.Origin{}, fmt.Errorf("%w: no raw resource manifest configured for '%s'", core.ErrNotFound, ref)
		}
		key := strings.TrimPrefix(ref, "raw:")
		id, err := strconv.Atoi(key)
		if err != nil {
			var ok bool
			if id, ok = sm.manifest.Identifier(key); !ok {
				return resources.Origin{}, fmt.Errorf("%w: no raw resource named '%s'", core.ErrNotFound, key)
			}
		}
		return resources.RawResource(sm.manifest, id), nil
	case ref == "":
		return resources.Origin{}, fmt.Errorf("%w: empty reference", core.ErrUnsupportedOrigin)
	default:
		return resources.RemovableStorage(ref), nil
	}
}

func (sm *SystemManager) Config() *core.Config {
	return sm.config
}

func (sm *SystemManager) Locator() *resources.Locator {
	return sm.locator
}

func (sm *SystemManager) JobSystem() *JobSystem {
	return sm.jobSystem
}

func (sm *SystemManager) ResourceSystem() *ResourceSystem {
	return sm.resourceSystem
}

func (sm *SystemManager) TextureSystem() *TextureSystem {
	return sm.textureSystem
}

func (sm *SystemManager) MeshLoaderSystem() *MeshLoaderSystem {
	return sm.meshLoaderSystem
}

// AssetManager is nil unless assets.watch is set.
func (sm *SystemManager) AssetManager() *assets.AssetManager {
	return sm.assetManager
}

func (sm *SystemManager) Shutdown() error {
	if sm.assetManager != nil {
		if err := sm.assetManager.Close(); err != nil {
			return err
		}
	}
	if err := sm.jobSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.meshLoaderSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.textureSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.resourceSystem.Shutdown(); err != nil {
		return err
	}
	return sm.closeBundle()
}

// abort releases what a failed NewSystemManager already started.
func (sm *SystemManager) abort() {
	if sm.assetManager != nil {
		_ = sm.assetManager.Close()
	}
	if sm.jobSystem != nil {
		_ = sm.jobSystem.Shutdown()
	}
	_ = sm.closeBundle()
}

func (sm *SystemManager) closeBundle() error {
	if sm.bundle == nil {
		return nil
	}
	err := sm.bundle.Close()
	sm.bundle = nil
	return err
}
