package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-loader/engine/core"
	"github.com/spaghettifunk/anima-loader/engine/resources"
	"github.com/spaghettifunk/anima-loader/engine/resources/loaders"
)

/** @brief The configuration for the resource system */
type ResourceSystemConfig struct {
	/** @brief The maximum number of loaders that can be registered with this system. */
	MaxLoaderCount uint32
}

// ResourceSystem dispatches loads to the loader registered for a resource
// type. Loaders live in a fixed-size table; a loader's slot is its ID.
type ResourceSystem struct {
	Config            ResourceSystemConfig
	RegisteredLoaders []loaders.ResourceLoader
	mu                sync.RWMutex
}

func NewResourceSystem(config ResourceSystemConfig) (*ResourceSystem, error) {
	if config.MaxLoaderCount == 0 {
		err := fmt.Errorf("failed to run NewResourceSystem because config.MaxLoaderCount==0")
		core.LogError("%s", err)
		return nil, err
	}

	rs := &ResourceSystem{
		Config:            config,
		RegisteredLoaders: make([]loaders.ResourceLoader, config.MaxLoaderCount),
	}

	// Invalidate all loaders
	for i := uint32(0); i < config.MaxLoaderCount; i++ {
		rs.RegisteredLoaders[i].ID = loaders.InvalidID
	}

	core.LogInfo("Resource system initialized with %d loader slots.", config.MaxLoaderCount)

	return rs, nil
}

func (rs *ResourceSystem) Shutdown() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for i := range rs.RegisteredLoaders {
		rs.RegisteredLoaders[i] = loaders.ResourceLoader{ID: loaders.InvalidID}
	}
	return nil
}

// RegisterLoader stores loader in the first free slot. Only one loader may
// exist per built-in type, or per custom type name.
func (rs *ResourceSystem) RegisterLoader(loader loaders.ResourceLoader) error {
	if loader.ResourceLoaderInterface == nil {
		return fmt.Errorf("loader for type %s has no implementation", loader.ResourceType)
	}
	if loader.ResourceType == resources.ResourceTypeCustom && loader.CustomType == "" {
		return fmt.Errorf("custom loader has no custom type name")
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	// Ensure no loaders for the given type already exist
	for _, l := range rs.RegisteredLoaders {
		if !l.Valid() {
			continue
		}
		if loader.ResourceType != resources.ResourceTypeCustom && l.ResourceType == loader.ResourceType {
			return fmt.Errorf("loader of type %s already exists and will not be registered", loader.ResourceType)
		}
		if loader.ResourceType == resources.ResourceTypeCustom && l.CustomType == loader.CustomType {
			return fmt.Errorf("loader of custom type %s already exists and will not be registered", loader.CustomType)
		}
	}
	for i := range rs.RegisteredLoaders {
		if !rs.RegisteredLoaders[i].Valid() {
			loader.ID = uint32(i)
			rs.RegisteredLoaders[i] = loader
			core.LogDebug("Loader for type %s registered in slot %d.", loader.ResourceType, i)
			return nil
		}
	}
	return fmt.Errorf("no free loader slot for type %s (max %d)", loader.ResourceType, rs.Config.MaxLoaderCount)
}

// Load loads origin with the loader registered for resourceType.
func (rs *ResourceSystem) Load(origin resources.Origin, resourceType resources.ResourceType, params interface{}) (*resources.Resource, error) {
	if resourceType == resources.ResourceTypeCustom {
		return nil, fmt.Errorf("%w: custom resources are loaded with LoadCustom", core.ErrUnsupportedOrigin)
	}
	l, ok := rs.find(func(l loaders.ResourceLoader) bool { return l.ResourceType == resourceType })
	if !ok {
		return nil, fmt.Errorf("%w: no loader for type %s", core.ErrUnsupportedOrigin, resourceType)
	}
	return load(origin, l, params)
}

// LoadCustom loads origin with the custom loader named customType.
func (rs *ResourceSystem) LoadCustom(origin resources.Origin, customType string, params interface{}) (*resources.Resource, error) {
	l, ok := rs.find(func(l loaders.ResourceLoader) bool {
		return l.ResourceType == resources.ResourceTypeCustom && l.CustomType == customType
	})
	if !ok || customType == "" {
		return nil, fmt.Errorf("%w: no loader for custom type '%s'", core.ErrUnsupportedOrigin, customType)
	}
	return load(origin, l, params)
}

// Unload hands the resource back to the loader that produced it.
func (rs *ResourceSystem) Unload(resource *resources.Resource) error {
	if resource == nil || resource.LoaderID == loaders.InvalidID {
		return nil
	}
	rs.mu.RLock()
	var l loaders.ResourceLoader
	if int(resource.LoaderID) < len(rs.RegisteredLoaders) {
		l = rs.RegisteredLoaders[resource.LoaderID]
	}
	rs.mu.RUnlock()
	if !l.Valid() {
		return nil
	}
	if err := l.Unload(resource); err != nil {
		return err
	}
	resource.LoaderID = loaders.InvalidID
	return nil
}

func (rs *ResourceSystem) find(match func(loaders.ResourceLoader) bool) (loaders.ResourceLoader, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	for _, l := range rs.RegisteredLoaders {
		if l.Valid() && match(l) {
			return l, true
		}
	}
	return loaders.ResourceLoader{}, false
}

func load(origin resources.Origin, loader loaders.ResourceLoader, params interface{}) (*resources.Resource, error) {
	res, err := loader.Load(origin, params)
	if err != nil {
		return nil, err
	}
	res.LoaderID = loader.ID
	return res, nil
}
