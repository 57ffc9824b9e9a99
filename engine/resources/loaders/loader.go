package loaders

import "github.com/spaghettifunk/anima-loader/engine/resources"

const InvalidID uint32 = 4294967295

/** @brief An "interface" for a resource loader. All registered loaders use this. */
type ResourceLoader struct {
	/** @brief The loader identifier. */
	ID uint32
	/** @brief The loader resource type. */
	ResourceType resources.ResourceType
	/** @brief The loader custom type string, if type is set to custom. */
	CustomType string

	ResourceLoaderInterface
}

// ResourceLoaderInterface loads one origin into a resource. params is loader
// specific and may be nil.
type ResourceLoaderInterface interface {
	Load(origin resources.Origin, params interface{}) (*resources.Resource, error)
	Unload(resource *resources.Resource) error
}

// Valid reports whether the slot holds a registered loader.
func (rl ResourceLoader) Valid() bool {
	return rl.ID != InvalidID && rl.ResourceLoaderInterface != nil
}
