package resources

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Text resource type. */
	ResourceTypeText ResourceType = iota
	/** @brief Binary resource type. */
	ResourceTypeBinary
	/** @brief Image resource type. */
	ResourceTypeImage
	/** @brief Material library resource type. */
	ResourceTypeMaterial
	/** @brief Mesh resource type (a parsed scene graph). */
	ResourceTypeMesh
	/** @brief Custom resource type. Used by loaders outside the core engine. */
	ResourceTypeCustom
	/** @brief Not a resource this engine knows how to load. */
	ResourceTypeNone ResourceType = -1
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeText:
		return "text"
	case ResourceTypeBinary:
		return "binary"
	case ResourceTypeImage:
		return "image"
	case ResourceTypeMaterial:
		return "material"
	case ResourceTypeMesh:
		return "mesh"
	case ResourceTypeCustom:
		return "custom"
	default:
		return "none"
	}
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The identifier of the loader which handles this resource. */
	LoaderID uint32
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource, empty for raw resources. */
	FullPath string
	/** @brief The origin the resource was loaded from. */
	Origin Origin
	/** @brief The size of the resource data in bytes, or item count for structured data. */
	DataSize uint64
	/** @brief The resource data. */
	Data interface{}
}
