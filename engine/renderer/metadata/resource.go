package metadata

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Not a known resource. */
	ResourceTypeNone ResourceType = iota
	/** @brief A graphics archive (EGF) identified by a numeric file id. */
	ResourceTypeArchive
	/** @brief A standalone image outside any archive. */
	ResourceTypeRaw
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeArchive:
		return "archive"
	case ResourceTypeRaw:
		return "raw"
	default:
		return "none"
	}
}

/**
 * @brief A generic structure for a fetched resource. All loading strategies
 * return their bytes wrapped in one of these.
 */
type Resource struct {
	/** @brief The type of the resource. */
	ResourceType ResourceType
	/** @brief The name of the resource. */
	Name string
	/** @brief The full path or URL the resource was read from. */
	FullPath string
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data. */
	Data []byte
}

// NewResource wraps fetched bytes.
func NewResource(resourceType ResourceType, name, fullPath string, data []byte) *Resource {
	return &Resource{
		ResourceType: resourceType,
		Name:         name,
		FullPath:     fullPath,
		DataSize:     uint64(len(data)),
		Data:         data,
	}
}
