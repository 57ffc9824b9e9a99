package resources

import "fmt"

// OriginKind is the discriminant of an Origin.
type OriginKind int

const (
	OriginUnknown OriginKind = iota
	// OriginRaw is a numeric resource served by a ResourceTable.
	OriginRaw
	// OriginStorage is a file on removable storage, relative to the storage root or absolute.
	OriginStorage
	// OriginAsset is a named entry of an AssetContainer.
	OriginAsset
)

func (k OriginKind) String() string {
	switch k {
	case OriginRaw:
		return "raw"
	case OriginStorage:
		return "storage"
	case OriginAsset:
		return "asset"
	default:
		return "unknown"
	}
}

// Origin identifies where a loader reads its bytes from. Exactly one variant
// is active and an Origin never changes after construction. The zero value
// has no kind and cannot be opened.
type Origin struct {
	kind      OriginKind
	table     ResourceTable
	id        int
	path      string
	container AssetContainer
}

func RawResource(table ResourceTable, id int) Origin {
	return Origin{kind: OriginRaw, table: table, id: id}
}

func RemovableStorage(path string) Origin {
	return Origin{kind: OriginStorage, path: path}
}

func BundledAsset(container AssetContainer, path string) Origin {
	return Origin{kind: OriginAsset, container: container, path: path}
}

func (o Origin) Kind() OriginKind {
	return o.kind
}

func (o Origin) Raw() (ResourceTable, int, bool) {
	if o.kind != OriginRaw {
		return nil, 0, false
	}
	return o.table, o.id, true
}

func (o Origin) StoragePath() (string, bool) {
	if o.kind != OriginStorage {
		return "", false
	}
	return o.path, true
}

func (o Origin) Asset() (AssetContainer, string, bool) {
	if o.kind != OriginAsset {
		return nil, "", false
	}
	return o.container, o.path, true
}

func (o Origin) String() string {
	switch o.kind {
	case OriginRaw:
		return fmt.Sprintf("raw:%d", o.id)
	case OriginStorage, OriginAsset:
		return o.kind.String() + ":" + o.path
	default:
		return "unknown"
	}
}
