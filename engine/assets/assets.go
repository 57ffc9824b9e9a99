package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/anima-loader/engine/assets/loaders"
	"github.com/spaghettifunk/anima-loader/engine/core"
	"github.com/spaghettifunk/anima-loader/engine/resources"
)

var ErrClosed = errors.New("asset manager already closed")

type AssetInfo struct {
	/** @brief Path relative to the storage root, slash separated. */
	Path       string
	Type       resources.ResourceType
	LastLoaded time.Time
}

/** @brief The kind of change reported to OnChange handlers. */
type ChangeOp uint8

const (
	ChangeWrite ChangeOp = iota
	ChangeRemove
)

func (op ChangeOp) String() string {
	if op == ChangeRemove {
		return "remove"
	}
	return "write"
}

// Change is a created, modified or removed asset file.
type Change struct {
	Asset AssetInfo
	Op    ChangeOp
}

// AssetManager indexes the asset files under a storage root and keeps the
// index current by watching the tree. Handlers registered with OnChange run
// on the watcher goroutine.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[resources.ResourceType]Loader

	mutex sync.RWMutex

	handlers []func(Change)

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	watching bool
	isClosed bool
	events   chan Change
}

// NewAssetManager creates a manager for the absolute directory root. Nothing
// is indexed or watched until Initialize.
func NewAssetManager(root string) (*AssetManager, error) {
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("asset root '%s' must be absolute", root)
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		root:     filepath.Clean(root),
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[resources.ResourceType]Loader),
		fsnotify: fsWatch,
		events:   make(chan Change, 64),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Initialize indexes the tree. With watch set, the tree is also watched
// until Close.
func (am *AssetManager) Initialize(watch bool) error {
	if watch {
		am.mutex.Lock()
		am.watching = true
		am.mutex.Unlock()
		go am.start()
	}
	return am.watchRecursive(am.root, watch)
}

// RegisterLoader sets the loader used by LoadAsset for assetType.
func (am *AssetManager) RegisterLoader(assetType resources.ResourceType, loader Loader) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.loaders[assetType] = loader
}

// OnChange registers fn to be called for every indexed change.
func (am *AssetManager) OnChange(fn func(Change)) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.handlers = append(am.handlers, fn)
}

// Events delivers changes to a single consumer. Changes are dropped when
// nobody keeps up.
func (am *AssetManager) Events() <-chan Change {
	return am.events
}

func (am *AssetManager) Root() string {
	return am.root
}

// Assets returns a copy of the index.
func (am *AssetManager) Assets() []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	out := make([]AssetInfo, 0, len(am.assets))
	for _, a := range am.assets {
		out = append(out, a)
	}
	return out
}

func (am *AssetManager) Lookup(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	a, ok := am.assets[am.relative(path)]
	return a, ok
}

// LoadAsset loads an indexed asset with the loader registered for its type.
func (am *AssetManager) LoadAsset(path string, params interface{}) (*resources.Resource, error) {
	rel := am.relative(path)

	am.mutex.Lock()
	asset, exists := am.assets[rel]
	if exists {
		// Update the loaded time
		asset.LastLoaded = time.Now()
		am.assets[rel] = asset
	}
	loader, loaderExists := am.loaders[asset.Type]
	am.mutex.Unlock()

	if !exists {
		return nil, fmt.Errorf("%w: asset %s", core.ErrNotFound, rel)
	}
	if !loaderExists {
		return nil, fmt.Errorf("%w: no loader registered for asset type %s", core.ErrUnsupportedOrigin, asset.Type)
	}
	return loader.Load(resources.RemovableStorage(filepath.Join(am.root, filepath.FromSlash(rel))), params)
}

// Close stops watching. It is safe to call more than once.
func (am *AssetManager) Close() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	watching := am.watching
	am.mutex.Unlock()

	close(am.done)
	if watching {
		<-am.stopped
	}
	return am.fsnotify.Close()
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	if e.Op&fsnotify.Create != 0 {
		if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
			if err := am.watchRecursive(e.Name, true); err != nil {
				core.LogWarn("asset watcher: failed to watch '%s': %s", e.Name, err)
			}
			return
		}
	}
	// Handle create or modify events
	if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		if info, ok := am.handleFileEvent(e.Name); ok {
			am.notify(Change{Asset: info, Op: ChangeWrite})
		}
	}
	// Can't stat a deleted path, so removal is attempted for files and
	// directories alike.
	if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		if info, ok := am.removeAsset(e.Name); ok {
			am.notify(Change{Asset: info, Op: ChangeRemove})
		}
		_ = am.fsnotify.Remove(e.Name)
	}
}

func (am *AssetManager) notify(c Change) {
	am.mutex.RLock()
	handlers := append([]func(Change){}, am.handlers...)
	am.mutex.RUnlock()

	for _, fn := range handlers {
		fn(c)
	}
	select {
	case am.events <- c:
	default:
	}
}

// watchRecursive indexes every asset file under path and, with watch set,
// adds every directory to the watch list.
func (am *AssetManager) watchRecursive(path string, watch bool) error {
	return filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if watch {
				return am.add(walkPath)
			}
			return nil
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

func (am *AssetManager) add(name string) error {
	am.mutex.RLock()
	closed := am.isClosed
	am.mutex.RUnlock()
	if closed {
		return ErrClosed
	}
	return am.fsnotify.Add(name)
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) (AssetInfo, bool) {
	rel := am.relative(path)
	assetType := loaders.DetermineResourceType(rel)
	if assetType == resources.ResourceTypeNone {
		return AssetInfo{}, false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	info := AssetInfo{
		Path: rel,
		Type: assetType,
	}
	if old, ok := am.assets[rel]; ok {
		info.LastLoaded = old.LastLoaded
	}
	am.assets[rel] = info
	return info, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) (AssetInfo, bool) {
	rel := am.relative(path)

	am.mutex.Lock()
	defer am.mutex.Unlock()
	info, ok := am.assets[rel]
	delete(am.assets, rel)
	return info, ok
}

// relative maps an absolute path under the root, or a root relative path,
// to the slash separated index key.
func (am *AssetManager) relative(path string) string {
	if filepath.IsAbs(path) {
		if rel, err := filepath.Rel(am.root, path); err == nil {
			path = rel
		}
	}
	return filepath.ToSlash(filepath.Clean(path))
}
