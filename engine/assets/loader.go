package assets

import "github.com/spaghettifunk/anima-loader/engine/resources/loaders"

// Loader loads an indexed asset file. Every resource loader qualifies.
type Loader = loaders.ResourceLoaderInterface
