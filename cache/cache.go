package cache

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// The cache holds objects that are expensive to build and safe to share,
// such as parsed scenario files. Callers must treat what they get back as
// read-only.

type cache struct {
	sync.Mutex
	objects map[string]any
}

type loadFunc func(key string) (any, error)

// GlobalObjectCache is our global object cache, of course.
var GlobalObjectCache *cache

func (c *cache) load(key string, loadFunc loadFunc) error {
	log.Debug().Str("key", key).Msg("loading into cache")

	obj, err := loadFunc(key)
	if err != nil {
		return err
	}
	c.objects[key] = obj

	return nil
}

func (c *cache) get(key string, loadFunc loadFunc) (any, error) {
	c.Lock()
	defer c.Unlock()
	if obj, ok := c.objects[key]; ok {
		log.Debug().Str("key", key).Msg("getting obj from cache")
		return obj, nil
	}
	if err := c.load(key, loadFunc); err != nil {
		return nil, err
	}
	return c.objects[key], nil
}

func (c *cache) len() int {
	c.Lock()
	defer c.Unlock()
	return len(c.objects)
}

var globalMu sync.Mutex

func CreateGlobalObjectCache() {
	globalMu.Lock()
	defer globalMu.Unlock()
	GlobalObjectCache = &cache{objects: make(map[string]any)}
}

// Load returns the object cached under key, calling loadFunc to build it
// the first time. Failed loads are not cached.
func Load(key string, loadFunc loadFunc) (any, error) {
	globalMu.Lock()
	if GlobalObjectCache == nil {
		GlobalObjectCache = &cache{objects: make(map[string]any)}
	}
	c := GlobalObjectCache
	globalMu.Unlock()
	return c.get(key, loadFunc)
}

// Len is the number of cached objects.
func Len() int {
	globalMu.Lock()
	c := GlobalObjectCache
	globalMu.Unlock()
	if c == nil {
		return 0
	}
	return c.len()
}
