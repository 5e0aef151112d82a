package cache

import (
	"sync"
)

// Cache is a process-wide keyed store. Entries are replaced wholesale, never
// mutated in place.
type Cache[T interface{}] struct {
	cache map[string]T
	mutex sync.RWMutex
}

func New[T interface{}]() *Cache[T] {
	return &Cache[T]{
		cache: make(map[string]T),
	}
}

func (c *Cache[T]) Has(key string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	_, ok := c.cache[key]
	return ok
}

func (c *Cache[T]) Get(key string) (T, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	value, ok := c.cache[key]
	return value, ok
}

func (c *Cache[T]) Set(key string, value T) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.cache[key] = value
}

func (c *Cache[T]) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.cache, key)
}

func (c *Cache[T]) GetKeys() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	keys := make([]string, 0, len(c.cache))
	for k := range c.cache {
		keys = append(keys, k)
	}
	return keys
}

// GetAll returns a copy of the key set mapped to the stored values.
func (c *Cache[T]) GetAll() map[string]T {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	all := make(map[string]T, len(c.cache))
	for k, v := range c.cache {
		all[k] = v
	}
	return all
}

func (c *Cache[T]) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.cache)
}

// Clear removes every entry and returns how many were removed.
func (c *Cache[T]) Clear() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	n := len(c.cache)
	c.cache = make(map[string]T)
	return n
}
