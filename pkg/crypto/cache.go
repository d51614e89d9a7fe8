package crypto

import "sync"

// KeyCache memoizes derived keys by their canonical salt string. Derivation
// is a pure function of its inputs, so entries are never invalidated;
// concurrent first-writes for the same salt converge to the same key.
type KeyCache interface {
	Get(salt string) ([]byte, bool)
	Put(salt string, key []byte)
}

type memoCache struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// NewKeyCache returns the default in-memory KeyCache.
func NewKeyCache() KeyCache {
	return &memoCache{m: make(map[string][]byte)}
}

func (c *memoCache) Get(salt string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	k, ok := c.m[salt]
	return k, ok
}

func (c *memoCache) Put(salt string, key []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[salt] = key
}
