package mocks

import (
	"context"
	"encoding/json"
	"sync"

	sharedCache "github.com/davicafu/boletolab/internal/shared/infra/platform/cache"
)

// DummyCache es una caché en memoria para tests, segura para concurrencia.
// Cuenta las operaciones para poder verificar el cache-aside.
type DummyCache struct {
	store   map[string][]byte
	ttls    map[string]int
	mu      sync.RWMutex
	gets    int
	sets    int
	deletes int
}

// Verificación estática para asegurar que implementa la interfaz compartida.
var _ sharedCache.Cache = (*DummyCache)(nil)

func NewDummyCache() *DummyCache {
	return &DummyCache{
		store: make(map[string][]byte),
		ttls:  make(map[string]int),
	}
}

func (c *DummyCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++

	data, ok := c.store[key]
	if !ok {
		return false, nil // Cache miss
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *DummyCache) Set(ctx context.Context, key string, val interface{}, ttlSecs int) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.store[key] = data
	c.ttls[key] = ttlSecs
	return nil
}

func (c *DummyCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	delete(c.store, key)
	return nil
}

// Has indica si la clave está presente.
func (c *DummyCache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.store[key]
	return ok
}

func (c *DummyCache) Sets() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sets
}

func (c *DummyCache) Deletes() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deletes
}

// TTLOf devuelve el ttlSecs del último Set de la clave.
func (c *DummyCache) TTLOf(key string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ttls[key]
}
