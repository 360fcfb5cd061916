package utils

import (
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// Cache 进程内 LRU 缓存，条目带 TTL，过期的条目在读取时清除
type Cache struct {
	entries *lru.Cache[string, cacheEntry]
	now     func() time.Time
	// 每次 Delete 递增；Remember 加载期间发生过失效则不回写
	generation atomic.Uint64
	mu         sync.Mutex
}

// NewCache 创建容量为 size 的缓存
func NewCache(size int) (*Cache, error) {
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries, now: time.Now}, nil
}

func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	c.entries.Add(key, cacheEntry{value: value, expiresAt: c.now().Add(ttl)})
}

// Get 未命中或已过期返回 nil
func (c *Cache) Get(key string) interface{} {
	e, ok := c.entries.Get(key)
	if !ok {
		return nil
	}
	if !c.now().Before(e.expiresAt) {
		c.entries.Remove(key)
		return nil
	}
	return e.value
}

// Remember 命中直接返回；否则调用 load 并缓存其结果。
// load 出错，或加载期间有 Delete 发生时，结果不写缓存
func (c *Cache) Remember(key string, ttl time.Duration, load func() (interface{}, error)) (interface{}, error) {
	if v := c.Get(key); v != nil {
		return v, nil
	}
	gen := c.generation.Load()
	v, err := load()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.generation.Load() == gen {
		c.Set(key, v, ttl)
	}
	c.mu.Unlock()
	return v, nil
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation.Add(1)
	c.entries.Remove(key)
}

func (c *Cache) Len() int {
	return c.entries.Len()
}
