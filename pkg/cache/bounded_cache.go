package cache

import (
	"sync"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// DefaultCapacity 默认最多缓存 100 条完整响应
const DefaultCapacity = 100

// Stats 缓存统计
type Stats struct {
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity"`
	Policy    string `json:"policy"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// BoundedCache 有容量上限的有序 map，并发安全。
// 只应写入计算成功的完整结果。
type BoundedCache[V any] struct {
	mu       sync.Mutex
	entries  *linkedhashmap.Map
	capacity int
	policy   EvictionPolicy

	hits, misses, evictions uint64
}

// New 创建缓存；capacity <= 0 时使用 DefaultCapacity，policy 为 nil 时使用 FIFO
func New[V any](capacity int, policy EvictionPolicy) *BoundedCache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if policy == nil {
		policy = FIFO{}
	}
	return &BoundedCache[V]{
		entries:  linkedhashmap.New(),
		capacity: capacity,
		policy:   policy,
	}
}

func (c *BoundedCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries.Get(key)
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.policy.OnHit(c.entries, key, raw)
	return raw.(V), true
}

func (c *BoundedCache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries.Get(key); exists {
		c.policy.OnOverwrite(c.entries, key, value)
		return
	}
	c.entries.Put(key, value)
	for c.entries.Size() > c.capacity {
		it := c.entries.Iterator()
		if !it.First() {
			break
		}
		c.entries.Remove(it.Key())
		c.evictions++
	}
}

func (c *BoundedCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Size()
}

// Keys 按淘汰顺序返回 key，第一个最先被淘汰
func (c *BoundedCache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw := c.entries.Keys()
	keys := make([]string, len(raw))
	for i, k := range raw {
		keys[i] = k.(string)
	}
	return keys
}

func (c *BoundedCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:      c.entries.Size(),
		Capacity:  c.capacity,
		Policy:    c.policy.Name(),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
