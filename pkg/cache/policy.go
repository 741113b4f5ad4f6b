package cache

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// EvictionPolicy 淘汰策略。容量满时总是淘汰有序表头部的 key，
// 策略只决定命中和覆盖写时是否调整顺序。
type EvictionPolicy interface {
	Name() string
	// OnHit Get 命中后调用
	OnHit(entries *linkedhashmap.Map, key string, value interface{})
	// OnOverwrite 覆盖已存在 key 时调用，负责写入新值
	OnOverwrite(entries *linkedhashmap.Map, key string, value interface{})
}

// FIFO 按插入顺序淘汰，访问和覆盖写都不改变顺序
type FIFO struct{}

func (FIFO) Name() string { return "fifo" }

func (FIFO) OnHit(*linkedhashmap.Map, string, interface{}) {}

func (FIFO) OnOverwrite(entries *linkedhashmap.Map, key string, value interface{}) {
	entries.Put(key, value)
}

// LRU 按最近访问淘汰
type LRU struct{}

func (LRU) Name() string { return "lru" }

func (LRU) OnHit(entries *linkedhashmap.Map, key string, value interface{}) {
	entries.Remove(key)
	entries.Put(key, value)
}

func (LRU) OnOverwrite(entries *linkedhashmap.Map, key string, value interface{}) {
	entries.Remove(key)
	entries.Put(key, value)
}

// ParsePolicy 解析配置中的策略名，空串默认为 fifo
func ParsePolicy(name string) (EvictionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fifo":
		return FIFO{}, nil
	case "lru":
		return LRU{}, nil
	default:
		return nil, fmt.Errorf("unknown cache policy %q", name)
	}
}
