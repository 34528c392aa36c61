package cache

import (
	"sync"
	"time"
)

// entry 缓存条目
type entry struct {
	Value     string        `json:"value"`
	Timestamp time.Time     `json:"timestamp"`
	TTL       time.Duration `json:"ttl,omitempty"`
}

// expired 判断条目是否过期
func (e entry) expired() bool {
	return e.TTL > 0 && time.Since(e.Timestamp) > e.TTL
}

// Memory 内存缓存实现
type Memory struct {
	data  map[string]entry
	mutex sync.RWMutex
	stats Stats
}

// NewMemory 创建内存缓存
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]entry),
	}
}

// Get 获取缓存
func (c *Memory) Get(key string) (string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	e, exists := c.data[key]
	if !exists {
		c.stats.Misses++
		return "", false
	}

	if e.expired() {
		delete(c.data, key)
		c.stats.Misses++
		c.stats.Size = int64(len(c.data))
		return "", false
	}

	c.stats.Hits++
	return e.Value, true
}

// Set 设置缓存
func (c *Memory) Set(key string, value string) error {
	return c.SetWithTTL(key, value, 0)
}

// SetWithTTL 设置带过期时间的缓存
func (c *Memory) SetWithTTL(key string, value string, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = entry{
		Value:     value,
		Timestamp: time.Now(),
		TTL:       ttl,
	}
	c.stats.Size = int64(len(c.data))
	return nil
}

// Delete 删除缓存
func (c *Memory) Delete(key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	c.stats.Size = int64(len(c.data))
	return nil
}

// Clear 清除所有缓存
func (c *Memory) Clear() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]entry)
	c.stats = Stats{}
	return nil
}

// Stats 获取统计信息
func (c *Memory) Stats() Stats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.stats
}
