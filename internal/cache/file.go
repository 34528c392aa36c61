package cache

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// File 文件缓存实现，带内存二级缓存
type File struct {
	basePath string
	memory   *Memory
	stats    Stats
	mutex    sync.RWMutex
}

// NewFile 创建文件缓存
// 目录创建失败时退化为纯内存缓存
func NewFile(basePath string) *File {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return &File{
			basePath: "",
			memory:   NewMemory(),
		}
	}

	return &File{
		basePath: basePath,
		memory:   NewMemory(),
	}
}

// fileName 根据key生成文件名
func (c *File) fileName(key string) string {
	hash := md5.Sum([]byte(key))
	return fmt.Sprintf("%x.cache", hash)
}

// filePath 获取缓存文件路径
func (c *File) filePath(key string) string {
	if c.basePath == "" {
		return ""
	}
	return filepath.Join(c.basePath, c.fileName(key))
}

// Get 获取缓存
func (c *File) Get(key string) (string, bool) {
	// 先查内存
	if value, ok := c.memory.Get(key); ok {
		return value, true
	}

	if c.basePath == "" {
		return "", false
	}

	data, err := os.ReadFile(c.filePath(key))
	if err != nil {
		c.addMiss()
		return "", false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.addMiss()
		return "", false
	}

	if e.expired() {
		os.Remove(c.filePath(key))
		c.addMiss()
		return "", false
	}

	// 回填内存
	c.memory.Set(key, e.Value)
	c.addHit()
	return e.Value, true
}

// Set 设置缓存
func (c *File) Set(key string, value string) error {
	return c.SetWithTTL(key, value, 0)
}

// SetWithTTL 设置带过期时间的缓存
func (c *File) SetWithTTL(key string, value string, ttl time.Duration) error {
	if err := c.memory.SetWithTTL(key, value, ttl); err != nil {
		return err
	}

	if c.basePath == "" {
		return nil
	}

	data, err := json.Marshal(entry{
		Value:     value,
		Timestamp: time.Now(),
		TTL:       ttl,
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(c.filePath(key), data, 0o644); err != nil {
		return fmt.Errorf("写入缓存文件失败: %w", err)
	}

	c.mutex.Lock()
	c.stats.Size++
	c.mutex.Unlock()
	return nil
}

// Delete 删除缓存
func (c *File) Delete(key string) error {
	c.memory.Delete(key)

	if c.basePath == "" {
		return nil
	}

	if err := os.Remove(c.filePath(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Clear 清除所有缓存
func (c *File) Clear() error {
	c.memory.Clear()

	if c.basePath == "" {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(c.basePath, "*.cache"))
	if err != nil {
		return err
	}
	for _, file := range files {
		os.Remove(file)
	}

	c.mutex.Lock()
	c.stats = Stats{}
	c.mutex.Unlock()
	return nil
}

// Stats 获取统计信息（内存与文件层合并）
func (c *File) Stats() Stats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	memStats := c.memory.Stats()
	return Stats{
		Hits:   c.stats.Hits + memStats.Hits,
		Misses: c.stats.Misses,
		Size:   c.stats.Size,
	}
}

func (c *File) addHit() {
	c.mutex.Lock()
	c.stats.Hits++
	c.mutex.Unlock()
}

func (c *File) addMiss() {
	c.mutex.Lock()
	c.stats.Misses++
	c.mutex.Unlock()
}
