package cache

import (
	"fmt"
)

// Stats 缓存统计信息
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int64 `json:"size"`
}

// HitRate 命中率
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache 翻译缓存接口
type Cache interface {
	// Get 获取缓存
	Get(key string) (string, bool)

	// Set 设置缓存
	Set(key string, value string) error

	// Delete 删除缓存
	Delete(key string) error

	// Clear 清除所有缓存
	Clear() error

	// Stats 获取统计信息
	Stats() Stats
}

// 支持的缓存后端
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// New 根据后端名称创建缓存实例
func New(backend string, dir string) (Cache, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendFile:
		return NewFile(dir), nil
	case BackendSQLite:
		return NewSQLite(dir)
	default:
		return nil, fmt.Errorf("未知的缓存后端: %s", backend)
	}
}
