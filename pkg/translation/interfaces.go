package translation

import (
	"context"
)

// Provider 翻译提供者接口
type Provider interface {
	// Complete 执行一次补全
	Complete(ctx context.Context, req *Request) (*Response, error)

	// Name 提供者名称
	Name() string
}

// Cache 翻译结果缓存
// 翻译器只需要读写两种操作，统计与清理由具体实现负责
type Cache interface {
	// Get 获取缓存
	Get(key string) (string, bool)

	// Set 设置缓存
	Set(key string, value string) error
}

// Service 高层翻译接口
type Service interface {
	// TranslateBatch 按编号协议翻译一批条目
	TranslateBatch(ctx context.Context, entries []string) (*BatchResult, error)

	// TranslateText 翻译单段文本
	TranslateText(ctx context.Context, text string) (string, error)
}
