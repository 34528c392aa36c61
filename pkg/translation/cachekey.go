package translation

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
)

// CacheKeyComponents 缓存键的组成部分
// 任何影响模型输出的参数都必须参与哈希
type CacheKeyComponents struct {
	Step        string  `json:"step"`
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	SourceLang  string  `json:"source_lang"`
	TargetLang  string  `json:"target_lang"`
	Text        string  `json:"text"`
	Context     string  `json:"context,omitempty"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// GenerateCacheKey 根据组成部分生成缓存键
func GenerateCacheKey(components CacheKeyComponents) string {
	data, err := json.Marshal(components)
	if err != nil {
		// 序列化纯值结构不会失败，失败时退化为拼接
		data = []byte(fmt.Sprintf("%+v", components))
	}
	return fmt.Sprintf("%x", md5.Sum(data))
}
