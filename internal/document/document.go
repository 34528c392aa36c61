package document

import (
	"fmt"
	"sync"
)

// Entry 文件中的一个可翻译条目
type Entry struct {
	// Index 条目在文件中的序号，从0开始
	Index int `json:"index"`
	// Source 原文
	Source string `json:"source"`
	// Translation 译文，未翻译时为空
	Translation string `json:"translation,omitempty"`
	// Translated 是否已翻译
	Translated bool `json:"translated"`
}

// File 带翻译状态的内存文件容器
// 并发批次通过读写锁共享同一个实例
type File struct {
	// Path 来源文件路径
	Path string

	mu      sync.RWMutex
	entries []Entry
}

// NewFile 创建文件容器
func NewFile(path string, sources []string) *File {
	entries := make([]Entry, len(sources))
	for i, source := range sources {
		entries[i] = Entry{Index: i, Source: source}
	}
	return &File{
		Path:    path,
		entries: entries,
	}
}

// Len 条目总数
func (f *File) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

// Entry 获取指定序号的条目
func (f *File) Entry(index int) (Entry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if index < 0 || index >= len(f.entries) {
		return Entry{}, fmt.Errorf("条目序号越界: %d", index)
	}
	return f.entries[index], nil
}

// Entries 返回所有条目的副本
func (f *File) Entries() []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return append([]Entry(nil), f.entries...)
}

// Sources 返回所有原文
func (f *File) Sources() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	sources := make([]string, len(f.entries))
	for i, e := range f.entries {
		sources[i] = e.Source
	}
	return sources
}

// SetTranslation 写入译文并标记为已翻译
func (f *File) SetTranslation(index int, translation string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if index < 0 || index >= len(f.entries) {
		return fmt.Errorf("条目序号越界: %d", index)
	}
	f.entries[index].Translation = translation
	f.entries[index].Translated = true
	return nil
}

// PendingIndices 返回尚未翻译的条目序号
func (f *File) PendingIndices() []int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var pending []int
	for _, e := range f.entries {
		if !e.Translated {
			pending = append(pending, e.Index)
		}
	}
	return pending
}

// TranslatedCount 已翻译的条目数
func (f *File) TranslatedCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	count := 0
	for _, e := range f.entries {
		if e.Translated {
			count++
		}
	}
	return count
}

// Progress 翻译进度，0到1
func (f *File) Progress() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.entries) == 0 {
		return 1
	}
	count := 0
	for _, e := range f.entries {
		if e.Translated {
			count++
		}
	}
	return float64(count) / float64(len(f.entries))
}

// Results 返回与原文顺序一致的译文
// 未翻译的条目回退为原文
func (f *File) Results() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	results := make([]string, len(f.entries))
	for i, e := range f.entries {
		if e.Translated {
			results[i] = e.Translation
		} else {
			results[i] = e.Source
		}
	}
	return results
}
