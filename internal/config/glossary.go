package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Glossary 术语表
// 约束模型对人名、专有名词等的译法
type Glossary struct {
	SourceLang string            `toml:"source_lang"`
	TargetLang string            `toml:"target_lang"`
	Terms      map[string]string `toml:"terms"`
}

// NewGlossary 创建术语表
func NewGlossary(sourceLang, targetLang string, terms map[string]string) *Glossary {
	return &Glossary{
		SourceLang: sourceLang,
		TargetLang: targetLang,
		Terms:      terms,
	}
}

// LoadGlossary 从TOML文件加载术语表
func LoadGlossary(path string) (*Glossary, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("术语表文件不存在: %s", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取术语表文件失败: %w", err)
	}

	glossary := &Glossary{}
	if err := toml.Unmarshal(content, glossary); err != nil {
		return nil, fmt.Errorf("解析术语表失败: %w", err)
	}
	if glossary.SourceLang == "" || glossary.TargetLang == "" {
		return nil, fmt.Errorf("术语表缺少 source_lang 或 target_lang")
	}

	return glossary, nil
}

// Save 将术语表写回TOML文件
func (g *Glossary) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建术语表文件失败: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(g); err != nil {
		return fmt.Errorf("写入术语表失败: %w", err)
	}
	return nil
}
