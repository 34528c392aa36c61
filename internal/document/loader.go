package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadText 从纯文本文件加载，一行一个条目
func LoadText(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取文本文件失败: %w", err)
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")

	var sources []string
	if text != "" {
		sources = strings.Split(text, "\n")
	}

	return NewFile(path, sources), nil
}

// LoadJSON 从JSON文件加载
// 支持两种形式: 字符串数组，或保持顺序的 原文->译文 对象
func LoadJSON(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取JSON文件失败: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return NewFile(path, nil), nil
	}

	switch trimmed[0] {
	case '[':
		var sources []string
		if err := json.Unmarshal(trimmed, &sources); err != nil {
			return nil, fmt.Errorf("解析JSON数组失败: %w", err)
		}
		return NewFile(path, sources), nil
	case '{':
		return loadJSONObject(path, trimmed)
	default:
		return nil, fmt.Errorf("不支持的JSON结构: %s", path)
	}
}

// loadJSONObject 按出现顺序解析 原文->译文 对象
// encoding/json 的 map 不保证顺序，这里用 Decoder 逐个读取
func loadJSONObject(path string, data []byte) (*File, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("解析JSON对象失败: %w", err)
	}

	var sources []string
	var translations []string
	for dec.More() {
		keyToken, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("解析JSON键失败: %w", err)
		}
		key, ok := keyToken.(string)
		if !ok {
			return nil, fmt.Errorf("JSON键不是字符串: %v", keyToken)
		}

		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("条目 %q 的译文不是字符串: %w", key, err)
		}

		sources = append(sources, key)
		translations = append(translations, value)
	}

	file := NewFile(path, sources)
	for i, translation := range translations {
		// 译文与原文相同视为未翻译，支持断点续翻
		if translation != "" && translation != sources[i] {
			file.SetTranslation(i, translation)
		}
	}
	return file, nil
}

// Load 根据扩展名选择加载器
func Load(path string) (*File, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(path)
	case ".txt", ".text", "":
		return LoadText(path)
	default:
		return nil, fmt.Errorf("不支持的文件类型: %s", path)
	}
}

// WriteText 把译文写成纯文本，一行一条
func WriteText(file *File, path string) error {
	results := file.Results()

	var sb strings.Builder
	for _, line := range results {
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("写入文本文件失败: %w", err)
	}
	return nil
}

// WriteJSON 把译文写成保持顺序的 原文->译文 对象
func WriteJSON(file *File, path string) error {
	entries := file.Entries()
	results := file.Results()

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, e := range entries {
		key, err := json.Marshal(e.Source)
		if err != nil {
			return fmt.Errorf("序列化原文失败: %w", err)
		}
		value, err := json.Marshal(results[i])
		if err != nil {
			return fmt.Errorf("序列化译文失败: %w", err)
		}

		buf.WriteString("    ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(value)
		if i < len(entries)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("写入JSON文件失败: %w", err)
	}
	return nil
}

// Write 根据扩展名选择写出格式
func Write(file *File, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return WriteJSON(file, path)
	default:
		return WriteText(file, path)
	}
}
