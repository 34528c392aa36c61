package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderRe 匹配 {name} 形式的占位符
// 花括号内只允许标识符字符，"{}"、未闭合的 "{" 均按普通文本处理
var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Template 提示词模板，持有原始文本和其中的占位符
type Template struct {
	raw          string
	placeholders []string
}

// New 解析模板文本并创建模板
func New(raw string) *Template {
	matches := placeholderRe.FindAllStringSubmatch(raw, -1)

	// 按首次出现顺序去重
	seen := make(map[string]bool, len(matches))
	placeholders := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if !seen[name] {
			seen[name] = true
			placeholders = append(placeholders, name)
		}
	}

	return &Template{
		raw:          raw,
		placeholders: placeholders,
	}
}

// Raw 返回模板原始文本
func (t *Template) Raw() string {
	return t.raw
}

// Placeholders 返回模板中的占位符名称（按首次出现顺序）
func (t *Template) Placeholders() []string {
	out := make([]string, len(t.placeholders))
	copy(out, t.placeholders)
	return out
}

// Has 检查模板是否包含指定占位符
func (t *Template) Has(name string) bool {
	for _, p := range t.placeholders {
		if p == name {
			return true
		}
	}
	return false
}

// MissingPlaceholderError 占位符缺少替换值
type MissingPlaceholderError struct {
	Name string
}

// Error 实现error接口
func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("no value supplied for placeholder {%s}", e.Name)
}

// Render 将占位符替换为给定的值
// 替换是字面替换，不做任何转义；任何占位符缺少值时返回错误
func (t *Template) Render(vars map[string]string) (string, error) {
	for _, name := range t.placeholders {
		if _, ok := vars[name]; !ok {
			return "", &MissingPlaceholderError{Name: name}
		}
	}

	result := placeholderRe.ReplaceAllStringFunc(t.raw, func(match string) string {
		name := match[1 : len(match)-1]
		return vars[name]
	})

	return result, nil
}

// 内置翻译器系统模板要求的结构特征
const (
	PlaceholderSourceLanguage = "source_language"
	PlaceholderTargetLanguage = "target_language"
)

// 三个翻译步骤在模板中出现的名称，顺序固定
var translatorSteps = []string{
	"literal translation",
	"correction",
	"idiomatic polishing",
}

// ValidateTranslatorTemplate 对翻译器系统模板做静态检查：
// 两个语言占位符均出现、指定 <textarea> 输出包装且首行以 1. 编号、
// 三个步骤按既定顺序出现
func ValidateTranslatorTemplate(t *Template) error {
	if !t.Has(PlaceholderSourceLanguage) {
		return fmt.Errorf("translator template missing placeholder {%s}", PlaceholderSourceLanguage)
	}
	if !t.Has(PlaceholderTargetLanguage) {
		return fmt.Errorf("translator template missing placeholder {%s}", PlaceholderTargetLanguage)
	}

	lower := strings.ToLower(t.raw)

	if !strings.Contains(lower, "<textarea>") || !strings.Contains(lower, "</textarea>") {
		return fmt.Errorf("translator template does not specify the <textarea> output wrapper")
	}
	if !strings.Contains(t.raw, "1.") {
		return fmt.Errorf("translator template does not specify the numbered first line")
	}

	pos := -1
	for _, step := range translatorSteps {
		idx := strings.Index(lower, step)
		if idx < 0 {
			return fmt.Errorf("translator template missing step %q", step)
		}
		if idx < pos {
			return fmt.Errorf("translator template step %q out of order", step)
		}
		pos = idx
	}

	return nil
}
