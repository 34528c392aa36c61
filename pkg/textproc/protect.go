package textproc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"
)

// ProtectRule 命名保护规则，Pattern 为 regexp2 语法（支持环视）
type ProtectRule struct {
	Name    string `mapstructure:"name" toml:"name"`
	Pattern string `mapstructure:"pattern" toml:"pattern"`
}

// DefaultProtectRules 默认保护规则
// 覆盖行内代码最常见的不可译片段：转义序列、格式化动词、占位符和控制标签
var DefaultProtectRules = []ProtectRule{
	// \n、\r、\t 等转义序列，双写反斜杠的不算（依赖负向后行断言）
	{Name: "escape", Pattern: `(?<!\\)\\[nrt]`},
	// printf 风格的格式化动词
	{Name: "verb", Pattern: `%(?:\d+\$)?[sdfv]`},
	// {var} 形式的占位符
	{Name: "placeholder", Pattern: `\{[A-Za-z_][A-Za-z0-9_]*\}`},
	// <name> 与 <name:...> 形式的控制标签
	{Name: "tag", Pattern: `<[A-Za-z_][^<>\n]*>`},
	// [code] 形式的方括号控制码
	{Name: "code", Pattern: `\[[A-Za-z0-9_]+\]`},
}

// ProtectConfig 保护标记配置
type ProtectConfig struct {
	// 是否启用保护
	Enabled bool
	// 标记前缀
	Prefix string
	// 标记后缀
	Suffix string
	// 保护规则，空时使用默认规则
	Rules []ProtectRule
}

// DefaultProtectConfig 默认保护标记配置
var DefaultProtectConfig = ProtectConfig{
	Enabled: true,
	Prefix:  "@@KEEP_",
	Suffix:  "@@",
}

// Protector 保护标记管理器
// 在送往模型前把不可译片段换成稳定标记，收到译文后再原样还原
type Protector struct {
	config   ProtectConfig
	patterns []*regexp2.Regexp
	markerRe *regexp.Regexp

	counter      int
	replacements map[string]string
}

// NewProtector 创建保护标记管理器
func NewProtector(config ProtectConfig) (*Protector, error) {
	rules := config.Rules
	if len(rules) == 0 {
		rules = DefaultProtectRules
	}

	patterns := make([]*regexp2.Regexp, 0, len(rules))
	for _, rule := range rules {
		re, err := regexp2.Compile(rule.Pattern, regexp2.IgnoreCase)
		if err != nil {
			return nil, fmt.Errorf("invalid protect rule %q: %w", rule.Name, err)
		}
		patterns = append(patterns, re)
	}

	markerRe := regexp.MustCompile(
		regexp.QuoteMeta(config.Prefix) + `\d+` + regexp.QuoteMeta(config.Suffix))

	return &Protector{
		config:       config,
		patterns:     patterns,
		markerRe:     markerRe,
		replacements: make(map[string]string),
	}, nil
}

// Protect 保护文本中的不可译片段，返回替换后的文本
func (p *Protector) Protect(text string) string {
	if !p.config.Enabled {
		return text
	}

	result := text
	for _, re := range p.patterns {
		replaced, err := re.ReplaceFunc(result, func(m regexp2.Match) string {
			marker := fmt.Sprintf("%s%d%s", p.config.Prefix, p.counter, p.config.Suffix)
			p.counter++
			p.replacements[marker] = m.String()
			return marker
		}, -1, -1)
		if err != nil {
			// regexp2 的替换对合法模式不会失败，失败时保持原样
			continue
		}
		result = replaced
	}

	return result
}

// Restore 还原文本中的所有保护标记
// 按编号降序还原，避免 @@KEEP_1@@ 吞掉 @@KEEP_12@@ 的前缀
func (p *Protector) Restore(text string) string {
	for i := p.counter - 1; i >= 0; i-- {
		marker := fmt.Sprintf("%s%d%s", p.config.Prefix, i, p.config.Suffix)
		if original, ok := p.replacements[marker]; ok {
			text = strings.ReplaceAll(text, marker, original)
		}
	}
	return text
}

// Verify 检查译文中的保护标记是否与原文一致
// 返回丢失的标记列表，全部保留时为空
func (p *Protector) Verify(source, translated string) []string {
	wanted := p.markerRe.FindAllString(source, -1)
	if len(wanted) == 0 {
		return nil
	}

	var missing []string
	for _, marker := range wanted {
		if !strings.Contains(translated, marker) {
			missing = append(missing, marker)
		}
	}
	return missing
}

// MarkerCount 已生成的标记数量
func (p *Protector) MarkerCount() int {
	return p.counter
}
