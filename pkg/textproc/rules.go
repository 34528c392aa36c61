package textproc

import (
	"fmt"
	"regexp"
)

// ReplacementRule 译前/译后替换规则
type ReplacementRule struct {
	Find    string `mapstructure:"find" toml:"find"`
	Replace string `mapstructure:"replace" toml:"replace"`
	// 是否按正则处理，否则按字面文本替换
	Regex bool `mapstructure:"regex" toml:"regex"`
}

// RuleSet 已编译的替换规则集，按声明顺序应用
type RuleSet struct {
	rules    []ReplacementRule
	compiled []*regexp.Regexp
}

// CompileRules 编译替换规则集
func CompileRules(rules []ReplacementRule) (*RuleSet, error) {
	rs := &RuleSet{
		rules:    rules,
		compiled: make([]*regexp.Regexp, len(rules)),
	}

	for i, rule := range rules {
		pattern := rule.Find
		if !rule.Regex {
			pattern = regexp.QuoteMeta(pattern)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid replacement rule %q: %w", rule.Find, err)
		}
		rs.compiled[i] = re
	}

	return rs, nil
}

// Apply 依次应用所有替换规则
// 字面规则的替换文本不解释 $1 之类的引用
func (rs *RuleSet) Apply(text string) string {
	if rs == nil {
		return text
	}
	for i, re := range rs.compiled {
		if rs.rules[i].Regex {
			text = re.ReplaceAllString(text, rs.rules[i].Replace)
		} else {
			text = re.ReplaceAllLiteralString(text, rs.rules[i].Replace)
		}
	}
	return text
}

// Len 规则数量
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}
