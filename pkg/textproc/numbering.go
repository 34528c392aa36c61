package textproc

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// 编号行与 <textarea> 包装的解析正则
var (
	textareaRe = regexp.MustCompile(`(?s)<textarea>\n?(.*?)\n?</textarea>`)
	// 标准编号形式 1.text 与恢复形式 【1】text 均接受
	numberedLineRe = regexp.MustCompile(`^\s*(?:(\d+)\.|【(\d+)】)\s?(.*)$`)
)

// BuildNumberedBlock 将条目拼装为编号请求负载，形如 "1.foo\n2.bar"
// 编号从 1 开始，与 <textarea> 输出契约的首行编号对应
func BuildNumberedBlock(lines []string) string {
	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteByte('.')
		sb.WriteString(line)
	}
	return sb.String()
}

// ExtractTextarea 从模型响应中提取最后一个完整 <textarea> 块的内容
// 模型偶尔会在思考过程里先输出一个草稿块，最后一个才是最终答案
func ExtractTextarea(response string) (string, error) {
	matches := textareaRe.FindAllStringSubmatch(response, -1)
	if len(matches) == 0 {
		return "", fmt.Errorf("response does not contain a <textarea> block")
	}
	return matches[len(matches)-1][1], nil
}

// ParseNumberedLines 将编号块解析为 编号 -> 文本 的映射
// 不带编号的行视为上一条目的续行；expected 为期望的条目数
func ParseNumberedLines(block string, expected int) (map[int]string, error) {
	result := make(map[int]string, expected)

	current := -1
	for _, line := range strings.Split(block, "\n") {
		m := numberedLineRe.FindStringSubmatch(line)
		if m == nil {
			// 续行归属到上一个编号条目
			if current > 0 {
				result[current] += "\n" + line
			}
			continue
		}

		numStr := m[1]
		if numStr == "" {
			numStr = m[2]
		}
		num, err := strconv.Atoi(numStr)
		if err != nil {
			return nil, fmt.Errorf("invalid line number %q: %w", numStr, err)
		}

		if num < 1 || num > expected {
			return nil, fmt.Errorf("line number %d out of range 1..%d", num, expected)
		}
		if _, dup := result[num]; dup {
			return nil, fmt.Errorf("duplicate line number %d", num)
		}

		result[num] = m[3]
		current = num
	}

	if len(result) != expected {
		missing := make([]string, 0)
		for i := 1; i <= expected; i++ {
			if _, ok := result[i]; !ok {
				missing = append(missing, strconv.Itoa(i))
			}
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("expected %d lines, got %d (missing: %s)",
			expected, len(result), strings.Join(missing, ","))
	}

	return result, nil
}

// ParseTextareaLines 提取 <textarea> 块并解析其中的编号行
func ParseTextareaLines(response string, expected int) ([]string, error) {
	block, err := ExtractTextarea(response)
	if err != nil {
		return nil, err
	}

	parsed, err := ParseNumberedLines(block, expected)
	if err != nil {
		return nil, err
	}

	lines := make([]string, expected)
	for i := 1; i <= expected; i++ {
		lines[i-1] = parsed[i]
	}
	return lines, nil
}

// Affix 条目的前后空白
type Affix struct {
	Leading  string
	Trailing string
}

// SplitAffix 剥离条目的前后空白，返回核心文本和空白信息
// 译文会丢失源文本两端的空白，翻译后需原样补回
func SplitAffix(s string) (string, Affix) {
	core := strings.TrimLeft(s, " \t　")
	leading := s[:len(s)-len(core)]

	trimmed := strings.TrimRight(core, " \t　")
	trailing := core[len(trimmed):]

	return trimmed, Affix{Leading: leading, Trailing: trailing}
}

// Apply 将保存的前后空白补回到译文上
func (a Affix) Apply(s string) string {
	return a.Leading + s + a.Trailing
}
