package translation

import (
	"regexp"
	"strings"
)

// 常见的推理过程标记对
var commonReasoningTags = [][2]string{
	{"<think>", "</think>"},
	{"<thinking>", "</thinking>"},
	{"<thought>", "</thought>"},
	{"<reasoning>", "</reasoning>"},
	{"<reflection>", "</reflection>"},
	{"[THINKING]", "[/THINKING]"},
	{"[REASONING]", "[/REASONING]"},
}

// StripReasoning 移除推理模型输出中的思考过程
// tags 为空时按常见标记对自动检测
func StripReasoning(content string, tags []string) string {
	if len(tags) >= 2 {
		return cleanupEmptyLines(stripTagPair(content, tags[0], tags[1]))
	}

	result := content
	for _, pair := range commonReasoningTags {
		result = stripTagPair(result, pair[0], pair[1])
	}
	return cleanupEmptyLines(result)
}

// stripTagPair 移除一对标记之间的内容（含标记本身，支持跨行）
func stripTagPair(content, start, end string) string {
	pattern := regexp.QuoteMeta(start) + `(?s:.*?)` + regexp.QuoteMeta(end)
	return regexp.MustCompile(pattern).ReplaceAllString(content, "")
}

// cleanupEmptyLines 压缩连续空行并去掉首尾空白
func cleanupEmptyLines(content string) string {
	content = strings.TrimSpace(content)
	return regexp.MustCompile(`\n{3,}`).ReplaceAllString(content, "\n\n")
}
