package translation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripReasoning(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		tags     []string
		expected string
	}{
		{
			name:     "think标记",
			content:  "<think>推敲中…</think>\n<textarea>\n1.Hello\n</textarea>",
			expected: "<textarea>\n1.Hello\n</textarea>",
		},
		{
			name:     "thinking标记跨行",
			content:  "<thinking>\nline1\nline2\n</thinking>\nresult",
			expected: "result",
		},
		{
			name:     "指定标记对",
			content:  "«start»hidden«end»visible",
			tags:     []string{"«start»", "«end»"},
			expected: "visible",
		},
		{
			name:     "没有推理标记",
			content:  "plain output",
			expected: "plain output",
		},
		{
			name:     "多个推理块",
			content:  "<think>a</think>mid<think>b</think>end",
			expected: "midend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripReasoning(tt.content, tt.tags))
		})
	}
}

func TestStripReasoningCollapsesEmptyLines(t *testing.T) {
	content := "<think>x</think>\n\n\n\n<textarea>\n1.Hi\n</textarea>"
	assert.Equal(t, "<textarea>\n1.Hi\n</textarea>", StripReasoning(content, nil))
}

func TestGenerateCacheKey(t *testing.T) {
	base := CacheKeyComponents{
		Step:       StepLiteral,
		Provider:   "openai",
		Model:      "gpt-4o",
		SourceLang: "Japanese",
		TargetLang: "English",
		Text:       "1.こんにちは",
	}

	key1 := GenerateCacheKey(base)
	key2 := GenerateCacheKey(base)
	assert.Equal(t, key1, key2, "相同输入应得到相同缓存键")

	changed := base
	changed.Text = "1.さようなら"
	assert.NotEqual(t, key1, GenerateCacheKey(changed))

	changed = base
	changed.Temperature = 0.7
	assert.NotEqual(t, key1, GenerateCacheKey(changed))

	changed = base
	changed.Step = StepPolish
	assert.NotEqual(t, key1, GenerateCacheKey(changed))
}
