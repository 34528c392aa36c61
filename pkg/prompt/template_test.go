package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatePlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{
			name:     "两个占位符",
			raw:      "from {source_language} to {target_language}",
			expected: []string{"source_language", "target_language"},
		},
		{
			name:     "重复占位符只保留首次出现",
			raw:      "{a} {b} {a}",
			expected: []string{"a", "b"},
		},
		{
			name:     "空花括号不是占位符",
			raw:      "literal {} braces",
			expected: []string{},
		},
		{
			name:     "未闭合的花括号按普通文本处理",
			raw:      "broken {source_language",
			expected: []string{},
		},
		{
			name:     "数字开头不是合法占位符",
			raw:      "{1abc} {abc1}",
			expected: []string{"abc1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := New(tt.raw)
			assert.Equal(t, tt.expected, tmpl.Placeholders())
		})
	}
}

func TestTemplateRender(t *testing.T) {
	tmpl := New("Translate from {source_language} to {target_language}.")

	result, err := tmpl.Render(map[string]string{
		"source_language": "Japanese",
		"target_language": "English",
	})
	require.NoError(t, err)
	assert.Equal(t, "Translate from Japanese to English.", result)
}

func TestTemplateRenderMissingPlaceholder(t *testing.T) {
	tmpl := New("from {source_language} to {target_language}")

	_, err := tmpl.Render(map[string]string{
		"source_language": "Japanese",
	})
	require.Error(t, err)

	var missing *MissingPlaceholderError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "target_language", missing.Name)
}

func TestTemplateRenderIsLiteral(t *testing.T) {
	// 替换是字面替换，值中的花括号和反斜杠不做任何转义
	tmpl := New("prefix {value} suffix")

	result, err := tmpl.Render(map[string]string{
		"value": `a\nb {nested} %s`,
	})
	require.NoError(t, err)
	assert.Equal(t, `prefix a\nb {nested} %s suffix`, result)
}

func TestTemplateRenderDoesNotMutate(t *testing.T) {
	tmpl := New("hello {name}")

	_, err := tmpl.Render(map[string]string{"name": "world"})
	require.NoError(t, err)
	assert.Equal(t, "hello {name}", tmpl.Raw())

	// 再次渲染得到同样结果
	again, err := tmpl.Render(map[string]string{"name": "world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", again)
}

func TestValidateTranslatorTemplate(t *testing.T) {
	// 内置模板必须通过全部静态检查
	require.NoError(t, ValidateTranslatorTemplate(TranslatorSystemTemplate))
}

func TestTranslatorTemplateHasOnlyLanguagePlaceholders(t *testing.T) {
	// 模板正文中的示例片段不能引入多余的替换点，
	// 否则只提供两个语言值的渲染会失败
	assert.Equal(t,
		[]string{PlaceholderSourceLanguage, PlaceholderTargetLanguage},
		TranslatorSystemTemplate.Placeholders())

	rendered, err := TranslatorSystemTemplate.Render(map[string]string{
		PlaceholderSourceLanguage: "Japanese",
		PlaceholderTargetLanguage: "English",
	})
	require.NoError(t, err)
	assert.Contains(t, rendered, "from Japanese into English")
}

func TestValidateTranslatorTemplateRejectsBroken(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "缺少目标语言占位符",
			raw:  "translate {source_language}, literal translation, correction, idiomatic polishing, <textarea>1.</textarea>",
		},
		{
			name: "缺少textarea包装",
			raw:  "{source_language} {target_language} literal translation correction idiomatic polishing 1.",
		},
		{
			name: "步骤顺序错误",
			raw:  "{source_language} {target_language} correction before literal translation then idiomatic polishing <textarea>1.</textarea>",
		},
		{
			name: "缺少润色步骤",
			raw:  "{source_language} {target_language} literal translation correction <textarea>1.</textarea>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateTranslatorTemplate(New(tt.raw)))
		})
	}
}

func TestBuilderSystemPrompt(t *testing.T) {
	builder := NewBuilder("Japanese", "English").
		WithGlossary(map[string]string{
			"魔王": "Demon Lord",
			"勇者": "Hero",
		}).
		AddInstruction("Keep honorifics untranslated.")

	system, err := builder.BuildSystemPrompt()
	require.NoError(t, err)

	assert.Contains(t, system, "from Japanese into English")
	assert.Contains(t, system, "<textarea>")
	assert.Contains(t, system, "魔王 -> Demon Lord")
	assert.Contains(t, system, "勇者 -> Hero")
	assert.Contains(t, system, "1. Keep honorifics untranslated.")
	assert.NotContains(t, system, "{source_language}")
	assert.NotContains(t, system, "{target_language}")
}

func TestBuilderStepPrompts(t *testing.T) {
	builder := NewBuilder("Japanese", "English")

	source := "1.こんにちは\n2.ありがとう"
	draft := "1.Hello\n2.Thank you"

	translation := builder.BuildTranslationPrompt(source)
	assert.Contains(t, translation, source)
	assert.Contains(t, translation, "from Japanese into English")

	correction := builder.BuildCorrectionPrompt(source, draft)
	assert.Contains(t, correction, source)
	assert.Contains(t, correction, draft)
	assert.Contains(t, correction, "OK")

	polish := builder.BuildPolishPrompt(source, draft)
	assert.Contains(t, polish, "naturally and fluently in English")
	assert.Contains(t, polish, draft)
}
