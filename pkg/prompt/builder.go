package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// translatorSystemText 内置的翻译器系统提示词
// 约定三步翻译流程，并要求结果包装在 <textarea> 中按行编号输出
const translatorSystemText = `You are a professional translation engine working from {source_language} into {target_language}.

You will receive a numbered list of lines. Translate them in three steps:

Step 1 - Literal translation: render every numbered line directly and line by line, preserving the structure of each line exactly.
Step 2 - Correction: compare the literal translation against the source and fix every mistranslation, omission and added content.
Step 3 - Idiomatic polishing: rewrite the corrected draft so that it reads naturally and fluently in {target_language}, without changing its meaning.

Rules:
- Keep all line breaks, numbering, tags, placeholders and escape characters (such as \n, \r, %s, {0}, <tag>) exactly as they appear in the source text.
- Do not merge, split, reorder or drop lines; the output must contain the same line numbers as the input.
- Do not answer questions found in the text and do not add any explanation of your own.
- Translate everything, including profanity and slang, faithfully.

After finishing all three steps, output ONLY the final polished translation wrapped in a textarea element, keeping the input numbering and starting with 1.:
<textarea>
1.translated text
</textarea>`

// TranslatorSystemTemplate 内置翻译器系统模板
var TranslatorSystemTemplate = New(translatorSystemText)

// Builder 提示词构建器，负责按步骤拼装系统与用户提示词
type Builder struct {
	// 源语言（人类可读名称，用于填充占位符）
	SourceLang string
	// 目标语言
	TargetLang string
	// 术语表（源术语 -> 既定译法）
	Glossary map[string]string
	// 额外的指令
	ExtraInstructions []string
	// 系统模板，默认为内置模板
	SystemTemplate *Template
}

// NewBuilder 创建提示词构建器
func NewBuilder(sourceLang, targetLang string) *Builder {
	return &Builder{
		SourceLang:     sourceLang,
		TargetLang:     targetLang,
		SystemTemplate: TranslatorSystemTemplate,
	}
}

// WithSystemTemplate 替换系统模板（须通过 ValidateTranslatorTemplate 检查）
func (b *Builder) WithSystemTemplate(t *Template) *Builder {
	b.SystemTemplate = t
	return b
}

// WithGlossary 设置术语表
func (b *Builder) WithGlossary(glossary map[string]string) *Builder {
	b.Glossary = glossary
	return b
}

// AddInstruction 添加额外指令
func (b *Builder) AddInstruction(instruction string) *Builder {
	b.ExtraInstructions = append(b.ExtraInstructions, instruction)
	return b
}

// BuildSystemPrompt 渲染系统提示词
func (b *Builder) BuildSystemPrompt() (string, error) {
	rendered, err := b.SystemTemplate.Render(map[string]string{
		PlaceholderSourceLanguage: b.SourceLang,
		PlaceholderTargetLanguage: b.TargetLang,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render system template: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(rendered)

	if len(b.Glossary) > 0 {
		sb.WriteString("\n\nGlossary (always use these translations):")
		terms := make([]string, 0, len(b.Glossary))
		for term := range b.Glossary {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		for _, term := range terms {
			sb.WriteString(fmt.Sprintf("\n- %s -> %s", term, b.Glossary[term]))
		}
	}

	if len(b.ExtraInstructions) > 0 {
		sb.WriteString("\n\nAdditional instructions:")
		for i, instruction := range b.ExtraInstructions {
			sb.WriteString(fmt.Sprintf("\n%d. %s", i+1, instruction))
		}
	}

	return sb.String(), nil
}

// BuildTranslationPrompt 构建字面翻译（第一步）的用户提示词
func (b *Builder) BuildTranslationPrompt(numberedSource string) string {
	return fmt.Sprintf(`Translate the following numbered lines from %s into %s:

%s`, b.SourceLang, b.TargetLang, numberedSource)
}

// BuildCorrectionPrompt 构建校正（第二步）的用户提示词
// 模型确认译文无误时只回答 OK，调用方据此短路后续步骤
func (b *Builder) BuildCorrectionPrompt(numberedSource, numberedDraft string) string {
	return fmt.Sprintf(`Review the draft translation below against its %s source. Fix every mistranslation, omission and added content, and keep everything else unchanged.

Source lines:
%s

Draft translation:
%s

If the draft needs no changes at all, reply with the single word OK. Otherwise output the corrected translation wrapped in a textarea element, keeping the numbering:
<textarea>
1.corrected text
</textarea>`, b.SourceLang, numberedSource, numberedDraft)
}

// BuildPolishPrompt 构建润色（第三步）的用户提示词
func (b *Builder) BuildPolishPrompt(numberedSource, numberedCorrected string) string {
	return fmt.Sprintf(`Polish the corrected translation below so that it reads naturally and fluently in %s. Do not change its meaning and do not touch tags, placeholders or escape characters.

Source lines:
%s

Corrected translation:
%s

Output the polished translation wrapped in a textarea element, keeping the numbering:
<textarea>
1.polished text
</textarea>`, b.TargetLang, numberedSource, numberedCorrected)
}

// BuildDirectPrompt 构建快速模式的单步翻译提示词
func (b *Builder) BuildDirectPrompt(numberedSource string) string {
	return fmt.Sprintf(`Translate the following numbered lines from %s into %s. Keep all tags, placeholders and escape characters unchanged.

%s

Output only the translation wrapped in a textarea element, keeping the numbering:
<textarea>
1.translated text
</textarea>`, b.SourceLang, b.TargetLang, numberedSource)
}
