package translation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/translens/go-llm-translator/pkg/prompt"
	"github.com/translens/go-llm-translator/pkg/textproc"
)

// ThreeStepTranslator 三步翻译器
// 按 字面翻译 -> 校正 -> 润色 的流程翻译一批编号条目
type ThreeStepTranslator struct {
	// 配置
	config *Config
	// 提供者表
	providers map[string]Provider
	// 步骤集
	stepSet *StepSet
	// 提示词构建器
	builder *prompt.Builder
	// 缓存
	cache Cache
	// 日志
	logger *zap.Logger
	// 互斥锁
	mu sync.RWMutex
}

// NewThreeStepTranslator 创建三步翻译器
func NewThreeStepTranslator(config *Config, providers map[string]Provider, stepSet *StepSet) (*ThreeStepTranslator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := stepSet.Validate(); err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: no providers registered", ErrInvalidConfig)
	}

	builder := prompt.NewBuilder(config.SourceLanguage, config.TargetLanguage).
		WithGlossary(config.Glossary)
	for _, instruction := range config.ExtraInstructions {
		builder.AddInstruction(instruction)
	}

	return &ThreeStepTranslator{
		config:    config.Clone(),
		providers: providers,
		stepSet:   stepSet,
		builder:   builder,
		logger:    zap.NewNop(),
	}, nil
}

// SetCache 设置缓存
func (t *ThreeStepTranslator) SetCache(cache Cache) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache = cache
}

// SetLogger 设置日志记录器
func (t *ThreeStepTranslator) SetLogger(logger *zap.Logger) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if logger != nil {
		t.logger = logger
	}
}

// UpdateStepSet 更新步骤集
func (t *ThreeStepTranslator) UpdateStepSet(stepSet *StepSet) error {
	if err := stepSet.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stepSet = stepSet
	return nil
}

// PromptBuilder 返回提示词构建器
func (t *ThreeStepTranslator) PromptBuilder() *prompt.Builder {
	return t.builder
}

// TranslateText 翻译单段文本
func (t *ThreeStepTranslator) TranslateText(ctx context.Context, text string) (string, error) {
	result, err := t.TranslateBatch(ctx, []string{text})
	if err != nil {
		return "", err
	}
	return result.Entries[0], nil
}

// TranslateBatch 按编号协议翻译一批条目
func (t *ThreeStepTranslator) TranslateBatch(ctx context.Context, entries []string) (*BatchResult, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyBatch
	}

	t.mu.RLock()
	stepSet := t.stepSet
	t.mu.RUnlock()

	metrics := NewMetrics(t.config.SourceLanguage, t.config.TargetLanguage)
	metrics.EntryCount = len(entries)

	// 保护标记是批次局部状态，每个批次用新的管理器
	protector, err := textproc.NewProtector(t.config.ProtectConfig)
	if err != nil {
		return nil, WrapError(err, ErrCodeConfig, "failed to build protector")
	}

	// 剥离前后空白并保护不可译片段
	cores := make([]string, len(entries))
	affixes := make([]textproc.Affix, len(entries))
	for i, entry := range entries {
		core, affix := textproc.SplitAffix(entry)
		cores[i] = protector.Protect(core)
		affixes[i] = affix
		metrics.InputChars += utf8.RuneCountInString(entry)
	}

	numbered := textproc.BuildNumberedBlock(cores)

	system, err := t.builder.BuildSystemPrompt()
	if err != nil {
		return nil, WrapError(err, ErrCodeConfig, "failed to build system prompt")
	}

	var (
		steps []StepResult
		final []string
	)

	if t.useFastMode(stepSet, entries) {
		lines, stepResult, err := t.runStep(ctx, StepDirect, stepSet.Literal,
			system, t.builder.BuildDirectPrompt(numbered), len(entries))
		steps = append(steps, *stepResult)
		if err != nil {
			metrics.Finish(false)
			return &BatchResult{Steps: steps, Metrics: metrics}, err
		}
		final = lines
	} else {
		// 第一步：字面翻译，失败则整个批次失败
		literal, stepResult, err := t.runStep(ctx, StepLiteral, stepSet.Literal,
			system, t.builder.BuildTranslationPrompt(numbered), len(entries))
		steps = append(steps, *stepResult)
		if err != nil {
			metrics.Finish(false)
			return &BatchResult{Steps: steps, Metrics: metrics}, err
		}

		// 第二步：校正，失败时沿用字面翻译
		corrected, stepResult := t.runCorrection(ctx, stepSet.Correction, system, numbered, literal)
		steps = append(steps, *stepResult)

		// 第三步：润色，失败时沿用校正稿
		final, stepResult = t.runPolish(ctx, stepSet.Polish, system, numbered, corrected)
		steps = append(steps, *stepResult)
	}

	// 校验保护标记，丢失的条目降级回源文本
	for i, line := range final {
		if missing := protector.Verify(cores[i], line); len(missing) > 0 {
			t.logger.Warn("译文丢失保护标记，条目回退为源文本",
				zap.Int("entry", i+1),
				zap.Strings("missing", missing))
			final[i] = cores[i]
		}
	}

	// 还原保护标记并补回前后空白
	out := make([]string, len(final))
	for i, line := range final {
		restored := protector.Restore(line)
		out[i] = affixes[i].Apply(restored)
		metrics.OutputChars += utf8.RuneCountInString(out[i])
	}

	for _, step := range steps {
		metrics.TokensIn += step.TokensIn
		metrics.TokensOut += step.TokensOut
		if step.CacheHit {
			metrics.CacheHits++
		}
	}

	metrics.Finish(true)
	return &BatchResult{Entries: out, Steps: steps, Metrics: metrics}, nil
}

// useFastMode 判断是否走快速模式（跳过校正与润色）
// 读的是 TranslateBatch 开头取到的步骤集快照，不碰共享状态
func (t *ThreeStepTranslator) useFastMode(stepSet *StepSet, entries []string) bool {
	if t.config.FastMode {
		return true
	}
	threshold := stepSet.FastModeThreshold
	return threshold > 0 && len(entries) == 1 && utf8.RuneCountInString(entries[0]) < threshold
}

// runStep 执行一个产出编号块的步骤
func (t *ThreeStepTranslator) runStep(ctx context.Context, name string, cfg StepConfig, system, userPrompt string, expected int) ([]string, *StepResult, error) {
	start := time.Now()
	result := &StepResult{Name: name, Model: cfg.Model}

	key := GenerateCacheKey(CacheKeyComponents{
		Step:        name,
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		SourceLang:  t.config.SourceLanguage,
		TargetLang:  t.config.TargetLanguage,
		Text:        userPrompt,
		Context:     system,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})

	if cached, ok := t.cacheGet(key); ok {
		if parsed, err := textproc.ParseNumberedLines(cached, expected); err == nil {
			result.CacheHit = true
			result.Output = cached
			result.Duration = time.Since(start)
			return orderedLines(parsed, expected), result, nil
		}
	}

	provider, ok := t.providers[cfg.Provider]
	if !ok {
		result.Error = cfg.Provider
		return nil, result, fmt.Errorf("%w: %s", ErrProviderNotFound, cfg.Provider)
	}

	req := &Request{
		System:      system,
		Prompt:      userPrompt,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Metadata:    map[string]string{"step": name},
	}

	var lastErr error
	for attempt := 0; attempt <= t.config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}

		response, err := provider.Complete(ctx, req)
		if err != nil {
			lastErr = err
			if !isRetryableError(err) {
				break
			}
			continue
		}

		result.TokensIn += response.Usage.InputTokens
		result.TokensOut += response.Usage.OutputTokens

		lines, err := textproc.ParseTextareaLines(StripReasoning(response.Text, nil), expected)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrProtocol, err)
			t.logger.Debug("模型输出不符合编号协议，重试",
				zap.String("step", name),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		block := textproc.BuildNumberedBlock(lines)
		result.Output = block
		result.Duration = time.Since(start)
		t.cacheSet(key, block)
		return lines, result, nil
	}

	result.Duration = time.Since(start)
	if lastErr != nil {
		result.Error = lastErr.Error()
	}
	return nil, result, NewStepError(name, ErrCodeStep, "step failed", lastErr)
}

// runCorrection 执行校正步骤
// 模型回答 OK 表示字面翻译无需修改；任何失败都沿用字面翻译
func (t *ThreeStepTranslator) runCorrection(ctx context.Context, cfg StepConfig, system, numberedSource string, draft []string) ([]string, *StepResult) {
	start := time.Now()
	result := &StepResult{Name: StepCorrection, Model: cfg.Model}

	numberedDraft := textproc.BuildNumberedBlock(draft)
	userPrompt := t.builder.BuildCorrectionPrompt(numberedSource, numberedDraft)

	key := GenerateCacheKey(CacheKeyComponents{
		Step:        StepCorrection,
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		SourceLang:  t.config.SourceLanguage,
		TargetLang:  t.config.TargetLanguage,
		Text:        userPrompt,
		Context:     system,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})

	if cached, ok := t.cacheGet(key); ok {
		result.CacheHit = true
		result.Duration = time.Since(start)
		if cached == cleanVerdict {
			result.Skipped = true
			result.Output = numberedDraft
			return draft, result
		}
		if parsed, err := textproc.ParseNumberedLines(cached, len(draft)); err == nil {
			result.Output = cached
			return orderedLines(parsed, len(draft)), result
		}
		result.CacheHit = false
	}

	provider, ok := t.providers[cfg.Provider]
	if !ok {
		result.Error = fmt.Sprintf("provider not found: %s", cfg.Provider)
		result.Skipped = true
		result.Duration = time.Since(start)
		return draft, result
	}

	req := &Request{
		System:      system,
		Prompt:      userPrompt,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Metadata:    map[string]string{"step": StepCorrection},
	}

	var lastErr error
	for attempt := 0; attempt <= t.config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}

		response, err := provider.Complete(ctx, req)
		if err != nil {
			lastErr = err
			if !isRetryableError(err) {
				break
			}
			continue
		}

		result.TokensIn += response.Usage.InputTokens
		result.TokensOut += response.Usage.OutputTokens

		text := StripReasoning(response.Text, nil)
		if isCleanVerdict(text) {
			result.Skipped = true
			result.Output = numberedDraft
			result.Duration = time.Since(start)
			t.cacheSet(key, cleanVerdict)
			return draft, result
		}

		lines, err := textproc.ParseTextareaLines(text, len(draft))
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrProtocol, err)
			continue
		}

		block := textproc.BuildNumberedBlock(lines)
		result.Output = block
		result.Duration = time.Since(start)
		t.cacheSet(key, block)
		return lines, result
	}

	// 校正失败不致命，沿用字面翻译
	result.Duration = time.Since(start)
	if lastErr != nil {
		result.Error = lastErr.Error()
	}
	result.Skipped = true
	result.Output = numberedDraft
	t.logger.Warn("校正步骤失败，沿用字面翻译", zap.Error(lastErr))
	return draft, result
}

// runPolish 执行润色步骤，失败时沿用校正稿
func (t *ThreeStepTranslator) runPolish(ctx context.Context, cfg StepConfig, system, numberedSource string, corrected []string) ([]string, *StepResult) {
	userPrompt := t.builder.BuildPolishPrompt(numberedSource, textproc.BuildNumberedBlock(corrected))

	lines, result, err := t.runStep(ctx, StepPolish, cfg, system, userPrompt, len(corrected))
	if err != nil {
		result.Skipped = true
		result.Output = textproc.BuildNumberedBlock(corrected)
		t.logger.Warn("润色步骤失败，沿用校正稿", zap.Error(err))
		return corrected, result
	}
	return lines, result
}

// cleanVerdict 校正步骤"无需修改"的缓存哨兵值
const cleanVerdict = "OK"

// isCleanVerdict 判断校正步骤的回答是否为"无需修改"
func isCleanVerdict(text string) bool {
	trimmed := strings.TrimSpace(text)
	if strings.EqualFold(trimmed, "OK") || strings.EqualFold(trimmed, "OK.") {
		return true
	}
	lower := strings.ToLower(trimmed)
	return strings.Contains(lower, "no issues") || strings.Contains(lower, "no changes needed")
}

// cacheGet 读缓存
func (t *ThreeStepTranslator) cacheGet(key string) (string, bool) {
	t.mu.RLock()
	cache := t.cache
	t.mu.RUnlock()
	if cache == nil {
		return "", false
	}
	return cache.Get(key)
}

// cacheSet 写缓存
func (t *ThreeStepTranslator) cacheSet(key, value string) {
	t.mu.RLock()
	cache := t.cache
	t.mu.RUnlock()
	if cache == nil {
		return
	}
	if err := cache.Set(key, value); err != nil {
		t.logger.Debug("写入缓存失败", zap.Error(err))
	}
}

// orderedLines 把编号映射转为有序切片
func orderedLines(parsed map[int]string, expected int) []string {
	lines := make([]string, expected)
	for i := 1; i <= expected; i++ {
		lines[i-1] = parsed[i]
	}
	return lines
}
