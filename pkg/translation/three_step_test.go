package translation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/translens/go-llm-translator/pkg/textproc"
)

// mockProvider 模拟提供者，按步骤返回预设的响应序列
type mockProvider struct {
	name      string
	responses map[string][]string
	calls     map[string]int
	err       error
}

func newMockProvider(responses map[string][]string) *mockProvider {
	return &mockProvider{
		name:      "mock",
		responses: responses,
		calls:     make(map[string]int),
	}
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) Complete(_ context.Context, req *Request) (*Response, error) {
	if m.err != nil {
		return nil, m.err
	}

	step := req.Metadata["step"]
	m.calls[step]++

	queue := m.responses[step]
	if len(queue) == 0 {
		return &Response{Text: ""}, nil
	}

	idx := m.calls[step] - 1
	if idx >= len(queue) {
		idx = len(queue) - 1
	}

	return &Response{
		Text:  queue[idx],
		Usage: Usage{InputTokens: len(req.Prompt), OutputTokens: len(queue[idx])},
	}, nil
}

// mapCache 测试用内存缓存
type mapCache struct {
	data map[string]string
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string]string)}
}

func (c *mapCache) Get(key string) (string, bool) {
	v, ok := c.data[key]
	return v, ok
}

func (c *mapCache) Set(key, value string) error {
	c.data[key] = value
	return nil
}

func testConfig() *Config {
	return &Config{
		SourceLanguage: "Japanese",
		TargetLanguage: "English",
		MaxRetries:     1,
		ProtectConfig:  textproc.DefaultProtectConfig,
	}
}

func testStepSet() *StepSet {
	step := StepConfig{Provider: "mock", Model: "test-model", Temperature: 0.3, MaxTokens: 4096}
	return &StepSet{
		ID:         "test",
		Literal:    step,
		Correction: step,
		Polish:     step,
	}
}

func newTestTranslator(t *testing.T, provider Provider) *ThreeStepTranslator {
	t.Helper()
	translator, err := NewThreeStepTranslator(testConfig(), map[string]Provider{"mock": provider}, testStepSet())
	require.NoError(t, err)
	return translator
}

func TestThreeStepTranslateBatch(t *testing.T) {
	provider := newMockProvider(map[string][]string{
		StepLiteral:    {"<textarea>\n1.Hello\n2.Thank you\n</textarea>"},
		StepCorrection: {"OK"},
		StepPolish:     {"<textarea>\n1.Hello!\n2.Thank you!\n</textarea>"},
	})

	translator := newTestTranslator(t, provider)

	result, err := translator.TranslateBatch(context.Background(), []string{"こんにちは", "ありがとう"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello!", "Thank you!"}, result.Entries)
	require.Len(t, result.Steps, 3)
	assert.Equal(t, StepLiteral, result.Steps[0].Name)
	assert.Equal(t, StepCorrection, result.Steps[1].Name)
	assert.True(t, result.Steps[1].Skipped, "校正回答OK时应跳过")
	assert.Equal(t, StepPolish, result.Steps[2].Name)

	require.NotNil(t, result.Metrics)
	assert.Equal(t, 2, result.Metrics.EntryCount)
	assert.True(t, result.Metrics.Success)
	assert.NotEmpty(t, result.Metrics.ID)
}

func TestThreeStepCorrectionRewrites(t *testing.T) {
	provider := newMockProvider(map[string][]string{
		StepLiteral:    {"<textarea>\n1.Hello\n</textarea>"},
		StepCorrection: {"<textarea>\n1.Good morning\n</textarea>"},
		StepPolish:     {"<textarea>\n1.Good morning!\n</textarea>"},
	})

	translator := newTestTranslator(t, provider)

	result, err := translator.TranslateBatch(context.Background(), []string{"おはよう"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Good morning!"}, result.Entries)
	assert.False(t, result.Steps[1].Skipped)
	assert.Equal(t, "1.Good morning", result.Steps[1].Output)
}

func TestThreeStepFastMode(t *testing.T) {
	provider := newMockProvider(map[string][]string{
		StepDirect: {"<textarea>\n1.Hi\n</textarea>"},
	})

	config := testConfig()
	stepSet := testStepSet()
	stepSet.FastModeThreshold = 100

	translator, err := NewThreeStepTranslator(config, map[string]Provider{"mock": provider}, stepSet)
	require.NoError(t, err)

	result, err := translator.TranslateBatch(context.Background(), []string{"やあ"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hi"}, result.Entries)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, StepDirect, result.Steps[0].Name)
	assert.Equal(t, 0, provider.calls[StepLiteral])
}

func TestThreeStepProtocolRetry(t *testing.T) {
	// 第一次响应缺少textarea块，重试后成功
	provider := newMockProvider(map[string][]string{
		StepLiteral: {
			"Sure! Here is the translation: Hello",
			"<textarea>\n1.Hello\n</textarea>",
		},
		StepCorrection: {"OK"},
		StepPolish:     {"<textarea>\n1.Hello.\n</textarea>"},
	})

	translator := newTestTranslator(t, provider)

	result, err := translator.TranslateBatch(context.Background(), []string{"こんにちは"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello."}, result.Entries)
	assert.Equal(t, 2, provider.calls[StepLiteral])
}

func TestThreeStepLiteralFailureIsFatal(t *testing.T) {
	provider := newMockProvider(nil)
	provider.err = errors.New("boom")

	translator := newTestTranslator(t, provider)

	result, err := translator.TranslateBatch(context.Background(), []string{"こんにちは"})
	require.Error(t, err)

	var te *TranslationError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StepLiteral, te.Step)

	require.NotNil(t, result)
	require.Len(t, result.Steps, 1)
	assert.NotEmpty(t, result.Steps[0].Error)
	assert.False(t, result.Metrics.Success)
}

func TestThreeStepCorrectionFailureDegrades(t *testing.T) {
	// 校正步骤始终输出不合协议的内容，应沿用字面翻译继续润色
	provider := newMockProvider(map[string][]string{
		StepLiteral:    {"<textarea>\n1.Hello\n</textarea>"},
		StepCorrection: {"I refuse to answer in the requested format."},
		StepPolish:     {"<textarea>\n1.Hello there\n</textarea>"},
	})

	translator := newTestTranslator(t, provider)

	result, err := translator.TranslateBatch(context.Background(), []string{"こんにちは"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello there"}, result.Entries)
	assert.True(t, result.Steps[1].Skipped)
	assert.NotEmpty(t, result.Steps[1].Error)
}

func TestThreeStepPolishFailureDegrades(t *testing.T) {
	provider := newMockProvider(map[string][]string{
		StepLiteral:    {"<textarea>\n1.Hello\n</textarea>"},
		StepCorrection: {"<textarea>\n1.Hello friend\n</textarea>"},
		StepPolish:     {"no textarea here"},
	})

	translator := newTestTranslator(t, provider)

	result, err := translator.TranslateBatch(context.Background(), []string{"こんにちは"})
	require.NoError(t, err)

	// 润色失败沿用校正稿
	assert.Equal(t, []string{"Hello friend"}, result.Entries)
	assert.True(t, result.Steps[2].Skipped)
}

func TestThreeStepPreservesAffixAndMarkers(t *testing.T) {
	// 模型保留了保护标记，还原后占位符和前后空白都要回来
	provider := newMockProvider(map[string][]string{
		StepLiteral:    {"<textarea>\n1.@@KEEP_0@@ Hello\n</textarea>"},
		StepCorrection: {"OK"},
		StepPolish:     {"<textarea>\n1.@@KEEP_0@@ Hello\n</textarea>"},
	})

	translator := newTestTranslator(t, provider)

	result, err := translator.TranslateBatch(context.Background(), []string{"  {name}こんにちは "})
	require.NoError(t, err)

	assert.Equal(t, []string{"  {name} Hello "}, result.Entries)
}

func TestThreeStepMarkerLossFallsBack(t *testing.T) {
	// 模型丢掉了保护标记，该条目回退为源文本
	provider := newMockProvider(map[string][]string{
		StepLiteral:    {"<textarea>\n1.Hello\n</textarea>"},
		StepCorrection: {"OK"},
		StepPolish:     {"<textarea>\n1.Hello\n</textarea>"},
	})

	translator := newTestTranslator(t, provider)

	result, err := translator.TranslateBatch(context.Background(), []string{"{name}こんにちは"})
	require.NoError(t, err)

	assert.Equal(t, []string{"{name}こんにちは"}, result.Entries)
}

func TestThreeStepCacheHit(t *testing.T) {
	provider := newMockProvider(map[string][]string{
		StepLiteral:    {"<textarea>\n1.Hello\n</textarea>"},
		StepCorrection: {"OK"},
		StepPolish:     {"<textarea>\n1.Hello!\n</textarea>"},
	})

	translator := newTestTranslator(t, provider)
	translator.SetCache(newMapCache())

	first, err := translator.TranslateBatch(context.Background(), []string{"こんにちは"})
	require.NoError(t, err)

	second, err := translator.TranslateBatch(context.Background(), []string{"こんにちは"})
	require.NoError(t, err)

	assert.Equal(t, first.Entries, second.Entries)
	assert.Equal(t, 1, provider.calls[StepLiteral], "第二次应命中缓存")
	assert.Equal(t, 1, provider.calls[StepCorrection])
	assert.Equal(t, 1, provider.calls[StepPolish])
	assert.Equal(t, 3, second.Metrics.CacheHits)
}

func TestThreeStepEmptyBatch(t *testing.T) {
	translator := newTestTranslator(t, newMockProvider(nil))

	_, err := translator.TranslateBatch(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestTranslateText(t *testing.T) {
	provider := newMockProvider(map[string][]string{
		StepLiteral:    {"<textarea>\n1.Hello\n</textarea>"},
		StepCorrection: {"OK"},
		StepPolish:     {"<textarea>\n1.Hello!\n</textarea>"},
	})

	translator := newTestTranslator(t, provider)

	text, err := translator.TranslateText(context.Background(), "こんにちは")
	require.NoError(t, err)
	assert.Equal(t, "Hello!", text)
}

// fixedProvider 并发安全的固定响应提供者
type fixedProvider struct{}

func (fixedProvider) Name() string { return "mock" }

func (fixedProvider) Complete(_ context.Context, req *Request) (*Response, error) {
	if req.Metadata["step"] == StepCorrection {
		return &Response{Text: "OK"}, nil
	}
	return &Response{Text: "<textarea>\n1.Hello\n</textarea>"}, nil
}

func TestThreeStepUpdateStepSetDuringTranslate(t *testing.T) {
	translator, err := NewThreeStepTranslator(testConfig(),
		map[string]Provider{"mock": fixedProvider{}}, testStepSet())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				result, err := translator.TranslateBatch(context.Background(), []string{"こんにちは"})
				assert.NoError(t, err)
				assert.Equal(t, []string{"Hello"}, result.Entries)
			}
		}()
	}

	// 翻译进行中切换步骤集，阈值变化会改变快速模式的判定
	updated := testStepSet()
	updated.FastModeThreshold = 50
	for j := 0; j < 20; j++ {
		require.NoError(t, translator.UpdateStepSet(updated))
		require.NoError(t, translator.UpdateStepSet(testStepSet()))
	}
	wg.Wait()
}

func TestNewThreeStepTranslatorValidation(t *testing.T) {
	provider := newMockProvider(nil)
	providers := map[string]Provider{"mock": provider}

	tests := []struct {
		name    string
		config  *Config
		stepSet *StepSet
	}{
		{
			name:    "缺少源语言",
			config:  &Config{TargetLanguage: "English"},
			stepSet: testStepSet(),
		},
		{
			name:    "源语言与目标语言相同",
			config:  &Config{SourceLanguage: "English", TargetLanguage: "English"},
			stepSet: testStepSet(),
		},
		{
			name:    "步骤缺少模型",
			config:  testConfig(),
			stepSet: &StepSet{Literal: StepConfig{Provider: "mock"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewThreeStepTranslator(tt.config, providers, tt.stepSet)
			assert.Error(t, err)
		})
	}
}
