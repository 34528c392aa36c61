package translator

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/translens/go-llm-translator/internal/cache"
	"github.com/translens/go-llm-translator/internal/config"
	"github.com/translens/go-llm-translator/internal/document"
	"github.com/translens/go-llm-translator/internal/langs"
	"github.com/translens/go-llm-translator/internal/progress"
	"github.com/translens/go-llm-translator/internal/stats"
	"github.com/translens/go-llm-translator/pkg/providers"
	"github.com/translens/go-llm-translator/pkg/providers/ollama"
	"github.com/translens/go-llm-translator/pkg/providers/openai"
	"github.com/translens/go-llm-translator/pkg/providers/raw"
	"github.com/translens/go-llm-translator/pkg/providers/retry"
	"github.com/translens/go-llm-translator/pkg/textproc"
	"github.com/translens/go-llm-translator/pkg/translation"
)

// FileResult 单个文件的翻译结果
type FileResult struct {
	InputFile  string        `json:"input_file"`
	OutputFile string        `json:"output_file"`
	Total      int           `json:"total"`
	Translated int           `json:"translated"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration"`
}

// Coordinator 翻译协调器
// 把文件加载、批次切分、三步翻译、检查和统计串成完整流程
type Coordinator struct {
	config     *config.Config
	translator *translation.ThreeStepTranslator
	cacheStore cache.Cache
	preRules   *textproc.RuleSet
	postRules  *textproc.RuleSet
	checker    *translation.Checker
	tracker    *stats.Tracker
	logger     *zap.Logger
	silent     bool
}

// NewCoordinator 创建翻译协调器
func NewCoordinator(cfg *config.Config, logger *zap.Logger) (*Coordinator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sourceLang, err := langs.Parse(cfg.SourceLang)
	if err != nil {
		return nil, err
	}
	targetLang, err := langs.Parse(cfg.TargetLang)
	if err != nil {
		return nil, err
	}

	backends, err := buildProviders(cfg)
	if err != nil {
		return nil, err
	}

	translationConfig := &translation.Config{
		SourceLanguage:    sourceLang.Name,
		TargetLanguage:    targetLang.Name,
		ExtraInstructions: cfg.ExtraInstructions,
		FastMode:          cfg.FastMode,
		MaxRetries:        cfg.MaxRetries,
		ProtectConfig:     textproc.DefaultProtectConfig,
	}
	translationConfig.ProtectConfig.Enabled = cfg.ContentProtection

	if cfg.GlossaryPath != "" {
		glossary, err := config.LoadGlossary(cfg.GlossaryPath)
		if err != nil {
			return nil, err
		}
		if !glossaryMatches(glossary, sourceLang, targetLang) {
			logger.Warn("术语表的语言对与配置不一致，忽略",
				zap.String("glossary_source", glossary.SourceLang),
				zap.String("glossary_target", glossary.TargetLang))
		} else {
			translationConfig.Glossary = glossary.Terms
		}
	}

	stepSet := cfg.ActiveStepSetConfig().ToStepSet()

	threeStep, err := translation.NewThreeStepTranslator(translationConfig, backends, stepSet)
	if err != nil {
		return nil, err
	}
	threeStep.SetLogger(logger)

	coordinator := &Coordinator{
		config:     cfg,
		translator: threeStep,
		checker:    translation.NewChecker(translation.DefaultSimilarityThreshold),
		tracker:    stats.NewTracker(),
		logger:     logger,
		silent:     cfg.Debug,
	}

	if cfg.UseCache {
		store, err := cache.New(cfg.CacheBackend, cfg.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("初始化缓存失败: %w", err)
		}
		coordinator.cacheStore = store
		threeStep.SetCache(store)
	}

	if coordinator.preRules, err = compileRules(cfg.PreRules); err != nil {
		return nil, fmt.Errorf("译前规则无效: %w", err)
	}
	if coordinator.postRules, err = compileRules(cfg.PostRules); err != nil {
		return nil, fmt.Errorf("译后规则无效: %w", err)
	}

	return coordinator, nil
}

// glossaryMatches 判断术语表的语言对是否与配置一致
// 两边都归一化成语言标签再比较，ja 和 Japanese 视为同一种语言
func glossaryMatches(glossary *config.Glossary, source, target langs.Language) bool {
	glossarySource, err := langs.Parse(glossary.SourceLang)
	if err != nil {
		return false
	}
	glossaryTarget, err := langs.Parse(glossary.TargetLang)
	if err != nil {
		return false
	}
	return glossarySource.Equal(source) && glossaryTarget.Equal(target)
}

// buildProviders 创建当前步骤集引用到的提供者
// 没被引用的提供者不构建，避免为用不到的后端准备密钥
func buildProviders(cfg *config.Config) (map[string]translation.Provider, error) {
	stepSet := cfg.ActiveStepSetConfig()
	needed := map[string]bool{
		stepSet.Literal.Provider:    true,
		stepSet.Correction.Provider: true,
		stepSet.Polish.Provider:     true,
	}

	backends := make(map[string]translation.Provider, len(needed))

	for name, p := range cfg.Providers {
		if !needed[name] {
			continue
		}
		base := providers.DefaultConfig()
		base.APIKey = p.APIKey
		base.APIEndpoint = p.BaseURL
		if p.Timeout > 0 {
			base.Timeout = time.Duration(p.Timeout) * time.Second
		}

		retryConfig := retry.DefaultConfig()
		if p.MaxRetries > 0 {
			retryConfig.MaxRetries = p.MaxRetries
		}

		var backend providers.Provider
		var err error
		switch p.APIType {
		case "openai":
			backend, err = openai.New(openai.Config{
				BaseConfig:  base,
				RetryConfig: retryConfig,
			})
		case "ollama":
			backend, err = ollama.New(ollama.Config{
				BaseConfig:  base,
				RetryConfig: retryConfig,
			})
		case "raw":
			backend = raw.New()
		default:
			err = fmt.Errorf("未知的提供者类型 %q", p.APIType)
		}
		if err != nil {
			return nil, fmt.Errorf("创建提供者 %q 失败: %w", name, err)
		}

		backends[name] = namedAdapter{Adapter: providers.NewAdapter(backend), name: name}
	}

	return backends, nil
}

// namedAdapter 让提供者以配置里的名字注册，而不是实现名
type namedAdapter struct {
	*providers.Adapter
	name string
}

func (a namedAdapter) Name() string { return a.name }

// compileRules 把配置里的替换规则编译为规则集
func compileRules(rules []config.RuleConfig) (*textproc.RuleSet, error) {
	if len(rules) == 0 {
		return nil, nil
	}

	converted := make([]textproc.ReplacementRule, len(rules))
	for i, r := range rules {
		converted[i] = textproc.ReplacementRule{
			Find:    r.Find,
			Replace: r.Replace,
			Regex:   r.Regex,
		}
	}
	return textproc.CompileRules(converted)
}

// TranslateFile 翻译单个文件
func (c *Coordinator) TranslateFile(ctx context.Context, inputPath, outputPath string) (*FileResult, error) {
	startTime := time.Now()

	file, err := document.Load(inputPath)
	if err != nil {
		return nil, err
	}

	c.logger.Info("开始翻译文件",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int("entries", file.Len()))

	batches := document.MakeBatches(file, c.config.BatchSize)
	if len(batches) > 0 {
		if err := c.translateBatches(ctx, file, batches, filepath.Base(inputPath)); err != nil {
			return nil, err
		}
	}

	c.reportUntranslated(file)

	if err := document.Write(file, outputPath); err != nil {
		return nil, err
	}
	c.tracker.AddFile()

	result := &FileResult{
		InputFile:  inputPath,
		OutputFile: outputPath,
		Total:      file.Len(),
		Translated: file.TranslatedCount(),
		Failed:     file.Len() - file.TranslatedCount(),
		Duration:   time.Since(startTime),
	}

	c.logger.Info("文件翻译完成",
		zap.String("input", inputPath),
		zap.Int("translated", result.Translated),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// translateBatches 并发翻译所有批次
func (c *Coordinator) translateBatches(ctx context.Context, file *document.File, batches []document.Batch, title string) error {
	bar, err := progress.NewBar(len(file.PendingIndices()), title, c.silent)
	if err != nil {
		return err
	}
	defer bar.Stop()

	concurrency := c.config.Concurrency
	if concurrency > len(batches) {
		concurrency = len(batches)
	}

	jobs := make(chan document.Batch)
	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range jobs {
				c.translateBatch(ctx, file, batch)
				bar.Add(len(batch.Indices))
			}
		}()
	}

	for _, batch := range batches {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- batch:
		}
	}
	close(jobs)
	wg.Wait()

	return nil
}

// translateBatch 翻译一个批次并把结果写回文件
func (c *Coordinator) translateBatch(ctx context.Context, file *document.File, batch document.Batch) {
	sources := batch.Sources
	if c.preRules.Len() > 0 {
		sources = make([]string, len(batch.Sources))
		for i, s := range batch.Sources {
			sources[i] = c.preRules.Apply(s)
		}
	}

	result, err := c.translator.TranslateBatch(ctx, sources)
	if err != nil {
		c.logger.Error("批次翻译失败",
			zap.Int("entries", len(batch.Indices)),
			zap.Error(err))
		c.tracker.AddFailure(len(batch.Indices))
		return
	}

	for i, index := range batch.Indices {
		if i >= len(result.Entries) {
			break
		}
		translated := result.Entries[i]
		if c.postRules.Len() > 0 {
			translated = c.postRules.Apply(translated)
		}
		file.SetTranslation(index, translated)

		if c.config.Verbose {
			c.logger.Info("翻译片段",
				zap.String("source", batch.Sources[i]),
				zap.String("translation", translated))
		}
		c.tracker.AddSample(batch.Sources[i], translated)
	}

	c.tracker.AddBatch(len(batch.Indices), result)
}

// reportUntranslated 检查疑似漏翻的条目
func (c *Coordinator) reportUntranslated(file *document.File) {
	suspicious := c.checker.UntranslatedIndices(file.Sources(), file.Results())
	if len(suspicious) == 0 {
		return
	}

	c.logger.Warn("发现疑似未翻译的条目",
		zap.Int("count", len(suspicious)),
		zap.Ints("indices", suspicious))
}

// TranslateText 翻译单段文本
func (c *Coordinator) TranslateText(ctx context.Context, text string) (string, error) {
	return c.translator.TranslateText(ctx, text)
}

// RenderStats 输出运行统计
func (c *Coordinator) RenderStats(w io.Writer) {
	stats.Render(w, c.tracker.Snapshot())
}

// CacheStats 缓存统计，未启用缓存时返回false
func (c *Coordinator) CacheStats() (cache.Stats, bool) {
	if c.cacheStore == nil {
		return cache.Stats{}, false
	}
	return c.cacheStore.Stats(), true
}

// ClearCache 清空缓存
func (c *Coordinator) ClearCache() error {
	if c.cacheStore == nil {
		return nil
	}
	return c.cacheStore.Clear()
}
