package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/translens/go-llm-translator/pkg/translation"
)

// ProviderConfig 提供者配置
type ProviderConfig struct {
	// APIType 接口类型: openai / ollama / raw
	APIType string `mapstructure:"api_type"`
	// APIKey 密钥（可用环境变量覆盖）
	APIKey string `mapstructure:"api_key"`
	// BaseURL 接口地址
	BaseURL string `mapstructure:"base_url"`
	// Timeout 请求超时时间（秒）
	Timeout int `mapstructure:"timeout"`
	// MaxRetries 网络错误最大重试次数
	MaxRetries int `mapstructure:"max_retries"`
}

// StepModelConfig 单个步骤使用的模型
type StepModelConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// StepSetConfig 步骤集配置
type StepSetConfig struct {
	ID                string          `mapstructure:"id"`
	Name              string          `mapstructure:"name"`
	Description       string          `mapstructure:"description"`
	Literal           StepModelConfig `mapstructure:"literal"`
	Correction        StepModelConfig `mapstructure:"correction"`
	Polish            StepModelConfig `mapstructure:"polish"`
	FastModeThreshold int             `mapstructure:"fast_mode_threshold"`
}

// RuleConfig 译前/译后替换规则
type RuleConfig struct {
	Find    string `mapstructure:"find"`
	Replace string `mapstructure:"replace"`
	Regex   bool   `mapstructure:"regex"`
}

// Config 保存翻译器的所有配置
type Config struct {
	SourceLang string `mapstructure:"source_lang"`
	TargetLang string `mapstructure:"target_lang"`

	Providers     map[string]ProviderConfig `mapstructure:"providers"`
	StepSets      map[string]StepSetConfig  `mapstructure:"step_sets"`
	ActiveStepSet string                    `mapstructure:"active_step_set"`

	// BatchSize 每个请求打包的条目数
	BatchSize int `mapstructure:"batch_size"`
	// Concurrency 并行翻译请求数
	Concurrency int `mapstructure:"concurrency"`
	// FastMode 跳过校对与润色，只做字面翻译
	FastMode bool `mapstructure:"fast_mode"`
	// MaxRetries 协议错误最大重试次数
	MaxRetries int `mapstructure:"max_retries"`

	UseCache     bool   `mapstructure:"use_cache"`
	CacheBackend string `mapstructure:"cache_backend"` // memory / file / sqlite
	CacheDir     string `mapstructure:"cache_dir"`

	Debug   bool `mapstructure:"debug"`
	Verbose bool `mapstructure:"verbose"` // 详细模式，显示翻译片段

	// FilterReasoning 过滤推理模型的思考过程
	FilterReasoning bool `mapstructure:"filter_reasoning"`
	// ContentProtection 保护转义序列和占位符
	ContentProtection bool `mapstructure:"content_protection"`

	// GlossaryPath 术语表文件路径（TOML）
	GlossaryPath string `mapstructure:"glossary_path"`
	// ExtraInstructions 追加到系统提示词的额外指令
	ExtraInstructions []string `mapstructure:"extra_instructions"`

	// PreRules 译前替换规则
	PreRules []RuleConfig `mapstructure:"pre_rules"`
	// PostRules 译后替换规则
	PostRules []RuleConfig `mapstructure:"post_rules"`
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}

		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigName(".llm-translator")
		v.SetConfigType("yaml")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("LLM_TRANSLATOR")

	if err := v.ReadInConfig(); err != nil {
		// 找不到配置文件时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	applyFallbacks(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// SaveConfig 将配置保存到文件
func SaveConfig(config *Config, configPath string) error {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		configPath = filepath.Join(home, ".llm-translator.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.Set("source_lang", config.SourceLang)
	v.Set("target_lang", config.TargetLang)
	v.Set("providers", config.Providers)
	v.Set("step_sets", config.StepSets)
	v.Set("active_step_set", config.ActiveStepSet)
	v.Set("batch_size", config.BatchSize)
	v.Set("concurrency", config.Concurrency)
	v.Set("fast_mode", config.FastMode)
	v.Set("max_retries", config.MaxRetries)
	v.Set("use_cache", config.UseCache)
	v.Set("cache_backend", config.CacheBackend)
	v.Set("cache_dir", config.CacheDir)
	v.Set("filter_reasoning", config.FilterReasoning)
	v.Set("content_protection", config.ContentProtection)
	v.Set("glossary_path", config.GlossaryPath)

	return v.WriteConfig()
}

// NewDefaultConfig 创建默认配置
func NewDefaultConfig() *Config {
	return &Config{
		SourceLang:        "Japanese",
		TargetLang:        "English",
		Providers:         DefaultProviders(),
		StepSets:          DefaultStepSets(),
		ActiveStepSet:     "basic",
		BatchSize:         20,
		Concurrency:       4,
		MaxRetries:        3,
		UseCache:          true,
		CacheBackend:      "file",
		CacheDir:          getDefaultCacheDir(),
		FilterReasoning:   true,
		ContentProtection: true,
	}
}

// DefaultProviders 默认提供者配置
func DefaultProviders() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		"openai": {
			APIType:    "openai",
			BaseURL:    "https://api.openai.com/v1",
			Timeout:    300,
			MaxRetries: 3,
		},
		"ollama": {
			APIType:    "ollama",
			BaseURL:    "http://localhost:11434",
			Timeout:    300,
			MaxRetries: 3,
		},
		"raw": {
			APIType: "raw",
		},
	}
}

// DefaultStepSets 默认步骤集
func DefaultStepSets() map[string]StepSetConfig {
	return map[string]StepSetConfig{
		"basic": {
			ID:                "basic",
			Name:              "基础三步翻译",
			Description:       "三个步骤使用同一个模型",
			Literal:           StepModelConfig{Provider: "openai", Model: "gpt-4o-mini", Temperature: 0.3, MaxTokens: 4096},
			Correction:        StepModelConfig{Provider: "openai", Model: "gpt-4o-mini", Temperature: 0.1, MaxTokens: 4096},
			Polish:            StepModelConfig{Provider: "openai", Model: "gpt-4o-mini", Temperature: 0.5, MaxTokens: 4096},
			FastModeThreshold: 100,
		},
		"quality": {
			ID:                "quality",
			Name:              "质量优先",
			Description:       "校对和润色使用更强的模型",
			Literal:           StepModelConfig{Provider: "openai", Model: "gpt-4o-mini", Temperature: 0.3, MaxTokens: 4096},
			Correction:        StepModelConfig{Provider: "openai", Model: "gpt-4o", Temperature: 0.1, MaxTokens: 4096},
			Polish:            StepModelConfig{Provider: "openai", Model: "gpt-4o", Temperature: 0.5, MaxTokens: 4096},
			FastModeThreshold: 100,
		},
		"local": {
			ID:                "local",
			Name:              "本地模型",
			Description:       "全部步骤走本地Ollama",
			Literal:           StepModelConfig{Provider: "ollama", Model: "qwen2.5:7b", Temperature: 0.3, MaxTokens: 4096},
			Correction:        StepModelConfig{Provider: "ollama", Model: "qwen2.5:7b", Temperature: 0.1, MaxTokens: 4096},
			Polish:            StepModelConfig{Provider: "ollama", Model: "qwen2.5:7b", Temperature: 0.5, MaxTokens: 4096},
			FastModeThreshold: 100,
		},
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.SourceLang == "" {
		return fmt.Errorf("source_lang 不能为空")
	}
	if c.TargetLang == "" {
		return fmt.Errorf("target_lang 不能为空")
	}
	if c.ActiveStepSet == "" {
		return fmt.Errorf("active_step_set 不能为空")
	}

	stepSet, ok := c.StepSets[c.ActiveStepSet]
	if !ok {
		return fmt.Errorf("步骤集 %q 不存在", c.ActiveStepSet)
	}

	for _, step := range []struct {
		name string
		cfg  StepModelConfig
	}{
		{"literal", stepSet.Literal},
		{"correction", stepSet.Correction},
		{"polish", stepSet.Polish},
	} {
		if step.cfg.Provider == "" {
			return fmt.Errorf("步骤集 %q 的 %s 步骤缺少 provider", c.ActiveStepSet, step.name)
		}
		provider, ok := c.Providers[step.cfg.Provider]
		if !ok {
			return fmt.Errorf("步骤集 %q 引用了未配置的提供者 %q", c.ActiveStepSet, step.cfg.Provider)
		}
		if step.cfg.Model == "" && provider.APIType != "raw" {
			return fmt.Errorf("步骤集 %q 的 %s 步骤缺少 model", c.ActiveStepSet, step.name)
		}
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size 必须大于0")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency 必须大于0")
	}

	return nil
}

// ActiveStepSetConfig 获取当前激活的步骤集
func (c *Config) ActiveStepSetConfig() StepSetConfig {
	return c.StepSets[c.ActiveStepSet]
}

// ToStepSet 转换为翻译器的步骤集
func (s StepSetConfig) ToStepSet() *translation.StepSet {
	convert := func(m StepModelConfig) translation.StepConfig {
		return translation.StepConfig{
			Provider:    m.Provider,
			Model:       m.Model,
			Temperature: m.Temperature,
			MaxTokens:   m.MaxTokens,
		}
	}

	return &translation.StepSet{
		ID:                s.ID,
		Name:              s.Name,
		Description:       s.Description,
		Literal:           convert(s.Literal),
		Correction:        convert(s.Correction),
		Polish:            convert(s.Polish),
		FastModeThreshold: s.FastModeThreshold,
	}
}

// setDefaults 在viper中设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("source_lang", "Japanese")
	v.SetDefault("target_lang", "English")
	v.SetDefault("active_step_set", "basic")
	v.SetDefault("batch_size", 20)
	v.SetDefault("concurrency", 4)
	v.SetDefault("max_retries", 3)
	v.SetDefault("use_cache", true)
	v.SetDefault("cache_backend", "file")
	v.SetDefault("filter_reasoning", true)
	v.SetDefault("content_protection", true)
}

// applyFallbacks 补齐未设置的部分
func applyFallbacks(config *Config) {
	if len(config.Providers) == 0 {
		config.Providers = DefaultProviders()
	}
	if len(config.StepSets) == 0 {
		config.StepSets = DefaultStepSets()
	}
	if config.CacheDir == "" {
		config.CacheDir = getDefaultCacheDir()
	}

	// OpenAI密钥缺省时取环境变量
	for name, provider := range config.Providers {
		if provider.APIKey == "" && provider.APIType == "openai" {
			if key := os.Getenv("OPENAI_API_KEY"); key != "" {
				provider.APIKey = key
				config.Providers[name] = provider
			}
		}
	}
}

// getDefaultCacheDir 获取默认缓存目录
func getDefaultCacheDir() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".", ".llm-translator-cache")
	}
	return filepath.Join(cacheDir, "llm-translator")
}
