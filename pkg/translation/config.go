package translation

import (
	"fmt"

	"github.com/translens/go-llm-translator/pkg/textproc"
)

// StepConfig 单个步骤的模型配置
type StepConfig struct {
	// Provider 提供者名称
	Provider string `mapstructure:"provider" json:"provider"`
	// Model 模型标识
	Model string `mapstructure:"model" json:"model"`
	// Temperature 温度参数
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	// MaxTokens 最大令牌数
	MaxTokens int `mapstructure:"max_tokens" json:"max_tokens"`
}

// StepSet 三步工作流的步骤集
// 每个步骤可以使用不同的提供者和模型
type StepSet struct {
	ID          string     `mapstructure:"id" json:"id"`
	Name        string     `mapstructure:"name" json:"name"`
	Description string     `mapstructure:"description" json:"description"`
	Literal     StepConfig `mapstructure:"literal" json:"literal"`
	Correction  StepConfig `mapstructure:"correction" json:"correction"`
	Polish      StepConfig `mapstructure:"polish" json:"polish"`
	// FastModeThreshold 低于该字符数的单条文本走快速模式
	FastModeThreshold int `mapstructure:"fast_mode_threshold" json:"fast_mode_threshold"`
}

// Config 翻译器配置
type Config struct {
	// SourceLanguage 源语言（人类可读名称）
	SourceLanguage string
	// TargetLanguage 目标语言
	TargetLanguage string
	// Glossary 术语表
	Glossary map[string]string
	// ExtraInstructions 追加到系统提示词的额外指令
	ExtraInstructions []string
	// FastMode 强制快速模式（只做字面翻译）
	FastMode bool
	// MaxRetries 协议错误时同一步骤的最大重试次数
	MaxRetries int
	// ProtectConfig 保护标记配置
	ProtectConfig textproc.ProtectConfig
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}
	if c.SourceLanguage == "" {
		return fmt.Errorf("%w: source language is empty", ErrInvalidConfig)
	}
	if c.TargetLanguage == "" {
		return fmt.Errorf("%w: target language is empty", ErrInvalidConfig)
	}
	if c.SourceLanguage == c.TargetLanguage {
		return fmt.Errorf("%w: source and target language are the same", ErrInvalidConfig)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries is negative", ErrInvalidConfig)
	}
	return nil
}

// Clone 深拷贝配置
func (c *Config) Clone() *Config {
	clone := *c

	if c.Glossary != nil {
		clone.Glossary = make(map[string]string, len(c.Glossary))
		for k, v := range c.Glossary {
			clone.Glossary[k] = v
		}
	}
	if c.ExtraInstructions != nil {
		clone.ExtraInstructions = append([]string(nil), c.ExtraInstructions...)
	}
	if c.ProtectConfig.Rules != nil {
		clone.ProtectConfig.Rules = append([]textproc.ProtectRule(nil), c.ProtectConfig.Rules...)
	}

	return &clone
}

// Validate 验证步骤集配置
func (s *StepSet) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: step set is nil", ErrInvalidConfig)
	}
	for _, step := range []struct {
		name string
		cfg  StepConfig
	}{
		{StepLiteral, s.Literal},
		{StepCorrection, s.Correction},
		{StepPolish, s.Polish},
	} {
		if step.cfg.Provider == "" {
			return fmt.Errorf("%w: step %s has no provider", ErrInvalidConfig, step.name)
		}
		if step.cfg.Model == "" {
			return fmt.Errorf("%w: step %s has no model", ErrInvalidConfig, step.name)
		}
	}
	return nil
}
