package providers

import (
	"context"
	"time"
)

// BaseConfig 提供者基础配置
type BaseConfig struct {
	// API配置
	APIKey      string `json:"api_key,omitempty" mapstructure:"api_key"`
	APIEndpoint string `json:"api_endpoint,omitempty" mapstructure:"api_endpoint"`

	// 超时和重试
	Timeout    time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxRetries int           `json:"max_retries" mapstructure:"max_retries"`

	// 自定义头部
	Headers map[string]string `json:"headers,omitempty" mapstructure:"headers"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() BaseConfig {
	return BaseConfig{
		// LLM 请求可能很长，超时放宽到5分钟
		Timeout:    5 * time.Minute,
		MaxRetries: 3,
		Headers:    make(map[string]string),
	}
}

// CompletionRequest 补全请求
type CompletionRequest struct {
	// System 系统提示词
	System string `json:"system,omitempty"`

	// Prompt 用户提示词
	Prompt string `json:"prompt"`

	// Model 模型标识
	Model string `json:"model,omitempty"`

	// Temperature 温度参数
	Temperature float32 `json:"temperature,omitempty"`

	// MaxTokens 最大令牌数
	MaxTokens int `json:"max_tokens,omitempty"`
}

// CompletionResponse 补全响应
type CompletionResponse struct {
	// Text 模型输出
	Text string `json:"text"`

	// Model 实际使用的模型
	Model string `json:"model,omitempty"`

	// TokensIn 输入令牌数
	TokensIn int `json:"tokens_in"`

	// TokensOut 输出令牌数
	TokensOut int `json:"tokens_out"`
}

// Provider LLM提供者接口
type Provider interface {
	// Complete 执行一次补全
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// GetName 提供者名称
	GetName() string

	// HealthCheck 健康检查
	HealthCheck(ctx context.Context) error
}

// Error 提供者错误
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error 实现error接口
func (e *Error) Error() string {
	return e.Message
}

// IsRetryable 判断错误是否可重试
func (e *Error) IsRetryable() bool {
	switch e.Code {
	case "rate_limit", "timeout", "server_error":
		return true
	default:
		return false
	}
}

// NewError 创建提供者错误
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}
