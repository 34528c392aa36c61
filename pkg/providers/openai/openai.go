package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/translens/go-llm-translator/pkg/providers"
	"github.com/translens/go-llm-translator/pkg/providers/retry"
)

// Config OpenAI提供者配置
type Config struct {
	providers.BaseConfig
	Model       string       `json:"model" mapstructure:"model"`
	Temperature float32      `json:"temperature" mapstructure:"temperature"`
	MaxTokens   int          `json:"max_tokens" mapstructure:"max_tokens"`
	RetryConfig retry.Config `json:"retry_config" mapstructure:"retry_config"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseConfig:  providers.DefaultConfig(),
		Model:       "gpt-4o-mini",
		Temperature: 0.3,
		MaxTokens:   4096,
		RetryConfig: retry.DefaultConfig(),
	}
}

// Provider OpenAI提供者（兼容所有OpenAI风格的接口）
type Provider struct {
	config  Config
	client  *openai.Client
	retrier *retry.Retrier
}

// New 创建OpenAI提供者
func New(config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, providers.NewError("config", "openai: api key is empty")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.APIEndpoint != "" {
		clientConfig.BaseURL = strings.TrimSuffix(config.APIEndpoint, "/")
	}

	return &Provider{
		config:  config,
		client:  openai.NewClientWithConfig(clientConfig),
		retrier: retry.New(config.RetryConfig),
	}, nil
}

// GetName 提供者名称
func (p *Provider) GetName() string {
	return "openai"
}

// Complete 执行一次补全
func (p *Provider) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = p.config.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	var resp openai.ChatCompletionResponse
	err := p.retrier.Do(ctx, func() error {
		var callErr error
		resp, callErr = p.client.CreateChatCompletion(ctx, chatReq)
		return classifyError(callErr)
	})
	if err != nil {
		return nil, fmt.Errorf("openai completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, providers.NewError("empty_response", "openai returned no choices")
	}

	return &providers.CompletionResponse{
		Text:      resp.Choices[0].Message.Content,
		Model:     resp.Model,
		TokensIn:  resp.Usage.PromptTokens,
		TokensOut: resp.Usage.CompletionTokens,
	}, nil
}

// HealthCheck 健康检查
func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("openai health check failed: %w", err)
	}
	return nil
}

// classifyError 把OpenAI客户端错误映射为带重试性的提供者错误
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429:
			return providers.NewError("rate_limit", apiErr.Message)
		case apiErr.HTTPStatusCode >= 500:
			return providers.NewError("server_error", apiErr.Message)
		default:
			return providers.NewError("client_error", apiErr.Message)
		}
	}

	return err
}
