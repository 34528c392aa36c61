package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/translens/go-llm-translator/pkg/providers"
	"github.com/translens/go-llm-translator/pkg/providers/retry"
)

// Config Ollama提供者配置
type Config struct {
	providers.BaseConfig
	Model       string       `json:"model" mapstructure:"model"`
	Temperature float32      `json:"temperature" mapstructure:"temperature"`
	MaxTokens   int          `json:"max_tokens" mapstructure:"max_tokens"`
	RetryConfig retry.Config `json:"retry_config" mapstructure:"retry_config"`
}

// DefaultConfig 返回默认配置（本地Ollama服务）
func DefaultConfig() Config {
	base := providers.DefaultConfig()
	base.APIEndpoint = "http://localhost:11434"
	return Config{
		BaseConfig:  base,
		Model:       "qwen2.5:7b",
		Temperature: 0.3,
		MaxTokens:   4096,
		RetryConfig: retry.DefaultConfig(),
	}
}

// generateRequest /api/generate 请求体
type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	System  string                 `json:"system,omitempty"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// generateResponse /api/generate 响应体
type generateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error,omitempty"`
}

// Provider Ollama提供者
type Provider struct {
	config  Config
	client  *resty.Client
	retrier *retry.Retrier
}

// New 创建Ollama提供者
func New(config Config) (*Provider, error) {
	endpoint := strings.TrimSuffix(config.APIEndpoint, "/")
	if endpoint == "" {
		return nil, providers.NewError("config", "ollama: api endpoint is empty")
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	client := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	for k, v := range config.Headers {
		client.SetHeader(k, v)
	}

	return &Provider{
		config:  config,
		client:  client,
		retrier: retry.New(config.RetryConfig),
	}, nil
}

// GetName 提供者名称
func (p *Provider) GetName() string {
	return "ollama"
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

	body := generateRequest{
		Model:  model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
		Options: map[string]interface{}{
			"temperature": temperature,
			"num_predict": maxTokens,
		},
	}

	var result generateResponse
	err := p.retrier.Do(ctx, func() error {
		resp, callErr := p.client.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(&result).
			Post("/api/generate")
		if callErr != nil {
			return callErr
		}
		if resp.IsError() {
			code := "client_error"
			switch {
			case resp.StatusCode() == 429:
				code = "rate_limit"
			case resp.StatusCode() >= 500:
				code = "server_error"
			}
			return providers.NewError(code, fmt.Sprintf("ollama returned %s", resp.Status()))
		}
		if result.Error != "" {
			return providers.NewError("client_error", result.Error)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama completion failed: %w", err)
	}

	return &providers.CompletionResponse{
		Text:      result.Response,
		Model:     result.Model,
		TokensIn:  result.PromptEvalCount,
		TokensOut: result.EvalCount,
	}, nil
}

// HealthCheck 健康检查（访问版本接口）
func (p *Provider) HealthCheck(ctx context.Context) error {
	resp, err := p.client.R().SetContext(ctx).Get("/api/version")
	if err != nil {
		return fmt.Errorf("ollama health check failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("ollama health check failed: %s", resp.Status())
	}
	return nil
}
