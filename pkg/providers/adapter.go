package providers

import (
	"context"

	"github.com/translens/go-llm-translator/pkg/translation"
)

// Adapter 把提供者适配为翻译器所需的接口
type Adapter struct {
	provider Provider
}

// NewAdapter 创建适配器
func NewAdapter(provider Provider) *Adapter {
	return &Adapter{provider: provider}
}

// Name 提供者名称
func (a *Adapter) Name() string {
	return a.provider.GetName()
}

// Complete 执行一次补全
func (a *Adapter) Complete(ctx context.Context, req *translation.Request) (*translation.Response, error) {
	resp, err := a.provider.Complete(ctx, &CompletionRequest{
		System:      req.System,
		Prompt:      req.Prompt,
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	return &translation.Response{
		Text: resp.Text,
		Usage: translation.Usage{
			InputTokens:  resp.TokensIn,
			OutputTokens: resp.TokensOut,
		},
	}, nil
}
