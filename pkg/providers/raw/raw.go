package raw

import (
	"context"
	"regexp"
	"strings"

	"github.com/translens/go-llm-translator/pkg/providers"
)

var (
	// exampleBlockRe 提示词中的textarea输出示例
	exampleBlockRe = regexp.MustCompile(`(?s)<textarea>.*?</textarea>`)
	// numberedLineRe 编号行
	numberedLineRe = regexp.MustCompile(`^\s*\d+\.`)
)

// Provider 原样回显提供者
// 从提示词中取出最后一段连续的编号块包进textarea返回
// 用于 dry-run 演练和流水线测试，不发起任何网络请求
type Provider struct{}

// New 创建回显提供者
func New() *Provider {
	return &Provider{}
}

// GetName 提供者名称
func (p *Provider) GetName() string {
	return "raw"
}

// Complete 回显提示词中的编号块
func (p *Provider) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines := lastNumberedRun(req.Prompt)
	if len(lines) == 0 {
		// 没有编号行时原样返回整个提示词
		lines = []string{"1." + req.Prompt}
	}

	var sb strings.Builder
	sb.WriteString("<textarea>\n")
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("</textarea>")

	return &providers.CompletionResponse{
		Text:  sb.String(),
		Model: "raw",
	}, nil
}

// HealthCheck 健康检查（永远健康）
func (p *Provider) HealthCheck(ctx context.Context) error {
	return nil
}

// lastNumberedRun 返回提示词中最后一段连续的编号行
// 先剔除提示词自带的textarea输出示例，避免把示例行当成内容
func lastNumberedRun(prompt string) []string {
	cleaned := exampleBlockRe.ReplaceAllString(prompt, "")

	var last []string
	var current []string
	for _, line := range strings.Split(cleaned, "\n") {
		if numberedLineRe.MatchString(line) {
			current = append(current, strings.TrimLeft(line, " \t"))
			continue
		}
		if len(current) > 0 {
			last = current
			current = nil
		}
	}
	if len(current) > 0 {
		last = current
	}
	return last
}
