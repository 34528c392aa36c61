package translation

import (
	"time"

	"github.com/google/uuid"
)

// Request 发往提供者的一次补全请求
type Request struct {
	// System 系统提示词
	System string `json:"system,omitempty"`

	// Prompt 用户提示词
	Prompt string `json:"prompt"`

	// Model 使用的模型
	Model string `json:"model,omitempty"`

	// Temperature 温度参数
	Temperature float32 `json:"temperature,omitempty"`

	// MaxTokens 最大令牌数
	MaxTokens int `json:"max_tokens,omitempty"`

	// Metadata 元数据（步骤名等）
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Response 提供者响应
type Response struct {
	// Text 模型输出
	Text string `json:"text"`

	// Usage 令牌使用情况
	Usage Usage `json:"usage,omitempty"`
}

// Usage 令牌使用情况
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// 三步工作流的步骤名
const (
	StepLiteral    = "literal"
	StepCorrection = "correction"
	StepPolish     = "polish"
	StepDirect     = "direct"
)

// StepResult 步骤结果
type StepResult struct {
	Name      string        `json:"name"`
	Output    string        `json:"output"`
	Model     string        `json:"model"`
	Duration  time.Duration `json:"duration"`
	TokensIn  int           `json:"tokens_in"`
	TokensOut int           `json:"tokens_out"`
	CacheHit  bool          `json:"cache_hit"`
	Skipped   bool          `json:"skipped"`
	Error     string        `json:"error,omitempty"`
}

// BatchResult 一个批次的翻译结果
type BatchResult struct {
	// Entries 与输入条目一一对应的译文
	Entries []string `json:"entries"`

	// Steps 各步骤结果
	Steps []StepResult `json:"steps"`

	// Metrics 批次指标
	Metrics *Metrics `json:"metrics,omitempty"`
}

// Metrics 批次翻译指标
type Metrics struct {
	ID             string        `json:"id"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	Duration       time.Duration `json:"duration"`
	SourceLanguage string        `json:"source_language"`
	TargetLanguage string        `json:"target_language"`
	EntryCount     int           `json:"entry_count"`
	InputChars     int           `json:"input_chars"`
	OutputChars    int           `json:"output_chars"`
	TokensIn       int           `json:"tokens_in"`
	TokensOut      int           `json:"tokens_out"`
	CacheHits      int           `json:"cache_hits"`
	Success        bool          `json:"success"`
}

// NewMetrics 创建批次指标
func NewMetrics(sourceLang, targetLang string) *Metrics {
	return &Metrics{
		ID:             uuid.NewString(),
		StartTime:      time.Now(),
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
	}
}

// Finish 结束指标采集
func (m *Metrics) Finish(success bool) {
	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.Success = success
}
