package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// 预定义错误
var (
	// ErrEmptyBatch 空批次
	ErrEmptyBatch = errors.New("empty batch provided")

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrProviderNotFound 提供者未注册
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProtocol 模型输出不符合编号协议
	ErrProtocol = errors.New("response violates the numbered output protocol")
)

// 错误代码常量
const (
	ErrCodeConfig   = "CONFIG_ERROR"
	ErrCodeProvider = "PROVIDER_ERROR"
	ErrCodeProtocol = "PROTOCOL_ERROR"
	ErrCodeNetwork  = "NETWORK_ERROR"
	ErrCodeTimeout  = "TIMEOUT_ERROR"
	ErrCodeCache    = "CACHE_ERROR"
	ErrCodeStep     = "STEP_ERROR"
)

// TranslationError 翻译错误
type TranslationError struct {
	Code    string // 错误代码
	Message string // 错误消息
	Cause   error  // 原因
	Step    string // 发生错误的步骤
	Retry   bool   // 是否可重试
}

// Error 实现error接口
func (e *TranslationError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("[%s] %s at step '%s'", e.Code, e.Message, e.Step)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回原因错误
func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// IsRetryable 是否可重试
func (e *TranslationError) IsRetryable() bool {
	return e.Retry
}

// NewStepError 创建步骤错误
func NewStepError(step, code, message string, cause error) *TranslationError {
	return &TranslationError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Step:    step,
		Retry:   isRetryableError(cause),
	}
}

// WrapError 包装错误
func WrapError(err error, code, message string) *TranslationError {
	if err == nil {
		return nil
	}

	var te *TranslationError
	if errors.As(err, &te) {
		te.Message = message + ": " + te.Message
		return te
	}

	return &TranslationError{
		Code:    code,
		Message: message,
		Cause:   err,
		Retry:   isRetryableError(err),
	}
}

// isRetryableError 判断错误是否值得重试
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// 协议错误重试同一请求有机会拿到合规输出
	if errors.Is(err, ErrProtocol) {
		return true
	}

	// 错误自己声明了可重试性时以其为准
	var retryable interface{ IsRetryable() bool }
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}

	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"timeout", "rate limit", "temporarily", "connection reset", "connection refused", "502", "503", "504"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}

	return false
}
