package retry

import (
	"context"
	"errors"
	"math"
	"net"
	"syscall"
	"time"
)

// Config 重试配置
type Config struct {
	// 最大重试次数
	MaxRetries int `json:"max_retries" mapstructure:"max_retries"`

	// 初始延迟时间
	InitialDelay time.Duration `json:"initial_delay" mapstructure:"initial_delay"`

	// 最大延迟时间
	MaxDelay time.Duration `json:"max_delay" mapstructure:"max_delay"`

	// 退避因子（指数退避）
	BackoffFactor float64 `json:"backoff_factor" mapstructure:"backoff_factor"`
}

// DefaultConfig 返回默认重试配置
func DefaultConfig() Config {
	return Config{
		MaxRetries:    3,
		InitialDelay:  1 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Retryable 可声明自身是否可重试的错误
type Retryable interface {
	IsRetryable() bool
}

// Retrier 带指数退避的重试器
type Retrier struct {
	config Config
}

// New 创建重试器
func New(config Config) *Retrier {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.BackoffFactor < 1 {
		config.BackoffFactor = 2.0
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = time.Second
	}
	return &Retrier{config: config}
}

// Do 执行带重试的操作
// 只重试瞬时错误，上下文取消立即返回
func (r *Retrier) Do(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsTransient(err) {
			return err
		}
		if attempt == r.config.MaxRetries {
			break
		}

		delay := r.delay(attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// delay 计算第attempt次重试前的延迟
func (r *Retrier) delay(attempt int) time.Duration {
	delay := time.Duration(float64(r.config.InitialDelay) * math.Pow(r.config.BackoffFactor, float64(attempt)))
	if r.config.MaxDelay > 0 && delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}
	return delay
}

// IsTransient 判断错误是否为瞬时错误
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// 错误自己声明了可重试性时以其为准
	var retryable Retryable
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}

	// 网络瞬时错误
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	return false
}
