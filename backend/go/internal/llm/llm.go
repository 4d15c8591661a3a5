package llm

import (
	"HealthMate/backend/go/internal/config"
	"HealthMate/backend/go/internal/models"
	"context"
	"fmt"
	"time"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// LLM 定义了所有大型语言模型客户端必须实现的通用接口。
type LLM interface {
	GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error)
}

// UpstreamError 表示上游模型不可达、被限流或返回了无法解析的响应。
type UpstreamError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s upstream error: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s upstream error: %s", e.Provider, e.Reason)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewLLM 是一个工厂函数，根据模型配置创建并返回一个实现了 LLM 接口的客户端。
// httpClient 仅用于 openai 兼容提供商，为 nil 时使用 SDK 默认客户端。
func NewLLM(ctx context.Context, cfg config.ModelConfig, httpClient openai.HTTPDoer) (LLM, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg.Model, cfg.APIKey, cfg.BaseURL, httpClient)
	case "gemini":
		return NewGemini(ctx, cfg.Model, cfg.APIKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// ParseTimeout 解析可选的超时配置，空字符串表示不限制。
func ParseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", s, err)
	}
	return d, nil
}
