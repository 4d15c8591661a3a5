package extractor

import (
	"HealthMate/backend/go/internal/llm"
	"HealthMate/backend/go/internal/models"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

const factPrompt = `Analyze this user message: "%s". Extract strictly permanent health facts (e.g., "I live in Delhi", "I am vegan", "I have a rash"). Return ONLY the fact as a text string. If no permanent fact is found, return "null".`

// minFactRunes 及以下长度的回复被视为噪声。
const minFactRunes = 5

// Extractor 从单条用户消息中提取至多一条长期事实。
type Extractor interface {
	Extract(ctx context.Context, message string) (fact string, ok bool, err error)
}

// LLMExtractor 通过一次模型调用完成提取。
type LLMExtractor struct {
	model llm.LLM
}

// NewLLMExtractor creates a new LLMExtractor.
func NewLLMExtractor(model llm.LLM) *LLMExtractor {
	return &LLMExtractor{model: model}
}

// Extract 调用提取模型并解析结果。ok 为 false 表示没有可保存的事实。
func (e *LLMExtractor) Extract(ctx context.Context, message string) (string, bool, error) {
	req := &models.GenerateContentRequest{
		Content: []models.Content{
			models.NewTextContent(models.SpeakerUser, BuildPrompt(message)),
		},
	}
	resp, err := e.model.GenerateContent(ctx, req)
	if err != nil {
		return "", false, fmt.Errorf("fact extraction call failed: %w", err)
	}
	fact, ok := ParseFact(resp.Text())
	return fact, ok, nil
}

// BuildPrompt 把用户原话嵌入提取提示词。
func BuildPrompt(message string) string {
	return fmt.Sprintf(factPrompt, message)
}

// ParseFact 去掉首尾空白后判断模型回复是否是一条事实。
// "null"（不区分大小写）或不超过 5 个字符的回复会被丢弃。
func ParseFact(raw string) (string, bool) {
	fact := strings.TrimSpace(raw)
	if strings.EqualFold(fact, "null") {
		return "", false
	}
	if utf8.RuneCountInString(fact) <= minFactRunes {
		return "", false
	}
	return fact, true
}
