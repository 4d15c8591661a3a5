package llm

import (
	"HealthMate/backend/go/internal/models"
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const providerGemini = "gemini"

// Gemini 是一个实现了 LLM 接口的结构体，用于与 Gemini API 交互。
// 每次调用都是无状态的单轮请求，不保留聊天会话。
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini 创建一个新的 Gemini 客户端。
func NewGemini(ctx context.Context, model, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{
		client: client,
		model:  client.GenerativeModel(model),
	}, nil
}

// GenerateContent 向 Gemini API 发送请求并返回响应。
func (g *Gemini) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	model := g.model
	if req.Temperature != nil {
		// 拷贝一份模型配置，避免并发请求之间互相影响。
		m := *g.model
		m.SetTemperature(*req.Temperature)
		model = &m
	}

	resp, err := model.GenerateContent(ctx, toGenaiParts(req.Content)...)
	if err != nil {
		return nil, &UpstreamError{Provider: providerGemini, Reason: "generate content failed", Err: err}
	}

	return checkGenaiResponse(resp)
}

// checkGenaiResponse 转换响应，并拒绝没有候选或答案为空的响应。
func checkGenaiResponse(resp *genai.GenerateContentResponse) (*models.GenerateContentResponse, error) {
	out := fromGenaiResponse(resp)
	if out == nil || len(out.Content) == 0 {
		return nil, &UpstreamError{Provider: providerGemini, Reason: "response contained no candidates"}
	}
	if strings.TrimSpace(out.Text()) == "" {
		return nil, &UpstreamError{Provider: providerGemini, Reason: "response contained an empty answer"}
	}
	return out, nil
}

// Close 释放底层 gRPC 连接。
func (g *Gemini) Close() error {
	return g.client.Close()
}

// toGenaiParts 将内部 Content 结构体转换为 GenAI Part 切片。
func toGenaiParts(content []models.Content) []genai.Part {
	var parts []genai.Part
	for _, c := range content {
		for _, p := range c.Parts {
			if p.Text != "" {
				parts = append(parts, genai.Text(p.Text))
			}
		}
	}
	return parts
}

// fromGenaiResponse 将 GenAI GenerateContentResponse 转换为内部 GenerateContentResponse 结构体。
func fromGenaiResponse(resp *genai.GenerateContentResponse) *models.GenerateContentResponse {
	if resp == nil {
		return nil
	}
	var content []models.Content
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			content = append(content, fromGenaiContent(cand.Content))
		}
	}
	return &models.GenerateContentResponse{
		Content: content,
	}
}

// fromGenaiContent 将 GenAI Content 结构体转换为内部 Content 结构体，只保留文本部分。
func fromGenaiContent(content *genai.Content) models.Content {
	var parts []*models.Part
	for _, p := range content.Parts {
		if text, ok := p.(genai.Text); ok {
			parts = append(parts, &models.Part{Text: string(text)})
		}
	}
	return models.Content{
		Parts: parts,
		Role:  models.SpeakerRole(content.Role),
	}
}
