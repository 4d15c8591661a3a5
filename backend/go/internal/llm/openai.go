package llm

import (
	"HealthMate/backend/go/internal/models"
	"context"
	"strings"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

const providerOpenAI = "openai"

// OpenAI 是一个用于 OpenAI 兼容 API（例如 DeepSeek）的 LLM 客户端。
// 鉴权使用 Bearer token。
type OpenAI struct {
	client *openai.Client // OpenAI 客户端实例。
	model  string         // 要使用的模型名称。
}

// NewOpenAI 创建一个新的 OpenAI 兼容客户端。baseURL 为空时使用 OpenAI 官方地址。
func NewOpenAI(model, apiKey, baseURL string, httpClient openai.HTTPDoer) (*OpenAI, error) {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// GenerateContent 使用 chat completions 接口生成内容。
// 任何传输错误、非 2xx 状态或缺少答案的响应都会返回 *UpstreamError。
func (o *OpenAI) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	resp, err := o.client.CreateChatCompletion(ctx, o.toOpenAIRequest(req))
	if err != nil {
		return nil, &UpstreamError{Provider: providerOpenAI, Reason: "chat completion failed", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &UpstreamError{Provider: providerOpenAI, Reason: "response contained no choices"}
	}
	if strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, &UpstreamError{Provider: providerOpenAI, Reason: "response contained an empty answer"}
	}

	return o.toGenerateContentResponse(&resp), nil
}

// toOpenAIRequest 将我们的内部请求格式转换为 OpenAI 格式。
func (o *OpenAI) toOpenAIRequest(req *models.GenerateContentRequest) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	for _, content := range req.Content {
		var text strings.Builder
		for _, part := range content.Parts {
			text.WriteString(part.Text)
		}
		role := string(content.Role)
		if content.Role == models.SpeakerModel {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: text.String(),
		})
	}

	out := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
	}
	if req.Temperature != nil {
		out.Temperature = req.Temperature
	}
	return out
}

// toGenerateContentResponse 将 OpenAI 响应转换为我们的内部格式。
func (o *OpenAI) toGenerateContentResponse(resp *openai.ChatCompletionResponse) *models.GenerateContentResponse {
	var content []models.Content
	for _, choice := range resp.Choices {
		content = append(content, models.NewTextContent(models.SpeakerAssistant, choice.Message.Content))
	}

	return &models.GenerateContentResponse{
		Content:      content,
		ResponseID:   resp.ID,
		ModelVersion: resp.Model,
	}
}
