package service

import (
	"HealthMate/backend/go/internal/config"
	"HealthMate/backend/go/internal/llm"
	"HealthMate/backend/go/internal/memory/dispatch"
	"HealthMate/backend/go/internal/models"
	"HealthMate/backend/go/pkg/logger"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// FallbackResponse 是上游模型不可用时返回给用户的固定文本。
const FallbackResponse = "I apologize, but I'm having trouble accessing my medical engine right now. Please try again in a moment."

const systemPromptTemplate = `You are %s, %s.
Tone: %s.
Directives: %s.

CRITICAL USER DATA (Use this to customize your answer):
%s

PREVIOUS CONVERSATION:
%s

Task: Answer the user's new message: "%s".
If they describe symptoms, ask clarifying questions. Keep it safe and medical.`

// ConversationStore 是生成器需要的存储能力。
type ConversationStore interface {
	ContextStore
	AppendMessage(ctx context.Context, userID string, role models.SpeakerRole, content string) error
}

// Generator 负责一轮对话：组装上下文、调用模型、持久化并触发记忆提取。
type Generator struct {
	store       ConversationStore
	assembler   *Assembler
	model       llm.LLM
	persona     config.Persona
	temperature float32
	dispatcher  dispatch.Dispatcher
	logger      *logger.Logger
}

// NewGenerator creates a new Generator.
func NewGenerator(s ConversationStore, model llm.LLM, persona config.Persona, temperature float32, d dispatch.Dispatcher, log *logger.Logger) *Generator {
	return &Generator{
		store:       s,
		assembler:   NewAssembler(s),
		model:       model,
		persona:     persona,
		temperature: temperature,
		dispatcher:  d,
		logger:      log,
	}
}

// BuildSystemPrompt 用人设、上下文和用户的新消息渲染系统提示词。
func BuildSystemPrompt(p config.Persona, c Context, userMessage string) string {
	directives, err := json.Marshal(p.Directives())
	if err != nil {
		directives = []byte("[]")
	}
	return fmt.Sprintf(systemPromptTemplate, p.Name(), p.Role(), p.Tone(), directives, c.Facts, c.History, userMessage)
}

// Generate 返回助手回复。
// 模型调用失败时返回 FallbackResponse 且不写入任何消息；存储失败则返回错误。
func (g *Generator) Generate(ctx context.Context, userID, message string) (string, error) {
	traceID := TraceIDFromContext(ctx)
	log := g.logger.WithTrace(traceID).WithUser(userID)

	c, err := g.assembler.Assemble(ctx, userID)
	if err != nil {
		return "", err
	}

	temperature := g.temperature
	req := &models.GenerateContentRequest{
		Content: []models.Content{
			models.NewTextContent(models.SpeakerSystem, BuildSystemPrompt(g.persona, c, message)),
			models.NewTextContent(models.SpeakerUser, message),
		},
		Temperature: &temperature,
	}

	resp, err := g.model.GenerateContent(ctx, req)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: models.ErrTypeUpstream}).Error("chat completion failed, returning fallback")
		return FallbackResponse, nil
	}
	answer := resp.Text()

	if err := g.store.AppendMessage(ctx, userID, models.SpeakerUser, message); err != nil {
		return "", fmt.Errorf("save user message: %w", err)
	}
	if err := g.store.AppendMessage(ctx, userID, models.SpeakerAssistant, answer); err != nil {
		return "", fmt.Errorf("save assistant message: %w", err)
	}

	task := models.MemoryTask{UserID: userID, Message: message, TraceID: traceID, CreateTime: time.Now()}
	if err := g.dispatcher.Dispatch(ctx, task); err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: models.ErrTypeQueue}).Warn("failed to dispatch memory task")
	}
	return answer, nil
}
