package service

import (
	"HealthMate/backend/go/internal/models"
	"context"
	"fmt"
	"strings"
)

// HistoryLimit 是每次组装上下文时读取的最近消息数。
const HistoryLimit = 5

// NoFactsSentinel 在用户没有任何事实时代替事实列表。
const NoFactsSentinel = "No prior data known."

// ContextStore 是组装上下文所需的只读存储能力。
type ContextStore interface {
	ListFacts(ctx context.Context, userID string) ([]models.Fact, error)
	ListRecentMessages(ctx context.Context, userID string, limit int) ([]models.Message, error)
}

// Context 是注入系统提示词的两段文本。
type Context struct {
	Facts   string
	History string
}

// Assembler 读取事实和最近对话并渲染为 Context。
type Assembler struct {
	store ContextStore
	limit int
}

// NewAssembler creates a new Assembler reading the last HistoryLimit messages.
func NewAssembler(s ContextStore) *Assembler {
	return &Assembler{store: s, limit: HistoryLimit}
}

// Assemble 加载用户的全部事实与最近的消息。存储错误原样返回。
func (a *Assembler) Assemble(ctx context.Context, userID string) (Context, error) {
	facts, err := a.store.ListFacts(ctx, userID)
	if err != nil {
		return Context{}, fmt.Errorf("load facts: %w", err)
	}
	recent, err := a.store.ListRecentMessages(ctx, userID, a.limit)
	if err != nil {
		return Context{}, fmt.Errorf("load history: %w", err)
	}

	// 存储按从新到旧返回，提示词需要时间顺序。
	chronological := make([]models.Message, len(recent))
	for i, m := range recent {
		chronological[len(recent)-1-i] = m
	}
	return RenderContext(facts, chronological), nil
}

// RenderContext 是纯函数：messages 需已按时间顺序排列。
func RenderContext(facts []models.Fact, messages []models.Message) Context {
	var c Context
	if len(facts) == 0 {
		c.Facts = NoFactsSentinel
	} else {
		lines := make([]string, len(facts))
		for i, f := range facts {
			lines[i] = "- " + f.Content
		}
		c.Facts = strings.Join(lines, "\n")
	}

	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = fmt.Sprintf("%s: %s", m.Role, m.Content)
	}
	c.History = strings.Join(lines, "\n")
	return c
}
