package api

import (
	"HealthMate/backend/go/internal/health_service/service"
	"HealthMate/backend/go/internal/models"
	"HealthMate/backend/go/pkg/httpmiddleware"
	"HealthMate/backend/go/pkg/logger"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// LivenessText 是 GET / 的响应正文。
const LivenessText = "AI Health Backend is Running"

// HealthChecker 检查某个依赖是否可用，用于 /healthz。
type HealthChecker func(ctx context.Context) error

// Handler 封装了所有 API endpoint 的处理函数。
type Handler struct {
	service *service.Service
	checks  map[string]HealthChecker
	logger  *logger.Logger
}

// NewHandler 创建一个新的 Handler 实例。checks 的 key 会出现在 /healthz 的响应中。
func NewHandler(s *service.Service, checks map[string]HealthChecker, log *logger.Logger) *Handler {
	return &Handler{service: s, checks: checks, logger: log}
}

func (h *Handler) requestContext(c *gin.Context) context.Context {
	return service.WithTraceID(c.Request.Context(), httpmiddleware.TraceID(c))
}

func (h *Handler) logFailure(c *gin.Context, userID string, errType string, status int, err error, msg string) {
	h.logger.WithTrace(httpmiddleware.TraceID(c)).WithUser(userID).
		WithError(models.ErrorInfo{Message: err.Error(), Type: errType, StatusCode: status}).
		Error(msg)
}

// Liveness 返回固定文本。
func (h *Handler) Liveness(c *gin.Context) {
	c.String(http.StatusOK, LivenessText)
}

// --- Users ---

// CreateUser 处理 POST /api/user。
func (h *Handler) CreateUser(c *gin.Context) {
	user, err := h.service.CreateUser(h.requestContext(c))
	if err != nil {
		h.logFailure(c, "", models.ErrTypeStorage, http.StatusInternalServerError, err, "failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error creating user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": user.ID, "status": "created"})
}

// --- Chat ---

// ChatRequest 定义了对话请求的 JSON 结构。
type ChatRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// Chat 处理 POST /api/chat。
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	// 无法解析的请求体与缺失字段同样处理。
	_ = c.ShouldBindJSON(&req)

	answer, err := h.service.Chat(h.requestContext(c), req.UserID, req.Message)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing userId or message"})
			return
		}
		h.logFailure(c, req.UserID, models.ErrTypeStorage, http.StatusInternalServerError, err, "chat failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": answer})
}

// --- Memory ---

// GetMemory 处理 GET /api/memory/:userId，未知用户返回空数组。
func (h *Handler) GetMemory(c *gin.Context) {
	userID := c.Param("userId")
	facts, err := h.service.GetMemory(h.requestContext(c), userID)
	if err != nil {
		h.logFailure(c, userID, models.ErrTypeStorage, http.StatusInternalServerError, err, "failed to load memory")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error loading memory"})
		return
	}
	if facts == nil {
		facts = []models.Fact{}
	}
	c.JSON(http.StatusOK, facts)
}

// --- Health ---

// checkUnavailable 是检查失败时返回给客户端的固定值，具体错误只写日志。
const checkUnavailable = "unavailable"

// Healthz 依次执行所有依赖检查，任一失败时返回 503。
func (h *Handler) Healthz(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			errType := models.ErrTypeQueue
			if name == "database" {
				errType = models.ErrTypeStorage
			}
			h.logFailure(c, "", errType, http.StatusServiceUnavailable, err, "health check failed: "+name)
			results[name] = checkUnavailable
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	c.JSON(code, gin.H{"status": status, "checks": results})
}
