package httpmiddleware

import (
	"HealthMate/backend/go/internal/models"
	"HealthMate/backend/go/pkg/logger"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// TraceHeader carries the request trace id in and out.
	TraceHeader = "X-Request-ID"
	// TraceKey is the gin context key holding the trace id.
	TraceKey = "traceID"
)

// TraceID returns the trace id set by RequestLogger, or "".
func TraceID(c *gin.Context) string {
	return c.GetString(TraceKey)
}

// RequestLogger assigns a trace id to every request and logs it once the
// handler chain completes.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Set(TraceKey, traceID)
		c.Header(TraceHeader, traceID)

		start := time.Now()
		c.Next()

		entry := log.WithTrace(traceID).WithRequest(models.RequestInfo{
			Method:     c.Request.Method,
			Path:       c.FullPath(),
			RemoteAddr: c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			Status:     c.Writer.Status(),
			LatencyMs:  time.Since(start).Milliseconds(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request completed")
		}
	}
}

// CORS allows any origin, matching what browser and mobile clients of the API expect.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", TraceHeader},
		ExposeHeaders:   []string{TraceHeader},
		MaxAge:          12 * time.Hour,
	})
}
