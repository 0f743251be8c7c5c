package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-content-api/internal/models"
)

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// Audit records an audit entry after each successful write. The resource id
// is read from the named route param when present.
func Audit(recorder AuditRecorder, logger *zap.Logger, action, resource, idParam string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if recorder == nil || c.Writer.Status() >= 400 {
			return
		}

		var userID *string
		if claims, ok := CurrentClaims(c); ok {
			userID = models.StringPtr(claims.UserID)
		}
		var resourceID *string
		if idParam != "" {
			resourceID = models.StringPtr(c.Param(idParam))
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		err := recorder.Create(c.Request.Context(), &models.AuditLog{
			UserID:     userID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			NewValues:  body,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
		})
		if err != nil {
			logger.Warn("audit log write failed", zap.String("resource", resource), zap.String("action", action), zap.Error(err))
		}
	}
}
