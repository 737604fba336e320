package middleware

import (
	"encoding/json"
	"time"

	"bitdash-payments/internal/core/domain"
	"bitdash-payments/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLogins records successful login attempts. Domain writes (transfers,
// settlements, order changes) are audited inside their services where the
// actor and resource are known; logins are the one write the services never
// see succeed, so the middleware covers them.
func AuditLogins(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}

		actorType := ports.ActorTypeCustomer
		if c.FullPath() == "/api/v1/auth/merchants/login" {
			actorType = ports.ActorTypeMerchant
		}

		details, _ := json.Marshal(map[string]interface{}{
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			ActorType:    actorType,
			Action:       domain.AuditActionLogin,
			ResourceType: "session",
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}
