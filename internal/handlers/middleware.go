package handlers

import (
	"net/http"
	"strings"
	"time"

	"energisense/internal/models"
	"energisense/internal/service"

	"github.com/gin-gonic/gin"
)

// Gin context keys set by authMiddleware.
const (
	ctxUserID = "userId"
	ctxEmail  = "userEmail"
	ctxRole   = "userRole"
)

const (
	errMissingAuthHeader = "missing Authorization header"
	errBadAuthHeader     = "invalid Authorization header format"
	errBadToken          = "invalid or expired token"
	errAdminOnly         = "admin role required"
)

// authMiddleware validates the bearer token and stores the caller identity.
func (h *Handler) authMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMissingAuthHeader})
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errBadAuthHeader})
		return
	}

	id, err := h.services.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errBadToken})
		return
	}

	c.Set(ctxUserID, id.UserID)
	c.Set(ctxEmail, id.Email)
	c.Set(ctxRole, id.Role)
	c.Next()
}

// adminOnly must run after authMiddleware.
func (h *Handler) adminOnly(c *gin.Context) {
	role, _ := c.Get(ctxRole)
	if r, ok := role.(models.Role); !ok || !r.IsAdmin() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": errAdminOnly})
		return
	}
	c.Next()
}

// identity reads back what authMiddleware stored.
func identity(c *gin.Context) service.Identity {
	id := service.Identity{
		UserID: c.GetString(ctxUserID),
		Email:  c.GetString(ctxEmail),
	}
	if r, ok := c.Get(ctxRole); ok {
		id.Role, _ = r.(models.Role)
	}
	return id
}

// requestLogger records one access log line and the request metrics.
func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	elapsed := time.Since(start)

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	h.metrics.ObserveRequest(route, c.Request.Method, c.Writer.Status(), elapsed)

	if h.log != nil {
		h.log.Infow("http_request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", elapsed.Milliseconds(),
			"ip", c.ClientIP(),
		)
	}
}

// ingestRateLimit rejects clients that exceed the configured ingest rate.
func (h *Handler) ingestRateLimit(c *gin.Context) {
	if h.ingestLimiter == nil {
		c.Next()
		return
	}
	if !h.ingestLimiter.allow(c.ClientIP()) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}
	c.Next()
}
