package http

import (
	"context"
	"net/http"
	"time"

	"github.com/GriffinCanCode/accessproxy/internal/domain/audit"
	"github.com/GriffinCanCode/accessproxy/internal/domain/session"
	"github.com/GriffinCanCode/accessproxy/internal/domain/stream"
	"github.com/GriffinCanCode/accessproxy/internal/shared/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionService is the slice of the stream engine the REST API needs.
type SessionService interface {
	List() []session.Info
	Info(userID string) (session.Info, bool)
	Count() int
	StopSession(userID string) stream.Reply
}

// AccessLog reads recorded access events.
type AccessLog interface {
	Recent(ctx context.Context, actorID string, limit int) ([]audit.Event, error)
}

// isoMillis matches the ISO-8601 form viewers already parse.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions  SessionService
	accessLog AccessLog
	logger    *zap.Logger
	now       func() time.Time
}

// NewHandlers creates a new handler set. accessLog may be nil when no
// audit store is configured.
func NewHandlers(sessions SessionService, accessLog AccessLog, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		sessions:  sessions,
		accessLog: accessLog,
		logger:    logger.Named("http"),
		now:       time.Now,
	}
}

// Register mounts the REST routes on r.
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.GET("/sessions", h.ListSessions)
	r.GET("/sessions/:userId", h.GetSession)
	r.DELETE("/sessions/:userId", h.DeleteSession)
	r.GET("/access-logs", h.GetAccessLogs)
}

// Health reports liveness and the number of open browsers.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"message":               "Server is running!",
		"timestamp":             h.now().UTC().Format(isoMillis),
		"activeBrowserSessions": h.sessions.Count(),
	})
}

// ListSessions lists every live session without credentials.
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.sessions.List()

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession returns one user's session.
func (h *Handlers) GetSession(c *gin.Context) {
	userID := c.Param("userId")

	if err := utils.ValidateID(userID, "user_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	info, ok := h.sessions.Info(userID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "session": info})
}

// DeleteSession stops one user's session. Stopping an absent session
// succeeds.
func (h *Handlers) DeleteSession(c *gin.Context) {
	userID := c.Param("userId")

	if err := utils.ValidateID(userID, "user_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	reply := h.sessions.StopSession(userID)
	h.logger.Info("Session stopped over HTTP", zap.String("user_id", userID))

	c.JSON(http.StatusOK, reply.Payload)
}
