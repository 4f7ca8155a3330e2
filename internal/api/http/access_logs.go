package http

import (
	"net/http"
	"strconv"

	"github.com/GriffinCanCode/accessproxy/internal/domain/audit"
	"github.com/GriffinCanCode/accessproxy/internal/shared/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultAccessLogLimit = 50
	maxAccessLogLimit     = 500
)

// GetAccessLogs returns recent access events, newest first. The optional
// actorId query narrows the result to one operator identity.
func (h *Handlers) GetAccessLogs(c *gin.Context) {
	if h.accessLog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": "access log store is not configured",
		})
		return
	}

	actorID := c.Query("actorId")
	if err := utils.ValidateID(actorID, "actorId", false); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	limit := defaultAccessLogLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxAccessLogLimit)
	}

	events, err := h.accessLog.Recent(c.Request.Context(), actorID, limit)
	if err != nil {
		h.logger.Error("Failed to read access logs", zap.Error(err), zap.String("actor_id", actorID))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to read access logs"})
		return
	}

	if events == nil {
		events = []audit.Event{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"logs":    events,
		"count":   len(events),
	})
}
