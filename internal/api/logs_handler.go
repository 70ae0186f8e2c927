package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/hall-booking-backend/internal/audit"
	"github.com/nekogravitycat/hall-booking-backend/internal/auth"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hall-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/hall-booking-backend/internal/user"
)

// ListLogsRequest defines query parameters for listing audit entries.
type ListLogsRequest struct {
	request.ListParams
	HallID string `form:"hall_id" binding:"omitempty,uuid"`
}

// LogResponse is one audit entry as returned by the API.
type LogResponse struct {
	ID        string    `json:"id"`
	HallID    string    `json:"hall_id,omitempty"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLogResponse(e *audit.Entry) LogResponse {
	return LogResponse{
		ID:        e.ID,
		HallID:    e.HallID,
		Username:  e.Username,
		Action:    e.Action,
		Details:   e.Details,
		Timestamp: e.Timestamp,
	}
}

type LogsHandler struct {
	auditRepo audit.Repository
}

func NewLogsHandler(auditRepo audit.Repository) *LogsHandler {
	return &LogsHandler{auditRepo: auditRepo}
}

// ListHallLogs handles GET /v1/dashboard/logs. Hall owners see their own
// hall's trail.
func (h *LogsHandler) ListHallLogs(c *gin.Context) {
	var req ListLogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, apperror.BadRequest("invalid query parameters"))
		return
	}

	actor := auth.GetActor(c)
	if !actor.IsSiteAdmin {
		if actor.HallID == "" || !user.Role(actor.Role).CanViewAuditLog() {
			c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		req.HallID = actor.HallID
	}

	h.list(c, req)
}

// ListAllLogs handles GET /v1/admin/logs. Site admins see every hall,
// optionally filtered by hall_id.
func (h *LogsHandler) ListAllLogs(c *gin.Context) {
	var req ListLogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, apperror.BadRequest("invalid query parameters"))
		return
	}
	h.list(c, req)
}

func (h *LogsHandler) list(c *gin.Context, req ListLogsRequest) {
	entries, total, err := h.auditRepo.List(c.Request.Context(), audit.Filter{
		HallID:   req.HallID,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Map(entries, req.Page, req.PageSize, total, NewLogResponse))
}
