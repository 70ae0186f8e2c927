package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	// === Public Routes ===
	g.POST("/halls/:slug/bookings", h.Create)
	g.GET("/bookings/code/:code", h.GetByCode)

	// === Authenticated Routes ===
	staff := g.Group("")
	staff.Use(authMiddleware)
	{
		staff.GET("/dashboard/bookings", h.List)
		staff.GET("/bookings/:id", h.Get)
		staff.PATCH("/bookings/:id", h.Update)
		staff.POST("/bookings/:id/approve", h.Approve)
		staff.POST("/bookings/:id/cancel", h.Cancel)
	}
}
