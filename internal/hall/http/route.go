package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, siteAdminMiddleware gin.HandlerFunc) {
	// === Public Routes ===
	g.GET("/halls", h.List)
	g.GET("/halls/:slug", h.Get)
	g.GET("/halls/:slug/price", h.GetPrice)

	// === Authenticated Routes ===
	staff := g.Group("/dashboard")
	staff.Use(authMiddleware)
	{
		staff.PATCH("/hall", h.Update)
	}

	// === Site Admin Routes ===
	admin := g.Group("/admin")
	admin.Use(authMiddleware, siteAdminMiddleware)
	{
		admin.POST("/halls", h.Create)
	}
}
