package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, userMiddleware gin.HandlerFunc) {
	group := g.Group("/items")

	// Public reads
	group.GET("/search", h.Search)
	group.GET("/:id", h.Get)

	// Caller identity required
	group.POST("", userMiddleware, h.Create)
	group.GET("", userMiddleware, h.ListOwned)
	group.PATCH("/:id", userMiddleware, h.Update)
	group.POST("/:id/comment", userMiddleware, h.AddComment)
}
