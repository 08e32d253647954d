package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/liqtags/relaychat/pkg/middleware"
)

// RegisterRoutes wires all handlers onto the router.
func RegisterRoutes(
	r *gin.Engine,
	auth *AuthHandler,
	todos *TodoHandler,
	files *FileHandler,
	ws *WSHandler,
	system *SystemHandler,
	authMW *middleware.AuthMiddleware,
) {
	r.GET("/health", system.Health)
	r.GET("/ws", ws.HandleWebSocket)

	api := r.Group("/api")
	{
		api.GET("/presence", system.Presence)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", auth.Register)
			authGroup.POST("/login", auth.Login)
			authGroup.POST("/refresh", auth.Refresh)
			authGroup.POST("/logout", authMW.RequireAuth(), auth.Logout)
			authGroup.GET("/me", authMW.RequireAuth(), auth.Me)
		}

		todoGroup := api.Group("/todos", authMW.RequireAuth())
		{
			todoGroup.POST("", todos.Create)
			todoGroup.GET("", todos.List)
			todoGroup.GET("/:id", todos.Get)
			todoGroup.PUT("/:id", todos.Update)
			todoGroup.DELETE("/:id", todos.Delete)
		}

		fileGroup := api.Group("/files")
		{
			fileGroup.POST("", authMW.RequireAuth(), files.Upload)
			fileGroup.GET("/:id", files.Download)
		}
	}
}
