package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/playsevenate9/backend/internal/ai"
	"github.com/playsevenate9/backend/internal/api/handlers"
	"github.com/playsevenate9/backend/internal/config"
	"github.com/playsevenate9/backend/internal/session"
	"github.com/playsevenate9/backend/internal/ws"
)

// Deps are the services the routes are wired to
type Deps struct {
	Rooms       handlers.Rooms
	Leaderboard handlers.Leaderboard
	Strategy    ai.Provider
	Issuer      *session.Issuer
	Hub         *ws.Hub
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, deps Deps, cfg *config.Config) {
	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		if deps.Leaderboard != nil {
			v1.GET("/leaderboard", handlers.GetLeaderboard(deps.Leaderboard))
		}
		v1.POST("/ai/move", handlers.SuggestMove(deps.Strategy))

		rooms := v1.Group("/rooms")
		{
			rooms.POST("", handlers.CreateRoom(deps.Rooms))
			rooms.GET("/:code", handlers.GetRoom(deps.Rooms))
			rooms.POST("/:code/join", handlers.JoinRoom(deps.Rooms))
			rooms.GET("/:code/state", handlers.GetState(deps.Rooms, deps.Issuer))
			if deps.Hub != nil {
				rooms.GET("/:code/ws", ws.HandleWebSocket(deps.Hub, deps.Issuer))
			}

			seated := rooms.Group("/:code", handlers.SeatMiddleware(deps.Issuer))
			{
				seated.POST("/leave", handlers.LeaveRoom(deps.Rooms))
				seated.POST("/bots", handlers.AddBot(deps.Rooms))
				seated.POST("/start", handlers.StartGame(deps.Rooms))
				seated.POST("/actions", handlers.SubmitAction(deps.Rooms))
			}
		}
	}
}
