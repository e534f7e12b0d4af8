package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/chatflow/internal/app"
	"github.com/ammar1510/chatflow/internal/metrics"
	"github.com/ammar1510/chatflow/internal/websocket"
)

// RegisterRoutes mounts the API, the relay, metrics and health check
func RegisterRoutes(router *gin.Engine, a *app.App, relay *websocket.Manager) {
	authHandler := NewAuthHandler(a)
	conversationHandler := NewConversationHandler(a)
	messageHandler := NewMessageHandler(a)
	friendHandler := NewFriendHandler(a)
	userHandler := NewUserHandler(a)

	// Public routes
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)

	authorized := router.Group("/api")
	authorized.Use(RequireSession(a))
	{
		authorized.POST("/auth/logout", authHandler.Logout)
		authorized.GET("/auth/me", authHandler.GetMe)

		authorized.GET("/conversations", conversationHandler.List)
		authorized.POST("/conversations", conversationHandler.Create)
		authorized.POST("/conversations/:id/select", conversationHandler.Select)

		authorized.GET("/messages", messageHandler.GetMessages)
		authorized.POST("/messages", messageHandler.SendMessage)

		authorized.GET("/users/search", userHandler.Search)

		authorized.GET("/friends", friendHandler.List)
		authorized.POST("/friends", friendHandler.Add)
		authorized.DELETE("/friends/:userID", friendHandler.Remove)
		authorized.GET("/friends/requests", friendHandler.Requests)
		authorized.POST("/friends/requests", friendHandler.SendRequest)
		authorized.POST("/friends/requests/accept", friendHandler.Accept)
		authorized.DELETE("/friends/requests/:id", friendHandler.Reject)
	}

	// The relay authenticates with the ?token= handshake, not the session
	if relay != nil {
		router.GET("/ws", relay.HandleWebSocket)
	}

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
