package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/shreyasprabhudev/Tranquil/internal/api/handlers"
	"github.com/shreyasprabhudev/Tranquil/internal/api/middleware"
)

type Deps struct {
	Auth         *handlers.AuthHandler
	Entry        *handlers.EntryHandler
	Chat         *handlers.ChatHandler
	Conversation *handlers.ConversationHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := r.Group("/api")

	// Public
	api.POST("/register/", d.Auth.Register)
	api.POST("/token/", d.Auth.Login)
	api.POST("/token/refresh/", d.Auth.Refresh)

	// Protected routes (JWT)
	auth := api.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.GET("/user/me/", d.Auth.Me)

	auth.GET("/entries/", d.Entry.List)
	auth.POST("/entries/", d.Entry.Create)
	auth.GET("/entries/recent/", d.Entry.Recent)
	auth.GET("/entries/stats/", d.Entry.Stats)
	auth.GET("/entries/:id/", d.Entry.Get)
	auth.PUT("/entries/:id/", d.Entry.Update)
	auth.PATCH("/entries/:id/", d.Entry.Update)
	auth.DELETE("/entries/:id/", d.Entry.Delete)

	auth.GET("/chat/", d.Chat.History)
	auth.POST("/chat/", d.Chat.Send)
	auth.DELETE("/chat/", d.Chat.Clear)

	auth.GET("/conversations/", d.Conversation.List)
	auth.GET("/conversations/:id/", d.Conversation.Get)
	auth.GET("/conversations/:id/messages/", d.Conversation.Messages)
	auth.POST("/conversations/:id/archive/", d.Conversation.Archive)
}
