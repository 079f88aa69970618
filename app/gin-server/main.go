package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/shreyasprabhudev/Tranquil/config"
	"github.com/shreyasprabhudev/Tranquil/internal/api/handlers"
	"github.com/shreyasprabhudev/Tranquil/internal/api/middleware"
	"github.com/shreyasprabhudev/Tranquil/internal/api/routes"
	"github.com/shreyasprabhudev/Tranquil/internal/cache"
	"github.com/shreyasprabhudev/Tranquil/internal/logger"
	"github.com/shreyasprabhudev/Tranquil/internal/providers/llm"
	pgrepo "github.com/shreyasprabhudev/Tranquil/internal/repositories/postgres"
	"github.com/shreyasprabhudev/Tranquil/internal/services"
	"github.com/shreyasprabhudev/Tranquil/internal/state"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	if err := config.InitPostgres(); err != nil {
		log.WithError(err).Fatal("postgres init failed")
	}
	log.Info("postgres connected")

	// Redis is optional; without it stats responses are just uncached.
	var statsCache cache.Cache
	if err := config.InitRedis(); err != nil {
		log.WithError(err).Warn("redis unavailable, stats caching disabled")
	} else {
		statsCache = cache.NewRedisCache(config.RedisClient)
		log.Info("redis connected")
	}

	provider, err := llm.NewOllama(os.Getenv("OLLAMA_API_URL"), os.Getenv("OLLAMA_MODEL"), log)
	if err != nil {
		log.WithError(err).Fatal("ollama client init failed")
	}

	// Verify the backend and provision the model before serving traffic.
	// A failed pull is a deployment misconfiguration, not a runtime error.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	if err := provider.EnsureModel(ctx); err != nil {
		cancel()
		if errors.Is(err, llm.ErrModelPull) {
			log.WithError(err).Fatal("model provisioning failed")
		}
		log.WithError(err).Fatal("ollama backend unavailable")
	}
	cancel()
	log.WithField("model", provider.Model()).Info("ollama model ready")

	db := config.PostgresDB
	users := pgrepo.NewUserRepo(db)
	entries := pgrepo.NewEntryRepo(db)
	convos := pgrepo.NewConversationRepo(db)
	messages := pgrepo.NewMessageRepo(db)

	authSvc := services.NewAuthService(users, os.Getenv("JWT_SECRET"))
	entrySvc := services.NewEntryService(entries, statsCache)
	chatSvc := services.NewChatService(
		convos,
		messages,
		services.NewContextBuilder(entries),
		state.NewStore(),
		provider,
		log,
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Auth:         handlers.NewAuthHandler(authSvc),
		Entry:        handlers.NewEntryHandler(entrySvc),
		Chat:         handlers.NewChatHandler(chatSvc),
		Conversation: handlers.NewConversationHandler(chatSvc),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
