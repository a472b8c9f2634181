package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"astral-server/internal/ai"
	"astral-server/internal/auth"
	"astral-server/internal/handler"
	"astral-server/internal/hub"
	"astral-server/internal/middleware"
	"astral-server/internal/secret"
	"astral-server/internal/store"
)

type Deps struct {
	Store          *store.Store
	TokenConfig    auth.TokenConfig
	Cipher         *secret.Cipher
	Assistant      *ai.Assistant
	Hub            *hub.Hub
	AllowedOrigins []string
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-API-Key"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Welcome to Astral Server",
			"status":  "operational",
		})
	})
	r.GET("/health", func(c *gin.Context) {
		if err := deps.Store.Ping(); err != nil {
			c.JSON(200, gin.H{"status": "degraded", "database": "error", "error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "healthy", "database": "connected", "ai_service": "ready"})
	})
	r.GET("/info", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"name":                "Astral Server",
			"description":         "AI-powered database assistant",
			"supported_databases": []string{"MySQL", "PostgreSQL", "SQL Server"},
		})
	})

	requireAuth := middleware.RequireAuth(deps.Store, deps.TokenConfig)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	authHandler := &handler.AuthHandler{Store: deps.Store, TokenConfig: deps.TokenConfig, LoginLimiter: authLimiter}

	authGroup := r.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.POST("/refresh", requireAuth, authHandler.Refresh)
	authGroup.GET("/me", requireAuth, authHandler.Me)

	userHandler := &handler.UserHandler{Store: deps.Store}
	usersGroup := r.Group("/users", requireAuth)
	usersGroup.GET("", userHandler.List)
	usersGroup.GET("/:id", userHandler.Get)

	systemHandler := &handler.SystemHandler{Store: deps.Store, Cipher: deps.Cipher}
	systemsGroup := r.Group("/systems", requireAuth)
	systemsGroup.POST("/test-connection", systemHandler.TestConnection)
	systemsGroup.POST("", systemHandler.Create)
	systemsGroup.GET("", systemHandler.List)
	systemsGroup.GET("/:id", systemHandler.Get)
	systemsGroup.PUT("/:id", systemHandler.Update)
	systemsGroup.DELETE("/:id", systemHandler.Delete)
	systemsGroup.GET("/:id/schema", systemHandler.Schema)
	systemsGroup.POST("/:id/test", systemHandler.TestExisting)

	chatHandler := &handler.ChatHandler{
		Store:     deps.Store,
		Hub:       deps.Hub,
		Assistant: deps.Assistant,
		Systems:   systemHandler,
	}
	chatGroup := r.Group("/chat", requireAuth)
	chatGroup.POST("/sessions", chatHandler.CreateSession)
	chatGroup.GET("/sessions", chatHandler.ListSessions)
	chatGroup.GET("/sessions/:id/messages", chatHandler.Messages)
	chatGroup.POST("/sessions/:id/messages", chatHandler.SendMessage)
	chatGroup.GET("/sessions/:id/info", chatHandler.SessionInfo)
	chatGroup.DELETE("/sessions/:id", chatHandler.DeleteSession)

	wsHandler := &handler.WebSocketHandler{Hub: deps.Hub, Store: deps.Store, TokenConfig: deps.TokenConfig}
	r.GET("/chat/ws", wsHandler.Serve)

	adminHandler := &handler.AdminHandler{Store: deps.Store}
	adminGroup := r.Group("/admin", requireAuth, middleware.RequireAdmin())
	adminGroup.GET("/dashboard/stats", adminHandler.DashboardStats)
	adminGroup.GET("/dashboard/user-activity", adminHandler.UserActivity)
	adminGroup.GET("/dashboard/system-usage", adminHandler.SystemUsage)
	adminGroup.GET("/users", adminHandler.ListUsers)
	adminGroup.GET("/users/:id", adminHandler.GetUser)

	superGroup := r.Group("/admin", requireAuth, middleware.RequireSuperadmin())
	superGroup.POST("/users", adminHandler.CreateUser)
	superGroup.PUT("/users/:id", adminHandler.UpdateUser)
	superGroup.DELETE("/users/:id", adminHandler.DeleteUser)

	return r
}
