package server

import (
  "github.com/gin-gonic/gin"
  "github.com/gin-contrib/cors"
  "github.com/worksy/worksy-backend/internal/handlers"
  "github.com/worksy/worksy-backend/internal/middleware"
)

type RouterConfig struct {
  HealthHandler   *handlers.HealthHandler
  PolicyHandler   *handlers.PolicyHandler
  ChatHandler     *handlers.ChatHandler
  SessionHandler  *handlers.SessionHandler
  IndexHandler    *handlers.IndexHandler
  AdminHandler    *handlers.AdminHandler
  AdminMiddleware *middleware.AdminMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  // Cors
  router.Use(cors.New(cors.Config{
    AllowAllOrigins: true,
    AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:    []string{"Authorization", "Content-Type", "X-Requested-With", "X-Admin-Key"},
  }))

// ===============
// || Public    ||
// ===============
  api := router.Group("/api")
  {
    api.GET("/ping", cfg.HealthHandler.Ping)
    api.GET("/health", cfg.HealthHandler.Health)
    api.GET("/policy", cfg.PolicyHandler.Fetch)
    api.POST("/chat", cfg.ChatHandler.Chat)
    api.POST("/session/consent", cfg.SessionHandler.Consent)
    api.POST("/session/notes", cfg.SessionHandler.Notes)
    api.POST("/tab-switch", cfg.SessionHandler.TabSwitch)
    api.POST("/index/generate", cfg.IndexHandler.Generate)
    api.GET("/index/latest", cfg.IndexHandler.Latest)
    api.POST("/index/upload", cfg.IndexHandler.Upload)
    api.GET("/index/verify", cfg.IndexHandler.Verify)
    api.POST("/submit", cfg.SessionHandler.Submit)
    api.POST("/assignment/seed", cfg.AdminHandler.SeedDemo)
  }

// ===============
// || Admin     ||
// ===============
  admin := router.Group("/api/admin")
  admin.Use(cfg.AdminMiddleware.RequireAdmin())
  {
    admin.GET("/assignments", cfg.AdminHandler.ListAssignments)
    admin.POST("/assignments/import", cfg.AdminHandler.ImportAssignments)
    admin.GET("/sessions", cfg.AdminHandler.ListSessions)
    admin.GET("/sessions/:id/events", cfg.AdminHandler.SessionEvents)
    admin.GET("/export", cfg.AdminHandler.Export)
    admin.GET("/metrics", cfg.AdminHandler.Metrics)
  }

  return router
}
