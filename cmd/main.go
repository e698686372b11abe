package main

import (
  "fmt"
  "os"
  "github.com/joho/godotenv"
  "github.com/worksy/worksy-backend/internal/logger"
  "github.com/worksy/worksy-backend/internal/utils"
  "github.com/worksy/worksy-backend/internal/db"
  "github.com/worksy/worksy-backend/internal/fingerprint"
  "github.com/worksy/worksy-backend/internal/policy"
  "github.com/worksy/worksy-backend/internal/repos"
  "github.com/worksy/worksy-backend/internal/services"
  "github.com/worksy/worksy-backend/internal/handlers"
  "github.com/worksy/worksy-backend/internal/middleware"
  "github.com/worksy/worksy-backend/internal/server"
)

func main() {
  _ = godotenv.Load()

  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  adminKey := utils.GetEnv("ADMIN_KEY", "", log)
  hmacSecret := os.Getenv("SERVER_HMAC_SECRET")
  policyFile := utils.GetEnv("POLICY_FILE", "", log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  assignmentRepo := repos.NewAssignmentRepo(thePG, log)
  sessionRepo := repos.NewSessionRepo(thePG, log)
  chatEventRepo := repos.NewChatEventRepo(thePG, log)
  aiIndexRepo := repos.NewAIIndexRepo(thePG, log)
  auditRepo := repos.NewAuditRepo(thePG, log)

  // Policy + fingerprint
  amber := policy.DefaultAmber()
  if policyFile != "" {
    amber, err = policy.Load(policyFile)
    if err != nil {
      log.Warn("Could not load policy file, using defaults", "path", policyFile, "error", err)
    }
  }
  if hmacSecret == "" {
    log.Warn("SERVER_HMAC_SECRET not set; AI Index records will carry a hash but no authentication code")
  }
  engine := fingerprint.New(hmacSecret)
  limiter := policy.NewLimiter()

  // Services
  log.Info("Setting up Services from main...")
  auditService := services.NewAuditService(thePG, log, auditRepo)
  bucketService, err := services.NewBucketService(log)
  if err != nil {
    log.Warn("Could not init BucketService", "error", err)
  }
  completionClient, err := services.NewOpenAICompletionClient(log)
  if err != nil {
    log.Error("Could not init CompletionClient", "error", err)
    os.Exit(1)
  }
  policyService := services.NewPolicyService(log, assignmentRepo, amber)
  chatService := services.NewChatService(thePG, log, assignmentRepo, sessionRepo, chatEventRepo, completionClient, auditService, amber, limiter)
  sessionService := services.NewSessionService(thePG, log, sessionRepo, auditService)
  indexService := services.NewIndexService(thePG, log, engine, sessionRepo, assignmentRepo, chatEventRepo, aiIndexRepo, bucketService, auditService)
  adminService := services.NewAdminService(thePG, log, assignmentRepo, sessionRepo, chatEventRepo, indexService)

  // Handlers
  log.Info("Setting up handlers from main...")
  healthHandler := handlers.NewHealthHandler(postgresService)
  policyHandler := handlers.NewPolicyHandler(policyService)
  chatHandler := handlers.NewChatHandler(chatService)
  sessionHandler := handlers.NewSessionHandler(sessionService)
  indexHandler := handlers.NewIndexHandler(indexService)
  adminHandler := handlers.NewAdminHandler(adminService)

  // Middleware
  log.Info("Setting up middleware from main...")
  adminMiddleware := middleware.NewAdminMiddleware(log, adminKey)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    HealthHandler:   healthHandler,
    PolicyHandler:   policyHandler,
    ChatHandler:     chatHandler,
    SessionHandler:  sessionHandler,
    IndexHandler:    indexHandler,
    AdminHandler:    adminHandler,
    AdminMiddleware: adminMiddleware,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Worksy running on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Fatal("Server exited", "error", err)
  }
}
