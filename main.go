package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"ideaboard/config"
	"ideaboard/database"
	"ideaboard/handlers"
	"ideaboard/middleware"
	"ideaboard/models"
	"ideaboard/services"
)

func main() {
	cfg := config.Load()

	if err := cfg.EnsureDirs(); err != nil {
		log.Fatalf("Failed to create asset directories: %v", err)
	}
	log.Printf("Assets: %s", cfg.AssetsDir)

	// Catalog database and optional event mirror
	database.Connect(cfg)
	database.Migrate()
	database.ConnectRedis(cfg)

	// Settings document (defaults may override config)
	settings, err := models.LoadSettings(cfg.SettingsPath)
	if err != nil {
		log.Printf("Failed to load settings, using defaults: %v", err)
		settings = models.DefaultSettings()
	}
	if settings.BlenderExecutablePath != "" && cfg.BlenderPath == "" {
		cfg.BlenderPath = settings.BlenderExecutablePath
	}

	// Services. The text service and Blender integration are both
	// optional; a missing credential or executable degrades features
	// for the whole run instead of failing startup.
	store := services.NewSessionStore(cfg.SessionsDir)
	progress := services.NewProgressHub()
	images := services.NewImageGenerator()
	meshes := services.NewModelGenerator()

	claude, err := services.NewClaudeService(cfg.AnthropicAPIKey, cfg.ClaudeModel, cfg.AnthropicBaseURL)
	if err != nil {
		log.Printf("Claude service unavailable: %v", err)
	} else {
		log.Println("Claude service initialized")
	}

	blender, err := services.NewBlenderIntegration(cfg.BlenderPath)
	if err != nil {
		log.Printf("Blender integration not available: %v", err)
	} else {
		log.Printf("Blender integration initialized with executable: %s", blender.ExecutablePath())
	}

	// Handlers
	sessionsHandler := handlers.NewSessionsHandler(cfg, store, claude, progress)
	pipelineHandler := handlers.NewPipelineHandler(cfg, store, claude, images, meshes, blender, progress)
	libraryHandler := handlers.NewLibraryHandler(cfg, store)
	settingsHandler := handlers.NewSettingsHandler(cfg, settings)
	assetsHandler := handlers.NewAssetsHandler(cfg)
	progressHandler := handlers.NewProgressHandler(cfg, progress)

	// Router
	r := gin.Default()
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// Optional access gate
	if cfg.AccessPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AccessPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash access password: %v", err)
		}
		lockout := services.NewLoginLockout(database.RDB)
		authHandler := handlers.NewAuthHandler(cfg, hash, lockout)

		authLimiter := middleware.NewRateLimiter(10, 1*time.Minute)
		auth := r.Group("/api/auth")
		auth.Use(authLimiter.Middleware())
		{
			auth.POST("/login", authHandler.Login)
		}

		api.Use(middleware.AuthRequired(cfg.JWTSecret))
		log.Println("Access gate enabled")
	}

	{
		// Sessions
		api.POST("/sessions", sessionsHandler.Create)
		api.GET("/sessions", sessionsHandler.List)
		api.GET("/sessions/current", sessionsHandler.Current)
		api.DELETE("/sessions/current", sessionsHandler.Deselect)
		api.GET("/sessions/:id", sessionsHandler.Get)
		api.POST("/sessions/:id/select", sessionsHandler.Select)
		api.POST("/sessions/:id/save", sessionsHandler.Save)
		api.GET("/sessions/:id/summary", sessionsHandler.Summary)
		api.GET("/sessions/:id/suggestions", sessionsHandler.Suggestions)

		// Pipeline
		api.POST("/sessions/:id/sketch", pipelineHandler.UploadSketch)
		api.POST("/sessions/:id/text-model", pipelineHandler.GenerateTextModel)
		api.POST("/sessions/:id/export", pipelineHandler.Export)
		api.POST("/sessions/:id/launch", pipelineHandler.Launch)

		// Library of saved sessions
		api.GET("/library", libraryHandler.List)
		api.POST("/library/:id/load", libraryHandler.Load)

		// Settings
		api.GET("/settings", settingsHandler.Get)
		api.PUT("/settings", settingsHandler.Update)

		// Artifacts
		api.GET("/assets", assetsHandler.List)
		api.GET("/assets/raw", assetsHandler.Raw)
	}

	// WebSocket progress feed (auth via ?token= when the gate is on)
	if cfg.AccessPassword != "" {
		r.GET("/ws/progress", middleware.AuthRequired(cfg.JWTSecret), progressHandler.HandleWebSocket)
	} else {
		r.GET("/ws/progress", progressHandler.HandleWebSocket)
	}

	// Serve frontend static files
	r.Static("/assets", "./static/assets")
	r.StaticFile("/favicon.svg", "./static/favicon.svg")
	r.StaticFile("/", "./static/index.html")
	r.NoRoute(func(c *gin.Context) {
		c.File("./static/index.html")
	})

	fmt.Printf("Server starting on :%s\n", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
