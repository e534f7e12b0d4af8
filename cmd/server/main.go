package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ammar1510/chatflow/internal/api"
	"github.com/ammar1510/chatflow/internal/app"
	"github.com/ammar1510/chatflow/internal/auth"
	"github.com/ammar1510/chatflow/internal/config"
	"github.com/ammar1510/chatflow/internal/database"
	"github.com/ammar1510/chatflow/internal/directory"
	"github.com/ammar1510/chatflow/internal/logger"
	internalWs "github.com/ammar1510/chatflow/internal/websocket"
)

var log = logger.New("server")

func main() {
	cfg, warnings, err := config.Load()
	if err != nil {
		log.Error("Invalid configuration: %v", err)
		os.Exit(1)
	}

	logger.Init(cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	for _, w := range warnings {
		log.Warn("%s", w)
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	auth.InitJWTKey([]byte(cfg.JWTSecret))

	// Create database connection using factory
	dbType := database.DatabaseType(cfg.DBType)
	if dbType == database.Pebble {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			log.Error("Failed to create data directory %s: %v", cfg.DataDir, err)
			os.Exit(1)
		}
	}
	kv, err := database.NewDatabase(dbType, cfg.ConnString())
	if err != nil {
		log.Error("Failed to open %s store: %v", dbType, err)
		os.Exit(1)
	}
	defer kv.Close()
	log.Info("Connected to %s store successfully", dbType)

	// Initialize relay manager
	wsManager := internalWs.NewManager()
	go wsManager.Run()

	opts := app.Options{Records: database.NewRecords(kv)}
	if cfg.DirectoryURL != "" {
		opts.Directory = directory.New(cfg.DirectoryURL, &http.Client{Timeout: 10 * time.Second})
	}
	if cfg.RealtimeURL != "" {
		opts.Dial = app.RelayDialer(cfg.RealtimeURL)
	} else {
		log.Info("REALTIME_URL not set, messages stay local")
	}

	chat := app.New(opts)
	defer chat.Dispose()
	if id, ok := chat.Init(context.Background()); ok {
		log.Info("Resumed session for %s", id.Username)
	}

	// Initialize router with recovery; requests are logged by gin in development
	router := gin.New()
	router.Use(gin.Recovery())
	if !cfg.IsProduction() {
		router.Use(gin.Logger())
	}

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	api.RegisterRoutes(router, chat, wsManager)

	// Configure HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited properly")
}
