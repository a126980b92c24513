package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imisi99/Spotify-api/internal/auth"
	"github.com/imisi99/Spotify-api/internal/config"
	"github.com/imisi99/Spotify-api/internal/database"
	"github.com/imisi99/Spotify-api/internal/handlers"
	"github.com/imisi99/Spotify-api/internal/middleware"
	"github.com/imisi99/Spotify-api/internal/models"
	"github.com/imisi99/Spotify-api/internal/routes"
	"github.com/imisi99/Spotify-api/internal/spotify"
	"github.com/imisi99/Spotify-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("production")
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}
	logger.Init(env)

	logger.Info().Str("environment", env).Msg("Starting Spotify-api backend...")

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	database.Connect(cfg.DatabaseURL)
	database.InitRedis(cfg.RedisAddr, cfg.RedisPassword)

	if err := database.DB.AutoMigrate(
		&models.User{},
		&models.Playlist{},
		&models.Contributor{},
		&models.Reaction{},
		&models.Rating{},
		&models.Discussion{},
		&models.Following{},
		&models.LoginState{},
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run database migrations")
	}
	logger.Info().Msg("Database migrations complete")

	sp := spotify.NewClient(cfg)
	issuer := auth.NewIssuer(cfg)
	handlers.Init(cfg, sp, issuer)

	r := gin.New()
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.FrontendURL))
	r.Use(middleware.GeneralRateLimit())

	routes.RegisterUserRoutes(r, issuer, sp)
	routes.RegisterPlayRoutes(r, issuer, sp)

	r.GET("/health", func(c *gin.Context) {
		dbStatus := "ok"
		sqlDB, err := database.DB.DB()
		if err != nil || sqlDB.Ping() != nil {
			dbStatus = "error"
		}

		status := "ok"
		if dbStatus != "ok" {
			status = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{
			"status": status,
			"checks": gin.H{"database": dbStatus},
		})
	})

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", port).Str("env", env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
