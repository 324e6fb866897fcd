package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/MarcoCaspani/pdfseal/internal/app"
	"github.com/MarcoCaspani/pdfseal/internal/config"
	"github.com/MarcoCaspani/pdfseal/internal/sealing"
	"github.com/MarcoCaspani/pdfseal/pkg/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Storage.Driver == config.DriverMemory && cfg.Storage.PublicBaseURL == "" {
		cfg.Storage.PublicBaseURL = fmt.Sprintf("http://localhost:%d/files", cfg.Server.Port)
	}

	// Initialize logger
	logger, err := app.NewLogger(cfg.Logging.Level, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize sealer", zap.Error(err))
	}

	// Setup Router
	gin.SetMode(gin.DebugMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID(logger))

	api := router.Group("/api/v1")
	{
		sealing.NewHandler(a.Service, logger).RegisterRoutes(api)
	}

	if a.Memory != nil {
		router.GET("/files/:bucket/*key", serveObject(a.Memory))
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"driver":    cfg.Storage.Driver,
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:    cfg.Server.GetServerAddr(),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", srv.Addr))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

// requestID tags every request with an X-Request-ID and logs its outcome.
func requestID(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)

		start := time.Now()
		c.Next()

		logger.Info("Request handled",
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// serveObject stands in for S3 when the memory driver hands out links.
func serveObject(store *storage.MemoryClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		data, ok := store.Get(c.Param("bucket"), key)
		if !ok {
			c.String(http.StatusNotFound, "Not found")
			return
		}
		c.Data(http.StatusOK, "application/pdf", data)
	}
}
