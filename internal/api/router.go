package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/blog-comments-api/internal/middleware"
	"github.com/blog-comments-api/internal/service"
)

const readyTimeout = 2 * time.Second

// ReadinessChecker reports whether the backing store can serve requests
type ReadinessChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, ready ReadinessChecker, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(recoveryMiddleware(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	commentHandler := NewCommentHandler(services, log)
	adminHandler := NewAdminHandler(services, log)
	exportHandler := NewExportHandler(services, log)

	router.GET("/health", healthCheck)
	router.GET("/ready", readinessCheck(ready, log))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		posts := v1.Group("/posts/:post_id/comments")
		{
			posts.POST("", commentHandler.Submit)
			posts.GET("", commentHandler.ListApproved)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.Moderator())
		{
			comments := admin.Group("/comments")
			{
				comments.GET("", adminHandler.List)
				comments.POST("/:id/approve", adminHandler.Approve)
				comments.POST("/:id/reject", adminHandler.Reject)
				comments.PATCH("/:id/status", adminHandler.UpdateStatus)
				comments.DELETE("/:id", adminHandler.Delete)
				comments.GET("/:id/sentiment", adminHandler.Sentiment)
			}

			bulk := admin.Group("/bulk/comments")
			{
				bulk.POST("/moderate", adminHandler.BulkModerate)
				bulk.POST("/delete", adminHandler.BulkDelete)
			}

			stats := admin.Group("/stats/comments")
			{
				stats.GET("", adminHandler.Stats)
				stats.GET("/pending", adminHandler.PendingCount)
				stats.GET("/recent", adminHandler.Recent)
			}

			admin.GET("/exports/comments", exportHandler.StreamExport)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "blog-comments-api",
	})
}

// readinessCheck pings the database
func readinessCheck(ready ReadinessChecker, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()

		if err := ready.HealthCheck(ctx); err != nil {
			log.Warn().Err(err).Msg("Readiness check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("request_id", middleware.GetRequestID(c)).
					Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("request_id", middleware.GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+middleware.RequestIDHeader+", "+middleware.ModeratorHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
