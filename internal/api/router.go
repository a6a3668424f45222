package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prasenjit/go-apidocs/internal/history"
)

// Router handles HTTP routing
type Router struct {
	engine  *gin.Engine
	handler *Handler
	logger  *slog.Logger
}

// NewRouter creates a new router
func NewRouter(handler *Handler) *Router {
	gin.SetMode(gin.ReleaseMode)

	r := &Router{
		engine:  gin.New(),
		handler: handler,
		logger:  handler.logger,
	}

	r.engine.Use(gin.Recovery())
	r.engine.Use(corsMiddleware())
	r.engine.Use(requestLogger(r.logger))

	r.setupRoutes()

	return r
}

// setupRoutes configures all routes
func (r *Router) setupRoutes() {
	h := r.handler

	api := r.engine.Group("/_api")
	{
		// Documentation catalog
		api.GET("/docs", h.ListDocs)
		api.POST("/docs", h.CreateDoc)
		api.POST("/docs/import", h.ImportDoc)
		api.GET("/docs/:id", h.GetDoc)
		api.PUT("/docs/:id", h.UpdateDoc)
		api.DELETE("/docs/:id", h.DeleteDoc)
		api.GET("/docs/:id/validation", h.ValidateDoc)

		// Navigation
		api.GET("/docs/:id/sections", h.ListSections)
		api.GET("/docs/:id/selection", h.GetSection)
		api.GET("/docs/:id/sections/:section", h.GetSection)
		api.GET("/docs/:id/sections/:section/endpoints/:index", h.GetEndpoint)
		api.GET("/docs/:id/sections/:section/endpoints/:index/curl", h.GetCurl)
		api.GET("/docs/:id/sections/:section/endpoints/:index/request", h.GetPrefilledRequest)
		api.POST("/docs/:id/sections/:section/endpoints/:index/try", h.TryEndpoint)

		// Tester sessions
		api.GET("/sessions", h.ListSessions)
		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions/:sid", h.GetSession)
		api.DELETE("/sessions/:sid", h.DeleteSession)
		api.POST("/sessions/:sid/send", h.SendSession)
		api.GET("/sessions/:sid/selection", h.GetSessionSelection)
		api.PUT("/sessions/:sid/selection", h.SetSessionSelection)
		api.GET("/sessions/:sid/last", h.GetSessionLast)
		api.POST("/sessions/:sid/cancel", h.CancelSession)

		// History
		api.GET("/history", h.ListHistory)
		api.GET("/history/:id", h.GetHistoryEntry)
		api.DELETE("/history", h.ClearHistory)

		// Statistics
		api.GET("/stats", h.GetGlobalStats)
		api.GET("/stats/docs/:id", h.GetDocStats)
		api.GET("/stats/docs/:id/endpoint", h.GetEndpointStats)
		api.POST("/stats/reset", h.ResetStats)

		// Health
		api.GET("/health", h.HealthCheck)
	}

	// WebSocket for live executions
	wsHandler := history.NewWebSocketHandler(h.history, r.logger)
	r.engine.GET("/_api/history/stream", gin.WrapH(wsHandler))
}

// Handler returns the http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger logs one line per request through slog
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client", c.ClientIP(),
		)
	}
}
