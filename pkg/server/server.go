// Package server exposes the knowledge graph over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/engram"
	"github.com/soundprediction/engram/pkg/config"
	"github.com/soundprediction/engram/pkg/server/handlers"
	"github.com/soundprediction/engram/pkg/utils"
)

// Server is the HTTP API over a graph client.
type Server struct {
	config *config.Config
	router *gin.Engine
	graph  engram.Engram
	server *http.Server
}

// New creates a server. The graph client may be nil for route and probe
// testing; every data endpoint then reports not ready or fails.
func New(cfg *config.Config, graph engram.Engram) *Server {
	return &Server{
		config: cfg,
		graph:  graph,
	}
}

// Setup builds the router, middleware, and the underlying http.Server.
func (s *Server) Setup() {
	gin.SetMode(s.config.Server.Mode)

	s.router = gin.New()
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(requestIDMiddleware())

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.graph)
	ingestHandler := handlers.NewIngestHandler(s.graph, s.graph, s.config.GroupID)
	retrieveHandler := handlers.NewRetrieveHandler(s.graph)

	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck)

	v1 := s.router.Group("/api/v1")
	{
		ingest := v1.Group("/ingest")
		{
			ingest.POST("/messages", ingestHandler.AddMessages)
			ingest.DELETE("/clear", ingestHandler.ClearData)
		}

		v1.POST("/search", retrieveHandler.Search)
		v1.POST("/search/nodes", retrieveHandler.SearchNodes)
		v1.GET("/episodes/:group_id", retrieveHandler.GetEpisodes)
	}
}

// Start blocks serving requests until Stop or a listener error.
func (s *Server) Start() error {
	slog.Info("http server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	slog.Info("http server stopping")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds permissive CORS headers and answers preflights.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware tags every request with an ID, minting one when the
// caller did not send X-Request-ID.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = utils.NewUUID()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
