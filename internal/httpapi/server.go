// Package httpapi is the local control surface the application shell talks
// to. It is a thin adapter over the submission path, the queue store and the
// sync engine; it binds to loopback and performs no authentication of its
// own beyond holding the session the shell sets.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServerConfig holds control API configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the local HTTP control server
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	logger     *zap.Logger
}

// NewServer creates the control server and mounts the handlers
func NewServer(config ServerConfig, handlers *Handlers, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		config: config,
		router: router,
		logger: logger,
	}

	router.GET("/health", handlers.Health)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/expenses", handlers.SubmitExpense)
		v1.GET("/queue", handlers.ListQueue)
		v1.DELETE("/queue", handlers.ClearQueue)
		v1.DELETE("/queue/:id", handlers.CancelQueued)
		v1.POST("/sync", handlers.RunSync)
		v1.GET("/status", handlers.Status)
		v1.GET("/notices", handlers.Notices)
		v1.POST("/session", handlers.Login)
		v1.DELETE("/session", handlers.Logout)
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return s
}

// Start begins serving; it blocks until the server stops
func (s *Server) Start() error {
	s.logger.Info("Control API listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("control API server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down control API")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the gin engine for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}
