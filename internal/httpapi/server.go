// internal/httpapi/server.go
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tamzrod/lcrmeter/internal/observability"
	"github.com/tamzrod/lcrmeter/internal/poller"
)

// writeTimeout bounds how long a POST waits for the poll loop.
const writeTimeout = 5 * time.Second

type Server struct {
	board  *Board
	writes chan<- poller.WriteRequest
	router *gin.Engine
	srv    *http.Server
}

// New builds the HTTP view. writes may be nil, which disables POST /api/write.
func New(addr string, corsOrigins []string, board *Board, writes chan<- poller.WriteRequest, logger zerolog.Logger) *Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.RequestMetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	s := &Server{
		board:  board,
		writes: writes,
		router: r,
		srv:    &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		snap := s.board.Snapshot()
		code := http.StatusOK
		if snap.Health == "error" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  snap.Health,
			"uptime":  time.Since(s.board.started).Round(time.Second).String(),
			"service": "lcrpoll",
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")
	api.GET("/latest", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.board.Snapshot())
	})
	api.GET("/history", func(c *gin.Context) {
		kind, pts := s.board.History()
		c.JSON(http.StatusOK, gin.H{"kind": kind, "points": pts})
	})
	api.POST("/write", s.handleWrite)
}

type writeBody struct {
	Register *uint16 `json:"register" binding:"required"`
	Value    *uint16 `json:"value" binding:"required"`
}

func (s *Server) handleWrite(c *gin.Context) {
	if s.writes == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "writes disabled"})
		return
	}

	var body writeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := make(chan error, 1)
	req := poller.WriteRequest{Register: *body.Register, Value: *body.Value, Result: result}

	ctx, cancel := context.WithTimeout(c.Request.Context(), writeTimeout)
	defer cancel()

	select {
	case s.writes <- req:
	case <-ctx.Done():
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "poll loop busy"})
		return
	}

	select {
	case err := <-result:
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "sent"})
	case <-ctx.Done():
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "write not confirmed"})
	}
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Serve blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) Serve() error {
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
