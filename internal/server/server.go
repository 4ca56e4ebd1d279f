// Package server exposes the engine over HTTP.
//
// Routes: GET /api/workflows (search), GET /api/workflows/* (detail),
// GET /api/stats, POST /api/reindex, GET /healthz. Searches are rate
// limited per client IP; reindex runs synchronously and answers 409 when a
// run is already in flight.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dshills/flowdex/internal/indexer"
	"github.com/dshills/flowdex/internal/searcher"
	"github.com/dshills/flowdex/pkg/types"
)

// Config contains configuration for the HTTP server
type Config struct {
	Addr            string
	WorkflowsRoot   string
	RateLimitEnable bool
	RateLimitRPS    float64
	RateLimitBurst  int
}

// Server wires the query engine and the indexing pipeline to HTTP routes
type Server struct {
	echo     *echo.Echo
	searcher *searcher.Searcher
	indexer  *indexer.Indexer
	config   Config
	logger   *zap.Logger
}

// New creates a new Server instance
func New(s *searcher.Searcher, idx *indexer.Indexer, config Config, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status))
			return nil
		},
	}))

	srv := &Server{
		echo:     e,
		searcher: s,
		indexer:  idx,
		config:   config,
		logger:   logger,
	}
	srv.registerRoutes()
	return srv
}

func (s *Server) registerRoutes() {
	api := s.echo.Group("/api")

	searchGuards := []echo.MiddlewareFunc{}
	if s.config.RateLimitEnable {
		searchGuards = append(searchGuards, middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(s.config.RateLimitRPS),
				Burst:     s.config.RateLimitBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		}))
	}

	api.GET("/workflows", s.handleSearch, searchGuards...)
	api.GET("/workflows/*", s.handleGet)
	api.GET("/stats", s.handleStats)
	api.POST("/reindex", s.handleReindex)

	s.echo.GET("/healthz", s.handleHealth)
}

// Start serves until the listener fails or Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("http server starting", zap.String("addr", s.config.Addr))
	err := s.echo.Start(s.config.Addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// httpError maps engine errors onto HTTP status codes
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, types.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, indexer.ErrReindexInProgress):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
