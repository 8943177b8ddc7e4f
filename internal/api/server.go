package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"indoor-position-engine/internal/config"
	"indoor-position-engine/internal/services"
)

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg                config.HTTPConfig
	positioningService *services.PositioningService
	presenceService    *services.PresenceService
	anchorService      *services.AnchorService
	logger             zerolog.Logger
	engine             *gin.Engine
}

// New constructs a server with routes and middleware.
func New(
	cfg config.HTTPConfig,
	positioningService *services.PositioningService,
	presenceService *services.PresenceService,
	anchorService *services.AnchorService,
	logger zerolog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	server := &Server{
		cfg:                cfg,
		positioningService: positioningService,
		presenceService:    presenceService,
		anchorService:      anchorService,
		logger:             logger,
		engine:             engine,
	}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info().Str("addr", srv.Addr).Msg("HTTP API listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")
	v1.GET("/devices", s.handleListDevices)
	v1.GET("/devices/:device_id/position", s.handleGetPosition)
	v1.GET("/devices/:device_id/presence", s.handleGetPresence)

	v1.GET("/buildings", s.handleListBuildings)

	v1.GET("/anchors", s.handleListAnchors)
	v1.POST("/anchors", s.handleUpsertAnchor)
	v1.PUT("/anchors/:beacon_id", s.handleUpsertAnchor)
	v1.DELETE("/anchors/:beacon_id", s.handleDeleteAnchor)
}
