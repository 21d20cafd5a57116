package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lrcview/pkg/lrclib"
)

// Catalog is the part of catalog.Manager the API needs.
type Catalog interface {
	Search(ctx context.Context, query string) ([]lrclib.Track, error)
	Get(ctx context.Context, id int64) (lrclib.Track, error)
}

// Server exposes catalog lookups and timeline queries over HTTP.
type Server struct {
	handler *Handler
	router  *gin.Engine
	logger  zerolog.Logger
}

// New builds the router. mode is a gin mode ("release", "debug", "test").
func New(catalog Catalog, mode string) *Server {
	if mode != "" {
		gin.SetMode(mode)
	}
	s := &Server{
		handler: NewHandler(catalog),
		logger:  log.With().Str("component", "http").Logger(),
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "lrcview",
		})
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/search", s.handler.Search)

		tracks := v1.Group("/tracks")
		{
			tracks.GET("/:id", s.handler.GetTrack)
			tracks.GET("/:id/lines/:index", s.handler.GetLineRange)
			tracks.GET("/:id/at", s.handler.GetLineAt)
		}
	}

	s.router = router
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request")
	}
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
