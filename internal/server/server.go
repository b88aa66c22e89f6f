// Package server exposes the dashboard over HTTP: an HTML page for the
// selected category and a JSON API over projects, category views, the fetch
// cache and the insight history.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"dashmetrics/internal/dashboard"
	"dashmetrics/internal/project"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Server is the local dashboard HTTP server.
type Server struct {
	router   *gin.Engine
	projects *project.Manager
	dash     *dashboard.Session
}

// New creates the server. debug enables gin's debug mode and request logging.
func New(projects *project.Manager, dash *dashboard.Session, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	s := &Server{router: r, projects: projects, dash: dash}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.index)
	s.router.GET("/projects/:id/:category", s.page)

	api := s.router.Group("/api")
	{
		api.GET("/projects", s.listProjects)
		api.POST("/projects", s.createProject)
		api.PATCH("/projects/:id", s.archiveProject)
		api.DELETE("/projects/:id", s.deleteProject)
		api.GET("/projects/:id/categories/:category", s.selectCategory)
		api.POST("/projects/:id/refresh", s.refreshProject)
		api.GET("/view", s.currentView)
		api.GET("/cache", s.cacheStats)
		api.DELETE("/cache", s.clearCache)
		api.GET("/insights/history", s.insightHistory)
		api.GET("/notices", s.notices)
	}
}

// Handler returns the router for embedding or tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Dashboard server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	}
}
