package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/keagan/clipdeck/internal/clips"
	"github.com/keagan/clipdeck/internal/config"
	"github.com/keagan/clipdeck/internal/ffmpeg"
	"github.com/keagan/clipdeck/internal/processor"
)

// Prober reads media metadata from uploaded files
type Prober interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
}

// Thumbnailer renders preview frames
type Thumbnailer interface {
	Generate(ctx context.Context, path string, at float64, width uint) ([]byte, error)
}

// Deps are the collaborators the HTTP API drives
type Deps struct {
	Store      clips.Store
	Processor  *processor.Processor
	Prober     Prober
	Thumbnails Thumbnailer
}

// Server exposes the clip catalog, edits and editing sessions over HTTP
type Server struct {
	logger   zerolog.Logger
	cfg      *config.Config
	deps     Deps
	echo     *echo.Echo
	sessions *sessionRegistry

	// ctx outlives requests; background jobs and failure reports use it
	ctx    context.Context
	cancel context.CancelFunc
}

// New wires routes and middleware
func New(logger zerolog.Logger, cfg *config.Config, deps Deps) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		logger:   logger.With().Str("component", "server").Logger(),
		cfg:      cfg,
		deps:     deps,
		echo:     echo.New(),
		sessions: newSessionRegistry(),
		ctx:      ctx,
		cancel:   cancel,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(s.accessLog())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.Server.MaxUploadMB)))

	e.GET("/healthz", s.health)

	api := e.Group("/api")
	api.GET("/clips", s.listClips)
	api.POST("/clips", s.uploadClip)
	api.GET("/clips/:id", s.getClip)
	api.DELETE("/clips/:id", s.deleteClip)
	api.GET("/clips/:id/file", s.clipFile)
	api.GET("/clips/:id/thumbnail", s.clipThumbnail)
	api.POST("/clips/:id/trim", s.editClip(processor.KindTrim))
	api.POST("/clips/:id/speed", s.editClip(processor.KindSpeed))
	api.POST("/clips/:id/split", s.editClip(processor.KindSplit))
	api.POST("/clips/:id/delete-range", s.editClip(processor.KindDeleteRange))
	api.POST("/clips/:id/extract-range", s.editClip(processor.KindExtractRange))

	api.POST("/sessions", s.createSession)
	api.GET("/sessions/:id", s.getSession)
	api.DELETE("/sessions/:id", s.deleteSession)
	api.POST("/sessions/:id/events", s.sessionEvent)

	api.GET("/jobs/:id", s.getJob)

	return s
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown
func (s *Server) Start(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("listening")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) accessLog() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := s.logger.Info()
			if v.Status >= http.StatusInternalServerError {
				event = s.logger.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// elapsed is used in responses that report processing time
func elapsed(start time.Time) float64 {
	return time.Since(start).Seconds()
}
