package http

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/dukerupert/propinspect"
	"github.com/dukerupert/propinspect/internal/middleware"
	"github.com/dukerupert/propinspect/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server with all its dependencies.
type Server struct {
	echo      *echo.Echo
	ln        net.Listener
	logger    *slog.Logger
	validator *validation.Validator

	// Configuration
	Addr string

	// Now returns the current time. Tests may override it.
	Now func() time.Time

	// Domain services
	inspectionService propinspect.InspectionService
	templateService   propinspect.TemplateService
	deficiencies      propinspect.DeficiencyStore

	// Infrastructure
	db          Pinger
	metrics     *middleware.Metrics
	gatherer    prometheus.Gatherer
	rateLimiter *middleware.RateLimiter
}

// Config holds the configuration for creating a new Server.
type Config struct {
	Addr   string
	Logger *slog.Logger

	// Domain services
	InspectionService propinspect.InspectionService
	TemplateService   propinspect.TemplateService
	Deficiencies      propinspect.DeficiencyStore

	// DB is checked by the readiness probe when set.
	DB Pinger

	// Metrics records request metrics when set. Gatherer backs /metrics.
	Metrics  *middleware.Metrics
	Gatherer prometheus.Gatherer

	// RateLimiter limits requests per client IP when set.
	RateLimiter *middleware.RateLimiter
}

// NewServer creates a new HTTP server with the given configuration.
func NewServer(cfg Config) *Server {
	s := &Server{
		Addr:              cfg.Addr,
		Now:               time.Now,
		logger:            cfg.Logger,
		validator:         validation.NewValidator(),
		inspectionService: cfg.InspectionService,
		templateService:   cfg.TemplateService,
		deficiencies:      cfg.Deficiencies,
		db:                cfg.DB,
		metrics:           cfg.Metrics,
		gatherer:          cfg.Gatherer,
		rateLimiter:       cfg.RateLimiter,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Validator = s.validator

	// Register middleware and routes
	s.registerMiddleware()
	s.registerRoutes()

	return s
}

// Echo returns the underlying Echo instance.
// Use sparingly - prefer registering routes through Server methods.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Open starts the HTTP server.
func (s *Server) Open() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln

	go func() {
		if err := s.echo.Server.Serve(s.ln); err != nil {
			s.logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	s.logger.Info("server started", slog.String("addr", s.Addr))
	return nil
}

// Close gracefully shuts down the HTTP server.
func (s *Server) Close(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// URL returns the URL of the server.
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String()
}
