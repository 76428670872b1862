package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/propinspect"
	"github.com/dukerupert/propinspect/internal/middleware"
	"github.com/labstack/echo/v4"
)

// withTimeout creates a context with a timeout for handler operations.
func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), DefaultTimeout)
}

// requireParam extracts a required route parameter, returning error if empty.
func requireParam(c echo.Context, name string) (string, error) {
	value := c.Param(name)
	if value == "" {
		return "", propinspect.Invalid("%s is required", name)
	}
	return value, nil
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, propinspect.Invalid("%s must be a non-negative integer", name)
	}
	return n, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, propinspect.Invalid("%s must be a boolean", name)
	}
	return &b, nil
}

// bind decodes the request body.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return propinspect.Invalid("Invalid request body")
	}
	return nil
}

// now returns the request time as a unix timestamp.
func (s *Server) now() int64 {
	return s.Now().Unix()
}

// log returns the request-scoped logger.
func (s *Server) log(c echo.Context) *slog.Logger {
	if logger, ok := c.Get("logger").(*slog.Logger); ok {
		return logger
	}
	return s.logger
}

// Health handlers
func (s *Server) handleHealthCheck(c echo.Context) error {
	return RespondOK(c, map[string]string{"status": "ok"})
}

func (s *Server) handleLivenessCheck(c echo.Context) error {
	return RespondOK(c, map[string]string{"status": "alive"})
}

func (s *Server) handleReadinessCheck(c echo.Context) error {
	if s.db != nil {
		ctx, cancel := withTimeout(c)
		defer cancel()

		if err := s.db.Ping(ctx); err != nil {
			middleware.GetRequestLogger(c).Warn("readiness check failed", slog.String("error", err.Error()))
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return RespondOK(c, map[string]string{"status": "ready"})
}
