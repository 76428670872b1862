package middleware

import (
	"log/slog"

	"github.com/dukerupert/propinspect"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDMiddleware tags each request with an id and a request-scoped
// logger. An incoming X-Request-ID header is kept; otherwise a UUID is
// generated. Both are stored on the echo context and on the request
// context, so services see them through propinspect.LoggerFromContext.
//
// Usage in server setup:
//
//	e.Use(middleware.RequestIDMiddleware(logger))
func RequestIDMiddleware(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			requestLogger := logger.With(
				slog.String("request_id", requestID),
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
			)
			c.Set("request_id", requestID)
			c.Set("logger", requestLogger)

			ctx := propinspect.NewContextWithRequestID(req.Context(), requestID)
			ctx = propinspect.NewContextWithLogger(ctx, requestLogger)
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}

// GetRequestID retrieves the request ID from the Echo context.
func GetRequestID(c echo.Context) string {
	requestID, ok := c.Get("request_id").(string)
	if !ok {
		return ""
	}
	return requestID
}

// GetRequestLogger retrieves the request-scoped logger from the Echo
// context, falling back to the default logger.
func GetRequestLogger(c echo.Context) *slog.Logger {
	logger, ok := c.Get("logger").(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}
