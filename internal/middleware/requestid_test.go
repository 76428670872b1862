package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/propinspect"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestRequestIDMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var (
		echoID string
		ctxID  string
	)
	e := echo.New()
	e.Use(RequestIDMiddleware(logger))
	e.GET("/", func(c echo.Context) error {
		echoID = GetRequestID(c)
		ctxID = propinspect.RequestIDFromContext(c.Request().Context())
		assert.NotSame(t, slog.Default(), GetRequestLogger(c))
		assert.Same(t, GetRequestLogger(c), propinspect.LoggerFromContext(c.Request().Context()))
		return c.NoContent(http.StatusOK)
	})

	t.Run("generates id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, echoID)
		assert.Equal(t, echoID, ctxID)
		assert.Equal(t, echoID, rec.Header().Get(echo.HeaderXRequestID))
	})

	t.Run("keeps incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderXRequestID, "req-123")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, "req-123", echoID)
		assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))
	})
}

func TestGetRequestLogger_Fallback(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Same(t, slog.Default(), GetRequestLogger(c))
	assert.Empty(t, GetRequestID(c))
}
