package http

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/propinspect"
	"github.com/labstack/echo/v4"
)

// AttributesPointer prefixes field pointers so they address the request
// document rather than the bare patch.
const AttributesPointer = "/data/attributes"

// errorStatusCode maps domain error codes to HTTP status codes.
func errorStatusCode(code string) int {
	switch code {
	case propinspect.ENOTFOUND:
		return http.StatusNotFound
	case propinspect.EINVALID:
		return http.StatusBadRequest
	case propinspect.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case propinspect.EFORBIDDEN:
		return http.StatusForbidden
	case propinspect.ECONFLICT:
		return http.StatusConflict
	case propinspect.ERATELIMIT:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// httpErrorCode maps a status from echo's own errors back to a domain code.
func httpErrorCode(status int) string {
	switch status {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return propinspect.ENOTFOUND
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return propinspect.EINVALID
	case http.StatusUnauthorized:
		return propinspect.EUNAUTHORIZED
	case http.StatusForbidden:
		return propinspect.EFORBIDDEN
	case http.StatusTooManyRequests:
		return propinspect.ERATELIMIT
	default:
		return propinspect.EINTERNAL
	}
}

// ErrorResponse represents the JSON error response format.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// HandleError converts domain errors to appropriate HTTP responses.
// It logs internal errors and returns user-safe messages.
func HandleError(c echo.Context, logger *slog.Logger, err error) error {
	code := propinspect.ErrorCode(err)
	message := propinspect.ErrorMessage(err)
	status := errorStatusCode(code)

	// Log internal errors with full details
	if code == propinspect.EINTERNAL {
		logger.Error("internal error",
			slog.String("error", err.Error()),
			slog.String("path", c.Path()),
			slog.String("method", c.Request().Method),
		)
		// Don't expose internal error details to clients
		message = "An internal error occurred."
	}

	var fields map[string]string
	if f := propinspect.ErrorFields(err); len(f) > 0 {
		fields = make(map[string]string, len(f))
		for pointer, msg := range f {
			fields[AttributesPointer+pointer] = msg
		}
	}

	return c.JSON(status, ErrorResponse{
		Error:   code,
		Message: message,
		Fields:  fields,
	})
}
