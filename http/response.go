package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Resource types used in response documents.
const (
	ResourceInspection = "inspection"
	ResourceTemplate   = "template"
	ResourceDeficiency = "deficiency"
)

// Resource is a single resource object of a response document.
type Resource struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes any    `json:"attributes"`
}

// Document is the response envelope for a single resource.
type Document struct {
	Data Resource `json:"data"`
}

// ListDocument is the response envelope for a collection.
type ListDocument struct {
	Data []Resource `json:"data"`
	Meta ListMeta   `json:"meta"`
}

// ListMeta carries pagination details of a collection.
type ListMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset,omitempty"`
	Limit  int `json:"limit,omitempty"`
}

// RespondOK sends a 200 OK response with the given data.
func RespondOK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, data)
}

// RespondResource sends a single resource document.
func RespondResource(c echo.Context, status int, id, typ string, attributes any) error {
	return c.JSON(status, Document{Data: Resource{ID: id, Type: typ, Attributes: attributes}})
}

// RespondNoContent sends a 204 No Content response.
func RespondNoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// RespondList sends a collection document.
func RespondList(c echo.Context, data []Resource, meta ListMeta) error {
	if data == nil {
		data = []Resource{}
	}
	return c.JSON(http.StatusOK, ListDocument{Data: data, Meta: meta})
}
