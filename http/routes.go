package http

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes sets up all routes for the server.
// All routes are defined in this single file for easy navigation.
func (s *Server) registerRoutes() {
	// Health check routes
	s.echo.GET("/health", s.handleHealthCheck)
	s.echo.GET("/health/live", s.handleLivenessCheck)
	s.echo.GET("/health/ready", s.handleReadinessCheck)

	if s.gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := s.echo.Group("/api/v0")
	if s.rateLimiter != nil {
		api.Use(s.rateLimiter.Middleware())
	}

	// Inspections
	api.GET("/inspections", s.handleListInspections)
	api.GET("/inspections/:inspectionId", s.handleGetInspection)
	api.PATCH("/inspections/:inspectionId/template", s.handleUpdateInspectionTemplate)
	api.PATCH("/inspections/:inspectionId/template/items/:itemId", s.handleUpdateInspectionItem)
	api.GET("/inspections/:inspectionId/deficiencies", s.handleListInspectionDeficiencies)

	// Templates
	api.GET("/templates/:templateId", s.handleGetTemplate)
	api.PATCH("/templates/:templateId", s.handleUpdateTemplate)
}
