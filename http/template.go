package http

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/propinspect"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleGetTemplate(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	templateID, err := requireParam(c, "templateId")
	if err != nil {
		return err
	}

	tmpl, err := s.templateService.FindTemplateByID(ctx, templateID)
	if err != nil {
		return err
	}

	return RespondResource(c, http.StatusOK, tmpl.ID, ResourceTemplate, tmpl)
}

// handleUpdateTemplate applies a patch to a template and responds with the
// applied update, or 204 when nothing changed.
func (s *Server) handleUpdateTemplate(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	templateID, err := requireParam(c, "templateId")
	if err != nil {
		return err
	}

	var patch propinspect.TemplatePatch
	if err := bind(c, &patch); err != nil {
		return err
	}
	if err := s.validator.ValidateTemplatePatch(&patch); err != nil {
		return err
	}

	upd, err := s.templateService.UpdateTemplate(ctx, templateID, patch, s.now())
	if err != nil {
		return err
	}
	if upd.IsEmpty() {
		return RespondNoContent(c)
	}

	s.log(c).Info("template updated",
		slog.String("template_id", templateID),
		slog.Int("items", len(patch.Items)),
		slog.Int("sections", len(patch.Sections)),
	)

	return RespondResource(c, http.StatusCreated, templateID, ResourceTemplate, upd)
}
