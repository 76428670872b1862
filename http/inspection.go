package http

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/propinspect"
	"github.com/labstack/echo/v4"
)

// DefaultListLimit is the page size used when none is requested.
const DefaultListLimit = 100

func (s *Server) handleGetInspection(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	inspectionID, err := requireParam(c, "inspectionId")
	if err != nil {
		return err
	}

	inspection, err := s.inspectionService.FindInspectionByID(ctx, inspectionID)
	if err != nil {
		return err
	}

	return RespondResource(c, http.StatusOK, inspection.ID, ResourceInspection, inspection)
}

func (s *Server) handleListInspections(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	filter := propinspect.InspectionFilter{}
	if property := c.QueryParam("property"); property != "" {
		filter.Property = &property
	}

	var err error
	if filter.Completed, err = queryBool(c, "completed"); err != nil {
		return err
	}
	if filter.Offset, err = queryInt(c, "offset", 0); err != nil {
		return err
	}
	if filter.Limit, err = queryInt(c, "limit", DefaultListLimit); err != nil {
		return err
	}

	inspections, total, err := s.inspectionService.FindInspections(ctx, filter)
	if err != nil {
		return err
	}

	data := make([]Resource, 0, len(inspections))
	for _, insp := range inspections {
		data = append(data, Resource{ID: insp.ID, Type: ResourceInspection, Attributes: insp})
	}
	return RespondList(c, data, ListMeta{Total: total, Offset: filter.Offset, Limit: filter.Limit})
}

// handleUpdateInspectionTemplate applies a sparse patch of items and
// sections to an inspection. It responds with the applied update, or 204
// when the patch changed nothing.
func (s *Server) handleUpdateInspectionTemplate(c echo.Context) error {
	inspectionID, err := requireParam(c, "inspectionId")
	if err != nil {
		return err
	}

	var patch propinspect.InspectionTemplatePatch
	if err := bind(c, &patch); err != nil {
		return err
	}

	return s.updateInspectionTemplate(c, inspectionID, patch)
}

// handleUpdateInspectionItem applies a patch to a single item. The body is
// the item patch itself.
func (s *Server) handleUpdateInspectionItem(c echo.Context) error {
	inspectionID, err := requireParam(c, "inspectionId")
	if err != nil {
		return err
	}
	itemID, err := requireParam(c, "itemId")
	if err != nil {
		return err
	}

	var item propinspect.ItemPatch
	if err := bind(c, &item); err != nil {
		return err
	}

	patch := propinspect.InspectionTemplatePatch{
		Items: map[string]propinspect.Change[propinspect.ItemPatch]{
			itemID: propinspect.Upsert(item),
		},
	}
	return s.updateInspectionTemplate(c, inspectionID, patch)
}

func (s *Server) updateInspectionTemplate(c echo.Context, inspectionID string, patch propinspect.InspectionTemplatePatch) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := s.validator.ValidateInspectionTemplatePatch(&patch); err != nil {
		return err
	}

	upd, err := s.inspectionService.UpdateInspectionTemplate(ctx, inspectionID, patch, s.now())
	if err != nil {
		return err
	}
	if upd.IsEmpty() {
		return RespondNoContent(c)
	}

	s.log(c).Info("inspection updated",
		slog.String("inspection_id", inspectionID),
		slog.Int("items", len(patch.Items)),
		slog.Int("sections", len(patch.Sections)),
	)

	return RespondResource(c, http.StatusCreated, inspectionID, ResourceInspection, upd)
}

func (s *Server) handleListInspectionDeficiencies(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	inspectionID, err := requireParam(c, "inspectionId")
	if err != nil {
		return err
	}

	// Unknown inspections are a 404, not an empty list.
	if _, err := s.inspectionService.FindInspectionByID(ctx, inspectionID); err != nil {
		return err
	}

	records, err := s.deficiencies.FindByInspection(ctx, inspectionID)
	if err != nil {
		return err
	}

	data := make([]Resource, 0, len(records))
	for _, d := range records {
		data = append(data, Resource{ID: d.ID, Type: ResourceDeficiency, Attributes: d})
	}
	return RespondList(c, data, ListMeta{Total: len(data)})
}
