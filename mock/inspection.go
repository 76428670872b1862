package mock

import (
	"context"

	"github.com/dukerupert/propinspect"
)

// Compile-time interface check
var _ propinspect.InspectionService = (*InspectionService)(nil)

// InspectionService is a mock implementation of propinspect.InspectionService.
type InspectionService struct {
	FindInspectionByIDFn       func(ctx context.Context, id string) (*propinspect.Inspection, error)
	FindInspectionsFn          func(ctx context.Context, filter propinspect.InspectionFilter) ([]*propinspect.Inspection, int, error)
	CreateInspectionFn         func(ctx context.Context, inspection *propinspect.Inspection) error
	UpdateInspectionTemplateFn func(ctx context.Context, id string, patch propinspect.InspectionTemplatePatch, now int64) (*propinspect.InspectionUpdate, error)
}

func (s *InspectionService) FindInspectionByID(ctx context.Context, id string) (*propinspect.Inspection, error) {
	if s.FindInspectionByIDFn != nil {
		return s.FindInspectionByIDFn(ctx, id)
	}
	return nil, propinspect.NotFound("Inspection not found")
}

func (s *InspectionService) FindInspections(ctx context.Context, filter propinspect.InspectionFilter) ([]*propinspect.Inspection, int, error) {
	if s.FindInspectionsFn != nil {
		return s.FindInspectionsFn(ctx, filter)
	}
	return []*propinspect.Inspection{}, 0, nil
}

func (s *InspectionService) CreateInspection(ctx context.Context, inspection *propinspect.Inspection) error {
	if s.CreateInspectionFn != nil {
		return s.CreateInspectionFn(ctx, inspection)
	}
	return nil
}

func (s *InspectionService) UpdateInspectionTemplate(ctx context.Context, id string, patch propinspect.InspectionTemplatePatch, now int64) (*propinspect.InspectionUpdate, error) {
	if s.UpdateInspectionTemplateFn != nil {
		return s.UpdateInspectionTemplateFn(ctx, id, patch, now)
	}
	return nil, propinspect.NotFound("Inspection not found")
}
