package mock

import (
	"context"

	"github.com/dukerupert/propinspect"
)

// Compile-time interface check
var _ propinspect.TemplateService = (*TemplateService)(nil)

// TemplateService is a mock implementation of propinspect.TemplateService.
type TemplateService struct {
	FindTemplateByIDFn func(ctx context.Context, id string) (*propinspect.Template, error)
	CreateTemplateFn   func(ctx context.Context, template *propinspect.Template) error
	UpdateTemplateFn   func(ctx context.Context, id string, patch propinspect.TemplatePatch, now int64) (*propinspect.TemplateUpdate, error)
}

func (s *TemplateService) FindTemplateByID(ctx context.Context, id string) (*propinspect.Template, error) {
	if s.FindTemplateByIDFn != nil {
		return s.FindTemplateByIDFn(ctx, id)
	}
	return nil, propinspect.NotFound("Template not found")
}

func (s *TemplateService) CreateTemplate(ctx context.Context, template *propinspect.Template) error {
	if s.CreateTemplateFn != nil {
		return s.CreateTemplateFn(ctx, template)
	}
	return nil
}

func (s *TemplateService) UpdateTemplate(ctx context.Context, id string, patch propinspect.TemplatePatch, now int64) (*propinspect.TemplateUpdate, error) {
	if s.UpdateTemplateFn != nil {
		return s.UpdateTemplateFn(ctx, id, patch, now)
	}
	return nil, propinspect.NotFound("Template not found")
}
