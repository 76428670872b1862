package propinspect

import (
	"context"
	"maps"
)

// Template is an authoring-time checklist that inspections are copied from.
type Template struct {
	ID                               string             `json:"id"`
	Name                             string             `json:"name"`
	Description                      string             `json:"description,omitempty"`
	Category                         string             `json:"category,omitempty"`
	TrackDeficientItems              bool               `json:"trackDeficientItems"`
	RequireDeficientItemNoteAndPhoto bool               `json:"requireDeficientItemNoteAndPhoto"`
	Sections                         map[string]Section `json:"sections"`
	Items                            map[string]Item    `json:"items"`
	CreatedAt                        int64              `json:"createdAt,omitempty"`
	UpdatedAt                        int64              `json:"updatedAt,omitempty"`
	CompletedAt                      int64              `json:"completedAt,omitempty"`
}

// Clone returns a deep copy of the template.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	out := *t
	out.Sections = maps.Clone(t.Sections)
	out.Items = make(map[string]Item, len(t.Items))
	for id, item := range t.Items {
		out.Items[id] = item.Clone()
	}
	return &out
}

// Apply returns a copy of the template with u merged in.
func (t *Template) Apply(u *TemplateUpdate) *Template {
	out := t.Clone()
	if u == nil {
		return out
	}
	assign(&out.Name, u.Name)
	assign(&out.Description, u.Description)
	assign(&out.Category, u.Category)
	assign(&out.TrackDeficientItems, u.TrackDeficientItems)
	assign(&out.RequireDeficientItemNoteAndPhoto, u.RequireDeficientItemNoteAndPhoto)
	out.Sections = applyChanges(out.Sections, u.Sections, Section{}, Section.Apply)
	out.Items = applyChanges(out.Items, u.Items, NewItem(), Item.Apply)
	assign(&out.UpdatedAt, u.UpdatedAt)
	assign(&out.CompletedAt, u.CompletedAt)
	return out
}

// TemplatePatch is a user edit of a template.
type TemplatePatch struct {
	Name                             *string                         `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description                      *string                         `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category                         *string                         `json:"category,omitempty" validate:"omitempty,max=200"`
	TrackDeficientItems              *bool                           `json:"trackDeficientItems,omitempty"`
	RequireDeficientItemNoteAndPhoto *bool                           `json:"requireDeficientItemNoteAndPhoto,omitempty"`
	Sections                         map[string]Change[SectionPatch] `json:"sections,omitempty"`
	Items                            map[string]Change[ItemPatch]    `json:"items,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p *TemplatePatch) IsEmpty() bool {
	return p == nil || (p.Name == nil && p.Description == nil && p.Category == nil &&
		p.TrackDeficientItems == nil && p.RequireDeficientItemNoteAndPhoto == nil &&
		len(p.Sections) == 0 && len(p.Items) == 0)
}

// TemplateUpdate is the minimal set of fields a template edit changed.
type TemplateUpdate struct {
	TemplatePatch
	UpdatedAt   *int64 `json:"updatedAt,omitempty"`
	CompletedAt *int64 `json:"completedAt,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u *TemplateUpdate) IsEmpty() bool {
	return u == nil || (u.TemplatePatch.IsEmpty() && u.UpdatedAt == nil && u.CompletedAt == nil)
}

// TemplateService defines operations for managing templates.
type TemplateService interface {
	// FindTemplateByID retrieves a template by its ID.
	// Returns ENOTFOUND if the template does not exist.
	FindTemplateByID(ctx context.Context, id string) (*Template, error)

	// CreateTemplate stores a new template.
	// Returns ECONFLICT if the ID is already taken.
	CreateTemplate(ctx context.Context, template *Template) error

	// UpdateTemplate applies a user patch, versions changed items and
	// persists the result. Returns the applied update.
	// Returns ENOTFOUND if the template does not exist.
	UpdateTemplate(ctx context.Context, id string, patch TemplatePatch, now int64) (*TemplateUpdate, error)
}
