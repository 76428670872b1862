package propinspect

import (
	"context"
	"maps"
)

// Inspection is one run of a template against a property. Its template is
// a private copy that inspectors fill in.
type Inspection struct {
	ID                  string             `json:"id"`
	Property            string             `json:"property"`
	Inspector           string             `json:"inspector,omitempty"`
	InspectorName       string             `json:"inspectorName,omitempty"`
	TemplateName        string             `json:"templateName,omitempty"`
	Template            InspectionTemplate `json:"template"`
	TotalItems          int                `json:"totalItems"`
	ItemsCompleted      int                `json:"itemsCompleted"`
	InspectionCompleted bool               `json:"inspectionCompleted"`
	CompletionDate      int64              `json:"completionDate,omitempty"`
	DeficienciesExist   bool               `json:"deficienciesExist"`
	Score               float64            `json:"score"`
	CreationDate        int64              `json:"creationDate,omitempty"`
	UpdatedAt           int64              `json:"updatedAt,omitempty"`
	UpdatedLastDate     int64              `json:"updatedLastDate,omitempty"`
}

// InspectionTemplate is the section and item tree of an inspection.
type InspectionTemplate struct {
	Name                             string             `json:"name,omitempty"`
	Items                            map[string]Item    `json:"items"`
	Sections                         map[string]Section `json:"sections"`
	TrackDeficientItems              bool               `json:"trackDeficientItems"`
	RequireDeficientItemNoteAndPhoto bool               `json:"requireDeficientItemNoteAndPhoto"`
}

// Clone returns a deep copy of the inspection.
func (i *Inspection) Clone() *Inspection {
	if i == nil {
		return nil
	}
	out := *i
	out.Template.Sections = maps.Clone(i.Template.Sections)
	out.Template.Items = make(map[string]Item, len(i.Template.Items))
	for id, item := range i.Template.Items {
		out.Template.Items[id] = item.Clone()
	}
	return &out
}

// Apply returns a copy of the inspection with u merged in.
func (i *Inspection) Apply(u *InspectionUpdate) *Inspection {
	out := i.Clone()
	if u == nil {
		return out
	}
	if u.Template != nil {
		out.Template.Sections = applyChanges(out.Template.Sections, u.Template.Sections, Section{}, Section.Apply)
		out.Template.Items = applyChanges(out.Template.Items, u.Template.Items, NewItem(), Item.Apply)
	}
	assign(&out.TotalItems, u.TotalItems)
	assign(&out.ItemsCompleted, u.ItemsCompleted)
	assign(&out.InspectionCompleted, u.InspectionCompleted)
	assign(&out.CompletionDate, u.CompletionDate)
	assign(&out.DeficienciesExist, u.DeficienciesExist)
	assign(&out.Score, u.Score)
	assign(&out.UpdatedLastDate, u.UpdatedLastDate)
	assign(&out.UpdatedAt, u.UpdatedAt)
	return out
}

// InspectionTemplatePatch is a user edit of an inspection's sections and
// items. A key mapped to a deletion removes the entry.
type InspectionTemplatePatch struct {
	Items    map[string]Change[ItemPatch]    `json:"items,omitempty"`
	Sections map[string]Change[SectionPatch] `json:"sections,omitempty"`
}

// IsEmpty reports whether the patch has no entries.
func (p *InspectionTemplatePatch) IsEmpty() bool {
	return p == nil || (len(p.Items) == 0 && len(p.Sections) == 0)
}

// InspectionUpdate is the minimal set of fields an edit changed, including
// the derived totals, completion state and score.
type InspectionUpdate struct {
	Template            *InspectionTemplatePatch `json:"template,omitempty"`
	TotalItems          *int                     `json:"totalItems,omitempty"`
	ItemsCompleted      *int                     `json:"itemsCompleted,omitempty"`
	InspectionCompleted *bool                    `json:"inspectionCompleted,omitempty"`
	CompletionDate      *int64                   `json:"completionDate,omitempty"`
	DeficienciesExist   *bool                    `json:"deficienciesExist,omitempty"`
	Score               *float64                 `json:"score,omitempty"`
	UpdatedLastDate     *int64                   `json:"updatedLastDate,omitempty"`
	UpdatedAt           *int64                   `json:"updatedAt,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u *InspectionUpdate) IsEmpty() bool {
	return u == nil || *u == InspectionUpdate{}
}

// InspectionService defines operations for managing inspections.
type InspectionService interface {
	// FindInspectionByID retrieves an inspection by its ID.
	// Returns ENOTFOUND if the inspection does not exist.
	FindInspectionByID(ctx context.Context, id string) (*Inspection, error)

	// FindInspections retrieves inspections matching the filter criteria.
	// Returns the matching inspections and total count.
	FindInspections(ctx context.Context, filter InspectionFilter) ([]*Inspection, int, error)

	// CreateInspection stores a new inspection.
	// Returns ECONFLICT if the ID is already taken.
	CreateInspection(ctx context.Context, inspection *Inspection) error

	// UpdateInspectionTemplate applies a user patch to an inspection's
	// template, recomputes derived state and persists the result.
	// Returns the applied update, which is empty when nothing changed.
	// Returns ENOTFOUND if the inspection does not exist.
	UpdateInspectionTemplate(ctx context.Context, id string, patch InspectionTemplatePatch, now int64) (*InspectionUpdate, error)
}

// InspectionFilter defines criteria for filtering inspections.
type InspectionFilter struct {
	Property  *string
	Completed *bool

	// Pagination
	Offset int
	Limit  int
}

// applyChanges returns a copy of m with each change applied. Upserts of a
// missing key start from blank.
func applyChanges[V, P any](m map[string]V, changes map[string]Change[P], blank V, apply func(V, P) V) map[string]V {
	out := maps.Clone(m)
	if out == nil {
		out = make(map[string]V, len(changes))
	}
	for id, c := range changes {
		p, ok := c.Value()
		if !ok {
			delete(out, id)
			continue
		}
		cur, exists := out[id]
		if !exists {
			cur = blank
		}
		out[id] = apply(cur, p)
	}
	return out
}
