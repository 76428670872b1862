package update

import (
	"github.com/dukerupert/propinspect"
)

// templateState is threaded through the template steps.
type templateState struct {
	current *propinspect.Template
	patch   propinspect.TemplatePatch
	now     int64

	sections        map[string]propinspect.Change[propinspect.SectionPatch]
	items           map[string]propinspect.Change[propinspect.ItemPatch]
	deletedSections map[string]struct{}
	update          propinspect.TemplateUpdate
}

type templateStep func(*templateState)

var templateSteps = []templateStep{
	copyTemplateAttributes,
	upsertTemplateSections,
	removeTemplateSections,
	upsertTemplateItems,
	resetRetypedItems,
	bumpItemVersions,
	removeTemplateItems,
	removeTemplateSectionItems,
	setTemplateUpdatedAt,
	setTemplateCompletedAt,
}

// Template returns the changes that applying patch to current produces.
// New and retyped items receive their type's defaults and every changed
// item gets a new version.
func (e *Engine) Template(current *propinspect.Template, patch propinspect.TemplatePatch, now int64) (*propinspect.TemplateUpdate, error) {
	if current == nil {
		return nil, propinspect.Invalid("template is required")
	}
	if err := validateNow(now); err != nil {
		return nil, err
	}
	if err := validateChanges(patch.Items, patch.Sections); err != nil {
		return nil, err
	}

	s := &templateState{
		current:         current,
		patch:           patch,
		now:             now,
		sections:        make(map[string]propinspect.Change[propinspect.SectionPatch]),
		items:           make(map[string]propinspect.Change[propinspect.ItemPatch]),
		deletedSections: make(map[string]struct{}),
	}
	for _, step := range templateSteps {
		step(s)
	}

	u := s.update
	if len(s.sections) > 0 {
		u.Sections = s.sections
	}
	if len(s.items) > 0 {
		u.Items = s.items
	}
	return &u, nil
}

func copyTemplateAttributes(s *templateState) {
	s.update.Name = clonePtr(s.patch.Name)
	s.update.Description = clonePtr(s.patch.Description)
	s.update.Category = clonePtr(s.patch.Category)
	s.update.TrackDeficientItems = clonePtr(s.patch.TrackDeficientItems)
	s.update.RequireDeficientItemNoteAndPhoto = clonePtr(s.patch.RequireDeficientItemNoteAndPhoto)
}

func upsertTemplateSections(s *templateState) {
	for id, c := range s.patch.Sections {
		p, ok := c.Value()
		if !ok {
			continue
		}
		cur, exists := s.current.Sections[id]
		if !exists {
			s.sections[id] = propinspect.Upsert(propinspect.SectionDefaults().Overlay(p))
			continue
		}
		if diff := p.Diff(cur); !diff.IsEmpty() {
			s.sections[id] = propinspect.Upsert(diff)
		}
	}
}

// removeTemplateSections deletes any existing section. Authors may remove
// multi sections that inspections cannot.
func removeTemplateSections(s *templateState) {
	for id, c := range s.patch.Sections {
		if !c.IsDelete() {
			continue
		}
		if _, exists := s.current.Sections[id]; !exists {
			continue
		}
		s.sections[id] = propinspect.Remove[propinspect.SectionPatch]()
		s.deletedSections[id] = struct{}{}
	}
}

func upsertTemplateItems(s *templateState) {
	for id, c := range s.patch.Items {
		p, ok := c.Value()
		if !ok {
			continue
		}
		cur, exists := s.current.Items[id]
		if !exists {
			t := propinspect.ItemTypeMain
			if p.ItemType != nil {
				t = *p.ItemType
			}
			s.items[id] = propinspect.Upsert(propinspect.ItemDefaults(t).Overlay(p))
			continue
		}
		if diff := p.Diff(cur); !diff.IsEmpty() {
			s.items[id] = propinspect.Upsert(diff)
		}
	}
}

// resetRetypedItems re-applies defaults to existing items whose type
// changes, so no answer from the old type survives.
func resetRetypedItems(s *templateState) {
	for id, c := range s.patch.Items {
		p, ok := c.Value()
		if !ok || p.ItemType == nil {
			continue
		}
		cur, exists := s.current.Items[id]
		if !exists || cur.ItemType == *p.ItemType {
			continue
		}
		s.items[id] = propinspect.Upsert(propinspect.ItemDefaults(*p.ItemType).Overlay(p).Diff(cur))
	}
}

func bumpItemVersions(s *templateState) {
	for id, c := range s.items {
		p, ok := c.Value()
		if !ok {
			continue
		}
		version := 0
		if cur, exists := s.current.Items[id]; exists {
			version = cur.Version + 1
		}
		p.Version = ptr(version)
		s.items[id] = propinspect.Upsert(p)
	}
}

func removeTemplateItems(s *templateState) {
	for id, c := range s.patch.Items {
		if !c.IsDelete() {
			continue
		}
		if _, exists := s.current.Items[id]; exists {
			s.items[id] = propinspect.Remove[propinspect.ItemPatch]()
		}
	}
}

func removeTemplateSectionItems(s *templateState) {
	if len(s.deletedSections) == 0 {
		return
	}
	for id, c := range s.items {
		if _, exists := s.current.Items[id]; exists {
			continue
		}
		if p, ok := c.Value(); ok && p.SectionID != nil {
			if _, deleted := s.deletedSections[*p.SectionID]; deleted {
				delete(s.items, id)
			}
		}
	}
	for id, item := range s.current.Items {
		sectionID := item.SectionID
		if c, ok := s.items[id]; ok {
			if p, ok := c.Value(); ok && p.SectionID != nil {
				sectionID = *p.SectionID
			}
		}
		if _, deleted := s.deletedSections[sectionID]; deleted {
			s.items[id] = propinspect.Remove[propinspect.ItemPatch]()
		}
	}
}

func setTemplateUpdatedAt(s *templateState) {
	if !s.update.IsEmpty() || len(s.sections) > 0 || len(s.items) > 0 {
		s.update.UpdatedAt = ptr(s.now)
	}
}

// setTemplateCompletedAt stamps the first time the template has at least
// one section and one item.
func setTemplateCompletedAt(s *templateState) {
	if s.current.CompletedAt != 0 {
		return
	}
	merged := s.current.Apply(&propinspect.TemplateUpdate{
		TemplatePatch: propinspect.TemplatePatch{Sections: s.sections, Items: s.items},
	})
	if len(merged.Sections) > 0 && len(merged.Items) > 0 {
		s.update.CompletedAt = ptr(s.now)
	}
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	return ptr(*v)
}
