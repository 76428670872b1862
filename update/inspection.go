package update

import (
	"maps"
	"slices"

	"github.com/dukerupert/propinspect"
	"github.com/dukerupert/propinspect/scoring"
)

// inspectionState is threaded through the inspection steps.
type inspectionState struct {
	current *propinspect.Inspection
	patch   propinspect.InspectionTemplatePatch
	now     int64
	opts    scoring.Options

	sections        map[string]propinspect.Change[propinspect.SectionPatch]
	items           map[string]propinspect.Change[propinspect.ItemPatch]
	deletedSections map[string]struct{}
	update          propinspect.InspectionUpdate

	// live is the item tree after staged changes, built once items are final.
	live []*propinspect.Item
}

type inspectionStep func(*inspectionState)

var inspectionSteps = []inspectionStep{
	upsertInspectionSections,
	removeAddedMultiSections,
	upsertInspectionItems,
	removeItemsOfRemovedSections,
	setTotalItems,
	setItemsCompleted,
	setDeficienciesExist,
	setInspectionCompleted,
	setCompletionDate,
	setScore,
	setUpdatedLastDate,
	setInspectionUpdatedAt,
}

// Inspection returns the changes that applying patch to current produces,
// including recomputed totals, completion state, dates and score. The
// result is empty when the patch changes nothing.
func (e *Engine) Inspection(current *propinspect.Inspection, patch propinspect.InspectionTemplatePatch, now int64) (*propinspect.InspectionUpdate, error) {
	if current == nil {
		return nil, propinspect.Invalid("inspection is required")
	}
	if err := validateNow(now); err != nil {
		return nil, err
	}
	if err := validateChanges(patch.Items, patch.Sections); err != nil {
		return nil, err
	}

	s := &inspectionState{
		current: current,
		patch:   patch,
		now:     now,
		opts: scoring.Options{
			RequireDeficientItemNoteAndPhoto: current.Template.RequireDeficientItemNoteAndPhoto,
			Eligibility:                      e.Eligibility,
		},
		sections:        make(map[string]propinspect.Change[propinspect.SectionPatch]),
		items:           make(map[string]propinspect.Change[propinspect.ItemPatch]),
		deletedSections: make(map[string]struct{}),
	}
	for _, step := range inspectionSteps {
		step(s)
	}

	u := s.update
	if len(s.sections) > 0 || len(s.items) > 0 {
		u.Template = &propinspect.InspectionTemplatePatch{}
		if len(s.sections) > 0 {
			u.Template.Sections = s.sections
		}
		if len(s.items) > 0 {
			u.Template.Items = s.items
		}
	}
	return &u, nil
}

func upsertInspectionSections(s *inspectionState) {
	for id, c := range s.patch.Sections {
		p, ok := c.Value()
		if !ok {
			continue
		}
		cur, exists := s.current.Template.Sections[id]
		if !exists {
			s.sections[id] = propinspect.Upsert(p.Clone())
			continue
		}
		if diff := p.Diff(cur); !diff.IsEmpty() {
			s.sections[id] = propinspect.Upsert(diff)
		}
	}
}

// removeAddedMultiSections deletes only sections cloned during the
// inspection. Sections that came from the template are kept.
func removeAddedMultiSections(s *inspectionState) {
	for id, c := range s.patch.Sections {
		if !c.IsDelete() {
			continue
		}
		cur, exists := s.current.Template.Sections[id]
		if !exists || !cur.IsRemovable() {
			continue
		}
		s.sections[id] = propinspect.Remove[propinspect.SectionPatch]()
		s.deletedSections[id] = struct{}{}
	}
}

// upsertInspectionItems stages changed items. Item deletions in a patch
// are ignored; items only go away with their section.
func upsertInspectionItems(s *inspectionState) {
	for id, c := range s.patch.Items {
		p, ok := c.Value()
		if !ok {
			continue
		}
		cur, exists := s.current.Template.Items[id]
		if !exists {
			s.items[id] = propinspect.Upsert(p.Clone())
			continue
		}
		if diff := p.Diff(cur); !diff.IsEmpty() {
			s.items[id] = propinspect.Upsert(diff)
		}
	}
}

func removeItemsOfRemovedSections(s *inspectionState) {
	if len(s.deletedSections) == 0 {
		return
	}
	for id, item := range s.current.Template.Items {
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
	for id, c := range s.items {
		if _, exists := s.current.Template.Items[id]; exists {
			continue
		}
		if p, ok := c.Value(); ok && p.SectionID != nil {
			if _, deleted := s.deletedSections[*p.SectionID]; deleted {
				delete(s.items, id)
			}
		}
	}
}

// liveItems returns the items that remain after the staged changes, in id
// order.
func (s *inspectionState) liveItems() []*propinspect.Item {
	if s.live != nil {
		return s.live
	}
	merged := s.current.Apply(&propinspect.InspectionUpdate{
		Template: &propinspect.InspectionTemplatePatch{Items: s.items},
	}).Template.Items

	s.live = make([]*propinspect.Item, 0, len(merged))
	for _, id := range slices.Sorted(maps.Keys(merged)) {
		item := merged[id]
		s.live = append(s.live, &item)
	}
	return s.live
}

func (s *inspectionState) totalItems() int {
	if s.update.TotalItems != nil {
		return *s.update.TotalItems
	}
	return s.current.TotalItems
}

func (s *inspectionState) itemsCompleted() int {
	if s.update.ItemsCompleted != nil {
		return *s.update.ItemsCompleted
	}
	return s.current.ItemsCompleted
}

func (s *inspectionState) completed() bool {
	if s.update.InspectionCompleted != nil {
		return *s.update.InspectionCompleted
	}
	return s.current.InspectionCompleted
}

func setTotalItems(s *inspectionState) {
	if total := len(s.liveItems()); total != s.current.TotalItems {
		s.update.TotalItems = ptr(total)
	}
}

func setItemsCompleted(s *inspectionState) {
	done := len(scoring.CompletedItems(s.liveItems(), s.opts))
	if done != s.current.ItemsCompleted {
		s.update.ItemsCompleted = ptr(done)
	}
}

func setDeficienciesExist(s *inspectionState) {
	exist := slices.ContainsFunc(s.liveItems(), func(item *propinspect.Item) bool {
		return !item.IsItemNA && item.Deficient
	})
	if exist != s.current.DeficienciesExist {
		s.update.DeficienciesExist = ptr(exist)
	}
}

// setInspectionCompleted reopens a completed inspection that gained
// incomplete items and completes one whose items are all done.
func setInspectionCompleted(s *inspectionState) {
	total, done := s.totalItems(), s.itemsCompleted()
	switch {
	case s.current.InspectionCompleted && total > done:
		s.update.InspectionCompleted = ptr(false)
	case !s.current.InspectionCompleted && done >= total:
		s.update.InspectionCompleted = ptr(true)
	}
}

// setCompletionDate records the first completion only.
func setCompletionDate(s *inspectionState) {
	if s.completed() && s.current.CompletionDate == 0 {
		s.update.CompletionDate = ptr(s.now)
	}
}

func setScore(s *inspectionState) {
	score := 0.0
	if s.completed() {
		score = scoring.Score(s.liveItems())
	}
	if score != s.current.Score {
		s.update.Score = ptr(score)
	}
}

func setUpdatedLastDate(s *inspectionState) {
	if !s.current.InspectionCompleted && s.completed() {
		s.update.UpdatedLastDate = ptr(s.now)
	}
}

func setInspectionUpdatedAt(s *inspectionState) {
	if !s.update.IsEmpty() || len(s.sections) > 0 || len(s.items) > 0 {
		s.update.UpdatedAt = ptr(s.now)
	}
}
