// Package update turns a user patch and the stored document into the
// minimal set of changes to persist, including every derived field.
//
// Both engines run an ordered list of steps over a shared state. Each step
// reads the stored document and the changes staged so far, and stages its
// own. Neither engine modifies its inputs.
package update

import (
	"fmt"
	"maps"
	"slices"

	"github.com/dukerupert/propinspect"
)

// Engine computes inspection and template updates.
type Engine struct {
	// Eligibility decides which answers are deficient when an inspection
	// requires notes and photos on deficient items.
	Eligibility propinspect.EligibilityTable
}

// NewEngine returns an engine using table, or the default table when nil.
func NewEngine(table propinspect.EligibilityTable) *Engine {
	if table == nil {
		table = propinspect.DefaultEligibilityTable()
	}
	return &Engine{Eligibility: table}
}

// validateChanges rejects unknown item and section types.
func validateChanges(items map[string]propinspect.Change[propinspect.ItemPatch], sections map[string]propinspect.Change[propinspect.SectionPatch]) error {
	for _, id := range slices.Sorted(maps.Keys(sections)) {
		p, ok := sections[id].Value()
		if ok && p.SectionType != nil && !p.SectionType.IsValid() {
			return propinspect.FieldError(fmt.Sprintf("/sections/%s/section_type", id),
				"unknown section type %q", *p.SectionType)
		}
	}
	for _, id := range slices.Sorted(maps.Keys(items)) {
		p, ok := items[id].Value()
		if ok && p.ItemType != nil && !p.ItemType.IsValid() {
			return propinspect.FieldError(fmt.Sprintf("/items/%s/itemType", id),
				"unknown item type %q", *p.ItemType)
		}
	}
	return nil
}

func validateNow(now int64) error {
	if now <= 0 {
		return propinspect.Invalid("update time must be a positive unix timestamp")
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
