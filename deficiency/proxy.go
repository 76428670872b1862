package deficiency

import (
	"cmp"
	"maps"
	"slices"

	"github.com/dukerupert/propinspect"
)

// proxy holds the item attributes a deficiency mirrors.
type proxy struct {
	sectionSubtitle string
	inspectorNotes  string
	selection       int
	photos          propinspect.PhotoData
	adminEdits      propinspect.AdminEditLog
	score           float64
	lastUpdated     int64
}

func proxyOf(insp *propinspect.Inspection, item propinspect.Item) proxy {
	return proxy{
		sectionSubtitle: sectionSubtitle(insp, item),
		inspectorNotes:  item.InspectorNotes,
		selection:       item.MainInputSelection,
		photos:          item.PhotosData.Valid(),
		adminEdits:      maps.Clone(item.AdminEdits),
		score:           item.SelectedScore(),
		lastUpdated:     max(insp.UpdatedLastDate, item.AdminEdits.LatestEditDate()),
	}
}

// sectionSubtitle returns the answer of the first text item of a multi
// section when it comes before item. Repeated sections are told apart by
// that answer, such as a unit number.
func sectionSubtitle(insp *propinspect.Inspection, item propinspect.Item) string {
	section, ok := insp.Template.Sections[item.SectionID]
	if !ok || section.SectionType != propinspect.SectionTypeMulti {
		return ""
	}

	type entry struct {
		id   string
		item propinspect.Item
	}
	var texts []entry
	for id, other := range insp.Template.Items {
		if other.SectionID == item.SectionID && other.ItemType == propinspect.ItemTypeTextInput {
			texts = append(texts, entry{id, other})
		}
	}
	if len(texts) == 0 {
		return ""
	}
	first := slices.MinFunc(texts, func(a, b entry) int {
		return cmp.Or(cmp.Compare(a.item.Index, b.item.Index), cmp.Compare(a.id, b.id))
	})
	if first.item.Index >= item.Index {
		return ""
	}
	return first.item.TextInputValue
}

// apply writes the proxy onto a new record.
func (p proxy) apply(d *propinspect.Deficiency) {
	d.SectionSubtitle = p.sectionSubtitle
	d.ItemInspectorNotes = p.inspectorNotes
	d.ItemMainInputSelection = p.selection
	d.ItemPhotosData = p.photos
	d.ItemAdminEdits = p.adminEdits
	d.ItemScore = p.score
	d.ItemDataLastUpdatedDate = p.lastUpdated
}

// diff returns the update that brings d in line with the proxy. Workflow
// fields are never touched.
func (p proxy) diff(d *propinspect.Deficiency, now int64) propinspect.DeficiencyUpdate {
	var u propinspect.DeficiencyUpdate
	if d.SectionSubtitle != p.sectionSubtitle {
		u.SectionSubtitle = &p.sectionSubtitle
	}
	if d.ItemInspectorNotes != p.inspectorNotes {
		u.ItemInspectorNotes = &p.inspectorNotes
	}
	if d.ItemMainInputSelection != p.selection {
		u.ItemMainInputSelection = &p.selection
	}
	switch {
	case len(p.photos) == 0 && len(d.ItemPhotosData) > 0:
		c := propinspect.Remove[propinspect.PhotoData]()
		u.ItemPhotosData = &c
	case len(p.photos) > 0 && !maps.Equal(d.ItemPhotosData, p.photos):
		c := propinspect.Upsert(p.photos)
		u.ItemPhotosData = &c
	}
	if !maps.Equal(d.ItemAdminEdits, p.adminEdits) {
		u.ItemAdminEdits = &p.adminEdits
	}
	if d.ItemScore != p.score {
		u.ItemScore = &p.score
	}
	if d.ItemDataLastUpdatedDate != p.lastUpdated {
		u.ItemDataLastUpdatedDate = &p.lastUpdated
	}
	if !u.IsEmpty() {
		u.UpdatedAt = &now
	}
	return u
}
