package propinspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspection_Apply(t *testing.T) {
	cur := &Inspection{
		ID: "insp-1",
		Template: InspectionTemplate{
			Sections: map[string]Section{"s1": {Title: "Exterior", SectionType: SectionTypeSingle}},
			Items: map[string]Item{
				"i1": {SectionID: "s1", ItemType: ItemTypeMain, MainInputSelection: NoSelection},
				"i2": {SectionID: "s1", ItemType: ItemTypeTextInput, IsTextInputItem: true},
			},
		},
		TotalItems: 2,
	}

	upd := &InspectionUpdate{
		Template: &InspectionTemplatePatch{
			Items: map[string]Change[ItemPatch]{
				"i1": Upsert(ItemPatch{MainInputSelected: ptr(true), MainInputSelection: ptr(0)}),
				"i2": Remove[ItemPatch](),
				"i3": Upsert(ItemPatch{SectionID: ptr("s1"), Title: ptr("New")}),
			},
		},
		TotalItems: ptr(2),
		Score:      ptr(50.0),
		UpdatedAt:  ptr(int64(100)),
	}

	next := cur.Apply(upd)

	require.Len(t, next.Template.Items, 2)
	assert.Equal(t, 0, next.Template.Items["i1"].MainInputSelection)
	assert.True(t, next.Template.Items["i1"].MainInputSelected)
	assert.Equal(t, NoSelection, next.Template.Items["i3"].MainInputSelection)
	assert.Equal(t, "New", next.Template.Items["i3"].Title)
	assert.Equal(t, 50.0, next.Score)
	assert.Equal(t, int64(100), next.UpdatedAt)

	// The original is untouched.
	assert.Len(t, cur.Template.Items, 2)
	assert.Equal(t, NoSelection, cur.Template.Items["i1"].MainInputSelection)
}

func TestInspectionUpdate_IsEmpty(t *testing.T) {
	var nilUpdate *InspectionUpdate
	assert.True(t, nilUpdate.IsEmpty())
	assert.True(t, (&InspectionUpdate{}).IsEmpty())
	assert.False(t, (&InspectionUpdate{Score: ptr(0.0)}).IsEmpty())
}

func TestSection_IsRemovable(t *testing.T) {
	assert.True(t, Section{SectionType: SectionTypeMulti, AddedMultiSection: true}.IsRemovable())
	assert.False(t, Section{SectionType: SectionTypeMulti}.IsRemovable())
	assert.False(t, Section{SectionType: SectionTypeSingle, AddedMultiSection: true}.IsRemovable())
}

func TestTemplate_Apply(t *testing.T) {
	cur := &Template{
		ID:       "tmpl-1",
		Name:     "Move out",
		Sections: map[string]Section{"s1": {Title: "Kitchen"}},
	}

	next := cur.Apply(&TemplateUpdate{
		TemplatePatch: TemplatePatch{
			Name:     ptr("Move in"),
			Sections: map[string]Change[SectionPatch]{"s1": Remove[SectionPatch]()},
			Items: map[string]Change[ItemPatch]{
				"i1": Upsert(ItemDefaults(ItemTypeTextInput).Overlay(ItemPatch{Title: ptr("Notes")})),
			},
		},
		CompletedAt: ptr(int64(5)),
	})

	assert.Equal(t, "Move in", next.Name)
	assert.Empty(t, next.Sections)
	assert.Equal(t, ItemTypeTextInput, next.Items["i1"].ItemType)
	assert.True(t, next.Items["i1"].IsTextInputItem)
	assert.Equal(t, int64(5), next.CompletedAt)
	assert.Equal(t, "Move out", cur.Name)
}

func TestItemDefaults(t *testing.T) {
	mainItem := ItemDefaults(ItemTypeMain)
	assert.Equal(t, NoSelection, *mainItem.MainInputSelection)
	assert.False(t, *mainItem.IsTextInputItem)

	text := ItemDefaults(ItemTypeTextInput)
	assert.Nil(t, text.MainInputSelection)
	assert.True(t, *text.IsTextInputItem)

	sig := ItemDefaults(ItemTypeSignature)
	assert.Nil(t, sig.MainInputSelection)
	assert.False(t, *sig.IsTextInputItem)
	assert.Equal(t, "", *sig.SignatureDownloadURL)
	assert.NotNil(t, sig.PhotosData)
	assert.NotNil(t, sig.AdminEdits)

	assert.False(t, *SectionDefaults().AddedMultiSection)
}
