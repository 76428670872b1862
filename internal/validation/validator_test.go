package validation

import (
	"testing"

	"github.com/dukerupert/propinspect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestValidateInspectionTemplatePatch(t *testing.T) {
	v := NewValidator()

	t.Run("valid", func(t *testing.T) {
		err := v.ValidateInspectionTemplatePatch(&propinspect.InspectionTemplatePatch{
			Items: map[string]propinspect.Change[propinspect.ItemPatch]{
				"i1": propinspect.Upsert(propinspect.ItemPatch{MainInputSelection: ptr(2)}),
				"i2": propinspect.Remove[propinspect.ItemPatch](),
			},
		})
		assert.NoError(t, err)
	})

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, v.ValidateInspectionTemplatePatch(nil))
	})

	t.Run("out of range selection", func(t *testing.T) {
		err := v.ValidateInspectionTemplatePatch(&propinspect.InspectionTemplatePatch{
			Items: map[string]propinspect.Change[propinspect.ItemPatch]{
				"i1": propinspect.Upsert(propinspect.ItemPatch{MainInputSelection: ptr(7)}),
			},
			Sections: map[string]propinspect.Change[propinspect.SectionPatch]{
				"a/b": propinspect.Upsert(propinspect.SectionPatch{SectionType: ptr(propinspect.SectionType("grid"))}),
			},
		})
		require.Error(t, err)
		assert.True(t, propinspect.IsErrorCode(err, propinspect.EINVALID))

		fields := propinspect.ErrorFields(err)
		assert.Equal(t, "must be no more than 4", fields["/items/i1/mainInputSelection"])
		assert.Equal(t, "must be one of: single multi", fields["/sections/a~1b/section_type"])
	})
}

func TestValidateTemplatePatch(t *testing.T) {
	v := NewValidator()

	err := v.ValidateTemplatePatch(&propinspect.TemplatePatch{
		Name: ptr(string(make([]byte, 201))),
		Items: map[string]propinspect.Change[propinspect.ItemPatch]{
			"i1": propinspect.Upsert(propinspect.ItemPatch{ItemType: ptr(propinspect.ItemType("checkbox"))}),
		},
	})
	require.Error(t, err)

	fields := propinspect.ErrorFields(err)
	assert.Contains(t, fields, "/items/i1/itemType")
	assert.Equal(t, "must be no more than 200 characters", fields["/name"])

	assert.NoError(t, v.ValidateTemplatePatch(&propinspect.TemplatePatch{Name: ptr("Move in")}))
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&propinspect.ItemPatch{Title: ptr(string(make([]byte, 501)))})
	require.Error(t, err)
	assert.Equal(t, "must be no more than 500 characters", propinspect.ErrorFields(err)["/title"])

	assert.NoError(t, v.Validate(&propinspect.ItemPatch{Title: ptr("Roof")}))
}

func TestEscapePointer(t *testing.T) {
	assert.Equal(t, "a~0b~1c", escapePointer("a~b/c"))
	assert.Equal(t, "/items/x", namespacePointer("TemplatePatch.items.x"))
}
