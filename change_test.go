package propinspect

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChange_UnmarshalJSON(t *testing.T) {
	var patch InspectionTemplatePatch
	body := `{
		"items": {
			"i1": {"mainInputSelected": true, "mainInputSelection": 0},
			"i2": null
		},
		"sections": {"s1": null}
	}`
	require.NoError(t, json.Unmarshal([]byte(body), &patch))

	require.Len(t, patch.Items, 2)
	upd, ok := patch.Items["i1"].Value()
	require.True(t, ok)
	require.NotNil(t, upd.MainInputSelection)
	assert.Equal(t, 0, *upd.MainInputSelection)
	assert.True(t, *upd.MainInputSelected)

	assert.True(t, patch.Items["i2"].IsDelete())
	assert.True(t, patch.Sections["s1"].IsDelete())

	_, present := patch.Items["i3"]
	assert.False(t, present)
}

func TestChange_MarshalJSON(t *testing.T) {
	patch := InspectionTemplatePatch{
		Items: map[string]Change[ItemPatch]{
			"i1": Upsert(ItemPatch{Title: ptr("Roof")}),
			"i2": Remove[ItemPatch](),
		},
	}

	b, err := json.Marshal(patch)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":{"i1":{"title":"Roof"},"i2":null}}`, string(b))
}

func TestChange_Value(t *testing.T) {
	v, ok := Upsert(3).Value()
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = Remove[int]().Value()
	assert.False(t, ok)
}
