package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukerupert/propinspect"
	"github.com/dukerupert/propinspect/deficiency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const scoredInspection = `{
  "id": "insp-1",
  "template": {
    "sections": {"s1": {"title": "Exterior", "section_type": "single"}},
    "items": {
      "a": {"sectionId": "s1", "itemType": "main", "mainInputType": "twoactions_checkmarkx",
            "mainInputSelected": true, "mainInputSelection": 0,
            "mainInputZeroValue": 3, "mainInputOneValue": 0},
      "b": {"sectionId": "s1", "itemType": "main", "mainInputType": "fiveactions_onetofive",
            "mainInputSelected": true, "mainInputSelection": 3,
            "mainInputZeroValue": 1, "mainInputOneValue": 2, "mainInputTwoValue": 3,
            "mainInputThreeValue": 4, "mainInputFourValue": 5},
      "c": {"sectionId": "s1", "itemType": "main", "mainInputType": "threeactions_abc",
            "mainInputSelected": true, "mainInputSelection": 0,
            "mainInputZeroValue": 5, "mainInputOneValue": 3, "mainInputTwoValue": 0},
      "d": {"sectionId": "s1", "itemType": "text_input"}
    }
  }
}`

const trackedInspection = `{
  "id": "insp-2",
  "property": "prop-1",
  "template": {
    "trackDeficientItems": true,
    "sections": {"s1": {"title": "Exterior", "section_type": "single"}},
    "items": {
      "roof": {"sectionId": "s1", "title": "Roof", "itemType": "main",
               "mainInputType": "twoactions_checkmarkx",
               "mainInputSelected": true, "mainInputSelection": 1}
    }
  }
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestRootCmd(t *testing.T) {
	cmd := newRootCmd(&bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, "propinspect", cmd.Use)

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"score", "update", "template-update", "derive"}, names)
}

func TestScoreCmd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/one.json", scoredInspection)
	writeFile(t, dir, "b/c/two.yaml", "id: insp-3\ntemplate:\n  items:\n    x:\n      itemType: main\n      isItemNA: true\n")

	t.Run("table", func(t *testing.T) {
		out, err := execute(t, "score", filepath.Join(dir, "**", "*.json"))
		require.NoError(t, err)
		assert.Contains(t, out, "insp-1")
		assert.Contains(t, out, "3/4")
		assert.Contains(t, out, "92.31")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "score", "--format", "json",
			filepath.Join(dir, "**", "*.json"), filepath.Join(dir, "**", "*.yaml"))
		require.NoError(t, err)

		var rows []scoreRow
		require.NoError(t, json.Unmarshal([]byte(out), &rows))
		require.Len(t, rows, 2)
		assert.Equal(t, "insp-1", rows[0].ID)
		assert.InDelta(t, 92.3076923076923, rows[0].Score, 1e-9)
		assert.Equal(t, 12.0, rows[0].Earned)
		assert.Equal(t, 13.0, rows[0].Max)

		// Only an N/A item: complete, nothing to earn.
		assert.Equal(t, "insp-3", rows[1].ID)
		assert.Equal(t, 1, rows[1].Completed)
		assert.Equal(t, 100.0, rows[1].Score)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := execute(t, "score", filepath.Join(dir, "*.toml"))
		assert.ErrorContains(t, err, "no files match")
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := execute(t, "score", "--format", "xml", filepath.Join(dir, "**", "*.json"))
		assert.Error(t, err)
	})
}

func TestUpdateCmd(t *testing.T) {
	dir := t.TempDir()
	insp := writeFile(t, dir, "insp.json", `{
		"id": "insp-1",
		"totalItems": 1,
		"template": {
			"sections": {"s1": {"title": "Exterior", "section_type": "single"}},
			"items": {"a": {"sectionId": "s1", "itemType": "main", "mainInputType": "twoactions_checkmarkx",
				"mainInputZeroValue": 3}}
		}
	}`)
	patch := writeFile(t, dir, "patch.yaml", "items:\n  a:\n    mainInputSelected: true\n    mainInputSelection: 0\n")

	out, err := execute(t, "update", "--now", "1700000000", "--format", "json", insp, patch)
	require.NoError(t, err)

	var upd propinspect.InspectionUpdate
	require.NoError(t, json.Unmarshal([]byte(out), &upd))
	require.NotNil(t, upd.ItemsCompleted)
	assert.Equal(t, 1, *upd.ItemsCompleted)
	require.NotNil(t, upd.Score)
	assert.Equal(t, 100.0, *upd.Score)
	require.NotNil(t, upd.UpdatedAt)
	assert.Equal(t, int64(1700000000), *upd.UpdatedAt)

	t.Run("apply", func(t *testing.T) {
		out, err := execute(t, "update", "--now", "1700000000", "--apply", insp, patch)
		require.NoError(t, err)

		var next propinspect.Inspection
		require.NoError(t, json.Unmarshal([]byte(out), &next))
		assert.Equal(t, 0, next.Template.Items["a"].MainInputSelection)
		assert.Equal(t, 1, next.ItemsCompleted)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "update", filepath.Join(dir, "nope.json"), patch)
		assert.Error(t, err)
	})
}

func TestTemplateUpdateCmd(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "tmpl.json", `{"id": "t1", "name": "Move out"}`)
	patch := writeFile(t, dir, "patch.yml", "name: Move in\n")

	out, err := execute(t, "template-update", "--now", "1700000000", "--format", "yaml", tmpl, patch)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Move in", doc["name"])
	assert.Equal(t, 1700000000, doc["updatedAt"])
}

func TestDeriveCmd(t *testing.T) {
	dir := t.TempDir()
	after := writeFile(t, dir, "after.json", trackedInspection)

	out, err := execute(t, "derive", "--now", "1700000500", "--format", "json", "none", after)
	require.NoError(t, err)

	var got struct {
		Result       deficiency.Result         `json:"result"`
		Deficiencies []*propinspect.Deficiency `json:"deficiencies"`
		Archived     []*propinspect.Deficiency `json:"archived"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"roof"}, got.Result.Created)
	require.Len(t, got.Deficiencies, 1)
	assert.Equal(t, propinspect.DeficiencyID("insp-2", "roof"), got.Deficiencies[0].ID)
	assert.Equal(t, propinspect.DeficiencyStateRequiresAction, got.Deficiencies[0].State)
	assert.Empty(t, got.Archived)

	t.Run("deleted inspection archives seeded records", func(t *testing.T) {
		seeded, err := json.Marshal(got.Deficiencies)
		require.NoError(t, err)
		existing := writeFile(t, dir, "existing.json", string(seeded))

		out, err := execute(t, "derive", "--now", "1700000600", "--existing", existing, after, "none")
		require.NoError(t, err)

		var next struct {
			Result       deficiency.Result         `json:"result"`
			Deficiencies []*propinspect.Deficiency `json:"deficiencies"`
			Archived     []*propinspect.Deficiency `json:"archived"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &next))
		assert.Equal(t, []string{"roof"}, next.Result.Archived)
		assert.Empty(t, next.Deficiencies)
		assert.Len(t, next.Archived, 1)
	})

	t.Run("both snapshots missing", func(t *testing.T) {
		_, err := execute(t, "derive", "none", "none")
		assert.True(t, propinspect.IsErrorCode(err, propinspect.EINVALID))
	})
}

func TestEligibilityFlag(t *testing.T) {
	dir := t.TempDir()
	after := writeFile(t, dir, "after.json", trackedInspection)
	// Selection 1 of twoactions_checkmarkx is not deficient under this table.
	elig := writeFile(t, dir, "elig.yaml", "twoactions_checkmarkx: [true, false]\n")

	out, err := execute(t, "derive", "--eligibility", elig, "none", after)
	require.NoError(t, err)
	assert.NotContains(t, out, `"created"`)
}
