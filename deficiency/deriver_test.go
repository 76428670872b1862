package deficiency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/propinspect"
	"github.com/dukerupert/propinspect/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var syncTime = time.Unix(1700000500, 0)

func checkItem(sectionID string, index, selection int) propinspect.Item {
	return propinspect.Item{
		SectionID:          sectionID,
		Index:              index,
		Title:              "Smoke detector",
		ItemType:           propinspect.ItemTypeMain,
		MainInputType:      "twoactions_checkmarkx",
		MainInputSelected:  selection >= 0,
		MainInputSelection: selection,
		MainInputZeroValue: 3,
		MainInputOneValue:  0,
	}
}

func newInspection() *propinspect.Inspection {
	return &propinspect.Inspection{
		ID:       "insp-1",
		Property: "prop-1",
		Template: propinspect.InspectionTemplate{
			TrackDeficientItems: true,
			Sections: map[string]propinspect.Section{
				"unit": {Title: "Unit", SectionType: propinspect.SectionTypeMulti},
			},
			Items: map[string]propinspect.Item{
				"unit-number": {SectionID: "unit", Index: 0, ItemType: propinspect.ItemTypeTextInput, TextInputValue: "101"},
				"smoke":       checkItem("unit", 1, 1),
				"door":        checkItem("unit", 2, 0),
			},
		},
		UpdatedLastDate: 1700000000,
	}
}

func newDeriver(active, archive *mock.DeficiencyStore) *Deriver {
	d := NewDeriver(active, archive, nil)
	d.Now = func() time.Time { return syncTime }
	return d
}

func TestDeriver_CreatesDeficiency(t *testing.T) {
	active, archive := mock.NewDeficiencyStore(), mock.NewDeficiencyStore()
	d := newDeriver(active, archive)

	result, err := d.Sync(context.Background(), nil, newInspection())
	require.NoError(t, err)
	assert.Equal(t, []string{"smoke"}, result.Created)

	records := active.All()
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, propinspect.DeficiencyID("insp-1", "smoke"), rec.ID)
	assert.Equal(t, propinspect.DeficiencyStateRequiresAction, rec.State)
	assert.Equal(t, "prop-1", rec.Property)
	assert.Equal(t, "insp-1", rec.Inspection)
	assert.Equal(t, "smoke", rec.Item)
	assert.Equal(t, "Unit", rec.SectionTitle)
	assert.Equal(t, "101", rec.SectionSubtitle)
	assert.Equal(t, 1, rec.ItemMainInputSelection)
	assert.Equal(t, 0.0, rec.ItemScore)
	assert.Equal(t, int64(1700000000), rec.ItemDataLastUpdatedDate)
	assert.Equal(t, syncTime.Unix(), rec.CreatedAt)
	assert.Equal(t, syncTime.Unix(), rec.UpdatedAt)
}

func TestDeriver_Idempotent(t *testing.T) {
	active, archive := mock.NewDeficiencyStore(), mock.NewDeficiencyStore()
	d := newDeriver(active, archive)
	insp := newInspection()

	_, err := d.Sync(context.Background(), nil, insp)
	require.NoError(t, err)
	first := active.All()

	result, err := d.Sync(context.Background(), nil, insp)
	require.NoError(t, err)
	assert.True(t, result.IsEmpty())
	assert.Equal(t, first, active.All())
	assert.Empty(t, archive.All())
}

func TestDeriver_NotTracking(t *testing.T) {
	active := mock.NewDeficiencyStore()
	d := newDeriver(active, mock.NewDeficiencyStore())
	insp := newInspection()
	insp.Template.TrackDeficientItems = false

	result, err := d.Sync(context.Background(), nil, insp)
	require.NoError(t, err)
	assert.True(t, result.IsEmpty())
	assert.Empty(t, active.All())
}

func TestDeriver_ArchivesResolvedItems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*propinspect.Inspection)
	}{
		{"selection changed", func(i *propinspect.Inspection) {
			item := i.Template.Items["smoke"]
			item.MainInputSelection = 0
			i.Template.Items["smoke"] = item
		}},
		{"marked not applicable", func(i *propinspect.Inspection) {
			item := i.Template.Items["smoke"]
			item.IsItemNA = true
			i.Template.Items["smoke"] = item
		}},
		{"item deleted", func(i *propinspect.Inspection) {
			delete(i.Template.Items, "smoke")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active, archive := mock.NewDeficiencyStore(), mock.NewDeficiencyStore()
			d := newDeriver(active, archive)
			before := newInspection()
			_, err := d.Sync(context.Background(), nil, before)
			require.NoError(t, err)

			after := before.Clone()
			tt.mutate(after)
			result, err := d.Sync(context.Background(), before, after)
			require.NoError(t, err)

			assert.Equal(t, []string{"smoke"}, result.Archived)
			assert.Empty(t, active.All())
			archived := archive.All()
			require.Len(t, archived, 1)
			assert.Equal(t, syncTime.Unix(), archived[0].ArchivedAt)
		})
	}
}

func TestDeriver_InspectionDeleted(t *testing.T) {
	active, archive := mock.NewDeficiencyStore(), mock.NewDeficiencyStore()
	d := newDeriver(active, archive)
	insp := newInspection()
	_, err := d.Sync(context.Background(), nil, insp)
	require.NoError(t, err)

	result, err := d.Sync(context.Background(), insp, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"smoke"}, result.Archived)
	assert.Empty(t, active.All())
	assert.Len(t, archive.All(), 1)
}

func TestDeriver_UnarchiveKeepsCreatedAt(t *testing.T) {
	id := propinspect.DeficiencyID("insp-1", "smoke")
	archive := mock.NewDeficiencyStore(&propinspect.Deficiency{
		ID:         id,
		State:      propinspect.DeficiencyStateClosed,
		Inspection: "insp-1",
		Item:       "smoke",
		CreatedAt:  1600000000,
		ArchivedAt: 1650000000,
	})
	active := mock.NewDeficiencyStore()
	d := newDeriver(active, archive)

	result, err := d.Sync(context.Background(), nil, newInspection())
	require.NoError(t, err)
	assert.Equal(t, []string{"smoke"}, result.Unarchived)

	rec, err := active.FindRecord(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(1600000000), rec.CreatedAt)
	assert.Equal(t, propinspect.DeficiencyStateRequiresAction, rec.State)
	assert.Zero(t, rec.ArchivedAt)
	assert.Empty(t, archive.All())
}

func TestDeriver_UnarchiveRetryClearsArchive(t *testing.T) {
	id := propinspect.DeficiencyID("insp-1", "smoke")
	archive := mock.NewDeficiencyStore(&propinspect.Deficiency{
		ID:         id,
		Inspection: "insp-1",
		Item:       "smoke",
		CreatedAt:  1600000000,
		ArchivedAt: 1650000000,
	})
	archive.RemoveRecordFn = func(ctx context.Context, id string) error {
		return errors.New("transient")
	}
	active := mock.NewDeficiencyStore()
	d := newDeriver(active, archive)
	insp := newInspection()

	_, err := d.Sync(context.Background(), nil, insp)
	require.Error(t, err)
	require.Len(t, archive.All(), 1)

	archive.RemoveRecordFn = nil
	_, err = d.Sync(context.Background(), nil, insp)
	require.NoError(t, err)

	assert.Empty(t, archive.All())
	rec, err := active.FindRecord(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(1600000000), rec.CreatedAt)
}

func TestDeriver_ProxySync(t *testing.T) {
	active, archive := mock.NewDeficiencyStore(), mock.NewDeficiencyStore()
	d := newDeriver(active, archive)
	insp := newInspection()
	_, err := d.Sync(context.Background(), nil, insp)
	require.NoError(t, err)

	// Workflow fields set by users are preserved.
	id := propinspect.DeficiencyID("insp-1", "smoke")
	require.NoError(t, active.UpdateRecord(context.Background(), id, propinspect.DeficiencyUpdate{
		State: ptr(propinspect.DeficiencyStatePending),
	}))

	after := insp.Clone()
	smoke := after.Template.Items["smoke"]
	smoke.InspectorNotes = "No battery"
	smoke.PhotosData = propinspect.PhotoData{
		"p1": {DownloadURL: "https://photos/p1", Caption: "ceiling"},
		"p2": {Caption: "upload failed"},
	}
	smoke.AdminEdits = propinspect.AdminEditLog{"e1": {EditDate: 1700000300, AdminName: "Ana"}}
	after.Template.Items["smoke"] = smoke
	unit := after.Template.Items["unit-number"]
	unit.TextInputValue = "102"
	after.Template.Items["unit-number"] = unit

	result, err := d.Sync(context.Background(), insp, after)
	require.NoError(t, err)
	assert.Equal(t, []string{"smoke"}, result.Updated)

	rec, err := active.FindRecord(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, propinspect.DeficiencyStatePending, rec.State)
	assert.Equal(t, "No battery", rec.ItemInspectorNotes)
	assert.Equal(t, "102", rec.SectionSubtitle)
	assert.Equal(t, propinspect.PhotoData{"p1": {DownloadURL: "https://photos/p1", Caption: "ceiling"}}, rec.ItemPhotosData)
	assert.Len(t, rec.ItemAdminEdits, 1)
	assert.Equal(t, int64(1700000300), rec.ItemDataLastUpdatedDate)

	// Only invalid photos left collapses to no photo data.
	next := after.Clone()
	smoke = next.Template.Items["smoke"]
	smoke.PhotosData = propinspect.PhotoData{"p2": {Caption: "upload failed"}}
	next.Template.Items["smoke"] = smoke

	_, err = d.Sync(context.Background(), after, next)
	require.NoError(t, err)
	rec, err = active.FindRecord(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, rec.ItemPhotosData)
}

func TestDeriver_StoreError(t *testing.T) {
	active := mock.NewDeficiencyStore()
	active.CreateRecordFn = func(ctx context.Context, d *propinspect.Deficiency) error {
		return errors.New("connection reset")
	}
	d := newDeriver(active, mock.NewDeficiencyStore())

	_, err := d.Sync(context.Background(), nil, newInspection())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestDeriver_ArchiveLookupError(t *testing.T) {
	archive := mock.NewDeficiencyStore()
	archive.FindRecordFn = func(ctx context.Context, id string) (*propinspect.Deficiency, error) {
		return nil, propinspect.Internal("firestore unavailable", errors.New("unavailable"))
	}
	active := mock.NewDeficiencyStore()
	d := newDeriver(active, archive)

	_, err := d.Sync(context.Background(), nil, newInspection())
	require.Error(t, err)
	assert.Empty(t, active.All())
}

func TestDeriver_HandleJob(t *testing.T) {
	active := mock.NewDeficiencyStore()
	d := newDeriver(active, mock.NewDeficiencyStore())

	q := mock.NewQueue()
	payload := mustJSON(t, propinspect.DeficiencySyncPayload{InspectionID: "insp-1", After: newInspection()})
	require.NoError(t, q.Enqueue(context.Background(), &propinspect.Job{
		JobType:     propinspect.JobTypeDeficiencySync,
		OrderingKey: "insp-1",
		Payload:     payload,
	}))
	job, err := q.Dequeue(context.Background(), propinspect.QueueDefault, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, job)

	require.NoError(t, d.HandleJob(context.Background(), job))
	assert.Len(t, active.All(), 1)

	err = d.HandleJob(context.Background(), &propinspect.Job{Payload: []byte("{")})
	assert.True(t, propinspect.IsErrorCode(err, propinspect.EINVALID))
}

func TestDeriver_RequiresSnapshot(t *testing.T) {
	d := newDeriver(mock.NewDeficiencyStore(), mock.NewDeficiencyStore())
	_, err := d.Sync(context.Background(), nil, nil)
	assert.True(t, propinspect.IsErrorCode(err, propinspect.EINVALID))
}
