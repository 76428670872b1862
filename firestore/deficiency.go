package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/dukerupert/propinspect"
	"google.golang.org/api/iterator"
)

// Compile-time check that DeficiencyStore implements propinspect.DeficiencyStore.
var _ propinspect.DeficiencyStore = (*DeficiencyStore)(nil)

// DeficiencyStore keeps deficiencies in one collection, keyed by
// deficiency id.
type DeficiencyStore struct {
	db         *DB
	collection string
}

func (s *DeficiencyStore) doc(id string) *firestore.DocumentRef {
	return s.db.client.Collection(s.collection).Doc(id)
}

func (s *DeficiencyStore) FindRecord(ctx context.Context, id string) (*propinspect.Deficiency, error) {
	var snap *firestore.DocumentSnapshot
	err := s.db.do(ctx, "find deficiency", func(ctx context.Context) error {
		var err error
		snap, err = s.doc(id).Get(ctx)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return nil, propinspect.NotFound("Deficiency not found")
		}
		return nil, propinspect.Internal("Failed to fetch deficiency", err)
	}

	var d propinspect.Deficiency
	if err := snap.DataTo(&d); err != nil {
		return nil, propinspect.Internal("Failed to decode deficiency", err)
	}
	d.ID = snap.Ref.ID
	return &d, nil
}

func (s *DeficiencyStore) FindByInspection(ctx context.Context, inspectionID string) ([]*propinspect.Deficiency, error) {
	var result []*propinspect.Deficiency
	err := s.db.do(ctx, "list deficiencies", func(ctx context.Context) error {
		result = nil
		iter := s.db.client.Collection(s.collection).
			Where("inspection", "==", inspectionID).
			Documents(ctx)
		defer iter.Stop()

		for {
			snap, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				return nil
			}
			if err != nil {
				return err
			}
			var d propinspect.Deficiency
			if err := snap.DataTo(&d); err != nil {
				return propinspect.Internal("Failed to decode deficiency", err)
			}
			d.ID = snap.Ref.ID
			result = append(result, &d)
		}
	})
	if err != nil {
		if propinspect.ErrorCode(err) == propinspect.EINTERNAL {
			return nil, err
		}
		return nil, propinspect.Internal("Failed to list deficiencies", err)
	}
	return result, nil
}

// CreateRecord writes d, replacing any document with the same id.
func (s *DeficiencyStore) CreateRecord(ctx context.Context, d *propinspect.Deficiency) error {
	err := s.db.do(ctx, "write deficiency", func(ctx context.Context) error {
		_, err := s.doc(d.ID).Set(ctx, d)
		return err
	})
	if err != nil {
		return propinspect.Internal("Failed to write deficiency", err)
	}
	return nil
}

func (s *DeficiencyStore) UpdateRecord(ctx context.Context, id string, upd propinspect.DeficiencyUpdate) error {
	fields := updates(upd)
	if len(fields) == 0 {
		return nil
	}
	err := s.db.do(ctx, "update deficiency", func(ctx context.Context) error {
		_, err := s.doc(id).Update(ctx, fields)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return propinspect.NotFound("Deficiency not found")
		}
		return propinspect.Internal("Failed to update deficiency", err)
	}
	return nil
}

// RemoveRecord deletes a document. Deleting a missing document succeeds.
func (s *DeficiencyStore) RemoveRecord(ctx context.Context, id string) error {
	err := s.db.do(ctx, "remove deficiency", func(ctx context.Context) error {
		_, err := s.doc(id).Delete(ctx)
		return err
	})
	if err != nil {
		return propinspect.Internal("Failed to remove deficiency", err)
	}
	return nil
}

// updates converts the set fields of upd into field updates. Removed
// photos and cleared admin edits delete the field.
func updates(upd propinspect.DeficiencyUpdate) []firestore.Update {
	var out []firestore.Update
	add := func(path string, v any) {
		out = append(out, firestore.Update{Path: path, Value: v})
	}

	if upd.State != nil {
		add("state", string(*upd.State))
	}
	if upd.SectionSubtitle != nil {
		add("sectionSubtitle", *upd.SectionSubtitle)
	}
	if upd.ItemInspectorNotes != nil {
		add("itemInspectorNotes", *upd.ItemInspectorNotes)
	}
	if upd.ItemMainInputSelection != nil {
		add("itemMainInputSelection", *upd.ItemMainInputSelection)
	}
	if upd.ItemPhotosData != nil {
		if photos, ok := upd.ItemPhotosData.Value(); ok {
			add("itemPhotosData", photos)
		} else {
			add("itemPhotosData", firestore.Delete)
		}
	}
	if upd.ItemAdminEdits != nil {
		if len(*upd.ItemAdminEdits) > 0 {
			add("itemAdminEdits", *upd.ItemAdminEdits)
		} else {
			add("itemAdminEdits", firestore.Delete)
		}
	}
	if upd.ItemScore != nil {
		add("itemScore", *upd.ItemScore)
	}
	if upd.ItemDataLastUpdatedDate != nil {
		add("itemDataLastUpdatedDate", *upd.ItemDataLastUpdatedDate)
	}
	if upd.UpdatedAt != nil {
		add("updatedAt", *upd.UpdatedAt)
	}
	return out
}
