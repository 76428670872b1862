package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/propinspect"
)

// Compile-time check that DeficiencyStore implements propinspect.DeficiencyStore.
var _ propinspect.DeficiencyStore = (*DeficiencyStore)(nil)

// DeficiencyStore keeps deficiency documents in one table. The active and
// archived collections are two stores over different tables.
type DeficiencyStore struct {
	db    *DB
	table string
}

func (s *DeficiencyStore) FindRecord(ctx context.Context, id string) (*propinspect.Deficiency, error) {
	var doc []byte
	err := s.db.pool.QueryRow(ctx, fmt.Sprintf(`SELECT document FROM %s WHERE id = $1`, s.table), id).Scan(&doc)
	if err != nil {
		if isNoRows(err) {
			return nil, propinspect.NotFound("Deficiency not found")
		}
		return nil, propinspect.Internal("Failed to fetch deficiency", err)
	}
	return decodeDeficiency(id, doc)
}

func (s *DeficiencyStore) FindByInspection(ctx context.Context, inspectionID string) ([]*propinspect.Deficiency, error) {
	rows, err := s.db.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, document FROM %s WHERE inspection_id = $1 ORDER BY id`, s.table),
		inspectionID)
	if err != nil {
		return nil, propinspect.Internal("Failed to list deficiencies", err)
	}
	defer rows.Close()

	var result []*propinspect.Deficiency
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, propinspect.Internal("Failed to scan deficiency", err)
		}
		d, err := decodeDeficiency(id, doc)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, propinspect.Internal("Failed to list deficiencies", err)
	}
	return result, nil
}

// CreateRecord writes d, replacing any record with the same id.
func (s *DeficiencyStore) CreateRecord(ctx context.Context, d *propinspect.Deficiency) error {
	doc, err := json.Marshal(d)
	if err != nil {
		return propinspect.Internal("Failed to encode deficiency", err)
	}

	_, err = s.db.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, property_id, inspection_id, item_id, document)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			property_id = EXCLUDED.property_id,
			inspection_id = EXCLUDED.inspection_id,
			item_id = EXCLUDED.item_id,
			document = EXCLUDED.document
	`, s.table), d.ID, d.Property, d.Inspection, d.Item, doc)
	if err != nil {
		return propinspect.Internal("Failed to write deficiency", err)
	}
	return nil
}

// UpdateRecord merges the set fields of upd into the stored document.
// Removed fields are encoded as null and stripped.
func (s *DeficiencyStore) UpdateRecord(ctx context.Context, id string, upd propinspect.DeficiencyUpdate) error {
	doc, err := json.Marshal(upd)
	if err != nil {
		return propinspect.Internal("Failed to encode deficiency update", err)
	}

	tag, err := s.db.pool.Exec(ctx, fmt.Sprintf(`
		UPDATE %s SET document = jsonb_strip_nulls(document || $2::jsonb) WHERE id = $1
	`, s.table), id, doc)
	if err != nil {
		return propinspect.Internal("Failed to update deficiency", err)
	}
	if tag.RowsAffected() == 0 {
		return propinspect.NotFound("Deficiency not found")
	}
	return nil
}

func (s *DeficiencyStore) RemoveRecord(ctx context.Context, id string) error {
	if _, err := s.db.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table), id); err != nil {
		return propinspect.Internal("Failed to remove deficiency", err)
	}
	return nil
}

func decodeDeficiency(id string, doc []byte) (*propinspect.Deficiency, error) {
	var d propinspect.Deficiency
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, propinspect.Internal("Failed to decode deficiency", err)
	}
	d.ID = id
	return &d, nil
}
