package postgres

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dukerupert/propinspect"
)

// Compile-time check that InspectionService implements propinspect.InspectionService.
var _ propinspect.InspectionService = (*InspectionService)(nil)

// InspectionService implements propinspect.InspectionService using PostgreSQL.
// Inspections are stored as JSONB documents.
type InspectionService struct {
	db *DB
}

func (s *InspectionService) FindInspectionByID(ctx context.Context, id string) (*propinspect.Inspection, error) {
	var doc []byte
	err := s.db.pool.QueryRow(ctx, `SELECT document FROM inspections WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if isNoRows(err) {
			return nil, propinspect.NotFound("Inspection not found")
		}
		return nil, propinspect.Internal("Failed to fetch inspection", err)
	}
	return decodeInspection(id, doc)
}

func (s *InspectionService) FindInspections(ctx context.Context, filter propinspect.InspectionFilter) ([]*propinspect.Inspection, int, error) {
	rows, err := s.db.pool.Query(ctx, `
		SELECT id, document FROM inspections
		WHERE ($1::text IS NULL OR property_id = $1)
		AND ($2::boolean IS NULL OR completed = $2)
		ORDER BY updated_at DESC, id
	`, filter.Property, filter.Completed)
	if err != nil {
		return nil, 0, propinspect.Internal("Failed to list inspections", err)
	}
	defer rows.Close()

	var inspections []*propinspect.Inspection
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, 0, propinspect.Internal("Failed to scan inspection", err)
		}
		insp, err := decodeInspection(id, doc)
		if err != nil {
			return nil, 0, err
		}
		inspections = append(inspections, insp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, propinspect.Internal("Failed to list inspections", err)
	}

	total := len(inspections)
	return paginate(inspections, filter.Offset, filter.Limit), total, nil
}

func (s *InspectionService) CreateInspection(ctx context.Context, inspection *propinspect.Inspection) error {
	if inspection.ID == "" {
		return propinspect.Invalid("Inspection ID is required")
	}
	doc, err := json.Marshal(inspection)
	if err != nil {
		return propinspect.Internal("Failed to encode inspection", err)
	}

	_, err = s.db.pool.Exec(ctx, `
		INSERT INTO inspections (id, property_id, completed, document, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, inspection.ID, inspection.Property, inspection.InspectionCompleted, doc, inspection.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return propinspect.Conflict("Inspection %s already exists", inspection.ID)
		}
		return propinspect.Internal("Failed to create inspection", err)
	}
	return nil
}

// UpdateInspectionTemplate locks the inspection row, runs the update
// engine and writes the merged document back. When deficiencies are
// tracked, a deficiency_sync job carrying both snapshots is enqueued in
// the same transaction.
func (s *InspectionService) UpdateInspectionTemplate(ctx context.Context, id string, patch propinspect.InspectionTemplatePatch, now int64) (upd *propinspect.InspectionUpdate, err error) {
	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return nil, propinspect.Internal("Failed to begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var doc []byte
	if err := tx.QueryRow(ctx, `SELECT document FROM inspections WHERE id = $1 FOR UPDATE`, id).Scan(&doc); err != nil {
		if isNoRows(err) {
			return nil, propinspect.NotFound("Inspection not found")
		}
		return nil, propinspect.Internal("Failed to fetch inspection", err)
	}
	current, err := decodeInspection(id, doc)
	if err != nil {
		return nil, err
	}

	upd, err = s.db.engine.Inspection(current, patch, now)
	if err != nil {
		return nil, err
	}
	if upd.IsEmpty() {
		if err := tx.Commit(ctx); err != nil {
			return nil, propinspect.Internal("Failed to commit transaction", err)
		}
		return upd, nil
	}

	next := current.Apply(upd)
	if doc, err = json.Marshal(next); err != nil {
		return nil, propinspect.Internal("Failed to encode inspection", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE inspections
		SET document = $2, property_id = $3, completed = $4, updated_at = $5
		WHERE id = $1
	`, id, doc, next.Property, next.InspectionCompleted, next.UpdatedAt); err != nil {
		return nil, propinspect.Internal("Failed to update inspection", err)
	}

	if next.Template.TrackDeficientItems {
		payload, err := json.Marshal(propinspect.DeficiencySyncPayload{
			InspectionID: id,
			Before:       current,
			After:        next,
		})
		if err != nil {
			return nil, propinspect.Internal("Failed to encode deficiency sync", err)
		}
		job := &propinspect.Job{
			JobType:     propinspect.JobTypeDeficiencySync,
			OrderingKey: id,
			Payload:     payload,
		}
		if err := enqueue(ctx, tx, job, time.Now(), propinspect.WithMaxAttempts(s.db.JobMaxAttempts)); err != nil {
			return nil, propinspect.Internal("Failed to enqueue deficiency sync", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, propinspect.Internal("Failed to commit transaction", err)
	}

	s.db.logger.Debug("inspection updated",
		slog.String("inspection_id", id),
		slog.Bool("completed", next.InspectionCompleted),
		slog.Float64("score", next.Score))
	return upd, nil
}

// decodeInspection unmarshals a stored document. The row id is
// authoritative.
func decodeInspection(id string, doc []byte) (*propinspect.Inspection, error) {
	var insp propinspect.Inspection
	if err := json.Unmarshal(doc, &insp); err != nil {
		return nil, propinspect.Internal("Failed to decode inspection", err)
	}
	insp.ID = id
	return &insp, nil
}
