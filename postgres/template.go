package postgres

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/dukerupert/propinspect"
)

// Compile-time check that TemplateService implements propinspect.TemplateService.
var _ propinspect.TemplateService = (*TemplateService)(nil)

// TemplateService implements propinspect.TemplateService using PostgreSQL.
type TemplateService struct {
	db *DB
}

func (s *TemplateService) FindTemplateByID(ctx context.Context, id string) (*propinspect.Template, error) {
	var doc []byte
	err := s.db.pool.QueryRow(ctx, `SELECT document FROM templates WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if isNoRows(err) {
			return nil, propinspect.NotFound("Template not found")
		}
		return nil, propinspect.Internal("Failed to fetch template", err)
	}
	return decodeTemplate(id, doc)
}

func (s *TemplateService) CreateTemplate(ctx context.Context, template *propinspect.Template) error {
	if template.ID == "" {
		return propinspect.Invalid("Template ID is required")
	}
	doc, err := json.Marshal(template)
	if err != nil {
		return propinspect.Internal("Failed to encode template", err)
	}

	_, err = s.db.pool.Exec(ctx, `
		INSERT INTO templates (id, name, document, updated_at)
		VALUES ($1, $2, $3, $4)
	`, template.ID, template.Name, doc, template.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return propinspect.Conflict("Template %s already exists", template.ID)
		}
		return propinspect.Internal("Failed to create template", err)
	}
	return nil
}

// UpdateTemplate locks the template row, runs the update engine and writes
// the merged document back.
func (s *TemplateService) UpdateTemplate(ctx context.Context, id string, patch propinspect.TemplatePatch, now int64) (upd *propinspect.TemplateUpdate, err error) {
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
	if err := tx.QueryRow(ctx, `SELECT document FROM templates WHERE id = $1 FOR UPDATE`, id).Scan(&doc); err != nil {
		if isNoRows(err) {
			return nil, propinspect.NotFound("Template not found")
		}
		return nil, propinspect.Internal("Failed to fetch template", err)
	}
	current, err := decodeTemplate(id, doc)
	if err != nil {
		return nil, err
	}

	upd, err = s.db.engine.Template(current, patch, now)
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
		return nil, propinspect.Internal("Failed to encode template", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE templates SET document = $2, name = $3, updated_at = $4 WHERE id = $1
	`, id, doc, next.Name, next.UpdatedAt); err != nil {
		return nil, propinspect.Internal("Failed to update template", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, propinspect.Internal("Failed to commit transaction", err)
	}

	s.db.logger.Debug("template updated", slog.String("template_id", id))
	return upd, nil
}

func decodeTemplate(id string, doc []byte) (*propinspect.Template, error) {
	var t propinspect.Template
	if err := json.Unmarshal(doc, &t); err != nil {
		return nil, propinspect.Internal("Failed to decode template", err)
	}
	t.ID = id
	return &t, nil
}
