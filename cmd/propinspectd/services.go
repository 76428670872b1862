package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/propinspect"
	"github.com/dukerupert/propinspect/firestore"
	"github.com/dukerupert/propinspect/postgres"
)

// Services holds all application services.
type Services struct {
	InspectionService    propinspect.InspectionService
	TemplateService      propinspect.TemplateService
	Deficiencies         propinspect.DeficiencyStore
	ArchivedDeficiencies propinspect.DeficiencyStore
	Queue                propinspect.Queue

	// close releases clients opened for the services.
	close func() error
}

// Close releases resources held by the services.
func (s *Services) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// initServices initializes all application services. Inspections,
// templates and jobs always live in postgres; deficiencies live in the
// configured store.
func initServices(ctx context.Context, db *postgres.DB, cfg *Config, logger *slog.Logger) (*Services, error) {
	db.JobMaxAttempts = cfg.QueueMaxAttempts

	services := &Services{
		InspectionService:    db.InspectionService,
		TemplateService:      db.TemplateService,
		Deficiencies:         db.Deficiencies,
		ArchivedDeficiencies: db.ArchivedDeficiencies,
		Queue:                db.Queue,
	}

	if cfg.DeficiencyStore == StoreFirestore {
		logger.Debug("deficiency store configuration",
			slog.String("project_id", cfg.FirestoreProjectID),
			slog.Bool("credentials_file", cfg.FirestoreCredentialsFile != ""))

		fs, err := firestore.Open(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile, logger)
		if err != nil {
			return nil, fmt.Errorf("opening firestore: %w", err)
		}
		services.Deficiencies = fs.Deficiencies()
		services.ArchivedDeficiencies = fs.ArchivedDeficiencies()
		services.close = fs.Close
	}

	logger.Info("services initialized", slog.String("deficiency_store", cfg.DeficiencyStore))
	return services, nil
}
