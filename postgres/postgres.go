// Package postgres provides PostgreSQL implementations of domain service interfaces.
package postgres

import (
	"context"
	"log/slog"

	"github.com/dukerupert/propinspect"
	"github.com/dukerupert/propinspect/update"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Tables holding deficiency documents.
const (
	DeficienciesTable         = "deficiencies"
	ArchivedDeficienciesTable = "archived_deficiencies"
)

// Pool is the subset of *pgxpool.Pool used by the services. It is
// satisfied by pgxmock pools in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// execer runs statements on a pool or inside a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// DB wraps the database connection pool and exposes domain services.
type DB struct {
	pool   Pool
	logger *slog.Logger
	engine *update.Engine

	// JobMaxAttempts caps retries of jobs enqueued by service writes.
	// Zero uses propinspect.DefaultMaxAttempts.
	JobMaxAttempts int

	// Domain services (initialized in NewDB)
	InspectionService    propinspect.InspectionService
	TemplateService      propinspect.TemplateService
	Deficiencies         propinspect.DeficiencyStore
	ArchivedDeficiencies propinspect.DeficiencyStore
	Queue                propinspect.Queue
}

// NewDB creates a new database wrapper with all services initialized.
// Inspection and template writes run through engine.
func NewDB(pool Pool, logger *slog.Logger, engine *update.Engine) *DB {
	if engine == nil {
		engine = update.NewEngine(nil)
	}
	db := &DB{
		pool:   pool,
		logger: logger,
		engine: engine,
	}

	// Initialize services with reference back to DB
	db.InspectionService = &InspectionService{db: db}
	db.TemplateService = &TemplateService{db: db}
	db.Deficiencies = &DeficiencyStore{db: db, table: DeficienciesTable}
	db.ArchivedDeficiencies = &DeficiencyStore{db: db, table: ArchivedDeficienciesTable}
	db.Queue = &Queue{db: db}

	return db
}

// Pool returns the underlying connection pool.
// Use sparingly - prefer using service methods.
func (db *DB) Pool() Pool {
	return db.pool
}

// Ping checks the database connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}
