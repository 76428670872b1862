// Package firestore provides Cloud Firestore implementations of the
// deficiency stores.
package firestore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"github.com/sethvargo/go-retry"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collections holding deficiency documents.
const (
	DeficienciesCollection         = "deficiencies"
	ArchivedDeficienciesCollection = "archivedDeficiencies"
)

// DB wraps the Firestore client.
type DB struct {
	client *firestore.Client
	logger *slog.Logger

	// Backoff returns the retry policy for transient errors. Defaults to
	// three retries with exponential backoff from 100ms.
	Backoff func() retry.Backoff
}

// Open initializes a Firestore client through the Firebase app. An empty
// credentialsFile uses application default credentials.
func Open(ctx context.Context, projectID, credentialsFile string, logger *slog.Logger) (*DB, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing firestore client: %w", err)
	}

	logger.Info("connected to firestore", slog.String("project_id", projectID))
	return NewDB(client, logger), nil
}

// NewDB wraps an existing client.
func NewDB(client *firestore.Client, logger *slog.Logger) *DB {
	return &DB{
		client:  client,
		logger:  logger,
		Backoff: defaultBackoff,
	}
}

// Close closes the Firestore client.
func (db *DB) Close() error {
	return db.client.Close()
}

// Deficiencies returns the store of active deficiencies.
func (db *DB) Deficiencies() *DeficiencyStore {
	return &DeficiencyStore{db: db, collection: DeficienciesCollection}
}

// ArchivedDeficiencies returns the store of archived deficiencies.
func (db *DB) ArchivedDeficiencies() *DeficiencyStore {
	return &DeficiencyStore{db: db, collection: ArchivedDeficienciesCollection}
}

func defaultBackoff() retry.Backoff {
	return retry.WithMaxRetries(3, retry.NewExponential(100*time.Millisecond))
}

// do runs fn, retrying transient Firestore errors.
func (db *DB) do(ctx context.Context, op string, fn func(context.Context) error) error {
	return retry.Do(ctx, db.Backoff(), func(ctx context.Context) error {
		err := fn(ctx)
		if isTransient(err) {
			db.logger.Warn("retrying firestore operation",
				slog.String("op", op),
				slog.String("error", err.Error()))
			return retry.RetryableError(err)
		}
		return err
	})
}

// isTransient reports whether err is worth retrying.
func isTransient(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.Aborted, codes.ResourceExhausted, codes.DeadlineExceeded:
		return true
	}
	return false
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
