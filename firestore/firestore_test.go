package firestore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/dukerupert/propinspect"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func testDB() *DB {
	return &DB{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Backoff: func() retry.Backoff {
			return retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond))
		},
	}
}

func TestDB_DoRetriesTransientErrors(t *testing.T) {
	db := testDB()

	calls := 0
	err := db.do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return status.Error(codes.Unavailable, "try again")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDB_DoGivesUp(t *testing.T) {
	db := testDB()

	calls := 0
	err := db.do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return status.Error(codes.Aborted, "contention")
	})
	require.Error(t, err)
	assert.Equal(t, codes.Aborted, status.Code(err))
	assert.Equal(t, 3, calls)
}

func TestDB_DoDoesNotRetryPermanentErrors(t *testing.T) {
	db := testDB()

	calls := 0
	err := db.do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return status.Error(codes.NotFound, "missing")
	})
	assert.True(t, isNotFound(err))
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(status.Error(codes.ResourceExhausted, "quota")))
	assert.True(t, isTransient(status.Error(codes.DeadlineExceeded, "slow")))
	assert.False(t, isTransient(status.Error(codes.PermissionDenied, "no")))
	assert.False(t, isTransient(errors.New("plain")))
	assert.False(t, isTransient(nil))
}

func TestUpdates(t *testing.T) {
	state := propinspect.DeficiencyStatePending
	notes := "cracked"
	score := 0.0
	remove := propinspect.Remove[propinspect.PhotoData]()

	got := updates(propinspect.DeficiencyUpdate{
		State:              &state,
		ItemInspectorNotes: &notes,
		ItemPhotosData:     &remove,
		ItemScore:          &score,
	})

	require.Len(t, got, 4)
	assert.Equal(t, firestore.Update{Path: "state", Value: "pending"}, got[0])
	assert.Equal(t, firestore.Update{Path: "itemInspectorNotes", Value: "cracked"}, got[1])
	assert.Equal(t, "itemPhotosData", got[2].Path)
	assert.Equal(t, firestore.Delete, got[2].Value)
	assert.Equal(t, firestore.Update{Path: "itemScore", Value: 0.0}, got[3])

	photos := propinspect.Upsert(propinspect.PhotoData{"p1": {DownloadURL: "u"}})
	got = updates(propinspect.DeficiencyUpdate{ItemPhotosData: &photos})
	require.Len(t, got, 1)
	assert.Equal(t, propinspect.PhotoData{"p1": {DownloadURL: "u"}}, got[0].Value)

	assert.Empty(t, updates(propinspect.DeficiencyUpdate{}))
}

func TestUpdates_ClearedAdminEdits(t *testing.T) {
	var cleared propinspect.AdminEditLog
	got := updates(propinspect.DeficiencyUpdate{ItemAdminEdits: &cleared})
	require.Len(t, got, 1)
	assert.Equal(t, "itemAdminEdits", got[0].Path)
	assert.Equal(t, firestore.Delete, got[0].Value)

	edits := propinspect.AdminEditLog{"e1": {EditDate: 10, Action: "selected"}}
	got = updates(propinspect.DeficiencyUpdate{ItemAdminEdits: &edits})
	require.Len(t, got, 1)
	assert.Equal(t, edits, got[0].Value)
}
