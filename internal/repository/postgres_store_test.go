package repository

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/pesio-ai/be-md-governance/internal/pkg/database"
	"github.com/pesio-ai/be-md-governance/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real database when MDG_TEST_POSTGRES_DSN is set.
func newTestPostgresStore(t *testing.T) *PostgresRequestStore {
	t.Helper()
	dsn := os.Getenv("MDG_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MDG_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, database.Config{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	store := NewPostgresRequestStore(db)
	require.NoError(t, store.EnsureSchema(ctx))
	return store
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	store := newTestPostgresStore(t)
	ctx := context.Background()

	req := sampleRequest(uuid.NewString())
	require.NoError(t, store.Save(ctx, req))
	assert.EqualValues(t, 1, req.Version)

	got, err := store.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.Title, got.Title)
	assert.Equal(t, "Pune Hub", got.AfterData["name"])

	stale := got.Clone()
	got.Status = StatusPendingApproval
	require.NoError(t, store.Save(ctx, got))

	stale.Status = StatusCancelled
	assert.True(t, errors.IsConflict(store.Save(ctx, stale)))

	pending, err := store.ListByStatus(ctx, StatusPendingApproval)
	require.NoError(t, err)
	found := false
	for _, p := range pending {
		found = found || p.ID == req.ID
	}
	assert.True(t, found)

	_, err = store.Get(ctx, uuid.NewString())
	assert.True(t, errors.IsNotFound(err))
}
