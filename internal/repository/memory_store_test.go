package repository

import (
	"context"
	"testing"
	"time"

	"github.com/pesio-ai/be-md-governance/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest(id string) *WorkflowRequest {
	return &WorkflowRequest{
		ID:          id,
		ChangeType:  ChangeLocationCreate,
		Title:       "Add Pune hub",
		RequestedBy: "asha",
		CreatedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Status:      StatusDraft,
		Priority:    PriorityMedium,
		ChangeKind:  KindCreate,
		AfterData:   map[string]any{"name": "Pune Hub"},
		ApprovalLevels: []ApprovalLevel{
			{Level: 1, RequiredRole: "Data Steward", Status: LevelPending},
		},
	}
}

func TestMemoryStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRequestStore()

	req := sampleRequest("r-1")
	require.NoError(t, store.Save(ctx, req))
	assert.EqualValues(t, 1, req.Version)

	got, err := store.Get(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, "Add Pune hub", got.Title)
	assert.EqualValues(t, 1, got.Version)

	_, err = store.Get(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestMemoryStoreReturnsClones(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRequestStore()
	require.NoError(t, store.Save(ctx, sampleRequest("r-1")))

	got, err := store.Get(ctx, "r-1")
	require.NoError(t, err)
	got.ApprovalLevels[0].Status = LevelApproved
	got.AfterData["name"] = "mutated"

	again, err := store.Get(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, LevelPending, again.ApprovalLevels[0].Status)
	assert.Equal(t, "Pune Hub", again.AfterData["name"])
}

func TestMemoryStoreRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRequestStore()
	require.NoError(t, store.Save(ctx, sampleRequest("r-1")))

	first, _ := store.Get(ctx, "r-1")
	second, _ := store.Get(ctx, "r-1")

	first.Status = StatusPendingApproval
	require.NoError(t, store.Save(ctx, first))

	second.Status = StatusCancelled
	err := store.Save(ctx, second)
	assert.True(t, errors.IsConflict(err))

	stored, _ := store.Get(ctx, "r-1")
	assert.Equal(t, StatusPendingApproval, stored.Status)
	assert.EqualValues(t, 2, stored.Version)

	assert.True(t, errors.IsConflict(store.Save(ctx, &WorkflowRequest{ID: "ghost", Version: 3})))
}

func TestMemoryStoreListOrderAndStatusFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRequestStore()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(ctx, sampleRequest(id)))
	}
	b, _ := store.Get(ctx, "b")
	b.Status = StatusPendingApproval
	require.NoError(t, store.Save(ctx, b))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

	pending, err := store.ListByStatus(ctx, StatusPendingApproval)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].ID)
}

func TestNormalizeLevels(t *testing.T) {
	req := &WorkflowRequest{ApprovalLevels: []ApprovalLevel{
		{RequiredRole: "Pricing Analyst", Status: LevelApproved},
		{RequiredRole: "Pricing Manager"},
		{RequiredRole: "Finance Director"},
	}}
	req.NormalizeLevels()

	assert.Equal(t, LevelApproved, req.ApprovalLevels[0].Status)
	assert.Equal(t, LevelPending, req.ApprovalLevels[1].Status)
	assert.Equal(t, LevelPending, req.ApprovalLevels[2].Status)
	assert.Equal(t, 3, req.ApprovalLevels[2].Level)
}
