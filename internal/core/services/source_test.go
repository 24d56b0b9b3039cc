package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7and1/difyrun/internal/adapters/driven/storage/memory"
	"github.com/7and1/difyrun/internal/core/domain"
)

func TestSourceService_AddAndGet(t *testing.T) {
	ctx := context.Background()
	svc := NewSourceService(memory.NewSourceStore())

	src := domain.Source{ID: "hub", Owner: "acme", Repo: "flows", Active: true}
	require.NoError(t, svc.Add(ctx, src))

	got, err := svc.Get(ctx, "hub")
	require.NoError(t, err)
	assert.Equal(t, "acme/flows", got.FullName())

	assert.ErrorIs(t, svc.Add(ctx, src), domain.ErrAlreadyExists)
}

func TestSourceService_AddValidates(t *testing.T) {
	ctx := context.Background()
	svc := NewSourceService(memory.NewSourceStore())

	err := svc.Add(ctx, domain.Source{ID: "hub"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = svc.Add(ctx, domain.Source{Owner: "acme", Repo: "flows"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSourceService_UpdateMissing(t *testing.T) {
	ctx := context.Background()
	svc := NewSourceService(memory.NewSourceStore())

	err := svc.Update(ctx, domain.Source{ID: "ghost", Owner: "a", Repo: "r"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSourceService_SeedPreservesBookkeeping(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSourceStore()
	svc := NewSourceService(store)

	require.NoError(t, svc.Seed(ctx, []domain.Source{
		{ID: "hub", Owner: "acme", Repo: "flows", Active: true, Weight: 1},
	}))

	// Simulate a completed sync between reloads.
	syncedAt := time.Now()
	require.NoError(t, store.RecordSyncSuccess(ctx, "hub", 12, syncedAt))

	// Reload with changed configuration.
	require.NoError(t, svc.Seed(ctx, []domain.Source{
		{ID: "hub", Owner: "acme", Repo: "flows", Active: true, Weight: 5},
	}))

	got, err := svc.Get(ctx, "hub")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Weight, "config fields refresh")
	assert.Equal(t, 12, got.TotalWorkflows, "bookkeeping survives reload")
	require.NotNil(t, got.LastSyncedAt)
	assert.WithinDuration(t, syncedAt, *got.LastSyncedAt, time.Second)
}

func TestSourceService_SeedRejectsInvalid(t *testing.T) {
	svc := NewSourceService(memory.NewSourceStore())
	err := svc.Seed(context.Background(), []domain.Source{{ID: "bad"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSourceService_Remove(t *testing.T) {
	ctx := context.Background()
	svc := NewSourceService(memory.NewSourceStore())

	require.NoError(t, svc.Add(ctx, domain.Source{ID: "hub", Owner: "a", Repo: "r"}))
	require.NoError(t, svc.Remove(ctx, "hub"))

	_, err := svc.Get(ctx, "hub")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
