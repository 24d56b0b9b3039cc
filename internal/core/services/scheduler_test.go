package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7and1/difyrun/internal/core/domain"
	"github.com/7and1/difyrun/internal/core/ports/driving"
)

// countingSyncer records SyncAll invocations.
type countingSyncer struct {
	calls atomic.Int32
}

func (c *countingSyncer) SyncAll(context.Context) (*domain.SyncResult, error) {
	c.calls.Add(1)
	return &domain.SyncResult{Success: true}, nil
}

func (c *countingSyncer) SyncOne(context.Context, string) (*domain.SyncResult, error) {
	return &domain.SyncResult{Success: true}, nil
}

func (c *countingSyncer) Status(_ context.Context, sourceID string) (*driving.SyncStatus, error) {
	return &driving.SyncStatus{SourceID: sourceID}, nil
}

func TestScheduler_SyncsImmediatelyOnStart(t *testing.T) {
	syncer := &countingSyncer{}
	sched := NewScheduler(syncer, time.Hour)

	done := make(chan error, 1)
	go func() { done <- sched.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		return syncer.calls.Load() >= 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, sched.Stop())
	assert.NoError(t, <-done)
}

func TestScheduler_KickTriggersSync(t *testing.T) {
	syncer := &countingSyncer{}
	sched := NewScheduler(syncer, time.Hour)

	done := make(chan error, 1)
	go func() { done <- sched.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		return syncer.calls.Load() == 1
	}, time.Second, 10*time.Millisecond)

	sched.Kick()
	require.Eventually(t, func() bool {
		return syncer.calls.Load() == 2
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, sched.Stop())
	<-done
}

func TestScheduler_TickerFires(t *testing.T) {
	syncer := &countingSyncer{}
	sched := NewScheduler(syncer, 20*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- sched.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		return syncer.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, sched.Stop())
	<-done
}

func TestScheduler_ContextCancellation(t *testing.T) {
	syncer := &countingSyncer{}
	sched := NewScheduler(syncer, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()

	require.Eventually(t, func() bool {
		return syncer.calls.Load() >= 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestScheduler_StopIdempotent(t *testing.T) {
	sched := NewScheduler(&countingSyncer{}, time.Hour)
	assert.NoError(t, sched.Stop())
	assert.NoError(t, sched.Stop())
}

func TestScheduler_DefaultInterval(t *testing.T) {
	sched := NewScheduler(&countingSyncer{}, 0)
	assert.Equal(t, DefaultSyncInterval, sched.interval)
}
