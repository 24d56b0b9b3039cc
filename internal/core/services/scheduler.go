package services

import (
	"context"
	"sync"
	"time"

	"github.com/7and1/difyrun/internal/core/ports/driving"
	"github.com/7and1/difyrun/internal/logger"
)

// DefaultSyncInterval is how often watch mode re-syncs all sources.
const DefaultSyncInterval = 6 * time.Hour

// Scheduler runs periodic catalog syncs for watch mode.
// It is a pure core service with no external control API.
type Scheduler struct {
	syncer   driving.CatalogSyncer
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	kickCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. A non-positive interval falls back
// to DefaultSyncInterval.
func NewScheduler(syncer driving.CatalogSyncer, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		kickCh:   make(chan struct{}, 1),
	}
}

// Start begins the scheduler loop. It syncs once immediately, then on
// every interval tick. This method blocks until Stop is called or the
// context ends.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.runSync(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.runSync(ctx)
		case <-s.kickCh:
			s.runSync(ctx)
		}
	}
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for an in-flight sync to complete
	s.wg.Wait()
	return nil
}

// Kick requests an immediate out-of-band sync, used when the sources
// file changes on disk. Coalesces if a kick is already pending.
func (s *Scheduler) Kick() {
	select {
	case s.kickCh <- struct{}{}:
	default:
	}
}

// runSync executes one SyncAll pass.
func (s *Scheduler) runSync(ctx context.Context) {
	s.wg.Add(1)
	defer s.wg.Done()

	result, err := s.syncer.SyncAll(ctx)
	if err != nil {
		logger.Warn("scheduled sync failed: %v", err)
		return
	}
	if !result.Success {
		logger.Warn("scheduled sync finished with source-level failures")
	}
}
