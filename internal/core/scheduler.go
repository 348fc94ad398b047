package core

// scheduler.go runs the Ingester on a fixed interval.
//
// At most one run is active at a time. A tick that fires while a run is in
// progress is logged and dropped, never queued. Runs are detached from the
// caller's cancellation so a file is never abandoned halfway; on shutdown
// Serve waits for the active run to finish.

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/estates/internal/metrics"
)

// IngestRunner is satisfied by *Ingester.
type IngestRunner interface {
	Run(ctx context.Context) (RunSummary, error)
}

// Scheduler triggers ingestion runs. It implements suture.Service.
type Scheduler struct {
	runner     IngestRunner
	interval   time.Duration
	runOnStart bool
	logger     *slog.Logger

	// mu guards running and stopping and orders wg.Add before wg.Wait.
	mu       sync.Mutex
	running  bool
	stopping bool
	wg       sync.WaitGroup
}

// NewScheduler creates a Scheduler. interval must be positive.
func NewScheduler(runner IngestRunner, interval time.Duration, runOnStart bool, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		runner:     runner,
		interval:   interval,
		runOnStart: runOnStart,
		logger:     logger.With("component", "ingest-scheduler"),
	}
}

// Serve ticks until ctx is cancelled, then waits for the active run.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.mu.Lock()
	s.stopping = false
	s.mu.Unlock()
	s.logger.Info("ingest scheduler started", "interval", s.interval.String())

	if s.runOnStart {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.stopping = true
			s.mu.Unlock()
			s.wg.Wait()
			s.logger.Info("ingest scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// String names the service in supervisor logs.
func (s *Scheduler) String() string {
	return "ingest-scheduler"
}

// Running reports whether a run is in progress.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// TriggerNow runs a pass synchronously. It returns ErrIngestBusy when a run
// is already active and ErrSchedulerStopped once shutdown has begun.
func (s *Scheduler) TriggerNow(ctx context.Context) (RunSummary, error) {
	if err := s.acquire(); err != nil {
		return RunSummary{}, err
	}
	defer s.release()

	return s.runner.Run(context.WithoutCancel(ctx))
}

// Wait blocks until the active run, if any, has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) tick(ctx context.Context) {
	if err := s.acquire(); err != nil {
		s.logger.Warn("ingestion run skipped", "reason", err)
		metrics.RecordIngestSkipped()
		return
	}

	go func() {
		defer s.release()
		if _, err := s.runner.Run(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("scheduled ingestion failed", "error", err)
		}
	}()
}

func (s *Scheduler) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.stopping:
		return ErrSchedulerStopped
	case s.running:
		return ErrIngestBusy
	}
	s.running = true
	s.wg.Add(1)
	metrics.SetIngestActive(true)
	return nil
}

func (s *Scheduler) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	metrics.SetIngestActive(false)
	s.wg.Done()
}
