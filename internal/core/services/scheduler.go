package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

// Scanner drains the watched directory.
type Scanner interface {
	ScanAndIngestPending(ctx context.Context) (*domain.ScanReport, error)
}

// Scheduler triggers a directory scan on a fixed interval, once immediately
// on start and then every tick.
//
// With a TaskQueue each tick enqueues an ingest_scan task. The queues keep
// at most one scan pending, so a stalled worker pool does not pile them up.
// Without a queue the scan runs in the scheduler's own goroutine. Wrap the
// scanner in an ExclusiveScanner to keep instances from scanning together.
type Scheduler struct {
	scanner   Scanner
	taskQueue driven.TaskQueue
	logger    *slog.Logger
	interval  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	ticks  int
	last   *domain.ScanReport
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	Scanner   Scanner
	TaskQueue driven.TaskQueue // Optional: hand scans to workers
	Logger    *slog.Logger
	Interval  time.Duration // How often to scan (default: 10s)
}

// NewScheduler creates a new scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	s := &Scheduler{
		scanner:   cfg.Scanner,
		taskQueue: cfg.TaskQueue,
		logger:    cfg.Logger,
		interval:  cfg.Interval,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.interval <= 0 {
		s.interval = 10 * time.Second
	}
	return s
}

// Start launches the tick loop. It runs until Stop is called or ctx is
// cancelled. Starting twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.logger.Info("scheduler starting", "interval", s.interval, "queued", s.taskQueue != nil)

	go s.run(ctx, s.done)
	return nil
}

// Stop ends the loop and waits for an in-process scan to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-done
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// tick enqueues or runs one scan.
func (s *Scheduler) tick(ctx context.Context) {
	s.mu.Lock()
	s.ticks++
	s.mu.Unlock()

	if s.taskQueue != nil {
		if _, err := s.enqueue(ctx); err != nil {
			s.logger.Error("failed to enqueue scan", "error", err)
		}
		return
	}

	_, err := s.scan(ctx)
	switch {
	case errors.Is(err, domain.ErrLockNotAcquired):
		s.logger.Debug("scan running elsewhere, skipping tick")
	case err != nil && ctx.Err() == nil:
		s.logger.Error("scan failed", "error", err)
	}
}

func (s *Scheduler) enqueue(ctx context.Context) (*domain.Task, error) {
	task := domain.NewIngestScanTask()
	if err := s.taskQueue.Enqueue(ctx, task); err != nil {
		return nil, err
	}
	s.logger.Debug("enqueued scan", "task_id", task.ID)
	return task, nil
}

func (s *Scheduler) scan(ctx context.Context) (*domain.ScanReport, error) {
	report, err := s.scanner.ScanAndIngestPending(ctx)
	if report != nil {
		s.mu.Lock()
		s.last = report
		s.mu.Unlock()
	}
	return report, err
}

// TriggerNow scans immediately, ignoring the interval. With a task queue the
// scan is enqueued and the returned report is nil.
func (s *Scheduler) TriggerNow(ctx context.Context) (*domain.ScanReport, error) {
	if s.taskQueue == nil {
		return s.scan(ctx)
	}
	task, err := s.enqueue(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("manually triggered scan", "task_id", task.ID)
	return nil, nil
}

// LastReport returns the most recent in-process scan report, if any.
func (s *Scheduler) LastReport() *domain.ScanReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Ticks returns how many ticks have fired since creation.
func (s *Scheduler) Ticks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}
