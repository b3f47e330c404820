package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

// ScanLockName is the distributed lock guarding directory scans.
const ScanLockName = "ingestion-scan"

// ExclusiveScanner lets one instance at a time scan the documents directory.
// The lock is renewed at half its TTL for as long as the scan runs, so a slow
// scan does not lose it to another instance.
type ExclusiveScanner struct {
	scanner  Scanner
	lock     driven.DistributedLock
	ttl      time.Duration
	required bool
	logger   *slog.Logger
}

// ExclusiveScannerConfig configures NewExclusiveScanner
type ExclusiveScannerConfig struct {
	Scanner Scanner
	Lock    driven.DistributedLock
	TTL     time.Duration // default 5m
	// LockRequired fails the scan when the lock backend errors. Without it
	// the scan runs unguarded.
	LockRequired bool
	Logger       *slog.Logger
}

// NewExclusiveScanner wraps cfg.Scanner with cfg.Lock
func NewExclusiveScanner(cfg ExclusiveScannerConfig) *ExclusiveScanner {
	e := &ExclusiveScanner{
		scanner:  cfg.Scanner,
		lock:     cfg.Lock,
		ttl:      cfg.TTL,
		required: cfg.LockRequired,
		logger:   cfg.Logger,
	}
	if e.ttl <= 0 {
		e.ttl = 5 * time.Minute
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// ScanAndIngestPending scans under the lock. It returns
// domain.ErrLockNotAcquired when another instance is scanning.
func (e *ExclusiveScanner) ScanAndIngestPending(ctx context.Context) (*domain.ScanReport, error) {
	acquired, err := e.lock.Acquire(ctx, ScanLockName, e.ttl)
	switch {
	case err != nil && e.required:
		return nil, fmt.Errorf("acquire scan lock: %w", err)
	case err != nil:
		e.logger.Warn("scan lock backend failed, scanning unguarded", "error", err)
		return e.scanner.ScanAndIngestPending(ctx)
	case !acquired:
		return nil, domain.ErrLockNotAcquired
	}

	defer func() {
		if err := e.lock.Release(context.WithoutCancel(ctx), ScanLockName); err != nil {
			e.logger.Warn("failed to release scan lock", "error", err)
		}
	}()
	stop := e.keepAlive(ctx)
	defer stop()

	return e.scanner.ScanAndIngestPending(ctx)
}

// keepAlive extends the lock until the returned func is called
func (e *ExclusiveScanner) keepAlive(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(e.ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := e.lock.Extend(ctx, ScanLockName, e.ttl); err != nil {
					e.logger.Warn("failed to extend scan lock", "error", err)
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
