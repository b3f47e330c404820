package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven/mocks"
)

func TestExclusiveScanner_HoldsLockForTheScan(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	scanner := &countingScanner{}
	e := NewExclusiveScanner(ExclusiveScannerConfig{Scanner: scanner, Lock: lock})

	report, err := e.ScanAndIngestPending(context.Background())
	if err != nil || report == nil {
		t.Fatalf("scan = %v, %v", report, err)
	}
	if scanner.count() != 1 || lock.Acquires(ScanLockName) != 1 {
		t.Errorf("scans=%d acquires=%d", scanner.count(), lock.Acquires(ScanLockName))
	}
	if lock.IsHeld(ScanLockName) {
		t.Error("lock should be released after the scan")
	}
}

func TestExclusiveScanner_SkipsWhenHeldElsewhere(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	lock.HoldElsewhere(ScanLockName, time.Minute)
	scanner := &countingScanner{}
	e := NewExclusiveScanner(ExclusiveScannerConfig{Scanner: scanner, Lock: lock})

	_, err := e.ScanAndIngestPending(context.Background())
	if !errors.Is(err, domain.ErrLockNotAcquired) {
		t.Errorf("err = %v, want ErrLockNotAcquired", err)
	}
	if scanner.count() != 0 {
		t.Error("scanned without the lock")
	}
}

func TestExclusiveScanner_LockBackendFailure(t *testing.T) {
	backendDown := func(string, time.Duration) (bool, error) { return false, errors.New("redis down") }

	t.Run("required", func(t *testing.T) {
		lock := mocks.NewMockDistributedLock()
		lock.AcquireFn = backendDown
		scanner := &countingScanner{}
		e := NewExclusiveScanner(ExclusiveScannerConfig{Scanner: scanner, Lock: lock, LockRequired: true})

		if _, err := e.ScanAndIngestPending(context.Background()); err == nil {
			t.Error("expected the lock error")
		}
		if scanner.count() != 0 {
			t.Error("scanned without the lock")
		}
	})

	t.Run("optional", func(t *testing.T) {
		lock := mocks.NewMockDistributedLock()
		lock.AcquireFn = backendDown
		scanner := &countingScanner{}
		e := NewExclusiveScanner(ExclusiveScannerConfig{Scanner: scanner, Lock: lock})

		if _, err := e.ScanAndIngestPending(context.Background()); err != nil {
			t.Errorf("unexpected error %v", err)
		}
		if scanner.count() != 1 {
			t.Error("expected an unguarded scan")
		}
	})
}

func TestExclusiveScanner_RenewsDuringLongScan(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	scanner := &countingScanner{block: make(chan struct{})}
	e := NewExclusiveScanner(ExclusiveScannerConfig{Scanner: scanner, Lock: lock, TTL: 40 * time.Millisecond})

	done := make(chan error, 1)
	go func() {
		_, err := e.ScanAndIngestPending(context.Background())
		done <- err
	}()

	// Outlive several TTLs; renewal must keep the lock ours
	waitFor(t, func() bool { return lock.Extends(ScanLockName) >= 3 })
	if !lock.IsHeld(ScanLockName) {
		t.Error("lock expired while the scan was running")
	}
	if ok, _ := lock.Acquire(context.Background(), ScanLockName, time.Minute); ok {
		t.Error("another owner took the lock mid-scan")
	}

	close(scanner.block)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	extends := lock.Extends(ScanLockName)
	time.Sleep(60 * time.Millisecond)
	if lock.Extends(ScanLockName) != extends {
		t.Error("renewal continued after the scan ended")
	}
}
