package worker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven/mocks"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/services"
)

// pacedQueue slows the shared mock down so idle loops do not spin, and lets
// a test inject dequeue or ping failures.
type pacedQueue struct {
	*mocks.MockTaskQueue
	delay     time.Duration
	dequeueFn func() (*domain.Task, error)
	pingErr   error
}

func newPacedQueue() *pacedQueue {
	return &pacedQueue{MockTaskQueue: mocks.NewMockTaskQueue(), delay: 5 * time.Millisecond}
}

func (q *pacedQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(q.delay):
	}
	if q.dequeueFn != nil {
		return q.dequeueFn()
	}
	return q.MockTaskQueue.DequeueWithTimeout(ctx, timeout)
}

func (q *pacedQueue) Ping(ctx context.Context) error { return q.pingErr }

type fakeScanner struct {
	mu    sync.Mutex
	scans int
	err   error
	files []domain.FileOutcome
}

func (s *fakeScanner) ScanAndIngestPending(ctx context.Context) (*domain.ScanReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scans++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ScanReport{StartedAt: time.Now(), Files: s.files}, nil
}

// fakeReplies fails every reply addressed to failFor
type fakeReplies struct {
	mu      sync.Mutex
	sent    map[string]int
	failFor string
}

func (r *fakeReplies) ProcessTask(ctx context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent == nil {
		r.sent = map[string]int{}
	}
	r.sent[task.Recipient()]++
	if task.Recipient() == r.failFor {
		return errors.New("recipient blocked the bot")
	}
	return nil
}

var (
	_ services.Scanner = (*fakeScanner)(nil)
	_ TaskProcessor    = (*fakeReplies)(nil)
)

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 3*time.Second, 5*time.Millisecond)
}

func TestNewWorker_Defaults(t *testing.T) {
	w := NewWorker(WorkerConfig{TaskQueue: newPacedQueue()})

	assert.Equal(t, 1, w.concurrency)
	assert.Equal(t, 5, w.dequeueTimeout)
	assert.NotNil(t, w.logger)
	assert.Contains(t, w.handlers, domain.TaskTypeChannelReply)
	assert.Contains(t, w.handlers, domain.TaskTypeIngestScan)

	w = NewWorker(WorkerConfig{TaskQueue: newPacedQueue(), Concurrency: 4, DequeueTimeout: 2})
	assert.Equal(t, 4, w.concurrency)
	assert.Equal(t, 2, w.dequeueTimeout)
}

func TestWorker_Run(t *testing.T) {
	ctx := context.Background()
	reply := func(recipient string) *domain.Task {
		return domain.NewChannelReplyTask(domain.ChannelTelegram, recipient, "hello")
	}

	tests := []struct {
		name    string
		cfg     WorkerConfig
		task    *domain.Task
		wantErr error // nil means success; errAny means any error
	}{
		{"reply sent", WorkerConfig{Replies: &fakeReplies{}}, reply("42"), nil},
		{"reply fails", WorkerConfig{Replies: &fakeReplies{failFor: "42"}}, reply("42"), errAny},
		{"reply without recipient", WorkerConfig{Replies: &fakeReplies{}},
			&domain.Task{ID: "t1", Type: domain.TaskTypeChannelReply}, domain.ErrInvalidInput},
		{"no reply processor", WorkerConfig{}, reply("42"), domain.ErrServiceUnavailable},
		{"scan", WorkerConfig{Scanner: &fakeScanner{}}, domain.NewIngestScanTask(), nil},
		{"scan with failed files", WorkerConfig{Scanner: &fakeScanner{files: []domain.FileOutcome{
			{Name: "a.txt", State: domain.FileIngested},
			{Name: "b.pdf", State: domain.FileFailed, Error: "unreadable"},
		}}}, domain.NewIngestScanTask(), nil},
		{"scan held by another instance", WorkerConfig{Scanner: &fakeScanner{err: domain.ErrLockNotAcquired}},
			domain.NewIngestScanTask(), nil},
		{"scan fails", WorkerConfig{Scanner: &fakeScanner{err: errors.New("permission denied")}},
			domain.NewIngestScanTask(), errAny},
		{"no scanner", WorkerConfig{}, domain.NewIngestScanTask(), domain.ErrServiceUnavailable},
		{"unknown type", WorkerConfig{}, &domain.Task{ID: "t2", Type: "reindex"}, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.TaskQueue = newPacedQueue()
			err := NewWorker(tt.cfg).run(ctx, tt.task, slog.Default())

			switch tt.wantErr {
			case nil:
				assert.NoError(t, err)
			case errAny:
				assert.Error(t, err)
			default:
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

var errAny = errors.New("any error")

func TestWorker_StartStop(t *testing.T) {
	w := NewWorker(WorkerConfig{TaskQueue: newPacedQueue(), Concurrency: 2})
	ctx := context.Background()

	assert.False(t, w.Health(ctx).Running)
	assert.Error(t, w.Ping(ctx))

	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Start(ctx), "second start is a no-op")
	assert.True(t, w.Health(ctx).Running)
	assert.NoError(t, w.Ping(ctx))

	w.Stop()
	assert.False(t, w.Health(ctx).Running)
	w.Stop()

	// A stopped worker can be started again
	require.NoError(t, w.Start(ctx))
	assert.True(t, w.Health(ctx).Running)
	w.Stop()
}

func TestWorker_ParentCancelEndsLoops(t *testing.T) {
	w := NewWorker(WorkerConfig{TaskQueue: newPacedQueue(), Concurrency: 3})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loops kept running after the parent context ended")
	}
	assert.False(t, w.Health(context.Background()).Running)
	w.Stop()
}

func TestWorker_WaitWithoutStart(t *testing.T) {
	w := NewWorker(WorkerConfig{TaskQueue: newPacedQueue()})
	w.Wait()
}

func TestWorker_SettlesQueuedTasks(t *testing.T) {
	queue := newPacedQueue()
	replies := &fakeReplies{failFor: "blocked"}
	scanner := &fakeScanner{}

	ctx := context.Background()
	ok := domain.NewChannelReplyTask(domain.ChannelWhatsApp, "15550001", "hi")
	blocked := domain.NewChannelReplyTask(domain.ChannelWhatsApp, "blocked", "hi")
	scan := domain.NewIngestScanTask()
	for _, task := range []*domain.Task{ok, blocked, scan} {
		require.NoError(t, queue.Enqueue(ctx, task))
	}

	w := NewWorker(WorkerConfig{TaskQueue: queue, Replies: replies, Scanner: scanner, Concurrency: 2})
	require.NoError(t, w.Start(ctx))
	eventually(t, func() bool {
		stats, err := queue.Stats(ctx)
		return err == nil && stats.CompletedCount == 2 && stats.FailedCount == 1
	})
	w.Stop()

	assert.Equal(t, domain.TaskStatusCompleted, ok.Status)
	assert.Equal(t, domain.TaskStatusCompleted, scan.Status)
	assert.Equal(t, domain.TaskStatusFailed, blocked.Status)
	assert.Equal(t, blocked.MaxAttempts, blocked.Attempts, "a failing reply is retried until it runs out of attempts")
	assert.Equal(t, blocked.MaxAttempts, replies.sent["blocked"])
	assert.Equal(t, 1, scanner.scans)
}

func TestWorker_DequeueErrorBacksOff(t *testing.T) {
	queue := newPacedQueue()
	var mu sync.Mutex
	calls := 0
	queue.dequeueFn = func() (*domain.Task, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return nil, errors.New("queue offline")
		}
		return nil, nil
	}

	w := NewWorker(WorkerConfig{TaskQueue: queue})
	require.NoError(t, w.Start(context.Background()))
	eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 2
	})
	w.Stop()
}

func TestWorker_StopInterruptsBackoff(t *testing.T) {
	queue := newPacedQueue()
	queue.dequeueFn = func() (*domain.Task, error) { return nil, errors.New("queue offline") }

	w := NewWorker(WorkerConfig{TaskQueue: queue})
	require.NoError(t, w.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	w.Stop()
	assert.Less(t, time.Since(start), dequeueBackoff)
}

func TestWorker_SettleFailuresAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	w := NewWorker(WorkerConfig{TaskQueue: newPacedQueue(), Logger: logger})

	// Neither task was enqueued, so the queue rejects both calls
	ctx := context.Background()
	w.settle(ctx, domain.NewIngestScanTask(), nil, logger)
	w.settle(ctx, domain.NewIngestScanTask(), errors.New("boom"), logger)

	assert.Contains(t, buf.String(), "failed to ack task")
	assert.Contains(t, buf.String(), "failed to nack task")
}

func TestWorker_StartsScheduler(t *testing.T) {
	scanner := &fakeScanner{}
	scheduler := services.NewScheduler(services.SchedulerConfig{
		Scanner:  scanner,
		Interval: time.Hour,
	})
	w := NewWorker(WorkerConfig{TaskQueue: newPacedQueue(), Scanner: scanner, Scheduler: scheduler})

	require.NoError(t, w.Start(context.Background()))
	// The scheduler scans once on start
	eventually(t, func() bool { return scheduler.LastReport() != nil })
	w.Stop()
}

func TestWorker_Health_QueueDown(t *testing.T) {
	queue := newPacedQueue()
	queue.pingErr = errors.New("connection refused")
	w := NewWorker(WorkerConfig{TaskQueue: queue})

	health := w.Health(context.Background())
	assert.False(t, health.QueueHealth)
	assert.Equal(t, "connection refused", health.Error)
	assert.False(t, health.Watching)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()
	err := w.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
