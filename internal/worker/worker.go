package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/services"
)

// TaskProcessor handles one task type on behalf of the worker
type TaskProcessor interface {
	ProcessTask(ctx context.Context, task *domain.Task) error
}

// handlerFunc runs one task. A nil error acks it, anything else nacks it.
type handlerFunc func(ctx context.Context, task *domain.Task, logger *slog.Logger) error

// dequeueBackoff is how long a loop waits after the queue itself errors
const dequeueBackoff = time.Second

// Worker drains the task queue with a fixed number of goroutines. It also
// owns the lifetime of the scan scheduler and the directory watcher.
type Worker struct {
	taskQueue driven.TaskQueue
	handlers  map[domain.TaskType]handlerFunc
	scheduler *services.Scheduler
	watcher   *Watcher
	logger    *slog.Logger

	concurrency    int
	dequeueTimeout int // seconds

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	TaskQueue      driven.TaskQueue
	Scanner        services.Scanner    // Runs ingest_scan tasks
	Replies        TaskProcessor       // Runs channel_reply tasks
	Scheduler      *services.Scheduler // Optional: started and stopped with the worker
	Watcher        *Watcher            // Optional: started and stopped with the worker
	Logger         *slog.Logger
	Concurrency    int // Number of concurrent task processors
	DequeueTimeout int // Seconds to wait for a task before checking again
}

// NewWorker creates a new task worker. A task whose handler dependency is
// missing is nacked with ErrServiceUnavailable.
func NewWorker(cfg WorkerConfig) *Worker {
	w := &Worker{
		taskQueue:      cfg.TaskQueue,
		scheduler:      cfg.Scheduler,
		watcher:        cfg.Watcher,
		logger:         cfg.Logger,
		concurrency:    max(cfg.Concurrency, 1),
		dequeueTimeout: cfg.DequeueTimeout,
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.dequeueTimeout <= 0 {
		w.dequeueTimeout = 5
	}

	w.handlers = map[domain.TaskType]handlerFunc{
		domain.TaskTypeChannelReply: replyHandler(cfg.Replies),
		domain.TaskTypeIngestScan:   scanHandler(cfg.Scanner),
	}
	return w
}

// Start launches the scheduler, the watcher and the dequeue loops. The loops
// run until Stop is called or ctx is cancelled. Starting twice is a no-op.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	if w.scheduler != nil {
		if err := w.scheduler.Start(runCtx); err != nil {
			w.logger.Error("failed to start scheduler", "error", err)
		}
	}
	if w.watcher != nil {
		if err := w.watcher.Start(runCtx); err != nil {
			// Polling still picks files up, only latency suffers
			w.logger.Warn("failed to start directory watcher", "error", err)
		}
	}

	var wg sync.WaitGroup
	wg.Add(w.concurrency)
	for id := range w.concurrency {
		go func() {
			defer wg.Done()
			w.loop(runCtx, w.logger.With("worker_id", id))
		}()
	}
	go func(done chan struct{}) {
		wg.Wait()
		close(done)
	}(w.done)

	return nil
}

// Stop cancels the loops and waits for in-flight tasks to settle.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()
	if cancel == nil {
		return
	}

	if w.watcher != nil {
		w.watcher.Stop()
	}
	if w.scheduler != nil {
		w.scheduler.Stop()
	}
	cancel()
	<-done

	w.mu.Lock()
	w.cancel = nil
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until every loop has exited. It returns at once if the worker
// was never started.
func (w *Worker) Wait() {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (w *Worker) running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel == nil {
		return false
	}
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// loop dequeues and settles tasks until ctx is done.
func (w *Worker) loop(ctx context.Context, logger *slog.Logger) {
	for ctx.Err() == nil {
		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		switch {
		case task != nil:
			// Settle even when shutdown began mid-task
			w.settle(context.WithoutCancel(ctx), task, w.run(ctx, task, logger), logger)
		case ctx.Err() != nil:
			return
		case err != nil:
			logger.Error("failed to dequeue task", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(dequeueBackoff):
			}
		}
	}
}

// run dispatches task to its handler and logs the outcome.
func (w *Worker) run(ctx context.Context, task *domain.Task, logger *slog.Logger) error {
	logger = logger.With("task_id", task.ID, "task_type", task.Type, "attempt", task.Attempts)

	handle, ok := w.handlers[task.Type]
	if !ok {
		err := fmt.Errorf("%w: unknown task type %q", domain.ErrInvalidInput, task.Type)
		logger.Error("task rejected", "error", err)
		return err
	}

	start := time.Now()
	err := handle(ctx, task, logger)
	if err != nil {
		logger.Error("task failed", "duration", time.Since(start), "error", err)
		return err
	}
	logger.Info("task completed", "duration", time.Since(start))
	return nil
}

// settle acks a successful task and nacks a failed one. Queue errors are
// logged only: an unsettled task is redelivered by the queue.
func (w *Worker) settle(ctx context.Context, task *domain.Task, result error, logger *slog.Logger) {
	if result == nil {
		if err := w.taskQueue.Ack(ctx, task.ID); err != nil {
			logger.Error("failed to ack task", "task_id", task.ID, "error", err)
		}
		return
	}
	if err := w.taskQueue.Nack(ctx, task.ID, result.Error()); err != nil {
		logger.Error("failed to nack task", "task_id", task.ID, "error", err)
	}
}

func replyHandler(replies TaskProcessor) handlerFunc {
	return func(ctx context.Context, task *domain.Task, _ *slog.Logger) error {
		if replies == nil {
			return fmt.Errorf("%w: no reply processor configured", domain.ErrServiceUnavailable)
		}
		if task.Recipient() == "" {
			return fmt.Errorf("%w: reply task has no recipient", domain.ErrInvalidInput)
		}
		return replies.ProcessTask(ctx, task)
	}
}

// scanHandler drains the documents directory. Files that fail stay pending
// for the next scan, so only a failure of the scan itself fails the task.
func scanHandler(scanner services.Scanner) handlerFunc {
	return func(ctx context.Context, _ *domain.Task, logger *slog.Logger) error {
		if scanner == nil {
			return fmt.Errorf("%w: no scanner configured", domain.ErrServiceUnavailable)
		}

		report, err := scanner.ScanAndIngestPending(ctx)
		if errors.Is(err, domain.ErrLockNotAcquired) {
			logger.Info("scan already running elsewhere, skipping")
			return nil
		}
		if err != nil {
			return err
		}

		if failed := report.Count(domain.FileFailed); failed > 0 {
			logger.Warn("some files failed to ingest",
				"total", len(report.Files),
				"ingested", report.Ingested(),
				"failed", failed,
			)
		}
		return nil
	}
}

// Health is the worker's view of itself and its queue.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Watching    bool   `json:"watching"`
	Error       string `json:"error,omitempty"`
}

// Health reports whether the loops are running and the queue answers.
func (w *Worker) Health(ctx context.Context) Health {
	health := Health{
		Running:     w.running(),
		QueueHealth: true,
		Watching:    w.watcher != nil && w.watcher.Running(),
	}
	if err := w.taskQueue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	}
	return health
}

// Ping fails when the worker is stopped or its queue is unreachable, so the
// worker can sit among the HTTP readiness checks.
func (w *Worker) Ping(ctx context.Context) error {
	h := w.Health(ctx)
	switch {
	case !h.Running:
		return errors.New("worker not running")
	case !h.QueueHealth:
		return fmt.Errorf("task queue: %s", h.Error)
	}
	return nil
}
