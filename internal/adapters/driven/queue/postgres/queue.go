package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

// Ensure Queue implements TaskQueue
var _ driven.TaskQueue = (*Queue)(nil)

// Queue is the task queue used when Redis is not configured. Workers claim
// rows with FOR UPDATE SKIP LOCKED, so any number of processes can share it.
type Queue struct {
	db           *sql.DB
	pollInterval time.Duration
}

// NewQueue returns a queue over the tasks table created by the migrations.
func NewQueue(db *sql.DB) *Queue {
	return &Queue{db: db, pollInterval: 500 * time.Millisecond}
}

const taskColumns = `id, type, payload, status, priority,
	attempts, max_attempts, error, created_at, updated_at,
	started_at, completed_at, scheduled_for`

const insertTask = `
	INSERT INTO tasks (
		id, type, payload, status, priority,
		attempts, max_attempts, error, created_at, updated_at, scheduled_for
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// claimNext moves the best ready row to processing in one statement.
const claimNext = `
	UPDATE tasks
	SET status = $1, attempts = attempts + 1, started_at = NOW(), updated_at = NOW()
	WHERE id = (
		SELECT id FROM tasks
		WHERE status = $2 AND scheduled_for <= NOW()
		ORDER BY priority DESC, created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	)
	RETURNING ` + taskColumns

// Enqueue stores a pending task. A scan enqueued while another scan is
// still pending is dropped.
func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return fmt.Errorf("%w: nil task", domain.ErrInvalidInput)
	}
	payload := []byte("{}")
	if task.Payload != nil {
		var err error
		if payload, err = json.Marshal(task.Payload); err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
	}

	query := insertTask
	if task.Coalesces() {
		// idx_tasks_one_pending_scan turns a duplicate into a no-op
		query += ` ON CONFLICT DO NOTHING`
	}
	_, err := q.db.ExecContext(ctx, query,
		task.ID, task.Type, payload, task.Status, task.Priority,
		task.Attempts, task.MaxAttempts, task.Error,
		task.CreatedAt, task.UpdatedAt, task.ScheduledFor,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// DequeueWithTimeout claims the next ready task, polling for up to timeout
// seconds. It returns nil, nil when nothing became ready in time.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	deadline := time.Now().Add(time.Duration(timeout) * time.Second)
	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	for {
		task, err := scanTask(q.db.QueryRowContext(ctx, claimNext,
			domain.TaskStatusProcessing, domain.TaskStatusPending))
		switch {
		case err == nil:
			return task, nil
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("claim task: %w", err)
		case !time.Now().Before(deadline):
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Ack completes a task. Finished scans are deleted rather than kept: the
// scheduler adds one every interval and they carry no result.
func (q *Queue) Ack(ctx context.Context, taskID string) error {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND type = $2`, taskID, domain.TaskTypeIngestScan)
	if err != nil {
		return fmt.Errorf("delete finished scan: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	res, err = q.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = $1, completed_at = NOW(), updated_at = NOW(), error = ''
		WHERE id = $2`,
		domain.TaskStatusCompleted, taskID)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return expectOneRow(res)
}

// Nack records a failure. The task goes back to pending with a backoff
// while it may retry and is marked failed otherwise.
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	task, err := scanTask(tx.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock task: %w", err)
	}

	if task.ShouldRetry() {
		task.Retry(reason)
	} else {
		task.MarkFailed(reason)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE tasks
		SET status = $1, error = $2, updated_at = $3, scheduled_for = $4
		WHERE id = $5`,
		task.Status, task.Error, task.UpdatedAt, task.ScheduledFor, taskID); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return tx.Commit()
}

// GetTask loads one task by ID
func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := scanTask(q.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	return task, nil
}

// Stats counts tasks per status
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	var stats driven.QueueStats
	err := q.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = $1),
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3),
			COUNT(*) FILTER (WHERE status = $4)
		FROM tasks`,
		domain.TaskStatusPending, domain.TaskStatusProcessing,
		domain.TaskStatusCompleted, domain.TaskStatusFailed,
	).Scan(&stats.PendingCount, &stats.ProcessingCount, &stats.CompletedCount, &stats.FailedCount)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	return &stats, nil
}

// Ping checks database connectivity
func (q *Queue) Ping(ctx context.Context) error {
	return q.db.PingContext(ctx)
}

// Close is a no-op; the connection pool belongs to the caller.
func (q *Queue) Close() error {
	return nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var payload []byte
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.Type,
		&payload,
		&task.Status,
		&task.Priority,
		&task.Attempts,
		&task.MaxAttempts,
		&task.Error,
		&task.CreatedAt,
		&task.UpdatedAt,
		&startedAt,
		&completedAt,
		&task.ScheduledFor,
	)
	if err != nil {
		return nil, err
	}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &task.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	if startedAt.Valid {
		task.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}
	return &task, nil
}
