package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

const (
	taskStream     = "chatbot:tasks"
	taskGroup      = "chatbot:workers"
	scheduledTasks = "chatbot:scheduled"
	taskCounters   = "chatbot:task-counters"
	pendingScan    = "chatbot:scan-pending" // ID of the queued scan, if any

	taskKeyPrefix  = "chatbot:task:"
	consumerPrefix = "worker-"

	// taskTTL bounds how long task records linger after their last update
	taskTTL = 24 * time.Hour

	// claimTimeout is how long a delivered task may stay unacked before
	// another consumer takes it over
	claimTimeout = 5 * time.Minute
)

// Verify interface compliance
var _ driven.TaskQueue = (*Queue)(nil)

// Queue implements TaskQueue on Redis Streams with a consumer group.
// Task records live under their own keys; the stream only carries IDs.
// Delayed retries wait in a sorted set until they are due.
type Queue struct {
	client       *redis.Client
	consumerName string
}

// NewQueue creates a new Redis-backed task queue.
// consumerName should be unique per worker process.
func NewQueue(ctx context.Context, client *redis.Client, consumerName string) (*Queue, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if consumerName == "" {
		consumerName = consumerPrefix + strconv.FormatInt(time.Now().UnixNano(), 10)
	}

	err := client.XGroupCreateMkStream(ctx, taskStream, taskGroup, "0").Err()
	if err != nil && !isGroupExistsError(err) {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &Queue{client: client, consumerName: consumerName}, nil
}

func taskKey(id string) string    { return taskKeyPrefix + id }
func messageKey(id string) string { return taskKeyPrefix + id + ":msg" }

func streamEntry(task *domain.Task) *redis.XAddArgs {
	return &redis.XAddArgs{
		Stream: taskStream,
		Values: map[string]any{
			"task_id":  task.ID,
			"type":     string(task.Type),
			"priority": task.Priority,
		},
	}
}

func schedule(task *domain.Task) redis.Z {
	return redis.Z{Score: float64(task.ScheduledFor.Unix()), Member: task.ID}
}

// Enqueue stores the task and either streams it or parks it until
// ScheduledFor.
func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return fmt.Errorf("%w: task is required", domain.ErrInvalidInput)
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if task.Coalesces() {
		queued, err := q.client.SetNX(ctx, pendingScan, task.ID, taskTTL).Result()
		if err != nil {
			return fmt.Errorf("failed to reserve scan slot: %w", err)
		}
		if !queued {
			return nil
		}
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, taskKey(task.ID), data, taskTTL)
	if task.ScheduledFor.After(time.Now()) {
		pipe.ZAdd(ctx, scheduledTasks, schedule(task))
	} else {
		pipe.XAdd(ctx, streamEntry(task))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		if task.Coalesces() {
			q.client.Del(ctx, pendingScan)
		}
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// DequeueWithTimeout returns the next task, waiting up to timeout seconds.
// It returns nil, nil when nothing arrives in time.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	// Best effort; a failed promotion is retried on the next call
	_ = q.promoteScheduledTasks(ctx)

	if task, err := q.claimAbandonedTask(ctx); err == nil && task != nil {
		return task, nil
	}

	block := time.Duration(timeout) * time.Second
	if timeout <= 0 {
		block = -1
	}

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    taskGroup,
		Consumer: q.consumerName,
		Streams:  []string{taskStream, ">"},
		Count:    1,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}

	return q.deliver(ctx, streams[0].Messages[0])
}

// deliver loads the task behind a stream message and marks it processing.
// Messages whose task record is gone are dropped.
func (q *Queue) deliver(ctx context.Context, msg redis.XMessage) (*domain.Task, error) {
	if msg.Values["type"] == string(domain.TaskTypeIngestScan) {
		// A scan that has started frees the slot for the next one
		q.client.Del(ctx, pendingScan)
	}

	taskID, ok := msg.Values["task_id"].(string)
	if !ok {
		q.drop(ctx, msg.ID)
		return nil, nil
	}

	task, err := q.GetTask(ctx, taskID)
	if errors.Is(err, domain.ErrNotFound) {
		q.drop(ctx, msg.ID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task data: %w", err)
	}

	task.MarkProcessing()
	data, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, taskKey(task.ID), data, taskTTL)
	pipe.Set(ctx, messageKey(task.ID), msg.ID, taskTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to mark task processing: %w", err)
	}
	return task, nil
}

func (q *Queue) drop(ctx context.Context, msgID string) {
	q.client.XAck(ctx, taskStream, taskGroup, msgID)
	q.client.XDel(ctx, taskStream, msgID)
}

// Ack acknowledges successful completion of a task.
func (q *Queue) Ack(ctx context.Context, taskID string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	task.MarkCompleted()
	return q.finish(ctx, task, string(domain.TaskStatusCompleted), false)
}

// Nack records a failure. The task is rescheduled with backoff while it
// has attempts left, and marked failed after that.
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	if task.ShouldRetry() {
		task.Retry(reason)
		return q.finish(ctx, task, "", true)
	}
	task.MarkFailed(reason)
	return q.finish(ctx, task, string(domain.TaskStatusFailed), false)
}

// finish acks the stream message, saves task and bumps counter when set
func (q *Queue) finish(ctx context.Context, task *domain.Task, counter string, reschedule bool) error {
	msgID, err := q.client.Get(ctx, messageKey(task.ID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to get message ID: %w", err)
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	pipe := q.client.TxPipeline()
	if msgID != "" {
		pipe.XAck(ctx, taskStream, taskGroup, msgID)
		pipe.XDel(ctx, taskStream, msgID)
	}
	pipe.Set(ctx, taskKey(task.ID), data, taskTTL)
	pipe.Del(ctx, messageKey(task.ID))
	if reschedule {
		pipe.ZAdd(ctx, scheduledTasks, schedule(task))
	}
	if counter != "" {
		pipe.HIncrBy(ctx, taskCounters, counter, 1)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to settle task %s: %w", task.ID, err)
	}
	return nil
}

// GetTask retrieves a task by ID.
func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	data, err := q.client.Get(ctx, taskKey(taskID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}

// Stats returns queue statistics. Pending covers both streamed tasks no
// consumer holds yet and delayed retries.
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	stats := &driven.QueueStats{}

	length, err := q.client.XLen(ctx, taskStream).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get stream length: %w", err)
	}

	groups, err := q.client.XInfoGroups(ctx, taskStream).Result()
	if err != nil && !isStreamNotExistsError(err) {
		return nil, fmt.Errorf("failed to get group info: %w", err)
	}
	for _, group := range groups {
		if group.Name == taskGroup {
			stats.ProcessingCount = group.Pending
		}
	}
	stats.PendingCount = length - stats.ProcessingCount

	scheduled, err := q.client.ZCard(ctx, scheduledTasks).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled count: %w", err)
	}
	stats.PendingCount += scheduled

	counters, err := q.client.HGetAll(ctx, taskCounters).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get task counters: %w", err)
	}
	stats.CompletedCount, _ = strconv.ParseInt(counters[string(domain.TaskStatusCompleted)], 10, 64)
	stats.FailedCount, _ = strconv.ParseInt(counters[string(domain.TaskStatusFailed)], 10, 64)

	return stats, nil
}

// Ping checks if the queue backend is healthy.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close is a no-op; the Redis client is shared.
func (q *Queue) Close() error {
	return nil
}

// promoteScheduledTasks moves due delayed tasks onto the stream. Only the
// caller whose ZREM removes an entry adds it, so concurrent workers do not
// promote the same task twice.
func (q *Queue) promoteScheduledTasks(ctx context.Context) error {
	due, err := q.client.ZRangeByScore(ctx, scheduledTasks, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(time.Now().Unix(), 10),
	}).Result()
	if err != nil {
		return err
	}

	for _, id := range due {
		removed, err := q.client.ZRem(ctx, scheduledTasks, id).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			continue
		}
		task, err := q.GetTask(ctx, id)
		if err != nil {
			continue // expired record
		}
		if err := q.client.XAdd(ctx, streamEntry(task)).Err(); err != nil {
			return fmt.Errorf("promote task %s: %w", id, err)
		}
	}
	return nil
}

// claimAbandonedTask takes over a message that another consumer has held
// unacked for longer than claimTimeout, typically after a crash.
func (q *Queue) claimAbandonedTask(ctx context.Context) (*domain.Task, error) {
	start := "0-0"
	for {
		msgs, next, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   taskStream,
			Group:    taskGroup,
			Consumer: q.consumerName,
			MinIdle:  claimTimeout,
			Start:    start,
			Count:    10,
		}).Result()
		if err != nil {
			return nil, err
		}
		for _, msg := range msgs {
			if task, err := q.deliver(ctx, msg); err == nil && task != nil {
				return task, nil
			}
		}
		if next == "0-0" || len(msgs) == 0 {
			return nil, nil
		}
		start = next
	}
}

func isGroupExistsError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

func isStreamNotExistsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return errors.Is(err, redis.Nil) || msg == "ERR no such key" ||
		strings.Contains(msg, "requires the key to exist")
}
