package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
)

func setupTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	q, err := NewQueue(context.Background(), client, "test-worker")
	require.NoError(t, err)
	return q, mr
}

func TestNewQueue(t *testing.T) {
	t.Run("nil client", func(t *testing.T) {
		_, err := NewQueue(context.Background(), nil, "")
		assert.Error(t, err)
	})

	t.Run("group creation is idempotent", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()

		first, err := NewQueue(context.Background(), client, "")
		require.NoError(t, err)
		assert.NotEmpty(t, first.consumerName)

		_, err = NewQueue(context.Background(), client, "other")
		assert.NoError(t, err)
	})
}

func TestQueue_EnqueueDequeueAck(t *testing.T) {
	q, _ := setupTestQueue(t)
	ctx := context.Background()

	task := domain.NewChannelReplyTask(domain.ChannelTelegram, "42", "hello")
	require.NoError(t, q.Enqueue(ctx, task))

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.PendingCount)

	got, err := q.DequeueWithTimeout(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, domain.TaskStatusProcessing, got.Status)
	assert.Equal(t, 1, got.Attempts)
	assert.Equal(t, "42", got.Recipient())
	assert.Equal(t, "hello", got.Text())

	stats, err = q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.PendingCount)
	assert.Equal(t, int64(1), stats.ProcessingCount)

	require.NoError(t, q.Ack(ctx, task.ID))

	stored, err := q.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)

	stats, err = q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.PendingCount)
	assert.Equal(t, int64(0), stats.ProcessingCount)
	assert.Equal(t, int64(1), stats.CompletedCount)
}

func TestQueue_DequeueEmpty(t *testing.T) {
	q, _ := setupTestQueue(t)

	task, err := q.DequeueWithTimeout(context.Background(), 0)
	assert.NoError(t, err)
	assert.Nil(t, task)
}

func TestQueue_EnqueueNil(t *testing.T) {
	q, _ := setupTestQueue(t)
	err := q.Enqueue(context.Background(), nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestQueue_DelayedTaskWaitsUntilDue(t *testing.T) {
	q, mr := setupTestQueue(t)
	ctx := context.Background()

	task := domain.NewIngestScanTask()
	task.ScheduledFor = time.Now().Add(time.Hour)
	require.NoError(t, q.Enqueue(ctx, task))

	got, err := q.DequeueWithTimeout(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, got, "task scheduled in the future must not be delivered")

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.PendingCount)

	// make it due
	_, err = mr.ZAdd(scheduledTasks, 0, task.ID)
	require.NoError(t, err)

	got, err = q.DequeueWithTimeout(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, task.ID, got.ID)
}

func TestQueue_NackRetriesThenFails(t *testing.T) {
	q, mr := setupTestQueue(t)
	ctx := context.Background()

	task := domain.NewChannelReplyTask(domain.ChannelTelegram, "77", "hello")
	task.MaxAttempts = 2
	require.NoError(t, q.Enqueue(ctx, task))

	got, err := q.DequeueWithTimeout(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NoError(t, q.Nack(ctx, task.ID, "send failed"))

	stored, err := q.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, stored.Status)
	assert.Equal(t, "send failed", stored.Error)
	assert.True(t, stored.ScheduledFor.After(time.Now()), "retry should be delayed")

	_, err = mr.ZAdd(scheduledTasks, 0, task.ID)
	require.NoError(t, err)

	got, err = q.DequeueWithTimeout(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Attempts)
	require.NoError(t, q.Nack(ctx, task.ID, "send failed again"))

	stored, err = q.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusFailed, stored.Status)

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.PendingCount)
	assert.Equal(t, int64(1), stats.FailedCount)
}

func TestQueue_FailedScanIsNotRetried(t *testing.T) {
	q, _ := setupTestQueue(t)
	ctx := context.Background()

	task := domain.NewIngestScanTask()
	require.NoError(t, q.Enqueue(ctx, task))
	got, err := q.DequeueWithTimeout(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NoError(t, q.Nack(ctx, task.ID, "directory missing"))

	stored, err := q.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusFailed, stored.Status)
}

func TestQueue_PendingScansCoalesce(t *testing.T) {
	q, mr := setupTestQueue(t)
	ctx := context.Background()

	first := domain.NewIngestScanTask()
	second := domain.NewIngestScanTask()
	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.PendingCount)
	_, err = q.GetTask(ctx, second.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Once the scan is picked up the next one can queue
	got, err := q.DequeueWithTimeout(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
	assert.False(t, mr.Exists(pendingScan))

	third := domain.NewIngestScanTask()
	require.NoError(t, q.Enqueue(ctx, third))
	_, err = q.GetTask(ctx, third.ID)
	assert.NoError(t, err)
}

func TestQueue_PriorityDoesNotDropTasks(t *testing.T) {
	q, _ := setupTestQueue(t)
	ctx := context.Background()

	scan := domain.NewIngestScanTask()
	reply := domain.NewChannelReplyTask(domain.ChannelWhatsApp, "15550001", "hi")
	require.NoError(t, q.Enqueue(ctx, scan))
	require.NoError(t, q.Enqueue(ctx, reply))

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		got, err := q.DequeueWithTimeout(ctx, 0)
		require.NoError(t, err)
		require.NotNil(t, got)
		seen[got.ID] = true
		require.NoError(t, q.Ack(ctx, got.ID))
	}
	assert.True(t, seen[scan.ID] && seen[reply.ID])
}

func TestQueue_MissingTaskRecordIsDropped(t *testing.T) {
	q, mr := setupTestQueue(t)
	ctx := context.Background()

	task := domain.NewIngestScanTask()
	require.NoError(t, q.Enqueue(ctx, task))
	mr.Del(taskKey(task.ID))

	got, err := q.DequeueWithTimeout(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, got)

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.PendingCount)
	assert.Equal(t, int64(0), stats.ProcessingCount)
}

func TestQueue_UnknownTask(t *testing.T) {
	q, _ := setupTestQueue(t)
	ctx := context.Background()

	_, err := q.GetTask(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, q.Ack(ctx, "nope"), domain.ErrNotFound)
	assert.ErrorIs(t, q.Nack(ctx, "nope", "x"), domain.ErrNotFound)
}

func TestQueue_PingClose(t *testing.T) {
	q, mr := setupTestQueue(t)

	assert.NoError(t, q.Ping(context.Background()))
	assert.NoError(t, q.Close())

	mr.Close()
	assert.Error(t, q.Ping(context.Background()))
}

func TestIsGroupExistsError(t *testing.T) {
	assert.True(t, isGroupExistsError(errors.New("BUSYGROUP Consumer Group name already exists")))
	assert.False(t, isGroupExistsError(errors.New("ERR other")))
	assert.False(t, isGroupExistsError(nil))
}

func TestQueue_ClaimsAbandonedTask(t *testing.T) {
	crashed, mr := setupTestQueue(t)
	ctx := context.Background()

	task := domain.NewChannelReplyTask(domain.ChannelWhatsApp, "919800000000", "hi")
	require.NoError(t, crashed.Enqueue(ctx, task))
	got, err := crashed.DequeueWithTimeout(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, got)

	rescuer, err := NewQueue(ctx, crashed.client, "rescuer")
	require.NoError(t, err)

	// Held briefly: nothing to claim yet
	none, err := rescuer.DequeueWithTimeout(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, none)

	mr.SetTime(time.Now().Add(claimTimeout + time.Minute))
	claimed, err := rescuer.DequeueWithTimeout(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, task.ID, claimed.ID)
	assert.Equal(t, 2, claimed.Attempts)

	require.NoError(t, rescuer.Ack(ctx, claimed.ID))
	stored, err := rescuer.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, stored.Status)
}
