package domain

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// TaskType identifies the type of background task
type TaskType string

const (
	// TaskTypeChannelReply answers a message received on a chat channel
	TaskTypeChannelReply TaskType = "channel_reply"
	// TaskTypeIngestScan scans the watched directory once
	TaskTypeIngestScan TaskType = "ingest_scan"
)

// Channel identifies an external messaging channel
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelTelegram Channel = "telegram"
)

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task represents a background job to be processed by workers
type Task struct {
	// ID is the unique identifier for this task
	ID string `json:"id"`

	// Type identifies what kind of task this is
	Type TaskType `json:"type"`

	// Payload contains task-specific data
	// For channel_reply: {"channel": "telegram", "recipient": "42", "text": "hi"}
	// For ingest_scan: {} (empty)
	Payload map[string]string `json:"payload"`

	// Status is the current state of the task
	Status TaskStatus `json:"status"`

	// Priority determines processing order (higher = more urgent)
	Priority int `json:"priority"`

	// Attempts is how many times this task has been attempted
	Attempts int `json:"attempts"`

	// MaxAttempts is the maximum retry count before giving up
	MaxAttempts int `json:"max_attempts"`

	// Error contains the last error message if failed
	Error string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// ScheduledFor is when the task should be processed (for delayed tasks)
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewTask creates a new task with default values
func NewTask(taskType TaskType, payload map[string]string) *Task {
	now := time.Now()
	return &Task{
		ID:           GenerateID(),
		Type:         taskType,
		Payload:      payload,
		Status:       TaskStatusPending,
		Priority:     0,
		Attempts:     0,
		MaxAttempts:  3,
		CreatedAt:    now,
		UpdatedAt:    now,
		ScheduledFor: now,
	}
}

// NewChannelReplyTask creates a task that answers text from a channel user
func NewChannelReplyTask(channel Channel, recipient, text string) *Task {
	task := NewTask(TaskTypeChannelReply, map[string]string{
		"channel":   string(channel),
		"recipient": recipient,
		"text":      text,
	})
	// Replies are user-facing, serve them before scans.
	task.Priority = 10
	return task
}

// NewIngestScanTask creates a task that scans the watched directory
func NewIngestScanTask() *Task {
	return NewTask(TaskTypeIngestScan, nil)
}

func (t *Task) payload(key string) string {
	if t.Payload == nil {
		return ""
	}
	return t.Payload[key]
}

// Channel extracts the channel from a channel_reply payload
func (t *Task) Channel() Channel {
	return Channel(t.payload("channel"))
}

// Recipient extracts the recipient from a channel_reply payload
func (t *Task) Recipient() string {
	return t.payload("recipient")
}

// Text extracts the message text from a channel_reply payload
func (t *Task) Text() string {
	return t.payload("text")
}

// CanRetry returns true if the task can be retried
func (t *Task) CanRetry() bool {
	return t.Attempts < t.MaxAttempts
}

// Coalesces reports whether queueing a second pending copy is pointless.
// One directory scan covers whatever a duplicate would have found.
func (t *Task) Coalesces() bool {
	return t.Type == TaskTypeIngestScan
}

// ShouldRetry reports whether a failed task goes back on the queue. Failed
// scans are not retried; the scheduler's next tick scans again.
func (t *Task) ShouldRetry() bool {
	return t.CanRetry() && !t.Coalesces()
}

// MarkProcessing records a delivery attempt
func (t *Task) MarkProcessing() {
	now := time.Now()
	t.Status = TaskStatusProcessing
	t.StartedAt = &now
	t.UpdatedAt = now
	t.Attempts++
}

// MarkCompleted finishes the task and clears any earlier failure
func (t *Task) MarkCompleted() {
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	t.Error = ""
}

// MarkFailed gives up on the task
func (t *Task) MarkFailed(reason string) {
	t.Status = TaskStatusFailed
	t.UpdatedAt = time.Now()
	t.Error = reason
}

// Retry puts the task back to pending, due after retryDelay(Attempts)
func (t *Task) Retry(reason string) {
	now := time.Now()
	t.Status = TaskStatusPending
	t.UpdatedAt = now
	t.Error = reason
	t.ScheduledFor = now.Add(retryDelay(t.Attempts))
}

const (
	retryBase = time.Second
	retryCap  = 5 * time.Minute
)

// retryDelay doubles from retryBase per attempt, capped at retryCap
func retryDelay(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	d := retryBase
	for i := 0; i < attempts && d < retryCap; i++ {
		d *= 2
	}
	return min(d, retryCap)
}
