package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the processing state of a task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// rank orders the non-terminal statuses for the forward-only transition check.
var rank = map[TaskStatus]int{
	TaskStatusPending:    0,
	TaskStatusProcessing: 1,
	TaskStatusCompleted:  2,
	TaskStatusFailed:     3,
}

// CanTransitionTo reports whether a task may move from its current status
// to the given one. Transitions only move forward; failed is reachable
// from any state and is terminal.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	if s == TaskStatusFailed || s == TaskStatusCompleted {
		return false
	}
	if next == TaskStatusFailed {
		return true
	}
	return rank[next] > rank[s]
}

// Task represents one submitted item's end-to-end processing record:
// the original text, the state of the background image generation, and
// the result location once generation finishes.
type Task struct {
	ID             uuid.UUID  `json:"id"`
	Text           string     `json:"text"`
	Status         TaskStatus `json:"status"`
	ExternalTaskID string     `json:"external_task_id,omitempty"`
	ResultURL      string     `json:"result_url,omitempty"`
	ResultName     string     `json:"result_name,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NewTask creates a pending Task for the given text with a fresh ID.
func NewTask(text string) *Task {
	return &Task{
		ID:        uuid.New(),
		Text:      text,
		Status:    TaskStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// Clone returns a copy of the task so callers cannot mutate stored state.
func (t *Task) Clone() *Task {
	c := *t
	return &c
}
