// Package store provides the process-lifetime task store. Tasks live only
// as long as the process; there is no database behind it.
package store

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/atxp-dev/atxp-image-demo/internal/domain"
)

// UpdateOption mutates a task as part of a status update.
type UpdateOption func(*domain.Task)

// WithExternalTaskID records the identifier returned by the external job API.
func WithExternalTaskID(id string) UpdateOption {
	return func(t *domain.Task) {
		t.ExternalTaskID = id
	}
}

// WithResult records the result location of a completed task.
func WithResult(url, name string) UpdateOption {
	return func(t *domain.Task) {
		t.ResultURL = url
		t.ResultName = name
	}
}

// TaskStore holds all submitted tasks in insertion order. Handlers read it
// while pollers update it, so access is guarded by a mutex even though each
// task only ever has a single writer.
type TaskStore struct {
	mu     sync.RWMutex
	tasks  map[uuid.UUID]*domain.Task
	order  []uuid.UUID
	logger *slog.Logger
}

// NewTaskStore creates an empty TaskStore.
func NewTaskStore(logger *slog.Logger) *TaskStore {
	return &TaskStore{
		tasks:  make(map[uuid.UUID]*domain.Task),
		order:  make([]uuid.UUID, 0),
		logger: logger.With("component", "task_store"),
	}
}

// Create adds a new pending task for the given text and returns a copy of it.
func (s *TaskStore) Create(text string) *domain.Task {
	task := domain.NewTask(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
	s.order = append(s.order, task.ID)

	return task.Clone()
}

// Get returns a copy of the task with the given ID, or ErrTaskNotFound.
func (s *TaskStore) Get(id uuid.UUID) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return task.Clone(), nil
}

// List returns copies of all tasks in insertion order.
func (s *TaskStore) List() []*domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id].Clone())
	}
	return out
}

// UpdateStatus transitions a task to the given status and applies any extra
// field updates. An unknown ID is logged and ignored since the owning poller
// may race with store inspection. A transition that would move a task
// backwards is also logged and ignored.
func (s *TaskStore) UpdateStatus(id uuid.UUID, status domain.TaskStatus, opts ...UpdateOption) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		s.logger.Warn("status update for unknown task", "task_id", id, "status", status)
		return
	}

	if !task.Status.CanTransitionTo(status) {
		s.logger.Warn("rejected backwards status transition",
			"task_id", id,
			"from", task.Status,
			"to", status)
		return
	}

	task.Status = status
	for _, opt := range opts {
		opt(task)
	}
}

// Discard removes a task that never made it past creation. It exists solely
// so a failed external creation call can roll back the store entry before
// anything else has observed it.
func (s *TaskStore) Discard(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return
	}
	delete(s.tasks, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of stored tasks.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
