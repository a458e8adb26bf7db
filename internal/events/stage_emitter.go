package events

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Publisher is the narrow hub interface event producers depend on.
type Publisher interface {
	Publish(event Event)
}

// StageEmitter publishes stage events for a single correlation ID and
// enforces the terminal rule: after a final or error emission, further
// events for the correlation ID are dropped.
type StageEmitter struct {
	pub           Publisher
	correlationID uuid.UUID
	logger        *slog.Logger

	mu       sync.Mutex
	terminal bool
}

// NewStageEmitter creates an emitter scoped to one submission attempt.
func NewStageEmitter(pub Publisher, correlationID uuid.UUID, logger *slog.Logger) *StageEmitter {
	return &StageEmitter{
		pub:           pub,
		correlationID: correlationID,
		logger:        logger.With("correlation_id", correlationID),
	}
}

// CorrelationID returns the correlation ID this emitter is scoped to.
func (e *StageEmitter) CorrelationID() uuid.UUID { return e.correlationID }

// Emit publishes one stage event. Events after a terminal emission are
// dropped and logged.
func (e *StageEmitter) Emit(stage string, status StageStatus, message string) {
	e.mu.Lock()
	if e.terminal {
		e.mu.Unlock()
		e.logger.Warn("dropping stage event after terminal emission",
			"stage", stage,
			"status", status)
		return
	}
	if status.Terminal() {
		e.terminal = true
	}
	e.mu.Unlock()

	e.pub.Publish(NewStageEvent(e.correlationID, stage, status, message))
}

// Terminated reports whether a terminal event has been emitted.
func (e *StageEmitter) Terminated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.terminal
}
