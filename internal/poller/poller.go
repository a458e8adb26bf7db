// Package poller drives one task from processing to a terminal state by
// repeatedly querying the external job API, updating the task store and
// broadcasting stage events along the way.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atxp-dev/atxp-image-demo/internal/domain"
	"github.com/atxp-dev/atxp-image-demo/internal/events"
	"github.com/atxp-dev/atxp-image-demo/internal/platform/imagejob"
	"github.com/atxp-dev/atxp-image-demo/internal/store"
)

// State is the poller's own lifecycle state.
type State string

// Poller states. Polling is initial; the rest are terminal.
const (
	StatePolling   State = "polling"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed-out"
	// StateAbandoned covers the defensive stops: task gone from the store
	// or context cancelled before a terminal observation.
	StateAbandoned State = "abandoned"
)

// Config holds the poll loop settings.
type Config struct {
	// Interval is the fixed delay between status checks.
	Interval time.Duration

	// MaxAttempts bounds the number of status checks before the poller
	// gives up and fails the task.
	MaxAttempts int

	// ProgressEvery rate-limits periodic progress events to every Nth tick.
	ProgressEvery int
}

// DefaultConfig returns the settings used by the demo: a 5 second interval
// and 120 attempts, roughly ten minutes of wall time.
func DefaultConfig() Config {
	return Config{
		Interval:      5 * time.Second,
		MaxAttempts:   120,
		ProgressEvery: 6,
	}
}

// TaskStore is the narrow store surface the poller needs.
type TaskStore interface {
	Get(id uuid.UUID) (*domain.Task, error)
	UpdateStatus(id uuid.UUID, status domain.TaskStatus, opts ...store.UpdateOption)
}

// Poller owns the polling state machine for one submission.
type Poller struct {
	store          TaskStore
	client         imagejob.JobClient
	emitter        *events.StageEmitter
	hub            events.Publisher
	cfg            Config
	logger         *slog.Logger
	taskID         uuid.UUID
	externalTaskID string
	cred           imagejob.Credential
}

// New creates a poller for one (taskID, externalTaskID, correlationID)
// triple. The emitter is already scoped to the submission's correlation ID.
func New(
	taskStore TaskStore,
	client imagejob.JobClient,
	emitter *events.StageEmitter,
	hub events.Publisher,
	cfg Config,
	logger *slog.Logger,
	taskID uuid.UUID,
	externalTaskID string,
	cred imagejob.Credential,
) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = DefaultConfig().ProgressEvery
	}

	return &Poller{
		store:   taskStore,
		client:  client,
		emitter: emitter,
		hub:     hub,
		cfg:     cfg,
		logger: logger.With(
			"component", "poller",
			"task_id", taskID,
			"external_task_id", externalTaskID,
		),
		taskID:         taskID,
		externalTaskID: externalTaskID,
		cred:           cred,
	}
}

// Run executes the poll loop until a terminal observation, the attempt
// budget runs out, or ctx is cancelled. It returns the terminal state.
func (p *Poller) Run(ctx context.Context) State {
	timer := time.NewTimer(p.cfg.Interval)
	defer timer.Stop()

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped by cancellation", "attempt", attempt)
			return StateAbandoned
		case <-timer.C:
		}
		timer.Reset(p.cfg.Interval)

		// The task may have been discarded while we slept; stop quietly.
		if _, err := p.store.Get(p.taskID); err != nil {
			p.logger.Warn("task vanished from store, stopping poller")
			return StateAbandoned
		}

		status, err := p.client.GetJobStatus(ctx, p.cred, p.externalTaskID)
		if err != nil {
			// Transient fault: retried on the next tick, never surfaced.
			p.logger.Warn("status check failed, retrying",
				"attempt", attempt,
				"error", err)
			continue
		}

		switch status.State {
		case imagejob.JobStateCompleted:
			p.succeed(ctx, status.URL)
			return StateSucceeded

		case imagejob.JobStateFailed:
			p.emitter.Emit(events.StageGenerationError, events.StatusError,
				"image generation failed")
			p.store.UpdateStatus(p.taskID, domain.TaskStatusFailed)
			p.logger.Info("external job reported failure", "attempt", attempt)
			return StateFailed

		default:
			if attempt%p.cfg.ProgressEvery == 0 {
				p.emitter.Emit(events.StageProcessing, events.StatusInProgress,
					fmt.Sprintf("still generating (check %d of %d)", attempt, p.cfg.MaxAttempts))
			}
		}
	}

	p.emitter.Emit(events.StageTimeout, events.StatusError,
		fmt.Sprintf("gave up after %d status checks", p.cfg.MaxAttempts))
	p.store.UpdateStatus(p.taskID, domain.TaskStatusFailed)
	p.logger.Warn("poller timed out", "max_attempts", p.cfg.MaxAttempts)
	return StateTimedOut
}

// succeed handles a completed observation: announce the finished image, try
// the secondary store step, and complete the task. A store failure degrades
// gracefully: the task still completes with the original URL.
func (p *Poller) succeed(ctx context.Context, url string) {
	p.emitter.Emit(events.StageImageCompleted, events.StatusCompleted,
		"image generation finished")

	resultURL := url
	resultName := ""

	p.emitter.Emit(events.StageStoringFile, events.StatusInProgress,
		"persisting image to file store")

	stored, err := p.client.StoreResult(ctx, p.cred, url)
	if err != nil {
		p.logger.Warn("secondary store step failed, keeping original URL", "error", err)
		p.emitter.Emit(events.StageStorageWarning, events.StatusInProgress,
			"could not persist image to file store; result uses the original URL")
	} else {
		resultURL = stored.Locator
		resultName = stored.Name
		if stored.Charge != nil {
			p.hub.Publish(chargeEvent(*stored.Charge))
		}
	}

	p.store.UpdateStatus(p.taskID, domain.TaskStatusCompleted,
		store.WithResult(resultURL, resultName))
	p.emitter.Emit(events.StageCompleted, events.StatusFinal, "task completed")
	p.logger.Info("task completed", "result_url", resultURL)
}

// chargeEvent converts a collaborator charge into a payment event.
func chargeEvent(c imagejob.Charge) events.PaymentEvent {
	return events.NewPaymentEvent(
		c.AccountID, c.ResourceURL, c.Network, c.Currency, c.Amount, c.Issuer)
}
