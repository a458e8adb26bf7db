// Package service contains the submission orchestrator: the glue that
// validates a submission, creates the task record, starts the external job
// and hands off to a supervised poller without waiting for completion.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/atxp-dev/atxp-image-demo/internal/domain"
	"github.com/atxp-dev/atxp-image-demo/internal/events"
	"github.com/atxp-dev/atxp-image-demo/internal/platform/imagejob"
	"github.com/atxp-dev/atxp-image-demo/internal/poller"
	"github.com/atxp-dev/atxp-image-demo/internal/store"
)

// SubmissionService orchestrates one submission end to end up to the
// hand-off point, then returns immediately to the caller.
type SubmissionService struct {
	store     *store.TaskStore
	client    imagejob.JobClient
	hub       *events.Hub
	registry  *poller.Registry
	pollerCfg poller.Config
	logger    *slog.Logger
}

// NewSubmissionService wires the orchestrator's dependencies.
func NewSubmissionService(
	taskStore *store.TaskStore,
	client imagejob.JobClient,
	hub *events.Hub,
	registry *poller.Registry,
	pollerCfg poller.Config,
	logger *slog.Logger,
) *SubmissionService {
	return &SubmissionService{
		store:     taskStore,
		client:    client,
		hub:       hub,
		registry:  registry,
		pollerCfg: pollerCfg,
		logger:    logger.With("component", "submission_service"),
	}
}

// Submit validates the submission, creates the task, starts the external
// generation job and spawns a poller for it. It returns the task in
// processing state without waiting for generation to finish.
//
// Validation failures reject the submission before a task or any stage
// event exists. A failed creation call emits one terminal error stage
// event, rolls the task entry back out of the store and returns an error.
func (s *SubmissionService) Submit(
	ctx context.Context,
	text string,
	cred imagejob.Credential,
) (*domain.Task, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyText
	}
	if cred == "" {
		return nil, domain.ErrMissingCredential
	}

	// The correlation ID groups every event of this submission attempt and
	// is distinct from the task ID.
	correlationID := uuid.New()
	emitter := events.NewStageEmitter(s.hub, correlationID, s.logger)

	task := s.store.Create(text)
	logger := s.logger.With("task_id", task.ID, "correlation_id", correlationID)

	emitter.Emit(events.StageInitializing, events.StatusPending,
		"submission accepted")
	emitter.Emit(events.StageCreatingClients, events.StatusInProgress,
		"connecting to image generation service")

	created, err := s.client.CreateJob(ctx, cred, text)
	if err != nil {
		emitter.Emit(events.StageGenerationError, events.StatusError,
			"could not start image generation")
		// Roll the entry back so listings never show a task that was
		// rejected synchronously.
		s.store.Discard(task.ID)
		logger.Error("external job creation failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrJobCreateFailed, err)
	}

	s.store.UpdateStatus(task.ID, domain.TaskStatusProcessing,
		store.WithExternalTaskID(created.ExternalTaskID))

	emitter.Emit(events.StageStartingGeneration, events.StatusInProgress,
		"async generation job created")
	emitter.Emit(events.StageTaskStarted, events.StatusInProgress,
		fmt.Sprintf("external task %s started", created.ExternalTaskID))

	if created.Charge != nil {
		c := *created.Charge
		s.hub.Publish(events.NewPaymentEvent(
			c.AccountID, c.ResourceURL, c.Network, c.Currency, c.Amount, c.Issuer))
	}

	p := poller.New(
		s.store,
		s.client,
		emitter,
		s.hub,
		s.pollerCfg,
		s.logger,
		task.ID,
		created.ExternalTaskID,
		cred,
	)
	s.registry.Spawn(task.ID, p)

	logger.Info("submission handed off to poller",
		"external_task_id", created.ExternalTaskID)

	updated, err := s.store.Get(task.ID)
	if err != nil {
		// The poller cannot have discarded it; first tick is an interval away.
		return nil, fmt.Errorf("reload task after hand-off: %w", err)
	}
	return updated, nil
}

// GetTask returns one task by ID.
func (s *SubmissionService) GetTask(id uuid.UUID) (*domain.Task, error) {
	return s.store.Get(id)
}

// ListTasks returns all tasks in insertion order.
func (s *SubmissionService) ListTasks() []*domain.Task {
	return s.store.List()
}
