// Package api implements the inbound HTTP surface: submission, task listing
// and the progress stream.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atxp-dev/atxp-image-demo/internal/api/shared"
	"github.com/atxp-dev/atxp-image-demo/internal/domain"
	"github.com/atxp-dev/atxp-image-demo/internal/platform/imagejob"
	"github.com/atxp-dev/atxp-image-demo/internal/service"
)

// CreateSubmissionRequest is the request body for a new submission.
type CreateSubmissionRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

// TaskResponse is the wire representation of a task.
type TaskResponse struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	Status         string    `json:"status"`
	ExternalTaskID string    `json:"external_task_id,omitempty"`
	ResultURL      string    `json:"result_url,omitempty"`
	ResultName     string    `json:"result_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// SubmissionHandler handles submission and task listing requests.
type SubmissionHandler struct {
	submissions *service.SubmissionService
	credentials imagejob.CredentialResolver
	logger      *slog.Logger
}

// NewSubmissionHandler creates a SubmissionHandler.
func NewSubmissionHandler(
	submissions *service.SubmissionService,
	credentials imagejob.CredentialResolver,
	logger *slog.Logger,
) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		credentials: credentials,
		logger:      logger.With("component", "submission_handler"),
	}
}

// Create handles POST /api/submissions. Processing continues in the
// background, so a successful response is 202 Accepted with the task in
// processing state.
func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSubmissionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: text is required")
		return
	}

	cred, err := h.credentials.Resolve(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Missing connection credential")
		return
	}

	task, err := h.submissions.Submit(r.Context(), req.Text, cred)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyText):
			shared.RespondWithError(w, r, http.StatusBadRequest, "Submission text cannot be empty")
		case errors.Is(err, domain.ErrMissingCredential):
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Missing connection credential")
		case errors.Is(err, domain.ErrJobCreateFailed):
			h.logger.Error("job creation failed", "error", err)
			shared.RespondWithError(w, r, http.StatusBadGateway, "Image generation service rejected the job")
		default:
			h.logger.Error("submission failed", "error", err)
			shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to create submission")
		}
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, taskToResponse(task))
}

// Get handles GET /api/tasks/{id}.
func (h *SubmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	task, err := h.submissions.GetTask(id)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
			return
		}
		h.logger.Error("failed to load task", "task_id", id, "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to load task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// List handles GET /api/tasks, returning all tasks in insertion order.
func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks := h.submissions.ListTasks()

	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskToResponse(t))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:             t.ID.String(),
		Text:           t.Text,
		Status:         string(t.Status),
		ExternalTaskID: t.ExternalTaskID,
		ResultURL:      t.ResultURL,
		ResultName:     t.ResultName,
		CreatedAt:      t.CreatedAt,
	}
}
