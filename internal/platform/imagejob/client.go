// Package imagejob defines the client surface for the external paid
// tool-calling service that turns text into images. The service exposes an
// async job API: create a job, poll its status, and optionally persist the
// finished image to the service's file store. Both calls are fallible and
// latency-bearing; callers own retry policy.
package imagejob

import (
	"context"
	"net/http"
)

// Credential is the opaque connection credential used to authenticate
// outbound calls on behalf of one request.
type Credential string

// JobState is the lifecycle state reported by the external job API.
type JobState string

// Possible job states
const (
	JobStatePending    JobState = "pending"
	JobStateProcessing JobState = "processing"
	JobStateCompleted  JobState = "completed"
	JobStateFailed     JobState = "failed"
)

// Charge describes a payment the service settled for one tool call.
type Charge struct {
	AccountID   string `json:"account_id"`
	ResourceURL string `json:"resource_url"`
	Network     string `json:"network"`
	Currency    string `json:"currency"`
	Amount      string `json:"amount"`
	Issuer      string `json:"issuer"`
}

// CreateJobResult is the outcome of a successful job creation call.
type CreateJobResult struct {
	ExternalTaskID string
	// Charge is non-nil when the creation call settled a payment.
	Charge *Charge
}

// JobStatus is one observation of an in-flight job.
type JobStatus struct {
	State JobState
	// URL points at the generated image once State is completed.
	URL string
}

// StoredObject is the outcome of persisting a result to the file store.
type StoredObject struct {
	Locator string
	Name    string
	// Charge is non-nil when the store call settled a payment.
	Charge *Charge
}

// JobClient is the external collaborator driving image generation.
// Implementations are resolved at construction time and injected.
type JobClient interface {
	// CreateJob starts an async image generation job for the prompt.
	CreateJob(ctx context.Context, cred Credential, prompt string) (CreateJobResult, error)

	// GetJobStatus queries the current state of a job.
	GetJobStatus(ctx context.Context, cred Credential, externalTaskID string) (JobStatus, error)

	// StoreResult persists a generated image URL to the service's durable
	// file store and returns its locator.
	StoreResult(ctx context.Context, cred Credential, url string) (StoredObject, error)
}

// CredentialResolver extracts the connection credential from an inbound
// request. Resolution failure rejects the submission before a task exists.
type CredentialResolver interface {
	Resolve(r *http.Request) (Credential, error)
}
