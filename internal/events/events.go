package events

import (
	"time"

	"github.com/google/uuid"
)

// EventKind discriminates the closed set of event types carried on the
// progress stream. Every serialized event leads with a "kind" field so
// clients can dispatch without sniffing payload shapes.
type EventKind string

// Possible event kinds
const (
	KindStage     EventKind = "stage"
	KindPayment   EventKind = "payment"
	KindConnected EventKind = "connected"
)

// StageStatus is the status taxonomy for stage events.
type StageStatus string

// Possible stage statuses. Error and Final are terminal: once either is
// emitted for a correlation ID, nothing further follows for it.
const (
	StatusPending    StageStatus = "pending"
	StatusInProgress StageStatus = "in-progress"
	StatusCompleted  StageStatus = "completed"
	StatusError      StageStatus = "error"
	StatusFinal      StageStatus = "final"
)

// Terminal reports whether the status ends the event sequence for a
// correlation ID.
func (s StageStatus) Terminal() bool {
	return s == StatusError || s == StatusFinal
}

// Canonical stage names used by the orchestrator and poller.
const (
	StageInitializing       = "initializing"
	StageCreatingClients    = "creating-clients"
	StageStartingGeneration = "starting-async-generation"
	StageGeneratingImage    = "generating-image"
	StageTaskStarted        = "task-started"
	StageProcessing         = "processing"
	StageImageCompleted     = "image-completed"
	StageStoringFile        = "storing-file"
	StageCompleted          = "completed"
	StageGenerationError    = "generation-error"
	StageStorageWarning     = "storage-warning"
	StageTimeout            = "timeout"
)

// Event is the closed union of payloads the hub broadcasts. Implementations
// are constructed through the New* functions so the kind discriminator is
// always set.
type Event interface {
	EventKind() EventKind
}

// StageEvent describes one phase of a task's processing.
type StageEvent struct {
	Kind          EventKind   `json:"kind"`
	CorrelationID uuid.UUID   `json:"correlation_id"`
	Stage         string      `json:"stage"`
	Message       string      `json:"message"`
	Status        StageStatus `json:"status"`
	Timestamp     time.Time   `json:"timestamp"`
}

// EventKind implements Event.
func (e StageEvent) EventKind() EventKind { return e.Kind }

// NewStageEvent creates a StageEvent stamped with the current time.
func NewStageEvent(correlationID uuid.UUID, stage string, status StageStatus, message string) StageEvent {
	return StageEvent{
		Kind:          KindStage,
		CorrelationID: correlationID,
		Stage:         stage,
		Message:       message,
		Status:        status,
		Timestamp:     time.Now().UTC(),
	}
}

// PaymentEvent describes one billing side-effect of an external tool call.
// It is informational only; ordering relative to stage events is best-effort.
type PaymentEvent struct {
	Kind        EventKind `json:"kind"`
	AccountID   string    `json:"account_id"`
	ResourceURL string    `json:"resource_url"`
	Network     string    `json:"network"`
	Currency    string    `json:"currency"`
	Amount      string    `json:"amount"`
	Issuer      string    `json:"issuer"`
	Timestamp   time.Time `json:"timestamp"`
}

// EventKind implements Event.
func (e PaymentEvent) EventKind() EventKind { return e.Kind }

// NewPaymentEvent creates a PaymentEvent stamped with the current time.
func NewPaymentEvent(accountID, resourceURL, network, currency, amount, issuer string) PaymentEvent {
	return PaymentEvent{
		Kind:        KindPayment,
		AccountID:   accountID,
		ResourceURL: resourceURL,
		Network:     network,
		Currency:    currency,
		Amount:      amount,
		Issuer:      issuer,
		Timestamp:   time.Now().UTC(),
	}
}

// ConnectedEvent is the hello sent to a subscriber when it attaches.
// It is delivered only to the new subscriber, never broadcast.
type ConnectedEvent struct {
	Kind         EventKind `json:"kind"`
	SubscriberID uuid.UUID `json:"subscriber_id"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}

// EventKind implements Event.
func (e ConnectedEvent) EventKind() EventKind { return e.Kind }

// NewConnectedEvent creates the hello event for a subscriber.
func NewConnectedEvent(subscriberID uuid.UUID) ConnectedEvent {
	return ConnectedEvent{
		Kind:         KindConnected,
		SubscriberID: subscriberID,
		Message:      "connected to progress stream",
		Timestamp:    time.Now().UTC(),
	}
}
