package domain

import "errors"

// Common errors for the submission pipeline
var (
	// ErrEmptyText indicates the submitted text was empty or whitespace.
	ErrEmptyText = errors.New("submission text cannot be empty")

	// ErrMissingCredential indicates no connection credential could be
	// resolved for the request.
	ErrMissingCredential = errors.New("connection credential is missing")

	// ErrTaskNotFound indicates the requested task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrJobCreateFailed indicates the external job API rejected the
	// creation call.
	ErrJobCreateFailed = errors.New("external job creation failed")
)
