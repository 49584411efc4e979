// Package service provides application-level services for managing tasks
// and the users they are shared with.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped with fmt.Errorf and %w
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrTaskNotFound indicates the referenced task does not exist, or that
	// the caller may not know whether it exists (see TaskService.GetTask).
	// API layer should map this to HTTP 404 Not Found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrNotTaskOwner indicates a mutating operation was attempted by a user
	// other than the task's owner.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotTaskOwner = errors.New("task is owned by another user")

	// ErrInvalidShareTarget indicates a share request that identifies its
	// target with neither a user ID nor an email address.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidShareTarget = errors.New("share target requires a user ID or an email")

	// ErrShareTargetNotFound indicates the share target could not be resolved
	// to a registered user.
	// API layer should map this to HTTP 404 Not Found.
	ErrShareTargetNotFound = errors.New("share target user not found")
)
