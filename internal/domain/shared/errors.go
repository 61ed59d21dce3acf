// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "goal", "challenge", "puzzle"
	Op      string // Operation that failed, e.g., "Create", "Evaluate"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Goal domain errors
var (
	ErrGoalNotFound     = NewDomainError("goal", "Find", ErrNotFound, "goal not found")
	ErrGoalAlreadySet   = NewDomainError("goal", "Create", ErrAlreadyExists, "goal already set for this week")
	ErrWrongGoalKind    = NewDomainError("goal", "CheckKind", ErrInvalidState, "operation does not apply to this goal kind")
	ErrInvalidGoalKind  = NewDomainError("goal", "Validate", ErrInvalidInput, "unknown goal kind")
	ErrInvalidGoalMode  = NewDomainError("goal", "Validate", ErrInvalidInput, "unknown tracking mode")
	ErrInvalidTarget    = NewDomainError("goal", "Validate", ErrValueOutOfRange, "target must be positive")
	ErrEmptyDescription = NewDomainError("goal", "Validate", ErrEmptyValue, "goal description cannot be empty")
)

// Participant domain errors
var (
	ErrParticipantNotFound = NewDomainError("participant", "Find", ErrNotFound, "participant not found")
	ErrParticipantInactive = NewDomainError("participant", "CheckStatus", ErrInvalidState, "participant is not active")
	ErrInvalidMemberID     = NewDomainError("participant", "Validate", ErrInvalidID, "invalid member ID")
)

// Challenge domain errors
var (
	ErrVerdictNotFound  = NewDomainError("challenge", "FindVerdict", ErrNotFound, "no verdict recorded for this cycle")
	ErrStreakNotLoaded  = NewDomainError("challenge", "LoadStreak", ErrNotFound, "team streak state missing")
	ErrCycleAlreadyRun  = NewDomainError("challenge", "ApplyVerdict", ErrAlreadyProcessed, "cycle verdict already applied to streak")
	ErrNoProgressToUndo = NewDomainError("challenge", "Undo", ErrNotFound, "nothing to undo for this week")
)

// Puzzle domain errors
var (
	ErrPuzzleRecordNotFound = NewDomainError("puzzle", "Find", ErrNotFound, "puzzle record not found")
	ErrScoreOutOfRange      = NewDomainError("puzzle", "Validate", ErrValueOutOfRange, "score must be 1-6 or the miss penalty")
	ErrMalformedResult      = NewDomainError("puzzle", "Parse", ErrInvalidFormat, "result text does not match the share format")
	ErrPenaltyAlreadyFiled  = NewDomainError("puzzle", "Penalize", ErrAlreadyProcessed, "penalty already applied for this day")
)

// Scheduler domain errors
var (
	ErrJobAlreadyRan = NewDomainError("watermark", "RunIfDue", ErrAlreadyProcessed, "job already ran for this date")
)

// External service errors
var (
	ErrDiscordUnavailable     = NewDomainError("discord", "Request", ErrServiceUnavailable, "Discord API is unavailable")
	ErrDiscordRateLimited     = NewDomainError("discord", "Request", ErrRateLimited, "Discord API rate limit exceeded")
	ErrDiscordTimeout         = NewDomainError("discord", "Request", ErrTimeout, "Discord API request timeout")
	ErrDiscordInvalidResponse = NewDomainError("discord", "Parse", ErrInvalidFormat, "invalid response from Discord API")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyProcessed checks if the error marks a repeat of a once-only operation.
func IsAlreadyProcessed(err error) bool {
	return errors.Is(err, ErrAlreadyProcessed)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
