package service

import (
	"errors"
	"fmt"
)

// --- Error Definitions ---
var (
	ErrUnauthorized          = errors.New("Unauthorized")
	ErrValidation            = errors.New("validation failed")
	ErrAuthenticationFailed  = errors.New("authentication failed: invalid email or password")
	ErrHashingFailed         = errors.New("failed to hash password")
	ErrTokenGeneration       = errors.New("failed to generate authentication token")
	ErrEmailTaken            = errors.New("a profile with this email already exists")
	ErrCohortNotFound        = errors.New("cohort not found")
	ErrProgramNotFound       = errors.New("meal program not found")
	ErrMealOptionNotFound    = errors.New("meal option not found")
	ErrMealOptionExists      = errors.New("a meal option already exists for this week, day and meal type")
	ErrParticipantNotFound   = errors.New("participant not found")
	ErrEnrollmentNotFound    = errors.New("participant is not enrolled in this cohort")
	ErrEnrollmentConflict    = errors.New("participant was enrolled elsewhere concurrently, retry the request")
	ErrCohortHasParticipants = errors.New("cohort has participants")
	ErrProgramInUse          = errors.New("meal program is assigned to cohorts")
)

// ValidationError carries a caller-facing message about bad input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IntegrityError rejects a delete that still has dependents.
type IntegrityError struct {
	Err   error
	Count int64
	msg   string
}

func (e *IntegrityError) Error() string { return e.msg }

func (e *IntegrityError) Unwrap() error { return e.Err }

func newIntegrityError(err error, count int64, format string, args ...any) *IntegrityError {
	return &IntegrityError{Err: err, Count: count, msg: fmt.Sprintf(format, args...)}
}
