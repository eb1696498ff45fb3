package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks local input errors. Nothing reaches the store.
	ErrValidation = errors.New("validation error")

	// ErrNotAllowed marks operations rejected by the current state,
	// e.g. a fourth postponement or a send while a send is in flight.
	ErrNotAllowed = errors.New("not allowed")

	// ErrStoreUnavailable marks any failure of the record store. Callers may retry.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrAnalysisUnavailable marks any failure of the analysis service.
	ErrAnalysisUnavailable = errors.New("analysis unavailable")

	ErrNotFound = errors.New("not found")

	// ErrProfileRequired is returned until the user has completed onboarding.
	ErrProfileRequired = errors.New("profile required")
)

// StoreError wraps a backing-store failure. It matches ErrStoreUnavailable.
type StoreError struct {
	Op         string
	Collection Collection
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }

// AnalysisError wraps the cause of a failed analysis call. Callers should
// only ever check it against ErrAnalysisUnavailable; Cause is for logs.
type AnalysisError struct {
	Cause error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis unavailable: %v", e.Cause)
}

func (e *AnalysisError) Unwrap() error { return e.Cause }

func (e *AnalysisError) Is(target error) bool { return target == ErrAnalysisUnavailable }
