package model

import (
	"errors"
	"fmt"
)

// Error is a router failure that stops the current cycle.
//
// Both codes are fatal to the run: configuration errors mean the plant model
// is mis-specified, consistency errors mean the router's bookkeeping is wrong.
// Soft conditions (no operator, no free receiver) are never errors.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// CycleID identifies the resolution cycle, when known.
	CycleID string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes router errors.
type ErrorCode string

const (
	// ErrCodeConfiguration indicates an unknown or inconsistent scheduling criterion.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"

	// ErrCodeInternalConsistency indicates a resolver invariant violation.
	ErrCodeInternalConsistency ErrorCode = "INTERNAL_CONSISTENCY"
)

// Messages shared by the ordering policy and the router.
const (
	MsgUnknownCriterion      = "unknown scheduling criterion"
	MsgInconsistentRule      = "inconsistent scheduling rule"
	MsgNoRankingKey          = "item has no entity to rank"
	MsgStationNotSignalled   = "station not in signal set"
	MsgEmptyConflictGroup    = "empty conflicting-operator group"
	MsgGiverNotQueue         = "candidate entity is not held by a queue"
	MsgCandidateEntityAbsent = "committed operator has no candidate entity"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.CycleID != "" {
		return fmt.Sprintf("%s: %s (cycle=%s)", e.Code, e.Message, e.CycleID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewConfigurationError creates an Error with ErrCodeConfiguration.
func NewConfigurationError(message string, details map[string]string) *Error {
	return &Error{
		Code:    ErrCodeConfiguration,
		Message: message,
		Details: details,
	}
}

// NewConsistencyError creates an Error with ErrCodeInternalConsistency.
func NewConsistencyError(message string, details map[string]string) *Error {
	return &Error{
		Code:    ErrCodeInternalConsistency,
		Message: message,
		Details: details,
	}
}

// IsConfigurationError returns true if err wraps a configuration error.
func IsConfigurationError(err error) bool {
	return hasCode(err, ErrCodeConfiguration)
}

// IsConsistencyError returns true if err wraps an internal consistency error.
func IsConsistencyError(err error) bool {
	return hasCode(err, ErrCodeInternalConsistency)
}

// CodeOf returns the error's code, or "" if err is not a router error.
func CodeOf(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

func hasCode(err error, code ErrorCode) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}
