// Package apperrors defines the error classes the API boundary maps to
// structured failure responses. No class is ever retried internally; the
// caller decides whether to resubmit.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports required fields that were missing or carried
// values outside their allowed set.
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid values for: "+strings.Join(e.Invalid, ", "))
	}
	if len(parts) == 0 {
		return "validation failed"
	}
	return strings.Join(parts, "; ")
}

// NotFoundError means the id addressed by the request does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ReferentialError means a write referenced a row that does not exist,
// e.g. an execution naming an unknown test plan.
type ReferentialError struct {
	Resource string
	ID       string
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("referenced %s %s does not exist", e.Resource, e.ID)
}

// StoreError wraps a persistence failure. It is fatal to the current
// operation and surfaced as a generic failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

func IsReferential(err error) bool {
	var r *ReferentialError
	return errors.As(err, &r)
}
