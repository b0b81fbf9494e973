package somiod

import (
	"errors"
	"fmt"
	"strings"
)

// Error types
var (
	// ErrApplicationNotFound indicates the application is missing or retired
	ErrApplicationNotFound = errors.New("application not found")

	// ErrContainerNotFound indicates the container or its ancestor chain is missing
	ErrContainerNotFound = errors.New("container not found")

	// ErrContentInstanceNotFound indicates the content instance is missing
	ErrContentInstanceNotFound = errors.New("content instance not found")

	// ErrSubscriptionNotFound indicates the subscription is missing
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrApplicationExists indicates an active application already holds the name
	ErrApplicationExists = errors.New("application already exists")

	// ErrContainerExists indicates the name collides within the application
	ErrContainerExists = errors.New("container already exists")

	// ErrContentInstanceExists indicates the name collides within the container
	ErrContentInstanceExists = errors.New("content instance already exists")

	// ErrSubscriptionExists indicates the name collides within the container
	ErrSubscriptionExists = errors.New("subscription already exists")

	// ErrHasDescendants indicates a rename was refused because children are
	// keyed by the current name and would be orphaned
	ErrHasDescendants = errors.New("resource has descendants")
)

// IsNotFound reports whether err belongs to the not-found category.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrApplicationNotFound) ||
		errors.Is(err, ErrContainerNotFound) ||
		errors.Is(err, ErrContentInstanceNotFound) ||
		errors.Is(err, ErrSubscriptionNotFound)
}

// IsConflict reports whether err belongs to the name-collision category.
func IsConflict(err error) bool {
	return errors.Is(err, ErrApplicationExists) ||
		errors.Is(err, ErrContainerExists) ||
		errors.Is(err, ErrContentInstanceExists) ||
		errors.Is(err, ErrSubscriptionExists) ||
		errors.Is(err, ErrHasDescendants)
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects the field errors of one rejected request. It is
// always returned before any write takes place.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ResourceError wraps a failed operation with the canonical path it targeted.
type ResourceError struct {
	Path string
	Op   string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource operation %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}
