// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// InvalidStateError reports an illegal lifecycle transition.
type InvalidStateError struct {
	Entity string
	From   string
	Action string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s in status: %s", e.Action, e.Entity, e.From)
}

// NotFoundError is returned by the persistence layer when an id no longer exists.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

// Helper constructors

func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func NewInvalidState(entity, from, action string) error {
	return &InvalidStateError{Entity: entity, From: from, Action: action}
}

func NewNotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func NewCampaignNotFound(id string) error {
	return NewNotFound("campaign", id)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// HTTPStatus maps an error returned by the services to a response code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsInvalidState(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
