package custom_error

import (
	"errors"
	"fmt"
	"strings"
)

// InvalidTransitionError is returned when an operation is not legal for the current state.
type InvalidTransitionError struct {
	Operation string
	Current   string
	Required  []string
}

func NewInvalidTransition(operation string, current string, required ...string) *InvalidTransitionError {
	return &InvalidTransitionError{Operation: operation, Current: current, Required: required}
}

func (e *InvalidTransitionError) Error() string {
	if len(e.Required) == 0 {
		return fmt.Sprintf("cannot %s: current status is %s", e.Operation, e.Current)
	}
	return fmt.Sprintf("cannot %s: current status is %s, required %s", e.Operation, e.Current, strings.Join(e.Required, " or "))
}

// UnauthorizedError is returned when the actor lacks the relationship an action needs.
type UnauthorizedError struct {
	Action string
	Reason string
}

func NewUnauthorized(action string, reason string) *UnauthorizedError {
	return &UnauthorizedError{Action: action, Reason: reason}
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("not allowed to %s: %s", e.Action, e.Reason)
}

type NoApproverAvailableError struct {
	RequestID int
}

func (e *NoApproverAvailableError) Error() string {
	return fmt.Sprintf("no active approver available for request %d", e.RequestID)
}

type ValidationError struct {
	Field   string
	Message string
}

func NewValidation(field string, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IntegrityViolationError signals an attempt to rewrite an append-only record.
type IntegrityViolationError struct {
	message string
	code    string
}

func NewIntegrityViolation(message string) *IntegrityViolationError {
	return &IntegrityViolationError{message: message, code: codeRestrictViolation}
}

func (e *IntegrityViolationError) Error() string {
	return fmt.Sprintf("integrity violation: %s (code: %s)", e.message, e.code)
}

type NotFoundError struct {
	Resource string
	ID       interface{}
}

func NewNotFound(resource string, id interface{}) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func IsInvalidTransition(err error) bool {
	var target *InvalidTransitionError
	return errors.As(err, &target)
}

func IsUnauthorized(err error) bool {
	var target *UnauthorizedError
	return errors.As(err, &target)
}

func IsNoApproverAvailable(err error) bool {
	var target *NoApproverAvailableError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsIntegrityViolation(err error) bool {
	var target *IntegrityViolationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsUniqueViolation(err error) bool {
	var target *UniqueViolationError
	return errors.As(err, &target)
}
