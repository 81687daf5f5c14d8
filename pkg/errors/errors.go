package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the base interface for all application errors
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// NotFoundError represents a resource that was not found
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

func (e *NotFoundError) Code() string {
	return "NOT_FOUND"
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// NewHandleNotFoundError reports a storefront entity that disappeared
// between crawl and apply. The message shape is part of the API contract.
func NewHandleNotFoundError(scopeType, handle string) *ValidationError {
	return &ValidationError{
		Field:   "handle",
		Message: fmt.Sprintf("%s not found with handle '%s'", scopeType, handle),
	}
}

// ValidationError represents invalid input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

func (e *ValidationError) Code() string {
	return "VALIDATION_ERROR"
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// PermissionError represents insufficient permissions
type PermissionError struct {
	Action   string
	Resource string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: cannot %s %s", e.Action, e.Resource)
}

func (e *PermissionError) HTTPStatus() int {
	return http.StatusForbidden
}

func (e *PermissionError) Code() string {
	return "PERMISSION_DENIED"
}

// NewPermissionError creates a new PermissionError
func NewPermissionError(action, resource string) *PermissionError {
	return &PermissionError{Action: action, Resource: resource}
}

// UnauthorizedError represents authentication failures
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unauthorized: %s", e.Reason)
	}
	return "unauthorized"
}

func (e *UnauthorizedError) HTTPStatus() int {
	return http.StatusUnauthorized
}

func (e *UnauthorizedError) Code() string {
	return "UNAUTHORIZED"
}

// NewUnauthorizedError creates a new UnauthorizedError
func NewUnauthorizedError(reason string) *UnauthorizedError {
	return &UnauthorizedError{Reason: reason}
}

// ConflictError represents a conflict with existing data.
// ConflictCode carries domain-specific 409 codes (e.g. RUN_IN_PROGRESS).
type ConflictError struct {
	Resource     string
	Message      string
	ConflictCode string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

func (e *ConflictError) HTTPStatus() int {
	return http.StatusConflict
}

func (e *ConflictError) Code() string {
	if e.ConflictCode != "" {
		return e.ConflictCode
	}
	return "CONFLICT"
}

// NewConflictError creates a new ConflictError
func NewConflictError(resource, message string) *ConflictError {
	return &ConflictError{Resource: resource, Message: message}
}

// NewRulesChangedError signals that the playbook catalog changed between
// estimate and apply. Clients must re-run estimate against the new rules hash.
func NewRulesChangedError(playbookKey string) *ConflictError {
	return &ConflictError{
		Resource:     "Playbook",
		Message:      fmt.Sprintf("playbook rules changed for '%s', re-run estimate", playbookKey),
		ConflictCode: "PLAYBOOK_RULES_CHANGED",
	}
}

// NewRunInProgressError signals that the project already has an active run
// for the playbook
func NewRunInProgressError(playbookKey string) *ConflictError {
	return &ConflictError{
		Resource:     "PlaybookRun",
		Message:      fmt.Sprintf("a run for playbook '%s' is already queued or running", playbookKey),
		ConflictCode: "RUN_IN_PROGRESS",
	}
}

// NewStaleDraftError signals that the draft's captured value no longer
// matches the live storefront value
func NewStaleDraftError(draftID string) *ConflictError {
	return &ConflictError{
		Resource:     "Draft",
		Message:      fmt.Sprintf("draft '%s' is stale: the source content changed since generation", draftID),
		ConflictCode: "DRAFT_STALE",
	}
}

// QuotaError represents an exhausted plan entitlement
type QuotaError struct {
	Plan      string
	Requested int
	Remaining int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("plan '%s' AI quota exceeded: %d generations requested, %d remaining", e.Plan, e.Requested, e.Remaining)
}

func (e *QuotaError) HTTPStatus() int {
	return http.StatusPaymentRequired
}

func (e *QuotaError) Code() string {
	return "PLAN_LIMIT_REACHED"
}

// NewQuotaError creates a new QuotaError
func NewQuotaError(plan string, requested, remaining int) *QuotaError {
	return &QuotaError{Plan: plan, Requested: requested, Remaining: remaining}
}

// InternalError represents unexpected server errors
type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("internal error: %s (caused by: %v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("internal error: %s", e.Message)
}

func (e *InternalError) HTTPStatus() int {
	return http.StatusInternalServerError
}

func (e *InternalError) Code() string {
	return "INTERNAL_ERROR"
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{Message: message, Cause: cause}
}

// Helper functions for error checking

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}

// IsUnauthorized checks if an error is an UnauthorizedError
func IsUnauthorized(err error) bool {
	var unauthorized *UnauthorizedError
	return errors.As(err, &unauthorized)
}

// IsConflict checks if an error is a ConflictError
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}

// IsQuota checks if an error is a QuotaError
func IsQuota(err error) bool {
	var quota *QuotaError
	return errors.As(err, &quota)
}

// GetHTTPStatus returns the HTTP status code for an error
// Returns 500 if the error doesn't implement AppError
func GetHTTPStatus(err error) int {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// GetErrorCode returns the error code for an error
// Returns "UNKNOWN_ERROR" if the error doesn't implement AppError
func GetErrorCode(err error) string {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return "UNKNOWN_ERROR"
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ToResponse converts an error to an ErrorResponse
func ToResponse(err error) ErrorResponse {
	return ErrorResponse{
		Code:    GetErrorCode(err),
		Message: err.Error(),
	}
}
