// Package errors defines the application errors surfaced by the enrollment core.
package errors

import (
	"net/http"

	"enrollment/internal/domain/validation"
	"enrollment/internal/errors"
)

// Code is the machine-readable error code callers switch on.
type Code string

const (
	CodeValidationFailed      Code = "VALIDATION_FAILED"
	CodeDuplicateSlot         Code = "DUPLICATE_SLOT"
	CodeMemberLocked          Code = "MEMBER_LOCKED"
	CodeMemberNotLocked       Code = "MEMBER_NOT_LOCKED"
	CodeCardAlreadyIssued     Code = "CARD_ALREADY_ISSUED"
	CodeNotFound              Code = "NOT_FOUND"
	CodePlanExpired           Code = "PLAN_EXPIRED"
	CodeCardIssuanceFailed    Code = "CARD_ISSUANCE_FAILED"
	CodeDatabaseExecuteFailed Code = "DATABASE_EXECUTE_FAILED"
	CodeInternal              Code = "INTERNAL_ERROR"
)

// Action tells the caller how to react to an error.
type Action string

const (
	// ActionFixInput means the user should be re-prompted for the flagged fields.
	ActionFixInput Action = "fix_input"
	// ActionNone means retrying with the same input cannot succeed.
	ActionNone Action = "none"
	// ActionRefresh means the caller holds a stale reference and should reload its view.
	ActionRefresh Action = "refresh"
	// ActionRetry means the failure was transient.
	ActionRetry Action = "retry"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int   // HTTP status code
	ErrorCode() Code // Business error code
	Message() string // User-friendly error message
	Details() any    // Detailed error information (optional)
	Action() Action  // Suggested caller reaction
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode Code
	message   string
	action    Action
	details   any
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode Code, message string, action Action) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		action:    action,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// Is matches any AppError carrying the same code, so errors.Is(err, ErrNotFound)
// holds for every not-found variant.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)

	return ok && t.errorCode == e.errorCode
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() Code {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() any {
	return e.details
}

// Action returns the suggested caller reaction
func (e *BaseError) Action() Action {
	return e.action
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details any) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		action:    e.action,
		details:   details,
	}
}

// Predefined error types
var (
	ErrValidationFailed = NewBaseError(
		http.StatusUnprocessableEntity,
		CodeValidationFailed,
		"Some details are missing or invalid",
		ActionFixInput,
	)

	ErrDuplicateSlot = NewBaseError(
		http.StatusConflict,
		CodeDuplicateSlot,
		"A member already occupies this relation slot",
		ActionRefresh,
	)

	ErrMemberLocked = NewBaseError(
		http.StatusConflict,
		CodeMemberLocked,
		"This information has been confirmed and cannot be changed",
		ActionNone,
	)

	ErrMemberNotLocked = NewBaseError(
		http.StatusConflict,
		CodeMemberNotLocked,
		"Member details must be confirmed before a card can be issued",
		ActionFixInput,
	)

	ErrCardAlreadyIssued = NewBaseError(
		http.StatusConflict,
		CodeCardAlreadyIssued,
		"A card has already been issued for this member",
		ActionNone,
	)

	ErrPlanExpired = NewBaseError(
		http.StatusConflict,
		CodePlanExpired,
		"The plan purchase has expired",
		ActionNone,
	)

	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		CodeNotFound,
		"The requested resource was not found",
		ActionRefresh,
	)

	ErrPlanPurchaseNotFound = NewBaseError(
		http.StatusNotFound,
		CodeNotFound,
		"Plan purchase not found",
		ActionRefresh,
	)

	ErrMemberNotFound = NewBaseError(
		http.StatusNotFound,
		CodeNotFound,
		"Member not found",
		ActionRefresh,
	)

	ErrCardNotFound = NewBaseError(
		http.StatusNotFound,
		CodeNotFound,
		"Card not found",
		ActionRefresh,
	)

	ErrAcknowledgementRequired = NewBaseError(
		http.StatusUnprocessableEntity,
		CodeValidationFailed,
		"Please confirm the details are correct before submitting",
		ActionFixInput,
	)

	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		CodeInternal,
		"Internal server error",
		ActionRetry,
	)
)

// ValidationError carries every field rule violation of a single call.
type ValidationError struct {
	fields []validation.FieldError
}

// NewValidationError builds a ValidationFailed error from field errors.
func NewValidationError(fields []validation.FieldError) *ValidationError {
	return &ValidationError{fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.fields) == 1 {
		return ErrValidationFailed.message + ": " + e.fields[0].Error()
	}

	return ErrValidationFailed.message
}

// Is reports true for ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return ErrValidationFailed.Is(target)
}

func (e *ValidationError) HTTPCode() int   { return ErrValidationFailed.httpCode }
func (e *ValidationError) ErrorCode() Code { return CodeValidationFailed }
func (e *ValidationError) Message() string { return ErrValidationFailed.message }
func (e *ValidationError) Action() Action  { return ActionFixInput }

// Details returns the field errors.
func (e *ValidationError) Details() any {
	return e.fields
}

// Fields returns the failing fields in rule-table order.
func (e *ValidationError) Fields() []validation.FieldError {
	return e.fields
}

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// Unwrap exposes the driver error.
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() Code {
	return CodeDatabaseExecuteFailed
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "Database execution failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() any {
	return e.details
}

// Action returns the suggested caller reaction
func (e *DatabaseExecuteError) Action() Action {
	return ActionRetry
}

// IssuanceError reports a wizard commit whose member was locked but whose card
// request failed. The member stays locked; the cause decides whether the card
// request is worth repeating.
type IssuanceError struct {
	memberID  string
	lockState string
	cause     error
}

// NewIssuanceError wraps the card request failure for a locked member.
func NewIssuanceError(memberID, lockState string, cause error) *IssuanceError {
	return &IssuanceError{memberID: memberID, lockState: lockState, cause: cause}
}

func (e *IssuanceError) Error() string {
	return errors.Wrap(e.cause, "member locked but card request failed").Error()
}

// Unwrap exposes the card request failure.
func (e *IssuanceError) Unwrap() error {
	return e.cause
}

// HTTPCode follows the cause when it is an AppError.
func (e *IssuanceError) HTTPCode() int {
	var appErr AppError
	if errors.As(e.cause, &appErr) {
		return appErr.HTTPCode()
	}

	return http.StatusInternalServerError
}

func (e *IssuanceError) ErrorCode() Code { return CodeCardIssuanceFailed }

func (e *IssuanceError) Message() string {
	return "Member details were saved but the card could not be requested"
}

// Details tells the caller which member is already locked and why issuance failed.
func (e *IssuanceError) Details() any {
	causeCode := CodeInternal
	var appErr AppError
	if errors.As(e.cause, &appErr) {
		causeCode = appErr.ErrorCode()
	}

	return map[string]any{
		"member_id":  e.memberID,
		"lock_state": e.lockState,
		"cause":      causeCode,
	}
}

// Action follows the cause when it is an AppError; anything else is retried.
func (e *IssuanceError) Action() Action {
	var appErr AppError
	if errors.As(e.cause, &appErr) {
		return appErr.Action()
	}

	return ActionRetry
}
