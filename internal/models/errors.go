package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeNotFound     = "NOT_FOUND"
	CodeForbidden    = "FORBIDDEN"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL_ERROR"
)

// Reasons refine a code so clients can branch without parsing messages.
const (
	ReasonSelfRequest             = "SELF_REQUEST"
	ReasonAlreadyFriends          = "ALREADY_FRIENDS"
	ReasonDuplicatePending        = "DUPLICATE_PENDING"
	ReasonRequestNotPending       = "REQUEST_NOT_PENDING"
	ReasonRequestAlreadyProcessed = "REQUEST_ALREADY_PROCESSED"
	ReasonSelfFollow              = "SELF_FOLLOW"
	ReasonSelfMessage             = "SELF_MESSAGE"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Reason  string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError on code and reason, so errors.Is works against
// the sentinels below regardless of message text.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Reason == t.Reason
}

// Sentinels for the friend request state machine.
var (
	ErrSelfRequest = &AppError{
		Code: CodeValidation, Reason: ReasonSelfRequest,
		Message: "Cannot send friend request to yourself",
	}
	ErrAlreadyFriends = &AppError{
		Code: CodeConflict, Reason: ReasonAlreadyFriends,
		Message: "You are already friends",
	}
	ErrDuplicatePending = &AppError{
		Code: CodeConflict, Reason: ReasonDuplicatePending,
		Message: "A pending friend request already exists between these users",
	}
	ErrRequestNotPending = &AppError{
		Code: CodeConflict, Reason: ReasonRequestNotPending,
		Message: "Friend request is not pending",
	}
	ErrRequestAlreadyProcessed = &AppError{
		Code: CodeConflict, Reason: ReasonRequestAlreadyProcessed,
		Message: "Friend request was already processed",
	}
)

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewValidationErrorWithReason builds a validation error clients can branch on.
func NewValidationErrorWithReason(reason, message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Reason:  reason,
		Message: message,
	}
}

func NewConflictError(reason, message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Reason:  reason,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// StatusForCode maps an AppError code onto an HTTP status.
func StatusForCode(code string) int {
	switch code {
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeConflict:
		return fiber.StatusConflict
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response. The cause of an
// internal error never reaches the body.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		response = ErrorResponse{
			Error:  appErr.Message,
			Code:   appErr.Code,
			Reason: appErr.Reason,
		}
		if appErr.Err != nil && appErr.Code != CodeInternal {
			response.Details = appErr.Err.Error()
		}
	case status >= fiber.StatusInternalServerError:
		response = ErrorResponse{
			Error: "Internal server error",
			Code:  CodeInternal,
		}
	default:
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
