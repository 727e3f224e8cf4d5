package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes rendered to clients.
const (
	CodeValidation           = "VALIDATION_FAILED"
	CodeInvalidAmount        = "INVALID_AMOUNT"
	CodeInsufficientFunds    = "INSUFFICIENT_FUNDS"
	CodeNotFound             = "NOT_FOUND"
	CodeDuplicatePending     = "DUPLICATE_PENDING"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeSubscriptionRequired = "SUBSCRIPTION_REQUIRED"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeConflict             = "CONFLICT"
	CodeUnavailable          = "UNAVAILABLE"
	CodeInternal             = "INTERNAL_ERROR"
)

// Sentinels for errors.Is comparisons. Matching is by code only.
var (
	ErrValidation           = &DomainError{Code: CodeValidation}
	ErrInvalidAmount        = &DomainError{Code: CodeInvalidAmount}
	ErrInsufficientFunds    = &DomainError{Code: CodeInsufficientFunds}
	ErrNotFound             = &DomainError{Code: CodeNotFound}
	ErrDuplicatePending     = &DomainError{Code: CodeDuplicatePending}
	ErrInvalidTransition    = &DomainError{Code: CodeInvalidTransition}
	ErrSubscriptionRequired = &DomainError{Code: CodeSubscriptionRequired}
	ErrUnauthorized         = &DomainError{Code: CodeUnauthorized}
	ErrConflict             = &DomainError{Code: CodeConflict}
	ErrUnavailable          = &DomainError{Code: CodeUnavailable}
	ErrInternal             = &DomainError{Code: CodeInternal}
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message == "" {
		return e.Code
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target carries the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewInvalidAmount(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidAmount, message, http.StatusUnprocessableEntity, details)
}

func NewInsufficientFunds(details map[string]any) error {
	return NewDomainError(CodeInsufficientFunds, "insufficient funds", http.StatusUnprocessableEntity, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewDuplicatePending(message string, details map[string]any) error {
	return NewDomainError(CodeDuplicatePending, message, http.StatusConflict, details)
}

func NewInvalidTransition(resource string, from, to any) error {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("%s cannot move from %v to %v", resource, from, to),
		http.StatusConflict,
		map[string]any{"from": from, "to": to})
}

func NewSubscriptionRequired() error {
	return NewDomainError(CodeSubscriptionRequired, "subscription required", http.StatusPaymentRequired, nil)
}

// NewUnauthorized is used when the caller could not be identified.
func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// NewForbidden is used when the caller is known but lacks the role.
func NewForbidden(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewUnavailable(message string, err error) error {
	return &DomainError{
		Code:       CodeUnavailable,
		Message:    message,
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		if domainErr.HTTPStatus == 0 {
			cp := *domainErr
			cp.HTTPStatus = http.StatusInternalServerError
			return &cp
		}
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// CodeOf returns the error code carried by err, or INTERNAL_ERROR.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return ToDomainError(err).Code
}
