package domain

import "net/http"

type ErrorCode string

const (
	ErrorCodeValidation         ErrorCode = "VALIDATION"
	ErrorCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrorCodeConflict           ErrorCode = "CONFLICT"
	ErrorCodePaymentDeclined    ErrorCode = "PAYMENT_DECLINED"
	ErrorCodePaymentRateLimited ErrorCode = "PAYMENT_RATE_LIMITED"
	ErrorCodePaymentUnavailable ErrorCode = "PAYMENT_UNAVAILABLE"
	ErrorCodeThresholdNotMet    ErrorCode = "THRESHOLD_NOT_MET"
	ErrorCodePartialFailure     ErrorCode = "PARTIAL_FAILURE"
	ErrorCodeInternal           ErrorCode = "INTERNAL"
)

// DomainError is the only error type allowed to cross a use-case boundary.
// Repository and gateway errors are translated into it before they escape.
type DomainError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
}

func (e *DomainError) Error() string {
	return string(e.Code) + ": " + e.Message
}

func NewValidationError(msg string) *DomainError {
	return &DomainError{Code: ErrorCodeValidation, Message: msg, HTTPStatus: http.StatusBadRequest}
}

func NewNotFoundError(msg string) *DomainError {
	return &DomainError{Code: ErrorCodeNotFound, Message: msg, HTTPStatus: http.StatusNotFound}
}

func NewConflictError(msg string) *DomainError {
	return &DomainError{Code: ErrorCodeConflict, Message: msg, HTTPStatus: http.StatusConflict}
}
