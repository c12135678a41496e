package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured application error with HTTP status code.
// Reason is a stable machine-readable code the UI branches on (e.g. to
// distinguish "pending activation" from "not configured").
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Err     error  `json:"-"`
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

// Common error constructors.

func ErrNotFound(msg string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: msg}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Message: msg}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Code: http.StatusForbidden, Message: msg}
}

func ErrBadRequest(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: http.StatusUnprocessableEntity, Message: msg}
}

func ErrInternal(msg string, err error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Message: msg, Err: err}
}

// Access-denial reasons. The gateway surfaces the exact unmet condition so
// the UI can render an actionable prompt instead of a generic banner.
var (
	ErrNoSubscription = &AppError{
		Code: http.StatusForbidden, Message: "no subscription for this tool", Reason: "no_subscription",
	}
	ErrSubscriptionExpired = &AppError{
		Code: http.StatusForbidden, Message: "subscription period has expired", Reason: "expired",
	}
	ErrActivationPending = &AppError{
		Code: http.StatusForbidden, Message: "subscription is awaiting activation", Reason: "pending_activation",
	}
	ErrSubscriptionSuspended = &AppError{
		Code: http.StatusForbidden, Message: "subscription is suspended", Reason: "suspended",
	}
	ErrSubscriptionPaused = &AppError{
		Code: http.StatusForbidden, Message: "subscription is paused", Reason: "paused",
	}
	ErrSubscriptionCanceled = &AppError{
		Code: http.StatusForbidden, Message: "subscription is canceled", Reason: "canceled",
	}
)

// Cookie vault failures. NotConfigured means the admin never stored
// cookies for the tool; CorruptBlob means a blob exists but cannot be
// decrypted or parsed. Callers must treat both as terminal.
var (
	ErrCookiesNotConfigured = &AppError{
		Code: http.StatusNotFound, Message: "cookies not configured for this tool", Reason: "not_configured",
	}
	ErrCorruptCookieBlob = &AppError{
		Code: http.StatusInternalServerError, Message: "stored cookies could not be decrypted", Reason: "corrupt_blob",
	}
)

// AsAppError attempts to extract an AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
