package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/snapgram/cli/pkg/api"
	"github.com/snapgram/cli/pkg/profile"
	"github.com/snapgram/cli/pkg/session"
)

// ErrorType categorizes different error types
type ErrorType string

const (
	ErrorTypeNetwork ErrorType = "network"
	ErrorTypeTimeout ErrorType = "timeout"

	ErrorTypeUnauthorized   ErrorType = "unauthorized"
	ErrorTypeSessionExpired ErrorType = "session_expired"
	ErrorTypeForbidden      ErrorType = "forbidden"

	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeBusy       ErrorType = "busy"

	ErrorTypeServer  ErrorType = "server"
	ErrorTypeUnknown ErrorType = "unknown"
)

// AppError is a failure ready to show to the user.
type AppError struct {
	Type       ErrorType
	Message    string
	Cause      error
	Suggestion string
	StatusCode int
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithSuggestion adds a helpful suggestion to the error
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestion = suggestion
	return e
}

// HasSuggestion returns true if the error has a suggestion
func (e *AppError) HasSuggestion() bool {
	return e.Suggestion != ""
}

func New(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{Type: errorType, Message: message, Cause: cause}
}

// Categorize converts any error returned by the client packages into an
// AppError. Errors that are already AppErrors are returned unchanged.
func Categorize(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, session.ErrSessionExpired):
		return New(ErrorTypeSessionExpired, "Your session has expired", err).
			WithSuggestion("Run 'snapgram auth login' to sign in again.")
	case errors.Is(err, session.ErrNotSignedIn), errors.Is(err, profile.ErrNotSignedIn):
		return New(ErrorTypeUnauthorized, "You are not signed in", err).
			WithSuggestion("Run 'snapgram auth login' first.")
	case errors.Is(err, profile.ErrToggleInFlight):
		return New(ErrorTypeBusy, err.Error(), err)
	case errors.Is(err, profile.ErrInvalidEdit),
		errors.Is(err, profile.ErrOwnProfile),
		errors.Is(err, profile.ErrNotOwnProfile):
		return New(ErrorTypeValidation, err.Error(), err)
	case errors.Is(err, context.DeadlineExceeded):
		return New(ErrorTypeTimeout, "Request timed out", err).
			WithSuggestion("The server is taking too long to respond. Try again in a moment.")
	case errors.Is(err, context.Canceled):
		return New(ErrorTypeUnknown, "Cancelled", err)
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return fromAPIError(apiErr)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return New(ErrorTypeTimeout, "Request timed out", err).
				WithSuggestion("The server is taking too long to respond. Try again in a moment.")
		}
		return New(ErrorTypeNetwork, "Could not reach the server", err).
			WithSuggestion("Check that api.base_url is correct and the server is running.")
	}

	return New(ErrorTypeUnknown, err.Error(), err)
}

func fromAPIError(apiErr *api.APIError) *AppError {
	e := &AppError{Message: apiErr.Message, Cause: apiErr, StatusCode: apiErr.StatusCode}

	switch {
	case api.IsUnauthorized(apiErr):
		e.Type = ErrorTypeUnauthorized
		e.Suggestion = "Run 'snapgram auth login' to sign in again."
	case api.IsForbidden(apiErr):
		e.Type = ErrorTypeForbidden
	case api.IsNotFound(apiErr):
		e.Type = ErrorTypeNotFound
	case api.IsValidation(apiErr):
		e.Type = ErrorTypeValidation
	case apiErr.StatusCode == 409:
		e.Type = ErrorTypeConflict
	case api.IsServerError(apiErr):
		e.Type = ErrorTypeServer
		e.Suggestion = "The server encountered an error. Try again in a few moments."
	default:
		e.Type = ErrorTypeUnknown
	}
	return e
}

// Format returns a user-friendly error message
func Format(err error) string {
	if err == nil {
		return ""
	}

	appErr := Categorize(err)
	var sb strings.Builder

	sb.WriteString("Error")
	if appErr.Type != ErrorTypeUnknown {
		fmt.Fprintf(&sb, " (%s)", appErr.Type)
	}
	sb.WriteString(": ")
	sb.WriteString(appErr.Message)
	sb.WriteString("\n")

	if appErr.HasSuggestion() {
		sb.WriteString("Suggestion: ")
		sb.WriteString(appErr.Suggestion)
		sb.WriteString("\n")
	}

	return sb.String()
}
