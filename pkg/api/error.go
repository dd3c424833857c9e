package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
)

// APIError represents an API error response
type APIError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

// ParseError builds an APIError from a non-2xx response. The message is
// taken from error.message, then the top-level message, then the status.
func ParseError(resp *resty.Response) error {
	statusCode := resp.StatusCode()
	apiErr := &APIError{
		Code:       codeForStatus(statusCode),
		StatusCode: statusCode,
	}

	var env Envelope[json.RawMessage]
	if err := json.Unmarshal(resp.Body(), &env); err == nil {
		if env.Error != nil {
			if env.Error.Code != "" {
				apiErr.Code = env.Error.Code
			}
			apiErr.Message = env.Error.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = env.Message
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(resp.Body()))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}

	return apiErr
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case status == http.StatusForbidden:
		return "FORBIDDEN"
	case status == http.StatusNotFound:
		return "NOT_FOUND"
	case status == http.StatusConflict:
		return "CONFLICT"
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	case status >= 500:
		return "INTERNAL_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsUnauthorized checks if error is due to missing/invalid authentication
func IsUnauthorized(err error) bool {
	return statusOf(err) == http.StatusUnauthorized
}

// IsForbidden checks if error is due to insufficient permissions
func IsForbidden(err error) bool {
	return statusOf(err) == http.StatusForbidden
}

// IsNotFound checks if error is due to resource not found
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsValidation checks if the server rejected the input
func IsValidation(err error) bool {
	status := statusOf(err)
	return status == http.StatusBadRequest || status == http.StatusUnprocessableEntity
}

// IsServerError checks if error is due to server error (5xx)
func IsServerError(err error) bool {
	return statusOf(err) >= 500
}

// CheckResponse checks if response is successful and returns error if not
func CheckResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}

	if !resp.IsSuccess() {
		return ParseError(resp)
	}

	return nil
}

// decode checks the response and unwraps the envelope's data member.
func decode[T any](resp *resty.Response, err error) (T, error) {
	var zero T
	if err := CheckResponse(resp, err); err != nil {
		return zero, err
	}

	var env Envelope[T]
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return zero, fmt.Errorf("failed to decode response: %w", err)
	}
	return env.Data, nil
}
