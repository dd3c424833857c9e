package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/snapgram/cli/pkg/api"
	"github.com/snapgram/cli/pkg/profile"
	"github.com/snapgram/cli/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorizeAPIErrors(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		want   ErrorType
	}{
		{"unauthorized", 401, ErrorTypeUnauthorized},
		{"forbidden", 403, ErrorTypeForbidden},
		{"not found", 404, ErrorTypeNotFound},
		{"bad request", 400, ErrorTypeValidation},
		{"unprocessable", 422, ErrorTypeValidation},
		{"conflict", 409, ErrorTypeConflict},
		{"server", 503, ErrorTypeServer},
		{"teapot", 418, ErrorTypeUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &api.APIError{StatusCode: tc.status, Message: "msg"})
			appErr := Categorize(err)
			assert.Equal(t, tc.want, appErr.Type)
			assert.Equal(t, "msg", appErr.Message)
			assert.Equal(t, tc.status, appErr.StatusCode)
		})
	}
}

func TestCategorizeSentinels(t *testing.T) {
	assert.Equal(t, ErrorTypeSessionExpired, Categorize(session.ErrSessionExpired).Type)
	assert.Equal(t, ErrorTypeUnauthorized, Categorize(profile.ErrNotSignedIn).Type)
	assert.Equal(t, ErrorTypeBusy, Categorize(profile.ErrToggleInFlight).Type)
	assert.Equal(t, ErrorTypeValidation, Categorize(fmt.Errorf("%w: too long", profile.ErrInvalidEdit)).Type)
	assert.Equal(t, ErrorTypeTimeout, Categorize(context.DeadlineExceeded).Type)
}

func TestCategorizeNetworkErrors(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	appErr := Categorize(fmt.Errorf("Get \"http://localhost\": %w", refused))
	assert.Equal(t, ErrorTypeNetwork, appErr.Type)
	assert.True(t, appErr.HasSuggestion())

	var dnsTimeout net.Error = &net.DNSError{Err: "timeout", IsTimeout: true}
	assert.Equal(t, ErrorTypeTimeout, Categorize(dnsTimeout).Type)
}

func TestCategorizeKeepsAppError(t *testing.T) {
	orig := New(ErrorTypeConflict, "taken", nil)
	assert.Same(t, orig, Categorize(fmt.Errorf("outer: %w", orig)))
	assert.Nil(t, Categorize(nil))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := New(ErrorTypeUnknown, "x", cause)
	assert.ErrorIs(t, err, cause)
}

func TestFormat(t *testing.T) {
	assert.Empty(t, Format(nil))

	out := Format(&api.APIError{StatusCode: 401, Message: "token expired"})
	require.Contains(t, out, "Error (unauthorized): token expired")
	assert.Contains(t, out, "snapgram auth login")

	out = Format(errors.New("something odd"))
	assert.Equal(t, "Error: something odd\n", out)
}
