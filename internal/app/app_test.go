package app

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/snapgram/cli/internal/mockapi"
	"github.com/snapgram/cli/pkg/credentials"
	"github.com/snapgram/cli/pkg/formatter"
	"github.com/snapgram/cli/pkg/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, baseURL string) (*App, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true

	path := filepath.Join(t.TempDir(), "config.toml")
	if baseURL != "" {
		contents := fmt.Sprintf("[api]\nbase_url = %q\n", baseURL)
		require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	}

	a, err := New(Options{ConfigPath: path})
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	a.Printer = output.New(buf, output.FormatText)
	a.Formatter = formatter.New(a.Printer, baseURL)
	return a, buf
}

func TestNewRejectsUnknownOutput(t *testing.T) {
	_, err := New(Options{ConfigPath: filepath.Join(t.TempDir(), "config.toml"), Output: "yaml"})
	assert.Error(t, err)
}

func TestNewUsesOutputFlag(t *testing.T) {
	a, err := New(Options{ConfigPath: filepath.Join(t.TempDir(), "config.toml"), Output: "json"})
	require.NoError(t, err)
	assert.True(t, a.Printer.IsJSON())
}

func TestHydrateWithoutCredentialsStaysSignedOut(t *testing.T) {
	a, buf := newTestApp(t, "")
	a.Hydrate(context.Background())
	assert.False(t, a.Session.SignedIn())
	assert.Empty(t, buf.String())
}

func TestHydrateRejectedTokenWarns(t *testing.T) {
	srv, err := mockapi.New(mockapi.Options{JWTSecret: "s"})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	a, buf := newTestApp(t, ts.URL)

	// signed with a key the server does not know
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	require.NoError(t, a.Credentials.Save(credentials.FromToken(token)))

	a.Hydrate(context.Background())
	assert.Contains(t, buf.String(), "session has expired")
	assert.False(t, a.Session.SignedIn())

	creds, err := a.Credentials.Load()
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestLoginThenHydrateInNewProcess(t *testing.T) {
	srv, err := mockapi.New(mockapi.Options{JWTSecret: "s", SeedUsers: 2, Seed: 3})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	a, buf := newTestApp(t, ts.URL)
	require.NoError(t, a.Auth().Login(context.Background(), mockapi.DemoUsername, mockapi.DemoPassword))
	assert.Contains(t, buf.String(), "Logged in as")

	// a second App over the same config dir picks the session up
	b, err := New(Options{ConfigPath: a.Config.FilePath()})
	require.NoError(t, err)
	b.Hydrate(context.Background())
	require.True(t, b.Session.SignedIn())
	assert.Equal(t, mockapi.DemoUsername, b.Session.User().Username)
	assert.NotEmpty(t, b.LiveConfig().Token)
}
