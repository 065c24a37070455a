package cmd

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobeyondidentity/puretodo/internal/api"
	"github.com/gobeyondidentity/puretodo/internal/testutil/cli"
	"github.com/gobeyondidentity/puretodo/pkg/client"
	"github.com/gobeyondidentity/puretodo/pkg/clierror"
	"github.com/gobeyondidentity/puretodo/pkg/store"
	"github.com/gobeyondidentity/puretodo/pkg/token"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "todoctl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	issuer, err := token.NewIssuer([]byte("todoctl-test-secret-0123456789ab"), time.Hour)
	require.NoError(t, err)

	srv, err := api.NewServer(api.ServerConfig{
		Store:  s,
		Issuer: issuer,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// run executes todoctl with args.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TODO_SERVER", "")
	t.Setenv("TODO_TOKEN", "")
	color.NoColor = true

	res := cli.Run(t, rootCmd, args...)
	return res.Stdout, res.Err
}

func runJSON[T any](t *testing.T, args ...string) T {
	t.Helper()
	out, err := run(t, append(args, "-o", "json")...)
	require.NoError(t, err, "todoctl %v", args)
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestWorkflow(t *testing.T) {
	ts := newTestServer(t)

	st := runJSON[client.Status](t, "status", "--server", ts.URL)
	assert.True(t, st.SetupMode)
	assert.Equal(t, "Missing", st.JwtStatus)

	alice := runJSON[client.User](t, "user", "add", "alice", "--name", "Alice", "--server", ts.URL)
	require.NotEmpty(t, alice.Token)
	assert.True(t, alice.Admin)

	as := func(args ...string) []string {
		return append(args, "--server", ts.URL, "--token", alice.Token)
	}

	out, err := run(t, as("status")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Token:   Ok")
	assert.Contains(t, out, "alice (id 1, admin)")

	list := runJSON[client.List](t, as("list", "add", "Groceries")...)
	assert.Equal(t, "Groceries", list.Name)

	milk := runJSON[client.Item](t, as("item", "add", "1", "Milk")...)
	eggs := runJSON[client.Item](t, as("item", "add", "1", "Eggs")...)
	assert.Equal(t, 1, milk.Priority)
	assert.Equal(t, 2, eggs.Priority)

	out, err = run(t, as("item", "done", "1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "finished item 1")

	open := runJSON[[]client.Item](t, as("item", "ls", "--list", "1", "--open")...)
	require.Len(t, open, 1)
	assert.Equal(t, "Eggs", open[0].Title)
	assert.Equal(t, 1, open[0].Priority)

	out, err = run(t, as("list", "show", "1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Groceries")
	assert.Regexp(t, `1\s+1\s+-\s+yes\s+Milk`, out)

	_, err = run(t, as("item", "clear", "1")...)
	require.NoError(t, err)
	remaining := runJSON[[]client.Item](t, as("item", "ls")...)
	require.Len(t, remaining, 1)
	assert.Equal(t, eggs.ID, remaining[0].ID)

	renamed := runJSON[client.List](t, as("list", "edit", "1", "--name", "Food")...)
	assert.Equal(t, "Food", renamed.Name)

	_, err = run(t, as("list", "rm", "1")...)
	require.NoError(t, err)
	out, err = run(t, as("list", "ls")...)
	require.NoError(t, err)
	assert.Contains(t, out, "No lists")
}

func TestUserAdministration(t *testing.T) {
	ts := newTestServer(t)

	alice := runJSON[client.User](t, "user", "add", "alice", "--server", ts.URL)
	as := func(args ...string) []string {
		return append(args, "--server", ts.URL, "--token", alice.Token)
	}

	bob := runJSON[client.User](t, as("user", "add", "bob")...)
	assert.False(t, bob.Admin)

	reissued := runJSON[client.User](t, as("user", "refresh-token", "2")...)
	assert.NotEqual(t, bob.Token, reissued.Token)

	_, err := run(t, "list", "ls", "--server", ts.URL, "--token", bob.Token)
	require.Error(t, err)
	ce := AsCLIError(err)
	assert.Equal(t, clierror.CodeTokenRevoked, ce.Code)
	assert.Equal(t, clierror.ExitAuth, ce.ExitCode)

	_, err = run(t, "user", "ls", "--server", ts.URL, "--token", reissued.Token)
	require.Error(t, err)
	ce = AsCLIError(err)
	assert.Equal(t, clierror.CodeNotAuthorized, ce.Code)

	_, err = run(t, as("user", "edit", "1", "--admin=false")...)
	require.Error(t, err)
	assert.Equal(t, clierror.ExitInvalid, AsCLIError(err).ExitCode)

	disabled := runJSON[client.User](t, as("user", "edit", "2", "--disabled")...)
	assert.True(t, disabled.Disabled)

	out, err := run(t, as("user", "ls")...)
	require.NoError(t, err)
	assert.Regexp(t, `bob\s+no\s+disabled`, out)

	_, err = run(t, as("user", "rm", "2")...)
	require.NoError(t, err)
	_, err = run(t, as("user", "rm", "2")...)
	assert.Equal(t, clierror.ExitNotFound, AsCLIError(err).ExitCode)
}

func TestCommandErrors(t *testing.T) {
	ts := newTestServer(t)

	t.Run("invalid token", func(t *testing.T) {
		_, err := run(t, "list", "ls", "--server", ts.URL, "--token", "garbage")
		ce := AsCLIError(err)
		assert.Equal(t, clierror.CodeNotAuthenticated, ce.Code)
		assert.Equal(t, clierror.ExitAuth, ce.ExitCode)
	})

	t.Run("bad id", func(t *testing.T) {
		_, err := run(t, "item", "rm", "abc", "--server", ts.URL)
		ce := AsCLIError(err)
		assert.Equal(t, clierror.CodeInvalidRequest, ce.Code)
	})

	t.Run("nothing to change", func(t *testing.T) {
		_, err := run(t, "item", "edit", "1", "--server", ts.URL)
		ce := AsCLIError(err)
		assert.Equal(t, clierror.CodeInvalidRequest, ce.Code)
		assert.NotEmpty(t, ce.Hint)
	})

	t.Run("unknown output format", func(t *testing.T) {
		_, err := run(t, "status", "-o", "xml", "--server", ts.URL)
		assert.Equal(t, clierror.ExitInvalid, AsCLIError(err).ExitCode)
	})

	t.Run("connection refused", func(t *testing.T) {
		_, err := run(t, "status", "--server", "http://127.0.0.1:1")
		ce := AsCLIError(err)
		assert.Equal(t, clierror.CodeConnectionFailed, ce.Code)
		assert.True(t, ce.Retryable)
	})

	t.Run("plain error", func(t *testing.T) {
		ce := AsCLIError(errors.New("boom"))
		assert.Equal(t, clierror.ExitGeneral, ce.ExitCode)
		assert.Equal(t, "boom", ce.Message)
	})
}

func TestServerURLPrecedence(t *testing.T) {
	cli.ResetFlags(rootCmd)
	t.Setenv("TODO_SERVER", "")
	assert.Equal(t, defaultServer, serverURL())

	t.Setenv("TODO_SERVER", "http://env:1")
	assert.Equal(t, "http://env:1", serverURL())

	serverFlag = "http://flag:2"
	defer func() { serverFlag = "" }()
	assert.Equal(t, "http://flag:2", serverURL())
}
