package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobeyondidentity/puretodo/internal/api"
	"github.com/gobeyondidentity/puretodo/internal/testutil/mockhttp"
	"github.com/gobeyondidentity/puretodo/pkg/store"
	"github.com/gobeyondidentity/puretodo/pkg/token"
)

// newTestServer starts a real API server on an empty database.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	issuer, err := token.NewIssuer([]byte("client-test-secret-0123456789abc"), time.Hour)
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

func TestClientRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	anon := New(ts.URL+"/", "")
	st, err := anon.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.SetupMode)
	assert.Equal(t, "Missing", st.JwtStatus)

	admin, err := anon.CreateUser(ctx, NewUser{Username: "alice", Name: "Alice"})
	require.NoError(t, err)
	require.NotEmpty(t, admin.Token)

	c := New(ts.URL, admin.Token)
	assert.Equal(t, ts.URL, c.BaseURL())

	list, err := c.CreateList(ctx, NewList{Name: "Groceries"})
	require.NoError(t, err)

	milk, err := c.CreateItem(ctx, NewItem{ListID: list.ID, Title: "Milk"})
	require.NoError(t, err)
	eggs, err := c.CreateItem(ctx, NewItem{ListID: list.ID, Title: "Eggs"})
	require.NoError(t, err)
	assert.Equal(t, 2, eggs.Priority)

	top := 2
	moved, err := c.UpdateItem(ctx, milk.ID, ItemPatch{Priority: &top})
	require.NoError(t, err)
	assert.Equal(t, 2, moved.Priority)

	done := true
	_, err = c.UpdateItem(ctx, eggs.ID, ItemPatch{Finished: &done})
	require.NoError(t, err)

	finished, err := c.ListItems(ctx, ItemFilter{ListID: &list.ID, Finished: &done})
	require.NoError(t, err)
	require.Len(t, finished, 1)
	assert.Equal(t, "Eggs", finished[0].Title)

	require.NoError(t, c.ClearFinished(ctx, list.ID))
	all, err := c.ListItems(ctx, ItemFilter{ListID: &list.ID})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 1, all[0].Priority)

	require.NoError(t, c.DeleteList(ctx, list.ID))
	_, err = c.GetList(ctx, list.ID)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClientUserAdmin(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	admin, err := New(ts.URL, "").CreateUser(ctx, NewUser{Username: "alice"})
	require.NoError(t, err)
	c := New(ts.URL, admin.Token)

	bob, err := c.CreateUser(ctx, NewUser{Username: "bob", Name: "Bob"})
	require.NoError(t, err)
	assert.False(t, bob.Admin)

	refreshed, err := c.RefreshToken(ctx, bob.ID)
	require.NoError(t, err)
	assert.NotEqual(t, bob.Token, refreshed.Token)

	st, err := New(ts.URL, bob.Token).Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "NotFound", st.JwtStatus)

	_, err = New(ts.URL, refreshed.Token).ListUsers(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "Ok", apiErr.Code)
	assert.Equal(t, "This request requires admin permissions", apiErr.Title)

	users, err := c.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, c.DeleteUser(ctx, bob.ID))
	_, err = c.GetUser(ctx, bob.ID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClientErrors(t *testing.T) {
	srv, capture := mockhttp.New().
		Error("GET", "/api/lists", http.StatusForbidden, "This request requires authorization", "Expired").
		Raw("GET", "/api/items", http.StatusInternalServerError, "").
		Raw("GET", "/api/status", http.StatusOK, "not json").
		JSON("DELETE", "/api/items/*", http.StatusOK, map[string]string{}).
		Raw("DELETE", "/api/lists/4/items", http.StatusNoContent, "").
		Build(t)
	c := New(srv.URL, "tok")
	ctx := context.Background()

	t.Run("error envelope", func(t *testing.T) {
		_, err := c.ListLists(ctx)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
		assert.Equal(t, "This request requires authorization", apiErr.Title)
		assert.Equal(t, "Expired", apiErr.Code)
		assert.Equal(t, "Bearer tok", capture.Last().Header.Get("Authorization"))
	})

	t.Run("empty error body", func(t *testing.T) {
		_, err := c.ListItems(ctx, ItemFilter{})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		assert.Empty(t, apiErr.Title)
	})

	t.Run("undecodable body", func(t *testing.T) {
		_, err := c.Status(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode response")
	})

	t.Run("unexpected success status", func(t *testing.T) {
		err := c.DeleteItem(ctx, 3)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusOK, apiErr.StatusCode)
	})

	t.Run("clear finished", func(t *testing.T) {
		require.NoError(t, c.ClearFinished(ctx, 4))
		req := capture.Last()
		assert.Equal(t, "DELETE", req.Method)
		assert.Equal(t, "where%5Bfinished%5D=true", req.Query)
	})
}

func TestAPIErrorMessage(t *testing.T) {
	assert.Equal(t, "server returned 500", (&APIError{StatusCode: 500}).Error())
	assert.Equal(t, "server returned 404: Could not get entity: not found",
		(&APIError{StatusCode: 404, Title: "Could not get entity: not found"}).Error())
}

func TestItemFilterValues(t *testing.T) {
	id := int64(7)
	no := false
	q := ItemFilter{ListID: &id, Finished: &no}.values()
	assert.Equal(t, "7", q.Get("where[listId]"))
	assert.Equal(t, "false", q.Get("where[finished]"))
	assert.Empty(t, ItemFilter{}.values())
}
