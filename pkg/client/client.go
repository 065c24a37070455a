// Package client is a Go client for the puretodo JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client provides HTTP access to a todod server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client for the server at baseURL. token may be empty for
// the status endpoint and first-run setup.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Title      string
	// Code is the token status the server attaches to gate failures.
	Code string
}

func (e *APIError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Title)
}

type errorEnvelope struct {
	Errors []struct {
		Title string `json:"title"`
		Code  string `json:"code"`
	} `json:"errors"`
}

// do sends a request and decodes a JSON response into out when out is
// non-nil. Any status other than want is returned as *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, want int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var env errorEnvelope
		if data, _ := io.ReadAll(resp.Body); json.Unmarshal(data, &env) == nil && len(env.Errors) > 0 {
			apiErr.Title = env.Errors[0].Title
			apiErr.Code = env.Errors[0].Code
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func idPath(collection string, id int64) string {
	return "/api/" + collection + "/" + strconv.FormatInt(id, 10)
}

// Status reports how the server resolved the client's token.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var s Status
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, nil, &s, http.StatusOK); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListUsers returns every user. Admin only.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, nil, &users, http.StatusOK); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser returns one user. Admin only.
func (c *Client) GetUser(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, idPath("users", id), nil, nil, &u, http.StatusOK); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser creates a user. Without a token this only succeeds while the
// server has no users; the result is then the first admin.
func (c *Client) CreateUser(ctx context.Context, in NewUser) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPost, "/api/users", nil, in, &u, http.StatusCreated); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser patches a user. Admin only.
func (c *Client) UpdateUser(ctx context.Context, id int64, patch UserPatch) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPatch, idPath("users", id), nil, patch, &u, http.StatusOK); err != nil {
		return nil, err
	}
	return &u, nil
}

// RefreshToken reissues a user's token, revoking the old one.
func (c *Client) RefreshToken(ctx context.Context, id int64) (*User, error) {
	return c.UpdateUser(ctx, id, UserPatch{RefreshToken: true})
}

// DeleteUser removes a user. Admin only.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("users", id), nil, nil, nil, http.StatusNoContent)
}

// ListLists returns the caller's lists and all shared lists.
func (c *Client) ListLists(ctx context.Context) ([]List, error) {
	var lists []List
	if err := c.do(ctx, http.MethodGet, "/api/lists", nil, nil, &lists, http.StatusOK); err != nil {
		return nil, err
	}
	return lists, nil
}

// GetList returns one list.
func (c *Client) GetList(ctx context.Context, id int64) (*List, error) {
	var l List
	if err := c.do(ctx, http.MethodGet, idPath("lists", id), nil, nil, &l, http.StatusOK); err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateList creates a list owned by the caller.
func (c *Client) CreateList(ctx context.Context, in NewList) (*List, error) {
	var l List
	if err := c.do(ctx, http.MethodPost, "/api/lists", nil, in, &l, http.StatusCreated); err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateList patches a list the caller owns.
func (c *Client) UpdateList(ctx context.Context, id int64, patch ListPatch) (*List, error) {
	var l List
	if err := c.do(ctx, http.MethodPatch, idPath("lists", id), nil, patch, &l, http.StatusOK); err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteList removes a list the caller owns, with its items.
func (c *Client) DeleteList(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("lists", id), nil, nil, nil, http.StatusNoContent)
}

// ListItems returns the visible items matching filter.
func (c *Client) ListItems(ctx context.Context, filter ItemFilter) ([]Item, error) {
	var items []Item
	if err := c.do(ctx, http.MethodGet, "/api/items", filter.values(), nil, &items, http.StatusOK); err != nil {
		return nil, err
	}
	return items, nil
}

// GetItem returns one item.
func (c *Client) GetItem(ctx context.Context, id int64) (*Item, error) {
	var it Item
	if err := c.do(ctx, http.MethodGet, idPath("items", id), nil, nil, &it, http.StatusOK); err != nil {
		return nil, err
	}
	return &it, nil
}

// CreateItem adds an item to a list. A nil priority puts it at the top.
func (c *Client) CreateItem(ctx context.Context, in NewItem) (*Item, error) {
	var it Item
	path := "/api/lists/" + strconv.FormatInt(in.ListID, 10) + "/items"
	if err := c.do(ctx, http.MethodPost, path, nil, in, &it, http.StatusCreated); err != nil {
		return nil, err
	}
	return &it, nil
}

// UpdateItem patches an item.
func (c *Client) UpdateItem(ctx context.Context, id int64, patch ItemPatch) (*Item, error) {
	var it Item
	if err := c.do(ctx, http.MethodPatch, idPath("items", id), nil, patch, &it, http.StatusOK); err != nil {
		return nil, err
	}
	return &it, nil
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("items", id), nil, nil, nil, http.StatusNoContent)
}

// ClearFinished removes every finished item of a list.
func (c *Client) ClearFinished(ctx context.Context, listID int64) error {
	finished := true
	q := ItemFilter{Finished: &finished}.values()
	path := "/api/lists/" + strconv.FormatInt(listID, 10) + "/items"
	return c.do(ctx, http.MethodDelete, path, q, nil, nil, http.StatusNoContent)
}
