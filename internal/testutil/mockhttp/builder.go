package mockhttp

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type route struct {
	method string
	path   string
	status int
	body   []byte
}

// ServerBuilder collects canned responses.
type ServerBuilder struct {
	routes []route
}

// New creates an empty ServerBuilder.
func New() *ServerBuilder {
	return &ServerBuilder{}
}

// JSON responds to method and path with v encoded as JSON.
func (b *ServerBuilder) JSON(method, path string, status int, v any) *ServerBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		panic("mockhttp: " + err.Error())
	}
	return b.Raw(method, path, status, string(data))
}

// Error responds with a single-entry error envelope. code is omitted when
// empty.
func (b *ServerBuilder) Error(method, path string, status int, title, code string) *ServerBuilder {
	entry := map[string]string{"title": title}
	if code != "" {
		entry["code"] = code
	}
	return b.JSON(method, path, status, map[string]any{"errors": []any{entry}})
}

// Raw responds with body verbatim. Path may end in "*" to match a prefix.
func (b *ServerBuilder) Raw(method, path string, status int, body string) *ServerBuilder {
	b.routes = append(b.routes, route{method: method, path: path, status: status, body: []byte(body)})
	return b
}

// Build starts the server and registers its shutdown with t.
func (b *ServerBuilder) Build(t *testing.T) (*httptest.Server, *Capture) {
	t.Helper()
	capture := &Capture{}
	routes := append([]route(nil), b.routes...)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capture.record(r)
		for _, rt := range routes {
			if rt.method != r.Method || !matchPath(r.URL.Path, rt.path) {
				continue
			}
			if len(rt.body) > 0 {
				w.Header().Set("Content-Type", "application/json")
			}
			w.WriteHeader(rt.status)
			w.Write(rt.body)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv, capture
}

func matchPath(requestPath, pattern string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(requestPath, prefix)
	}
	return requestPath == pattern
}

// Request is a request as the server received it.
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// Capture records every request the server receives.
type Capture struct {
	mu       sync.Mutex
	requests []Request
}

func (c *Capture) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})
}

// Count returns the number of captured requests.
func (c *Capture) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// Last returns the most recent request, or nil if none.
func (c *Capture) Last() *Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.requests) == 0 {
		return nil
	}
	r := c.requests[len(c.requests)-1]
	return &r
}
