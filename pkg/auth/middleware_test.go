package auth

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gobeyondidentity/puretodo/pkg/store"
)

type authEvent struct {
	kind, who, status string
}

type recordingAudit struct {
	mu     sync.Mutex
	events []authEvent
}

func (r *recordingAudit) EmitAuthSuccess(actor, ip, method, path, requestID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, authEvent{kind: "success", who: actor})
}

func (r *recordingAudit) EmitAuthFailure(ip, status, method, path, requestID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, authEvent{kind: "failure", who: ip, status: status})
}

func TestMiddleware_StoresResolution(t *testing.T) {
	f := newFixture(t)
	alice, err := f.store.CreateUser(context.Background(), 0, store.NewUser{Username: "alice"}, f.issuer.Sign)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	var logBuf bytes.Buffer
	rec := &recordingAudit{}
	mw := NewMiddleware(f.auth,
		WithLogger(slog.New(slog.NewTextHandler(&logBuf, nil))),
		WithAuditEmitter(rec),
	)

	var seen Resolution
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/lists", nil)
		req.Header.Set("Authorization", "Bearer "+alice.Token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Fatalf("expected handler to run, got %d", w.Code)
		}
		if !seen.Authenticated() || seen.User.Username != "alice" {
			t.Errorf("unexpected resolution: %+v", seen)
		}
	})

	t.Run("anonymous passes through silently", func(t *testing.T) {
		before := len(rec.events)
		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Fatalf("anonymous request must not be rejected, got %d", w.Code)
		}
		if seen.Status != StatusMissing {
			t.Errorf("Status = %s, want Missing", seen.Status)
		}
		if len(rec.events) != before {
			t.Errorf("anonymous request should not be audited")
		}
	})

	t.Run("bad token is audited but not rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/lists", nil)
		req.Header.Set("Authorization", "Bearer nope.nope.nope")
		req.RemoteAddr = "10.1.2.3:5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Fatalf("expected handler to run, got %d", w.Code)
		}
		last := rec.events[len(rec.events)-1]
		if last.kind != "failure" || last.status != "Invalid" || last.who != "10.1.2.3" {
			t.Errorf("unexpected audit event: %+v", last)
		}
		if !strings.Contains(logBuf.String(), "auth.failure") {
			t.Errorf("expected auth.failure log line")
		}
	})
}

func TestMiddleware_LookupFailure(t *testing.T) {
	f := newFixture(t)
	tok, err := f.issuer.Sign("alice", "", true)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	f.store.Close()

	called := false
	handler := NewMiddleware(f.auth, WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))).
		Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodGet, "/api/lists", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if called {
		t.Error("handler must not run when the token lookup fails")
	}
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "closed") {
		t.Errorf("storage error leaked to client: %s", w.Body.String())
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"ipv4", "192.0.2.1:1234", "", "192.0.2.1"},
		{"ipv6", "[::1]:8080", "", "::1"},
		{"forwarded", "10.0.0.1:1", "203.0.113.5, 10.0.0.1", "203.0.113.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
