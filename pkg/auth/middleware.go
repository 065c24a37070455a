package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// AuditEmitter records authentication outcomes. audit.Recorder implements it;
// it is declared here so this package does not depend on pkg/audit.
type AuditEmitter interface {
	EmitAuthSuccess(actor, ip, method, path, requestID string)
	EmitAuthFailure(ip, status, method, path, requestID string)
}

type nopAuditEmitter struct{}

func (nopAuditEmitter) EmitAuthSuccess(string, string, string, string, string) {}
func (nopAuditEmitter) EmitAuthFailure(string, string, string, string, string) {}

// Middleware resolves every request and stores the result in its context.
type Middleware struct {
	auth      *Authenticator
	logger    *slog.Logger
	audit     AuditEmitter
	requestID func(context.Context) string
}

// Option configures a Middleware.
type Option func(*Middleware)

// WithLogger sets the logger for the middleware.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Middleware) {
		m.logger = logger
	}
}

// WithAuditEmitter sets the emitter that records authentication outcomes.
func WithAuditEmitter(emitter AuditEmitter) Option {
	return func(m *Middleware) {
		if emitter != nil {
			m.audit = emitter
		}
	}
}

// WithRequestID sets the function used to read the request id that audit
// events are correlated by.
func WithRequestID(fn func(context.Context) string) Option {
	return func(m *Middleware) {
		m.requestID = fn
	}
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(a *Authenticator, opts ...Option) *Middleware {
	m := &Middleware{
		auth:      a,
		logger:    slog.Default(),
		audit:     nopAuditEmitter{},
		requestID: func(context.Context) string { return "" },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Wrap resolves the caller and passes the request on. Only a failing user
// lookup stops the request, with a 500.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		res, err := m.auth.Resolve(ctx, r.Header)
		if err != nil {
			m.logger.Error("token lookup failed",
				"method", r.Method,
				"path", r.URL.Path,
				"error", err,
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{
				"errors": []map[string]string{{"title": "Internal server error"}},
			})
			return
		}

		ip := ClientIP(r)
		rid := m.requestID(ctx)
		switch {
		case res.Authenticated():
			m.logger.Debug("auth.success",
				"user", res.User.Username,
				"method", r.Method,
				"path", r.URL.Path,
			)
			m.audit.EmitAuthSuccess(res.User.Username, ip, r.Method, r.URL.Path, rid)
		case r.Header.Get("Authorization") == "":
			// Anonymous request; the router decides whether that is enough.
		default:
			m.logger.Warn("auth.failure",
				"status", res.Status.String(),
				"method", r.Method,
				"path", r.URL.Path,
				"ip", ip,
			)
			m.audit.EmitAuthFailure(ip, res.Status.String(), r.Method, r.URL.Path, rid)
		}

		next.ServeHTTP(w, r.WithContext(ContextWithResolution(ctx, res)))
	})
}

// ClientIP extracts the client IP, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		if !strings.Contains(addr, "[") || strings.LastIndex(addr, "]") < idx {
			return strings.Trim(addr[:idx], "[]")
		}
	}
	return addr
}
