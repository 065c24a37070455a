package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gobeyondidentity/puretodo/internal/perfmon"
	"github.com/gobeyondidentity/puretodo/pkg/audit"
	"github.com/gobeyondidentity/puretodo/pkg/auth"
	"github.com/gobeyondidentity/puretodo/pkg/authz"
	"github.com/gobeyondidentity/puretodo/pkg/store"
	"github.com/gobeyondidentity/puretodo/pkg/token"
)

// ServerConfig holds the collaborators of the API server.
type ServerConfig struct {
	Store  *store.Store
	Issuer *token.Issuer

	// Authorizer evaluates the router gates. If nil, one is built from the
	// embedded policies.
	Authorizer *authz.Authorizer

	// Audit receives security and mutation events. May be nil.
	Audit *audit.Recorder

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Debug enables per-request timing traces.
	Debug bool
}

// Server is the HTTP API server.
type Server struct {
	router  *Router
	handler http.Handler
	logger  *slog.Logger
	debug   bool
}

// NewServer wires the repositories, authentication and request middleware.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Store == nil || cfg.Issuer == nil {
		return nil, errors.New("api: store and issuer are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authorizer := cfg.Authorizer
	if authorizer == nil {
		var err error
		authorizer, err = authz.NewAuthorizer(authz.Config{Logger: logger})
		if err != nil {
			return nil, err
		}
	}

	var events eventSink = nopSink{}
	authOpts := []auth.Option{
		auth.WithLogger(logger),
		auth.WithRequestID(authz.RequestIDFromContext),
	}
	if cfg.Audit != nil {
		events = cfg.Audit
		authOpts = append(authOpts, auth.WithAuditEmitter(cfg.Audit))
	}

	authenticator := auth.NewAuthenticator(cfg.Issuer, cfg.Store)
	router := NewRouter(authorizer, authenticator, events, logger).
		Map("status", statusRepository{store: cfg.Store}).
		Map("users", usersRepository{store: cfg.Store, sign: cfg.Issuer.Sign, events: events}).
		Map("lists", listsRepository{store: cfg.Store}).
		Map("items", itemsRepository{store: cfg.Store})

	authMiddleware := auth.NewMiddleware(authenticator, authOpts...)

	mux := http.NewServeMux()
	mux.Handle("/api/", router)
	mux.HandleFunc("GET /health", handleHealth)

	s := &Server{
		router: router,
		logger: logger,
		debug:  cfg.Debug,
	}
	s.handler = s.requestMiddleware(authMiddleware.Wrap(mux))
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Router returns the request router, for callers that bypass HTTP.
func (s *Server) Router() *Router {
	return s.router
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// requestMiddleware assigns a request id, starts a timing trace when debug
// is on, and logs one line per request.
func (s *Server) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, rid := authz.EnsureRequestID(r.Context())
		w.Header().Set("X-Request-ID", rid)

		var trace *perfmon.Trace
		if s.debug {
			trace = perfmon.New(rid)
			ctx = perfmon.WithTrace(ctx, trace)
			trace.Mark("request " + r.Method + " " + r.URL.Path)
		}

		sw := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(ctx))

		trace.Mark("response")
		trace.Flush(s.logger)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", rid,
		)
	})
}
