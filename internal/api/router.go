package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gobeyondidentity/puretodo/internal/perfmon"
	"github.com/gobeyondidentity/puretodo/pkg/audit"
	"github.com/gobeyondidentity/puretodo/pkg/auth"
	"github.com/gobeyondidentity/puretodo/pkg/authz"
	"github.com/gobeyondidentity/puretodo/pkg/store"
)

// maxBodyBytes bounds request bodies read by ServeHTTP.
const maxBodyBytes = 1 << 20

// Request is the transport-independent form of an API request.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
	Query  url.Values
	IP     string
}

// Response is the result of Dispatch. A nil Body means no content.
type Response struct {
	Status int
	Body   any
}

// eventSink receives audit events. *audit.Recorder satisfies it.
type eventSink interface {
	Record(audit.Event)
}

type nopSink struct{}

func (nopSink) Record(audit.Event) {}

// Router dispatches API requests to repositories by entity key.
type Router struct {
	repos         map[string]Repository
	authorizer    *authz.Authorizer
	authenticator *auth.Authenticator
	events     eventSink
	logger     *slog.Logger
}

// NewRouter creates a router with no repositories mapped. authenticator
// resolves Request.Header when the context carries no resolution; if nil,
// such requests are anonymous. A nil events sink discards audit events; a
// nil logger uses slog.Default().
func NewRouter(authorizer *authz.Authorizer, authenticator *auth.Authenticator, events eventSink, logger *slog.Logger) *Router {
	if events == nil {
		events = nopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		repos:         make(map[string]Repository),
		authorizer:    authorizer,
		authenticator: authenticator,
		events:        events,
		logger:        logger,
	}
}

// Map registers repo under entity and returns the router for chaining.
func (rt *Router) Map(entity string, repo Repository) *Router {
	rt.repos[entity] = repo
	return rt
}

func (rt *Router) resolve(ctx context.Context, h http.Header) (auth.Resolution, error) {
	if res, ok := auth.LookupResolution(ctx); ok {
		return res, nil
	}
	if rt.authenticator == nil {
		return auth.Resolution{Status: auth.StatusMissing}, nil
	}
	return rt.authenticator.Resolve(ctx, h)
}

func methodAllowed(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Dispatch runs one request. The caller's token resolution is taken from
// ctx when auth.Middleware stored one, otherwise resolved from req.Header.
func (rt *Router) Dispatch(ctx context.Context, req Request) Response {
	perfmon.Record(ctx, "dispatch "+req.Method+" "+req.Path)

	if !methodAllowed(req.Method) {
		return Response{Status: http.StatusMethodNotAllowed}
	}

	rte, ok := parseRoute(req.Path)
	if !ok {
		return Response{Status: http.StatusNotFound, Body: errorBody("Not found", "")}
	}
	repo, ok := rt.repos[rte.entity]
	if !ok {
		return Response{Status: http.StatusNotFound, Body: errorBody("Not found", "")}
	}

	res, err := rt.resolve(ctx, req.Header)
	if err != nil {
		rt.logger.Error("token resolution failed", "method", req.Method, "path", req.Path, "error", err)
		return Response{Status: http.StatusInternalServerError, Body: errorBody("Internal server error", "")}
	}
	perfmon.Record(ctx, "authenticated")

	call := Call{
		Auth:      res,
		ID:        rte.id,
		Where:     whereCriteria(req.Query),
		Body:      req.Body,
		IP:        req.IP,
		RequestID: authz.RequestIDFromContext(ctx),
	}

	principal := authz.Anonymous
	if u := res.User; u != nil {
		principal = authz.UserPrincipal(u.ID, u.Admin)
	}
	decision := rt.authorizer.Authorize(ctx, authz.Request{
		Principal: principal,
		Resource: authz.Resource{
			Entity:                rte.entity,
			AuthorizationRequired: repo.AuthorizationRequired(ctx),
			AdminRequired:         repo.AdminRequired(ctx),
		},
	})
	perfmon.Record(ctx, "authorized")
	if !decision.Allowed {
		rt.events.Record(audit.NewAccessDenied(actorName(res), req.IP, rte.entity, string(decision.DenyReason), call.RequestID))
		return Response{Status: http.StatusForbidden, Body: errorBody(decision.Reason, res.Status.String())}
	}

	resp := rt.invoke(ctx, repo, req.Method, call)
	perfmon.Record(ctx, "done")

	if resp.Status < 300 {
		if et := audit.MutationEvent(rte.entity, req.Method); et != "" {
			rt.events.Record(audit.NewMutation(et, actorName(res), req.IP, rte.entity, mutatedID(rte.id, resp.Body), call.RequestID))
		}
	}
	return resp
}

func (rt *Router) invoke(ctx context.Context, repo Repository, method string, call Call) Response {
	switch method {
	case http.MethodGet:
		if call.ID.IsZero() {
			v, err := repo.Index(ctx, call)
			if err != nil {
				return rt.failure(ctx, "list", err)
			}
			return Response{Status: http.StatusOK, Body: v}
		}
		v, err := repo.Read(ctx, call)
		if err != nil {
			return rt.failure(ctx, "get", err)
		}
		return Response{Status: http.StatusOK, Body: v}

	case http.MethodDelete:
		if err := repo.Delete(ctx, call); err != nil {
			return rt.failure(ctx, "delete", err)
		}
		return Response{Status: http.StatusNoContent}

	case http.MethodPost:
		v, err := repo.Create(ctx, call)
		if err != nil {
			return rt.failure(ctx, "create", err)
		}
		return Response{Status: http.StatusCreated, Body: v}

	default:
		v, err := repo.Update(ctx, call)
		if err != nil {
			return rt.failure(ctx, "update", err)
		}
		return Response{Status: http.StatusOK, Body: v}
	}
}

// failure maps a repository error onto a status code. Unknown errors are
// logged and reported generically.
func (rt *Router) failure(ctx context.Context, op string, err error) Response {
	title := "Could not " + op + " entity: " + err.Error()

	switch {
	case errors.Is(err, errBadJSON):
		return Response{Status: http.StatusBadRequest, Body: errorBody(title, "")}
	case errors.Is(err, errUnsupported):
		return Response{Status: http.StatusMethodNotAllowed, Body: errorBody(title, "")}
	case errors.Is(err, store.ErrNotFound):
		return Response{Status: http.StatusNotFound, Body: errorBody(title, "")}
	case errors.Is(err, store.ErrForbidden):
		return Response{Status: http.StatusForbidden, Body: errorBody(title, "")}
	case errors.Is(err, store.ErrInvalid),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrSelfModification):
		return Response{Status: http.StatusUnprocessableEntity, Body: errorBody(title, "")}
	}

	rt.logger.Error("request failed",
		"op", op,
		"request_id", authz.RequestIDFromContext(ctx),
		"error", err,
	)
	return Response{Status: http.StatusInternalServerError, Body: errorBody("Internal server error", "")}
}

// whereCriteria extracts where[field]=value pairs from the query string.
func whereCriteria(q url.Values) url.Values {
	where := url.Values{}
	for key, vals := range q {
		field, ok := strings.CutPrefix(key, "where[")
		if !ok || !strings.HasSuffix(field, "]") {
			continue
		}
		where[strings.TrimSuffix(field, "]")] = vals
	}
	return where
}

func actorName(res auth.Resolution) string {
	if res.User == nil {
		return ""
	}
	return res.User.Username
}

// mutatedID picks the row id for an audit target: the addressed row, or
// the id of a created row.
func mutatedID(id Identifier, body any) int64 {
	switch v := id.(type) {
	case PlainID:
		if v.ID != 0 {
			return v.ID
		}
	case ListItemID:
		if v.ID != 0 {
			return v.ID
		}
	}
	switch v := body.(type) {
	case userView:
		return v.ID
	case listView:
		return v.ID
	case itemView:
		return v.ID
	}
	return 0
}

// ServeHTTP adapts Dispatch to net/http.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Could not read request body", ""))
		return
	}

	resp := rt.Dispatch(r.Context(), Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header,
		Body:   body,
		Query:  r.URL.Query(),
		IP:     auth.ClientIP(r),
	})

	if resp.Body == nil {
		w.WriteHeader(resp.Status)
		return
	}
	writeJSON(w, resp.Status, resp.Body)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
