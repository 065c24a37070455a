package audit

import (
	"context"
	"log/slog"

	"github.com/gobeyondidentity/puretodo/pkg/store"
)

// EventEmitter accepts structured audit events for recording.
type EventEmitter interface {
	Emit(Event) error
}

// NopEmitter discards all events. Use when no audit backend is configured.
type NopEmitter struct{}

// Emit discards the event.
func (NopEmitter) Emit(Event) error { return nil }

// Recorder fans events out to one or more backends. Backend errors are
// logged and never returned; audit failures must not block requests.
//
// Recorder satisfies auth.AuditEmitter through structural typing, so
// pkg/auth does not need to import this package.
type Recorder struct {
	backends []EventEmitter
	logger   *slog.Logger
}

// NewRecorder creates a Recorder forwarding to the given backends.
// If logger is nil, slog.Default() is used for error reporting.
func NewRecorder(logger *slog.Logger, backends ...EventEmitter) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		backends: backends,
		logger:   logger,
	}
}

// Record writes ev to every backend.
func (r *Recorder) Record(ev Event) {
	for _, b := range r.backends {
		if err := b.Emit(ev); err != nil {
			r.logger.Error("audit emit failed", "event", string(ev.Type), "error", err)
		}
	}
}

// EmitAuthSuccess records an auth.success event.
func (r *Recorder) EmitAuthSuccess(actor, ip, method, path, requestID string) {
	r.Record(NewAuthSuccess(actor, ip, method, path, requestID))
}

// EmitAuthFailure records an auth.failure event.
func (r *Recorder) EmitAuthFailure(ip, status, method, path, requestID string) {
	r.Record(NewAuthFailure(ip, status, method, path, requestID))
}

// SlogEmitter writes events as structured log records.
type SlogEmitter struct {
	Logger *slog.Logger
}

// Emit logs the event at a level derived from its severity.
func (e SlogEmitter) Emit(ev Event) error {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	level := slog.LevelInfo
	if ev.Severity <= SeverityWarning {
		level = slog.LevelWarn
	}

	args := []any{
		"actor", ev.Actor,
		"target", ev.Target,
		"ip", ev.IP,
		"request_id", ev.RequestID,
	}
	for k, v := range ev.Details {
		args = append(args, k, v)
	}
	logger.Log(context.Background(), level, "audit."+string(ev.Type), args...)
	return nil
}

// EntryWriter persists audit entries. *store.Store implements it.
type EntryWriter interface {
	InsertAuditEntry(ctx context.Context, entry *store.AuditEntry) (int64, error)
}

// StoreEmitter persists events to the audit_log table.
type StoreEmitter struct {
	w EntryWriter
}

// NewStoreEmitter creates an emitter writing to w.
func NewStoreEmitter(w EntryWriter) *StoreEmitter {
	return &StoreEmitter{w: w}
}

// Emit inserts the event as an audit entry.
func (e *StoreEmitter) Emit(ev Event) error {
	details := make(map[string]string, len(ev.Details)+2)
	for k, v := range ev.Details {
		details[k] = v
	}
	if ev.IP != "" {
		details["ip"] = ev.IP
	}
	if ev.RequestID != "" {
		details["request_id"] = ev.RequestID
	}

	decision := "allowed"
	if ev.Type == EventAuthFailure || ev.Type == EventAccessDenied {
		decision = "denied"
	}

	_, err := e.w.InsertAuditEntry(context.Background(), &store.AuditEntry{
		Timestamp: ev.Timestamp,
		Action:    string(ev.Type),
		Actor:     ev.Actor,
		Target:    ev.Target,
		Decision:  decision,
		Details:   details,
	})
	return err
}
