// Package perfmon records coarse timing marks for a single request.
//
// A Trace rides in the request context. Code along the request path calls
// Mark with a short label; when the request completes, Flush writes one
// debug log line per mark with the time elapsed since the previous one.
// Without a Trace in the context, Mark is a no-op.
package perfmon

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Mark is one timing point.
type Mark struct {
	Label   string
	At      time.Time
	Elapsed time.Duration // since the previous mark, zero for the first
}

// Trace collects marks for one request. Safe for concurrent use.
type Trace struct {
	requestID string
	now       func() time.Time

	mu    sync.Mutex
	marks []Mark
}

// New starts a trace for requestID.
func New(requestID string) *Trace {
	return &Trace{requestID: requestID, now: time.Now}
}

// Mark appends a timing point.
func (t *Trace) Mark(label string) {
	if t == nil {
		return
	}
	at := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	var elapsed time.Duration
	if n := len(t.marks); n > 0 {
		elapsed = at.Sub(t.marks[n-1].At)
	}
	t.marks = append(t.marks, Mark{Label: label, At: at, Elapsed: elapsed})
}

// Marks returns a copy of the recorded marks.
func (t *Trace) Marks() []Mark {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Mark(nil), t.marks...)
}

// Flush logs every mark at debug level and resets the trace.
func (t *Trace) Flush(logger *slog.Logger) {
	if t == nil || logger == nil {
		return
	}
	t.mu.Lock()
	marks := t.marks
	t.marks = nil
	t.mu.Unlock()

	for _, m := range marks {
		logger.Debug("perfmon",
			"request_id", t.requestID,
			"mark", m.Label,
			"elapsed_ms", m.Elapsed.Milliseconds(),
		)
	}
}

type contextKey struct{}

// WithTrace returns ctx carrying t.
func WithTrace(ctx context.Context, t *Trace) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext returns the trace in ctx, or nil.
func FromContext(ctx context.Context) *Trace {
	t, _ := ctx.Value(contextKey{}).(*Trace)
	return t
}

// Record marks label on the trace in ctx, if any.
func Record(ctx context.Context, label string) {
	FromContext(ctx).Mark(label)
}
