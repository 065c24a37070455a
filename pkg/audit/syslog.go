package audit

import (
	"fmt"
	"net"
	"os"
	"sort"
	"sync"
	"time"
)

const (
	reconnectBackoffInit = 100 * time.Millisecond
	reconnectBackoffMax  = 30 * time.Second
)

// SyslogEmitter writes audit events to the local syslog daemon as RFC 5424
// messages with structured data.
//
// On write failure the emitter reconnects to the socket with exponential
// backoff (100ms initial, 30s cap), so a syslog restart does not cause a
// tight reconnect loop.
type SyslogEmitter struct {
	conn       net.Conn
	hostname   string
	appName    string
	facility   Facility
	socketPath string

	mu              sync.Mutex
	backoff         time.Duration
	lastReconnectAt time.Time
}

// SyslogConfig holds configuration for the syslog writer.
type SyslogConfig struct {
	SocketPath string   // Default: "/dev/log"
	Hostname   string   // Default: os.Hostname()
	AppName    string   // Default: "todod"
	Facility   Facility // Default: FacLocal0
}

// NewSyslogEmitter connects to the syslog socket. Callers should degrade to
// the other backends when it returns an error.
func NewSyslogEmitter(cfg SyslogConfig) (*SyslogEmitter, error) {
	if cfg.SocketPath == "" {
		cfg.SocketPath = "/dev/log"
	}
	if cfg.Hostname == "" {
		h, err := os.Hostname()
		if err != nil {
			cfg.Hostname = "unknown"
		} else {
			cfg.Hostname = h
		}
	}
	if cfg.AppName == "" {
		cfg.AppName = "todod"
	}
	if cfg.Facility == 0 {
		cfg.Facility = FacLocal0
	}

	conn, err := dialSyslog(cfg.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("syslog connect: %w", err)
	}

	return &SyslogEmitter{
		conn:       conn,
		hostname:   cfg.Hostname,
		appName:    cfg.AppName,
		facility:   cfg.Facility,
		socketPath: cfg.SocketPath,
	}, nil
}

// Emit converts ev to an RFC 5424 message and writes it to the socket.
// Safe to call on a nil receiver.
func (w *SyslogEmitter) Emit(ev Event) error {
	if w == nil {
		return nil
	}

	params := make([]SDParam, 0, len(ev.Details)+4)
	if ev.Actor != "" {
		params = append(params, SDParam{Name: "actor", Value: ev.Actor})
	}
	if ev.Target != "" {
		params = append(params, SDParam{Name: "target", Value: ev.Target})
	}
	if ev.IP != "" {
		params = append(params, SDParam{Name: "ip", Value: ev.IP})
	}
	if ev.RequestID != "" {
		params = append(params, SDParam{Name: "request_id", Value: ev.RequestID})
	}
	keys := make([]string, 0, len(ev.Details))
	for k := range ev.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		params = append(params, SDParam{Name: k, Value: ev.Details[k]})
	}

	msg := Message{
		Facility:  w.facility,
		Severity:  ev.Severity,
		Timestamp: ev.Timestamp,
		Hostname:  w.hostname,
		AppName:   w.appName,
		MessageID: string(ev.Type),
		SD:        []SDElement{{ID: sdID, Params: params}},
	}

	return w.writeOrReconnect(FormatMessage(msg))
}

// writeOrReconnect writes data to the socket. On failure it attempts one
// reconnect (subject to backoff) and retries the write.
func (w *SyslogEmitter) writeOrReconnect(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.conn.Write(data)
	if err == nil {
		w.backoff = 0
		return nil
	}

	if reconnErr := w.reconnectLocked(); reconnErr != nil {
		return fmt.Errorf("syslog write failed (%v), reconnect failed: %w", err, reconnErr)
	}

	_, err = w.conn.Write(data)
	if err == nil {
		w.backoff = 0
	}
	return err
}

// reconnectLocked closes the dead connection and dials a new one.
// Must be called with w.mu held.
func (w *SyslogEmitter) reconnectLocked() error {
	if w.backoff > 0 && time.Since(w.lastReconnectAt) < w.backoff {
		return fmt.Errorf("syslog reconnect backoff: retry in %v", w.backoff-time.Since(w.lastReconnectAt))
	}

	w.conn.Close()

	conn, err := dialSyslog(w.socketPath)
	if err != nil {
		w.lastReconnectAt = time.Now()
		w.backoff = min(max(w.backoff*2, reconnectBackoffInit), reconnectBackoffMax)
		return fmt.Errorf("syslog reconnect: %w", err)
	}

	w.conn = conn
	w.backoff = 0
	w.lastReconnectAt = time.Time{}
	return nil
}

// Close closes the socket. Safe to call on a nil receiver.
func (w *SyslogEmitter) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.Close()
}

// dialSyslog tries a datagram socket first and falls back to a stream
// socket, since syslog daemons differ.
func dialSyslog(socketPath string) (net.Conn, error) {
	conn, err := net.Dial("unixgram", socketPath)
	if err == nil {
		return conn, nil
	}
	return net.Dial("unix", socketPath)
}
