package cmd

import (
	"fmt"
	"log/slog"

	"github.com/gobeyondidentity/puretodo/internal/config"
	"github.com/gobeyondidentity/puretodo/pkg/audit"
	"github.com/gobeyondidentity/puretodo/pkg/store"
	"github.com/gobeyondidentity/puretodo/pkg/token"
)

// operator is the actor for administrative commands run on the server
// host. Its id never matches a stored user.
var operator = &store.User{Username: "todod", Admin: true}

// app bundles the collaborators shared by the server commands.
type app struct {
	store    *store.Store
	issuer   *token.Issuer
	recorder *audit.Recorder
	closers  []func() error
}

// openApp validates c and opens everything a command needs.
func openApp(c *config.Config, logger *slog.Logger) (*app, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	secret, err := c.Secret()
	if err != nil {
		return nil, err
	}
	lifetime, err := c.TokenLifetime()
	if err != nil {
		return nil, err
	}
	issuer, err := token.NewIssuer(secret, lifetime)
	if err != nil {
		return nil, err
	}

	s, err := store.Open(c.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	a := &app{store: s, issuer: issuer, closers: []func() error{s.Close}}

	backends := []audit.EventEmitter{audit.SlogEmitter{Logger: logger}}
	if c.Audit.Store {
		backends = append(backends, audit.NewStoreEmitter(s))
	}
	if c.Audit.Syslog {
		sys, err := audit.NewSyslogEmitter(audit.SyslogConfig{SocketPath: c.Audit.SyslogSocket})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to syslog: %w", err)
		}
		backends = append(backends, sys)
		a.closers = append(a.closers, sys.Close)
	}
	a.recorder = audit.NewRecorder(logger, backends...)

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}
