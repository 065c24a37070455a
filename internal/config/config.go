// Package config loads todod configuration.
//
// Values come from three layers, later layers winning:
//
//  1. built-in defaults (see Default)
//  2. a YAML file given by --config or TODO_CONFIG
//  3. TODO_* environment variables
//
// Command-line flags are applied by the caller on top of the result.
// ${VAR} and ${VAR:-default} in path values are expanded after loading.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gobeyondidentity/puretodo/pkg/store"
	"github.com/gobeyondidentity/puretodo/pkg/token"
)

// Config is the todod server configuration.
type Config struct {
	// Listen is the HTTP listen address.
	// Default: :8080
	Listen string `yaml:"listen"`

	// Database is the SQLite database path.
	// Default: $XDG_DATA_HOME/puretodo/puretodo.db
	Database string `yaml:"database"`

	Token TokenConfig `yaml:"token"`
	Log   LogConfig   `yaml:"log"`
	Audit AuditConfig `yaml:"audit"`

	// Debug enables per-request timing traces in the log.
	Debug bool `yaml:"debug"`
}

// TokenConfig configures bearer token signing.
type TokenConfig struct {
	// Secret is the HMAC-SHA256 key. At least 32 bytes.
	Secret string `yaml:"secret"`

	// SecretFile is read when Secret is empty. Surrounding whitespace is
	// trimmed.
	SecretFile string `yaml:"secret_file"`

	// Lifetime is how long issued tokens stay valid, as a Go duration.
	// Default: 87600h (10 years)
	Lifetime string `yaml:"lifetime"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// AuditConfig selects audit event backends. The log backend is always on.
type AuditConfig struct {
	// Store persists events to the audit_log table.
	Store bool `yaml:"store"`

	// Syslog forwards events to the local syslog daemon as RFC 5424.
	Syslog bool `yaml:"syslog"`

	// SyslogSocket overrides the syslog socket path.
	// Default: /dev/log
	SyslogSocket string `yaml:"syslog_socket"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Listen:   ":8080",
		Database: store.DefaultPath(),
		Token: TokenConfig{
			Lifetime: token.DefaultLifetime.String(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Audit: AuditConfig{
			Store: true,
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies
// environment overrides. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("TODO_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.expandVariables()

	return cfg, nil
}

// loadFile merges a YAML file into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// applyEnv overrides fields from TODO_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"TODO_LISTEN":         &c.Listen,
		"TODO_DATABASE":       &c.Database,
		"TODO_TOKEN_SECRET":   &c.Token.Secret,
		"TODO_TOKEN_LIFETIME": &c.Token.Lifetime,
		"TODO_LOG_LEVEL":      &c.Log.Level,
		"TODO_LOG_FORMAT":     &c.Log.Format,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"TODO_DEBUG":        &c.Debug,
		"TODO_AUDIT_STORE":  &c.Audit.Store,
		"TODO_AUDIT_SYSLOG": &c.Audit.Syslog,
	}
	for name, dst := range bools {
		v, ok := lookup(name)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = b
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	c.Database = expandVars(c.Database)
	c.Token.SecretFile = expandVars(c.Token.SecretFile)
	c.Audit.SyslogSocket = expandVars(c.Audit.SyslogSocket)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration for errors. All problems are reported
// together.
func (c *Config) Validate() error {
	var errs []error

	if c.Listen == "" {
		errs = append(errs, errors.New("listen is required"))
	}
	if c.Database == "" {
		errs = append(errs, errors.New("database is required"))
	}

	secret, err := c.Secret()
	if err != nil {
		errs = append(errs, err)
	} else if len(secret) < token.MinSecretSize {
		errs = append(errs, fmt.Errorf("token.secret must be at least %d bytes", token.MinSecretSize))
	}

	if _, err := c.TokenLifetime(); err != nil {
		errs = append(errs, err)
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Secret returns the token signing secret, reading SecretFile if needed.
func (c *Config) Secret() ([]byte, error) {
	if c.Token.Secret != "" {
		return []byte(c.Token.Secret), nil
	}
	if c.Token.SecretFile == "" {
		return nil, errors.New("token.secret or token.secret_file is required")
	}
	data, err := os.ReadFile(c.Token.SecretFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read token.secret_file: %w", err)
	}
	return []byte(strings.TrimSpace(string(data))), nil
}

// TokenLifetime parses Token.Lifetime.
func (c *Config) TokenLifetime() (time.Duration, error) {
	d, err := time.ParseDuration(c.Token.Lifetime)
	if err != nil {
		return 0, fmt.Errorf("token.lifetime: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("token.lifetime must be positive, got %s", d)
	}
	return d, nil
}

// NewLogger builds the process logger writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	if c.Debug && level > slog.LevelDebug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level must be debug, info, warn or error, got %q", s)
	}
	return level, nil
}
