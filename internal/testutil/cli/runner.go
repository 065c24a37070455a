package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Result captures the output and error of one command execution.
type Result struct {
	Stdout string
	Stderr string
	Err    error
}

// Run resets root's flags, executes it with args and captures output.
func Run(t *testing.T, root *cobra.Command, args ...string) *Result {
	t.Helper()
	ResetFlags(root)

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	t.Cleanup(func() {
		root.SetArgs(nil)
		root.SetOut(nil)
		root.SetErr(nil)
	})

	err := root.ExecuteContext(context.Background())
	return &Result{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}

// ResetFlags restores every flag of c and its subcommands to its default
// value and clears its changed state.
func ResetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		ResetFlags(sub)
	}
}

// LastLine returns the last non-empty line of stdout.
func (r *Result) LastLine() string {
	lines := strings.Split(strings.TrimSpace(r.Stdout), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// AssertSuccess fails the test if the command returned an error.
func (r *Result) AssertSuccess(t *testing.T) {
	t.Helper()
	if r.Err != nil {
		t.Fatalf("expected command to succeed, got error: %v\nstdout: %s\nstderr: %s",
			r.Err, r.Stdout, r.Stderr)
	}
}

// AssertError fails the test if the command did not return an error.
func (r *Result) AssertError(t *testing.T) {
	t.Helper()
	if r.Err == nil {
		t.Fatalf("expected command to fail, but it succeeded\nstdout: %s", r.Stdout)
	}
}

// AssertContains fails the test if stdout does not contain expected.
func (r *Result) AssertContains(t *testing.T, expected string) {
	t.Helper()
	if !strings.Contains(r.Stdout, expected) {
		t.Errorf("expected stdout to contain %q, got:\n%s", expected, r.Stdout)
	}
}

// AssertStderrContains fails the test if stderr does not contain expected.
func (r *Result) AssertStderrContains(t *testing.T, expected string) {
	t.Helper()
	if !strings.Contains(r.Stderr, expected) {
		t.Errorf("expected stderr to contain %q, got:\n%s", expected, r.Stderr)
	}
}

// WriteConfig writes content to a config.yaml in a fresh temp directory
// and returns its path.
func WriteConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}
