// Package cmd implements the todoctl CLI commands.
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gobeyondidentity/puretodo/internal/version"
	"github.com/gobeyondidentity/puretodo/pkg/client"
	"github.com/gobeyondidentity/puretodo/pkg/clierror"
)

const defaultServer = "http://localhost:8080"

var (
	// Global flags
	outputFormat string
	serverFlag   string
	tokenFlag    string
)

var (
	okFmt   = color.New(color.FgGreen).SprintFunc()
	warnFmt = color.New(color.FgYellow).SprintFunc()
	errFmt  = color.New(color.FgRed).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:   "todoctl",
	Short: "Command-line client for a todod server",
	Long: `todoctl talks to a todod server over its JSON API.

The server address comes from --server, then TODO_SERVER, then
` + defaultServer + `. The bearer token comes from --token or TODO_TOKEN.

Examples:
  todoctl status
  todoctl list add Groceries
  todoctl item add 1 "Buy milk"
  todoctl item ls --list 1 -o json`,
	Version:       version.Full(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch outputFormat {
		case "table", "json", "yaml":
			return nil
		}
		return clierror.InvalidRequest(fmt.Sprintf("unknown output format %q (use table, json or yaml)", outputFormat))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Server URL (env: TODO_SERVER)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "Bearer token (env: TODO_TOKEN)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// OutputFormat returns the --output value for error rendering.
func OutputFormat() string {
	return outputFormat
}

// serverURL resolves the server address. Priority: flag, env, default.
func serverURL() string {
	if serverFlag != "" {
		return serverFlag
	}
	if env := os.Getenv("TODO_SERVER"); env != "" {
		return env
	}
	return defaultServer
}

func bearerToken() string {
	if tokenFlag != "" {
		return tokenFlag
	}
	return os.Getenv("TODO_TOKEN")
}

func newClient() *client.Client {
	return client.New(serverURL(), bearerToken())
}

// AsCLIError classifies any command error for printing and exit codes.
func AsCLIError(err error) *clierror.CLIError {
	var ce *clierror.CLIError
	if errors.As(err, &ce) {
		return ce
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return clierror.FromHTTP(apiErr.StatusCode, apiErr.Title, apiErr.Code)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return clierror.ConnectionFailed(serverURL())
	}
	return clierror.New(clierror.ExitGeneral, clierror.CodeInternalError, err.Error())
}

// parseID parses a positive numeric id argument.
func parseID(kind, arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, clierror.InvalidRequest(fmt.Sprintf("invalid %s id %q", kind, arg))
	}
	return id, nil
}

// formatOutput writes data as json or yaml and reports whether it did.
// Table output is left to each command.
func formatOutput(w io.Writer, data any) (bool, error) {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(data)
	case "yaml":
		out, err := yaml.Marshal(data)
		if err != nil {
			return true, err
		}
		_, err = w.Write(out)
		return true, err
	default:
		return false, nil
	}
}

func boolMark(b bool) string {
	if b {
		return okFmt("yes")
	}
	return "no"
}
