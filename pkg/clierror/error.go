package clierror

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

// Exit codes.
const (
	ExitSuccess  = 0 // Operation completed successfully
	ExitGeneral  = 1 // Unknown/unhandled error
	ExitAuth     = 2 // Not authenticated, token expired or revoked, not permitted
	ExitInvalid  = 3 // Request rejected as malformed or inconsistent
	ExitNotFound = 4 // Resource doesn't exist or isn't visible
)

// Error codes (strings) for programmatic error handling
const (
	CodeNotAuthenticated = "NOT_AUTHENTICATED"
	CodeTokenExpired     = "TOKEN_EXPIRED"
	CodeTokenRevoked     = "TOKEN_REVOKED"
	CodeNotAuthorized    = "NOT_AUTHORIZED"
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeConnectionFailed = "CONNECTION_FAILED"
	CodeInternalError    = "INTERNAL_ERROR"
)

// CLIError represents a structured error for CLI output.
type CLIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Hint      string `json:"hint,omitempty"`
	Retryable bool   `json:"retryable"`
	ExitCode  int    `json:"-"` // Not serialized, used for os.Exit
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	return e.Message
}

// New creates an error with the given exit code, code and message.
func New(exitCode int, code, message string) *CLIError {
	return &CLIError{Code: code, Message: message, ExitCode: exitCode}
}

// WithHint returns e with hint set.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// NotAuthenticated creates an error for requests without a usable token.
func NotAuthenticated(message string) *CLIError {
	return &CLIError{
		Code:      CodeNotAuthenticated,
		Message:   message,
		Hint:      "Set TODO_TOKEN or pass --token with a token from 'todod token issue'",
		Retryable: false,
		ExitCode:  ExitAuth,
	}
}

// TokenExpired creates an error for expired tokens.
func TokenExpired() *CLIError {
	return &CLIError{
		Code:      CodeTokenExpired,
		Message:   "authentication token has expired",
		Hint:      "Ask an administrator to run 'todod token issue <username>'",
		Retryable: false,
		ExitCode:  ExitAuth,
	}
}

// TokenRevoked creates an error for tokens that were replaced or whose
// user no longer exists.
func TokenRevoked() *CLIError {
	return &CLIError{
		Code:      CodeTokenRevoked,
		Message:   "authentication token is no longer valid",
		Hint:      "The token was reissued or the account was disabled; request a new one",
		Retryable: false,
		ExitCode:  ExitAuth,
	}
}

// NotAuthorized creates an error for authorization failures.
func NotAuthorized(message string) *CLIError {
	return &CLIError{
		Code:      CodeNotAuthorized,
		Message:   message,
		Hint:      "Check your permissions or contact an administrator",
		Retryable: false,
		ExitCode:  ExitAuth,
	}
}

// NotFound creates an error when a resource doesn't exist.
func NotFound(message string) *CLIError {
	return &CLIError{
		Code:      CodeNotFound,
		Message:   message,
		Hint:      "Check the id with 'todoctl list ls' or 'todoctl item ls'",
		Retryable: false,
		ExitCode:  ExitNotFound,
	}
}

// InvalidRequest creates an error for rejected payloads.
func InvalidRequest(message string) *CLIError {
	return &CLIError{
		Code:      CodeInvalidRequest,
		Message:   message,
		Retryable: false,
		ExitCode:  ExitInvalid,
	}
}

// ConnectionFailed creates an error for connection failures.
func ConnectionFailed(target string) *CLIError {
	return &CLIError{
		Code:      CodeConnectionFailed,
		Message:   fmt.Sprintf("failed to connect to '%s'", target),
		Hint:      "Check that todod is running and --server is correct",
		Retryable: true,
		ExitCode:  ExitGeneral,
	}
}

// InternalError creates an error for unexpected internal errors.
func InternalError(err error) *CLIError {
	msg := "an unexpected internal error occurred"
	if err != nil {
		msg = fmt.Sprintf("internal error: %s", err.Error())
	}
	return &CLIError{
		Code:      CodeInternalError,
		Message:   msg,
		Hint:      "",
		Retryable: false,
		ExitCode:  ExitGeneral,
	}
}

// FromHTTP classifies an API error response. tokenStatus is the code the
// server attaches to authorization-gate failures (Missing, Invalid,
// Expired, NoSubject, NotFound or Ok).
func FromHTTP(status int, title, tokenStatus string) *CLIError {
	switch {
	case status == http.StatusForbidden:
		switch tokenStatus {
		case "Expired":
			return TokenExpired()
		case "NotFound":
			return TokenRevoked()
		case "Missing", "Invalid", "NoSubject":
			return NotAuthenticated(title)
		}
		return NotAuthorized(title)
	case status == http.StatusNotFound:
		return NotFound(title)
	case status == http.StatusBadRequest,
		status == http.StatusUnprocessableEntity,
		status == http.StatusMethodNotAllowed:
		return InvalidRequest(title)
	}
	ce := InternalError(nil)
	if title != "" {
		ce.Message = title
	}
	ce.Retryable = status >= 500
	return ce
}

// FormatError returns the error formatted for the given output format.
// Supported formats: "json" for JSON output, anything else for human-readable table format.
func FormatError(err *CLIError, outputFormat string) string {
	if outputFormat == "json" {
		data, jsonErr := json.MarshalIndent(err, "", "  ")
		if jsonErr != nil {
			return fmt.Sprintf(`{"code":"%s","message":"%s"}`, err.Code, err.Message)
		}
		return string(data)
	}

	output := fmt.Sprintf("Error [%s]: %s", err.Code, err.Message)
	if err.Hint != "" {
		output += fmt.Sprintf("\nHint: %s", err.Hint)
	}
	return output
}

// PrintError prints the error to stderr in the appropriate format.
func PrintError(err *CLIError, outputFormat string) {
	fmt.Fprintln(os.Stderr, FormatError(err, outputFormat))
}
