// Package clierror provides structured error handling for todoctl.
//
// CLI errors include an exit code, user-facing message, and optional
// troubleshooting hints. API failures are classified from the HTTP status
// and the token status code the server attaches to authentication errors.
//
// # Usage
//
//	if err != nil {
//	    return clierror.New(clierror.ExitGeneral, clierror.CodeInternalError, "export failed").
//	        WithHint("Check the output path")
//	}
package clierror
