// todoctl manages todo lists on a todod server.
package main

import (
	"os"

	"github.com/gobeyondidentity/puretodo/cmd/todoctl/cmd"
	"github.com/gobeyondidentity/puretodo/pkg/clierror"
)

func main() {
	if err := cmd.Execute(); err != nil {
		ce := cmd.AsCLIError(err)
		clierror.PrintError(ce, cmd.OutputFormat())
		os.Exit(ce.ExitCode)
	}
}
