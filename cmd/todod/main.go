// todod serves the puretodo JSON API and administers its database.
package main

import (
	"os"

	"github.com/gobeyondidentity/puretodo/cmd/todod/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
