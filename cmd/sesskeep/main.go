// Package main provides the entry point for sesskeep.
//
// sesskeep administers encrypted session stores:
//
//	sesskeep --config sesskeep.yaml migrate
//	sesskeep --config sesskeep.yaml gc --max-lifetime 24m
//	sesskeep --config sesskeep.yaml sweep --interval 5m
//	sesskeep --config sesskeep.yaml -o json session show sks-01j...
//	sesskeep keygen
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/sesskeep/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(command.ExitCode(err))
	}
}
