// Package main is the entry point for font-license CLI.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"font-license/cmd/cli/cmd"
	"font-license/internal/errors"
	"font-license/internal/logging"
)

func main() {
	err := cmd.Execute()
	code := cmd.ExitCode(err)
	if code == cmd.ExitFailure {
		logging.Error("command failed",
			zap.String("error_type", string(errors.TypeOf(err))),
			zap.Error(err))
		logging.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}
