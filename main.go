package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/sbyna/h5bench/cmd"
	"github.com/sbyna/h5bench/internal/backend"
	"github.com/sbyna/h5bench/internal/logging"
)

func main() {
	// Peek at the args before cobra parses them so early debug logs
	// respect the verbosity flag.
	isVerbose := false
	for _, arg := range os.Args {
		if arg == "--verbose" || arg == "-v" {
			isVerbose = true
		}
	}

	// Terminal logging until 'run' switches to the suite.log file.
	if err := logging.ConfigureGlobalLogger(isVerbose, ""); err != nil {
		// Fallback to basic stderr if logger setup fails
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	cmd.SetDependencies(&cmd.AppDependencies{
		BackendRegistry: backend.NewDefaultRegistry(),
	})

	log.Debug().Msg("Starting h5bench CLI command execution")
	cmd.Execute()
}
