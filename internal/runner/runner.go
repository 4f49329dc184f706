package runner

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sbyna/h5bench/internal/backend"
	"github.com/sbyna/h5bench/internal/context"
)

// ExecError marks a backend process that failed to run to a zero exit.
// It is the only error class subject to the abort-on-failure flag.
type ExecError struct {
	StepID     string
	ExitCode   int
	StderrFile string
	Err        error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("step %s failed with exit code %d (stderr: %s)", e.StepID, e.ExitCode, e.StderrFile)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Result describes a completed launch attempt.
type Result struct {
	Command  string // full command line as launched
	ExitCode int
	Duration time.Duration
}

// Run launches argv under the given environment overlay, blocking
// until the child exits. Stdout and stderr are captured into two
// distinct files in the step directory, never inherited and never
// merged. There is deliberately no timeout: a hung backend blocks the
// suite, and stopping it is an operator concern.
func Run(rc *context.RunContext, argv []string, env []string, logger zerolog.Logger) (*Result, error) {
	if len(argv) == 0 {
		return nil, &backend.ArtifactError{Path: rc.Dir, Err: errors.New("empty argument vector")}
	}

	stdout, err := os.Create(rc.StdoutFile)
	if err != nil {
		return nil, &backend.ArtifactError{Path: rc.StdoutFile, Err: err}
	}
	defer stdout.Close()

	stderr, err := os.Create(rc.StderrFile)
	if err != nil {
		return nil, &backend.ArtifactError{Path: rc.StderrFile, Err: err}
	}
	defer stderr.Close()

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = env
	cmd.Dir = rc.Dir

	result := &Result{Command: strings.Join(argv, " ")}

	logger.Info().Str("command", result.Command).Msg("🚀 Launching benchmark")

	start := time.Now()
	runErr := cmd.Run()
	result.Duration = time.Since(start)

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// Spawn itself failed (binary not found, not executable).
			result.ExitCode = -1
		}
		return result, &ExecError{
			StepID:     rc.StepID,
			ExitCode:   result.ExitCode,
			StderrFile: rc.StderrFile,
			Err:        runErr,
		}
	}

	logger.Debug().Dur("elapsed", result.Duration).Msg("Benchmark exited cleanly")
	return result, nil
}
