package context

import (
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sbyna/h5bench/types"
)

// ExecutionContext carries the immutable per-suite state shared by the
// sequencer, the backends and the process runner.
type ExecutionContext struct {
	SuiteID  uuid.UUID
	Spec     *types.SuiteSpec
	SpecDir  string // directory that holds the suite file
	SuiteDir string // resolved suite base directory

	// Launch prefix tokens, built once from Spec.MPI.
	Prefix []string

	AbortOnFailure bool
	ValidateMode   bool
}

// RunContext is the per-step state. A fresh one is allocated for every
// step; its files stay on disk after the step finishes.
type RunContext struct {
	StepID string
	Step   *types.Step

	Dir        string
	ConfigFile string // set by the backend emitter, empty for exerciser
	StdoutFile string
	StderrFile string
}

// NewRunContext allocates a RunContext with a fresh unique identifier.
// Dir and the capture file paths are filled in once the step directory
// exists.
func NewRunContext(step *types.Step) *RunContext {
	return &RunContext{
		StepID: uuid.New().String(),
		Step:   step,
	}
}

// Bind points the context at its freshly created step directory.
func (rc *RunContext) Bind(dir string) {
	rc.Dir = dir
	rc.StdoutFile = filepath.Join(dir, "stdout")
	rc.StderrFile = filepath.Join(dir, "stderr")
}
