package orchestrator

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/sbyna/h5bench/internal/backend"
	"github.com/sbyna/h5bench/internal/context"
	"github.com/sbyna/h5bench/internal/environ"
	"github.com/sbyna/h5bench/internal/models"
	"github.com/sbyna/h5bench/internal/runner"
	"github.com/sbyna/h5bench/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// installStubKernels writes executable shell scripts standing in for
// the externally built benchmark binaries. The write/read stubs fail
// with exit 7 when the emitted config carries SHOULD_FAIL=yes, print a
// mode marker otherwise, and echo the connector variable so tests can
// observe the environment the child actually saw.
func installStubKernels(t *testing.T) string {
	t.Helper()
	binDir := t.TempDir()

	stub := `#!/bin/sh
if grep -q "SHOULD_FAIL=yes" "$1" 2>/dev/null; then
  echo "kernel exploded" >&2
  exit 7
fi
echo "Mode: SYNC"
echo "connector=${HDF5_VOL_CONNECTOR:-unset}"
`
	for _, name := range []string{"h5bench_write", "h5bench_read"} {
		path := filepath.Join(binDir, name)
		require.NoError(t, os.WriteFile(path, []byte(stub), 0755))
	}
	return binDir
}

func patternStep(kind string, extra map[string]string) *types.Step {
	var cfg types.ConfigMap
	cfg.Set("MODE", "SYNC")
	cfg.Set("TIMESTEPS", "1")
	for k, v := range extra {
		cfg.Set(k, v)
	}
	return &types.Step{Benchmark: kind, File: "test.h5", Configuration: cfg}
}

func newSuiteContext(t *testing.T, binDir string, steps ...*types.Step) *context.ExecutionContext {
	t.Helper()
	return &context.ExecutionContext{
		SuiteID: uuid.New(),
		Spec: &types.SuiteSpec{
			MPI:        types.LaunchSpec{Command: "mpirun", Ranks: 1},
			Directory:  "./storage",
			BinaryDir:  binDir,
			Benchmarks: steps,
		},
		SuiteDir: t.TempDir(),
	}
}

func listStepDirs(t *testing.T, suiteDir string) []string {
	t.Helper()
	entries, err := os.ReadDir(suiteDir)
	require.NoError(t, err)
	dirs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs
}

func TestRunSequencesAllSteps(t *testing.T) {
	binDir := installStubKernels(t)
	ctx := newSuiteContext(t, binDir,
		patternStep("write", nil),
		patternStep("read", nil),
	)

	env := environ.NewControllerFromEnv(nil, []string{"PATH=/bin:/usr/bin"})
	orch := New(backend.NewDefaultRegistry(), env)

	records, err := orch.Run(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	for _, record := range records {
		assert.Equal(t, models.StatusSucceeded, record.Status)
		assert.Equal(t, 0, record.ExitCode)
		assert.Equal(t, ctx.SuiteID, record.SuiteID)

		// Each step leaves its full artifact set behind.
		assert.FileExists(t, record.ConfigFile)
		assert.FileExists(t, record.StdoutFile)
		assert.FileExists(t, record.StderrFile)
		assert.FileExists(t, filepath.Join(record.Directory, "record.json"))
	}

	assert.Len(t, listStepDirs(t, ctx.SuiteDir), 2)
}

func TestRunUnknownKindFailsBeforeStepDirCreation(t *testing.T) {
	binDir := installStubKernels(t)
	ctx := newSuiteContext(t, binDir, &types.Step{Benchmark: "bogus"})

	orch := New(backend.NewDefaultRegistry(), environ.NewController(nil))

	records, err := orch.Run(ctx)
	require.Error(t, err)

	var dispatchErr *backend.DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, "bogus", dispatchErr.Kind)

	assert.Empty(t, records)
	assert.Empty(t, listStepDirs(t, ctx.SuiteDir), "no step directory may exist for an undispatchable step")
}

func TestRunContinuesPastFailuresByDefault(t *testing.T) {
	binDir := installStubKernels(t)
	ctx := newSuiteContext(t, binDir,
		patternStep("write", nil),
		patternStep("write", map[string]string{"SHOULD_FAIL": "yes"}),
		patternStep("read", nil),
	)

	orch := New(backend.NewDefaultRegistry(), environ.NewControllerFromEnv(nil, []string{"PATH=/bin:/usr/bin"}))

	records, err := orch.Run(ctx)
	require.NoError(t, err, "execution failures do not stop the suite in continue mode")
	require.Len(t, records, 3)

	assert.Equal(t, models.StatusSucceeded, records[0].Status)
	assert.Equal(t, models.StatusFailed, records[1].Status)
	assert.Equal(t, 7, records[1].ExitCode)
	assert.Equal(t, models.StatusSucceeded, records[2].Status)

	// The failed step keeps its directory and captures for forensics.
	assert.Len(t, listStepDirs(t, ctx.SuiteDir), 3)
	stderr, readErr := os.ReadFile(records[1].StderrFile)
	require.NoError(t, readErr)
	assert.Contains(t, string(stderr), "kernel exploded")
}

func TestRunAbortsOnFirstFailureWhenAsked(t *testing.T) {
	binDir := installStubKernels(t)
	ctx := newSuiteContext(t, binDir,
		patternStep("write", map[string]string{"SHOULD_FAIL": "yes"}),
		patternStep("read", nil),
	)
	ctx.AbortOnFailure = true

	orch := New(backend.NewDefaultRegistry(), environ.NewControllerFromEnv(nil, []string{"PATH=/bin:/usr/bin"}))

	records, err := orch.Run(ctx)
	require.Error(t, err)

	var execErr *runner.ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 7, execErr.ExitCode)

	require.Len(t, records, 1)
	assert.Len(t, listStepDirs(t, ctx.SuiteDir), 1, "the remaining steps must not start")
}

func TestRunTogglesConnectorPerStep(t *testing.T) {
	binDir := installStubKernels(t)
	ctx := newSuiteContext(t, binDir,
		patternStep("write", map[string]string{"MODE": "ASYNC"}),
		patternStep("read", nil),
	)

	vol := &types.VolSpec{
		Library:   "/opt/vol-async/lib",
		Path:      "/opt/vol-async/plugin",
		Connector: "async under_vol=0",
	}
	env := environ.NewControllerFromEnv(vol, []string{"PATH=/bin:/usr/bin"})
	orch := New(backend.NewDefaultRegistry(), env)

	records, err := orch.Run(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// The async step saw the connector, the sync step did not.
	asyncStdout, readErr := os.ReadFile(records[0].StdoutFile)
	require.NoError(t, readErr)
	assert.Contains(t, string(asyncStdout), "connector=async under_vol=0")

	syncStdout, readErr := os.ReadFile(records[1].StdoutFile)
	require.NoError(t, readErr)
	assert.Contains(t, string(syncStdout), "connector=unset")

	// Reset ran: nothing injected survives the suite.
	_, ok := env.Lookup(environ.EnvConnector)
	assert.False(t, ok)
	assert.Equal(t, environ.StateUninitialized, env.State())
}

func TestRunAsyncStepWithoutVolIsFatal(t *testing.T) {
	binDir := installStubKernels(t)
	ctx := newSuiteContext(t, binDir,
		patternStep("write", map[string]string{"MODE": "ASYNC"}),
		patternStep("read", nil),
	)

	orch := New(backend.NewDefaultRegistry(), environ.NewControllerFromEnv(nil, []string{"PATH=/bin:/usr/bin"}))

	records, err := orch.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no vol block configured")

	var execErr *runner.ExecError
	assert.False(t, errors.As(err, &execErr), "environment failures are not subject to the abort policy")

	// The step directory was already allocated when Enable failed.
	require.Len(t, records, 1)
	assert.Equal(t, models.StatusFailed, records[0].Status)
}

func TestRunRecordsModeValidation(t *testing.T) {
	binDir := installStubKernels(t)
	ctx := newSuiteContext(t, binDir, patternStep("write", nil))
	ctx.ValidateMode = true

	orch := New(backend.NewDefaultRegistry(), environ.NewControllerFromEnv(nil, []string{"PATH=/bin:/usr/bin"}))

	records, err := orch.Run(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "SYNC", records[0].RequestedMode)
	assert.Equal(t, "SYNC", records[0].ObservedMode)
}
