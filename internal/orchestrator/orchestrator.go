package orchestrator

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sbyna/h5bench/internal/backend"
	"github.com/sbyna/h5bench/internal/context"
	"github.com/sbyna/h5bench/internal/environ"
	"github.com/sbyna/h5bench/internal/fsutil"
	"github.com/sbyna/h5bench/internal/logging"
	"github.com/sbyna/h5bench/internal/models"
	"github.com/sbyna/h5bench/internal/runner"
	"github.com/sbyna/h5bench/types"
)

// Orchestrator drives a validated suite through its declared steps,
// strictly sequentially and in declared order. The only parallelism in
// the system lives inside the spawned backends.
type Orchestrator struct {
	registry *backend.Registry
	env      *environ.Controller
	logger   zerolog.Logger
}

func New(registry *backend.Registry, env *environ.Controller) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		env:      env,
		logger:   log.With().Str("component", "orchestrator").Logger(),
	}
}

// Run executes every step to completion. It returns the records of
// all steps that produced one, plus the error that stopped the suite,
// if any. Backend execution failures stop the suite only when the
// context says to abort on failure; dispatch and artifact errors are
// always fatal since they indicate a broken specification.
func (o *Orchestrator) Run(ctx *context.ExecutionContext) ([]models.StepRecord, error) {
	o.env.Prepare()
	defer o.env.Reset()

	records := make([]models.StepRecord, 0, len(ctx.Spec.Benchmarks))

	for i, step := range ctx.Spec.Benchmarks {
		stepLogger := o.logger.With().
			Int("step", i).
			Str("benchmark", step.Benchmark).
			Logger()

		// Dispatch happens before the step directory exists: a
		// malformed specification never leaves half-created state
		// behind, and the abort flag does not apply.
		b, known := o.registry.Get(step.Benchmark)
		if !known {
			stepLogger.Error().Strs("known_kinds", o.registry.RegisteredKinds()).Msg("Unknown benchmark kind")
			return records, &backend.DispatchError{Kind: step.Benchmark}
		}

		record, err := o.runStep(ctx, b, step, stepLogger)
		if record != nil {
			records = append(records, *record)
		}

		if err != nil {
			var execErr *runner.ExecError
			if errors.As(err, &execErr) {
				stepLogger.Error().
					Int("exit_code", execErr.ExitCode).
					Str("stderr", execErr.StderrFile).
					Msg("❌ Benchmark failed")

				if !ctx.AbortOnFailure {
					continue
				}
				return records, fmt.Errorf("aborting suite after first failure: %w", err)
			}
			return records, err
		}

		stepLogger.Info().Msg("✅ Benchmark succeeded")
	}

	return records, nil
}

// runStep executes one step: step directory, VOL enable, artifact
// emission, launch, mode validation, record persistence. The VOL
// disable is deferred so it runs on every exit path, keeping the
// enable/disable pairing intact even when the launch fails.
func (o *Orchestrator) runStep(ctx *context.ExecutionContext, b backend.Backend, step *types.Step, stepLogger zerolog.Logger) (*models.StepRecord, error) {
	rc := context.NewRunContext(step)
	stepLogger = stepLogger.With().Str("step_id", rc.StepID).Logger()

	dir, err := fsutil.CreateStepDir(ctx.SuiteDir, rc.StepID)
	if err != nil {
		return nil, &backend.ArtifactError{Path: ctx.SuiteDir, Err: err}
	}
	rc.Bind(dir)

	startTime := time.Now()
	record := &models.StepRecord{
		StepID:     rc.StepID,
		Benchmark:  step.Benchmark,
		SuiteID:    ctx.SuiteID,
		Directory:  rc.Dir,
		StdoutFile: rc.StdoutFile,
		StderrFile: rc.StderrFile,
		StartTime:  startTime.Format(time.RFC3339),
		Status:     models.StatusFailed,
	}

	if b.NeedsVol(step) {
		if err := o.env.Enable(); err != nil {
			return record, fmt.Errorf("step %s: %w", rc.StepID, err)
		}
	}
	defer o.env.Disable()

	argv, err := b.Emit(ctx, rc, stepLogger)
	if err != nil {
		o.finalize(rc, record, startTime, stepLogger)
		return record, err
	}
	record.ConfigFile = rc.ConfigFile

	full := make([]string, 0, len(ctx.Prefix)+len(argv))
	full = append(full, ctx.Prefix...)
	full = append(full, argv...)

	// Wall-clock time around the spawn, resource-allocation waits
	// included: that is what a performance engineer experiences.
	result, runErr := runner.Run(rc, full, o.env.Environ(), stepLogger)
	if result != nil {
		record.Command = result.Command
		record.ExitCode = result.ExitCode
		record.DurationMs = result.Duration.Milliseconds()
	}
	if runErr == nil {
		record.Status = models.StatusSucceeded
	}

	o.validateMode(ctx, b, record, rc, stepLogger)
	o.finalize(rc, record, startTime, stepLogger)

	return record, runErr
}

// validateMode runs the best-effort post-hoc check that the mode the
// backend reported matches the one the step requested. Only the
// pattern kernels report a marker; other kinds are skipped.
func (o *Orchestrator) validateMode(ctx *context.ExecutionContext, b backend.Backend, record *models.StepRecord, rc *context.RunContext, stepLogger zerolog.Logger) {
	if !ctx.ValidateMode {
		return
	}
	kind := b.Kind()
	if kind != "write" && kind != "read" {
		return
	}

	record.RequestedMode = backend.RequestedMode(rc.Step)
	record.ObservedMode = runner.CheckMode(rc.StdoutFile, record.RequestedMode, stepLogger)
}

func (o *Orchestrator) finalize(rc *context.RunContext, record *models.StepRecord, startTime time.Time, stepLogger zerolog.Logger) {
	record.FinishTime = time.Now().Format(time.RFC3339)
	if record.DurationMs == 0 {
		record.DurationMs = time.Since(startTime).Milliseconds()
	}

	if err := logging.SaveStepRecord(rc.Dir, *record); err != nil {
		stepLogger.Error().Err(err).Msg("Failed to save step record")
	}
}
