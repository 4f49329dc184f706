package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/google/uuid"
	"github.com/sbyna/h5bench/internal/config"
	"github.com/sbyna/h5bench/internal/console"
	"github.com/sbyna/h5bench/internal/context"
	"github.com/sbyna/h5bench/internal/environ"
	"github.com/sbyna/h5bench/internal/fsutil"
	"github.com/sbyna/h5bench/internal/launcher"
	"github.com/sbyna/h5bench/internal/logging"
	"github.com/sbyna/h5bench/internal/orchestrator"
	"github.com/spf13/cobra"
)

var abortOnFailure bool
var validateMode bool

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVarP(&abortOnFailure, "abort-on-failure", "a", false, "Stop the suite at the first failing benchmark")
	runCmd.Flags().BoolVar(&validateMode, "validate-mode", false, "Check reported sync/async mode against the requested one")
}

var runCmd = &cobra.Command{
	Use:   "run <suite-file>",
	Short: "Run a benchmark suite and wait for completion",
	Long: `Run executes every benchmark declared in a suite file synchronously,
in declared order, one at a time.

Each step gets its own uniquely named directory under the suite's base
directory, holding the generated backend configuration, the captured
stdout and stderr, and a record.json with timing and exit status. A
summary.json for the whole suite is written next to them, along with a
suite.log carrying the full structured log.

Benchmark binaries are external: h5bench only knows their config-file
and command-line contracts and launches them under the configured MPI
launcher.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		suiteFile := args[0]
		ui := console.New(Verbose)

		// --- Load and validate the suite specification ---

		registry := GetDependencies().BackendRegistry

		spec, specDir, err := config.LoadSuiteSpec(suiteFile)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to load %q: %w", suiteFile, err))
		}

		ui.Info("✓ Suite %q loaded and validated.", suiteFile)

		// --- Prepare the suite directory and file logging ---

		suiteID := uuid.New()
		suiteStartTime := time.Now()

		suiteDir, err := fsutil.EnsureSuiteDir(spec.Directory, spec.FileSystem)
		if err != nil {
			cobra.CheckErr(err)
		}

		logFilePath := filepath.Join(suiteDir, "suite.log")
		if err := logging.ConfigureGlobalLogger(Verbose, logFilePath); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to initialize logging: %w", err))
		}

		logCtx := log.With().Str("suite_id", suiteID.String()).Logger()
		logCtx.Info().Msgf("Suite artifacts will be stored in: %s", suiteDir)

		// --- Build the launch prefix (once, reused for every step) ---

		prefix, err := launcher.BuildPrefix(spec.MPI)
		if err != nil {
			cobra.CheckErr(err)
		}

		// --- Set up execution context and run ---

		ctx := &context.ExecutionContext{
			SuiteID:        suiteID,
			Spec:           spec,
			SpecDir:        specDir,
			SuiteDir:       suiteDir,
			Prefix:         prefix,
			AbortOnFailure: abortOnFailure,
			ValidateMode:   validateMode,
		}

		orch := orchestrator.New(registry, environ.NewController(spec.Vol))
		logCtx.Info().Msgf("Starting suite run (%d steps)...", len(spec.Benchmarks))

		ui.StartSpinner(fmt.Sprintf("running %d benchmark steps", len(spec.Benchmarks)))
		records, runErr := orch.Run(ctx)
		ui.StopSpinner()

		// --- Construct and write the suite summary ---

		summary := generateExecutionSummary(records, suiteID, suiteStartTime, spec, suiteFile, runErr != nil)

		if err := writeSummary(summary, suiteDir); err != nil {
			logCtx.Error().Err(err).Msg("Failed to write summary.json")
		}

		if runErr != nil {
			logCtx.Error().Err(runErr).Msg("Suite run failed")
			ui.Error("suite failed: %v", runErr)
			cobra.CheckErr(runErr)
		}

		if summary.StepsFailed > 0 {
			ui.Info("⚠ Suite complete with %d failed step(s), artifacts in: %s", summary.StepsFailed, suiteDir)
		} else {
			ui.Info("✓ Suite complete, artifacts saved to: %s", suiteDir)
		}
		logCtx.Info().Msgf("Suite complete: %s", summary.OverallStatus)
	},
}
