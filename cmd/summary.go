package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sbyna/h5bench/internal/models"
	"github.com/sbyna/h5bench/types"
)

// generateExecutionSummary aggregates the per-step records of one
// suite run. aborted reports whether the run stopped early on a fatal
// error, which distinguishes "Failed" from "Aborted".
func generateExecutionSummary(
	records []models.StepRecord,
	suiteID uuid.UUID,
	startTime time.Time,
	spec *types.SuiteSpec,
	suiteFile string,
	aborted bool,
) models.ExecutionSummary {
	host, _ := os.Hostname()

	succeeded := 0
	failed := 0
	var firstFailure *models.StepRecord

	for i := range records {
		switch records[i].Status {
		case models.StatusSucceeded:
			succeeded++
		case models.StatusFailed:
			failed++
			if firstFailure == nil {
				firstFailure = &records[i]
			}
		}
	}

	overallStatus := "Success"
	switch {
	case aborted:
		overallStatus = "Aborted"
	case failed > 0:
		overallStatus = "Failed"
	}

	return models.ExecutionSummary{
		SuiteID:         suiteID,
		SuiteFile:       filepath.Base(suiteFile),
		SuiteStartTime:  startTime.Format(time.RFC3339),
		Launcher:        spec.MPI.Command,
		Host:            host,
		User:            os.Getenv("USER"),
		Steps:           records,
		OverallStatus:   overallStatus,
		TotalDurationMs: time.Since(startTime).Milliseconds(),
		StepsSucceeded:  succeeded,
		StepsFailed:     failed,
		FirstFailure:    firstFailure,
	}
}

// writeSummary writes the execution summary to summary.json in the
// suite directory.
func writeSummary(summary models.ExecutionSummary, suiteDir string) error {
	formatted, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution summary: %w", err)
	}

	summaryPath := filepath.Join(suiteDir, "summary.json")
	f, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file %s: %w", summaryPath, err)
	}
	defer f.Close()

	if _, err := f.Write(formatted); err != nil {
		return fmt.Errorf("failed to write summary file %s: %w", summaryPath, err)
	}

	return nil
}
