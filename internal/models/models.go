package models

import "github.com/google/uuid"

// Step terminal statuses.
const (
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
)

// StepRecord contains everything about a single step's execution. It
// is saved as record.json inside the step directory.
type StepRecord struct {
	StepID    string    `json:"step_id"`
	Benchmark string    `json:"benchmark"`
	SuiteID   uuid.UUID `json:"suite_id"`

	Directory  string `json:"directory"`
	ConfigFile string `json:"config_file,omitempty"`
	StdoutFile string `json:"stdout_file"`
	StderrFile string `json:"stderr_file"`

	// Full command line, prefix included, for reproducibility.
	Command string `json:"command"`

	StartTime  string `json:"start_time"`
	FinishTime string `json:"finish_time"`
	DurationMs int64  `json:"duration_ms"`

	ExitCode int    `json:"exit_code"`
	Status   string `json:"status"`

	RequestedMode string `json:"requested_mode,omitempty"`
	ObservedMode  string `json:"observed_mode,omitempty"`
}

// ExecutionSummary holds the overall results of a suite run. It is
// saved as summary.json inside the suite directory.
type ExecutionSummary struct {
	SuiteID        uuid.UUID    `json:"suite_id"`
	SuiteFile      string       `json:"suite_file"`
	SuiteStartTime string       `json:"suite_start_time"`
	Launcher       string       `json:"launcher"`
	Host           string       `json:"host"`
	User           string       `json:"user"`
	Steps          []StepRecord `json:"steps"`

	OverallStatus   string      `json:"overall_status"` // "Success", "Failed", "Aborted"
	TotalDurationMs int64       `json:"total_duration_ms"`
	StepsSucceeded  int         `json:"steps_succeeded"`
	StepsFailed     int         `json:"steps_failed"`
	FirstFailure    *StepRecord `json:"first_failure,omitempty"`
}
