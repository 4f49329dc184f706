package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sbyna/h5bench/types"
	"gopkg.in/yaml.v3"
)

// Top-level keys that must be present in every suite specification.
// "vol" may be null, but the key itself has to be declared so that a
// forgotten acceleration-layer block is caught before any step runs.
var requiredKeys = []string{"mpi", "vol", "directory", "benchmarks"}

// Step kinds that must declare an output file name.
var kindsRequiringFile = map[string]bool{
	"write":    true,
	"read":     true,
	"metadata": true,
	"amrex":    true,
}

// LoadSuiteSpec reads, parses and validates a suite specification.
// It returns the spec and the directory containing the spec file.
func LoadSuiteSpec(filename string) (*types.SuiteSpec, string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read suite file %s: %w", filename, err)
	}

	// Check key presence on the raw document first. Decoding straight
	// into the struct cannot distinguish "absent" from "null".
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, "", fmt.Errorf("failed to parse YAML in %s: %w", filename, err)
	}

	var missing []string
	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, "", fmt.Errorf("suite file %s is missing required top-level keys: %s", filename, strings.Join(missing, ", "))
	}

	var spec types.SuiteSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, "", fmt.Errorf("failed to parse YAML in %s: %w", filename, err)
	}

	if err := ValidateSuiteSpec(&spec); err != nil {
		return nil, "", fmt.Errorf("validation error in %s: %w", filename, err)
	}

	specDir, err := filepath.Abs(filepath.Dir(filename))
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve directory of %s: %w", filename, err)
	}

	return &spec, specDir, nil
}

// ValidateSuiteSpec checks structural requirements of a parsed spec.
// All problems are collected and reported in one error. Step kind
// membership is deliberately not checked here — the backend registry
// owns the set of kinds and rejects unknown ones at dispatch time.
func ValidateSuiteSpec(spec *types.SuiteSpec) error {
	var errs []string

	// --- Validate 'mpi' section ---
	if spec.MPI.Command == "" {
		errs = append(errs, "field 'mpi.command' is required")
	}
	if spec.MPI.Configuration == "" && spec.MPI.Ranks <= 0 {
		errs = append(errs, "field 'mpi.ranks' must be positive when 'mpi.configuration' is not given")
	}

	// --- Validate 'vol' section (optional, but complete if present) ---
	if spec.Vol != nil {
		if spec.Vol.Library == "" {
			errs = append(errs, "field 'vol.library' is required when a vol block is present")
		}
		if spec.Vol.Path == "" {
			errs = append(errs, "field 'vol.path' is required when a vol block is present")
		}
		if spec.Vol.Connector == "" {
			errs = append(errs, "field 'vol.connector' is required when a vol block is present")
		}
	}

	// --- Validate 'directory' ---
	if spec.Directory == "" {
		errs = append(errs, "field 'directory' is required")
	}

	// --- Validate 'benchmarks' section ---
	if len(spec.Benchmarks) == 0 {
		errs = append(errs, "at least one step must be defined under the 'benchmarks' list")
	}

	for i, step := range spec.Benchmarks {
		stepCtx := fmt.Sprintf("benchmarks[%d]", i)
		if step.Benchmark != "" {
			stepCtx = fmt.Sprintf("benchmarks[%d] (%s)", i, step.Benchmark)
		}

		if step.Benchmark == "" {
			errs = append(errs, fmt.Sprintf("%s: field 'benchmark' is required", stepCtx))
			continue
		}

		if kindsRequiringFile[step.Benchmark] && step.File == "" {
			errs = append(errs, fmt.Sprintf("%s: field 'file' is required for %q steps", stepCtx, step.Benchmark))
		}

		if step.Configuration.Len() == 0 && step.Benchmark != "exerciser" {
			errs = append(errs, fmt.Sprintf("%s: field 'configuration' must not be empty", stepCtx))
		}
	}

	if len(errs) > 0 {
		return errors.New("suite specification validation failed:\n- " + strings.Join(errs, "\n- "))
	}

	return nil
}
