package fsutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/sbyna/h5bench/types"
)

// EnsureSuiteDir creates the suite base directory, tolerating an
// existing one, and applies any requested Lustre striping. Striping is
// a performance hint: probe or apply failures are logged and swallowed.
func EnsureSuiteDir(dir string, fs *types.FileSystemSpec) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve suite directory %q: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", fmt.Errorf("failed to create suite directory %q: %w", abs, err)
	}

	if fs != nil && fs.Lustre != nil {
		applyLustreStriping(abs, fs.Lustre)
	}

	return abs, nil
}

// applyLustreStriping probes the directory for Lustre support and, if
// the probe succeeds, applies the requested stripe parameters.
func applyLustreStriping(dir string, lustre *types.LustreSpec) {
	if err := exec.Command("lfs", "getstripe", dir).Run(); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("Directory does not appear to be on a Lustre file system, skipping striping")
		return
	}

	args := []string{"setstripe"}
	if lustre.StripeSize != "" {
		args = append(args, "-S", lustre.StripeSize)
	}
	if lustre.StripeCount > 0 {
		args = append(args, "-c", strconv.Itoa(lustre.StripeCount))
	}
	if len(args) == 1 {
		log.Debug().Str("dir", dir).Msg("Lustre detected but no stripe parameters requested")
		return
	}
	args = append(args, dir)

	if out, err := exec.Command("lfs", args...).CombinedOutput(); err != nil {
		log.Warn().Err(err).Str("output", string(out)).Str("dir", dir).Msg("Failed to apply Lustre striping")
		return
	}

	log.Info().Str("dir", dir).Msg("✓ Applied Lustre striping")
}

// CreateStepDir creates the isolated directory for one step. Unlike
// the suite directory, an existing directory here is an error: step
// identifiers are generated fresh and a collision means something is
// deeply wrong.
func CreateStepDir(suiteDir, stepID string) (string, error) {
	dir := filepath.Join(suiteDir, stepID)
	if err := os.Mkdir(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create step directory %q: %w", dir, err)
	}
	return dir, nil
}
