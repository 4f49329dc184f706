package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sbyna/h5bench/internal/context"
	"github.com/sbyna/h5bench/types"
)

type amrexControls struct {
	Mode string `mapstructure:"mode"`
}

// AmrexBackend drives the AMReX plotfile benchmark. Its config dialect
// is "KEY = VALUE" lines; unlike the pattern kernels the mode key is a
// real backend option and stays in the emitted file — it only
// additionally selects which of the two binaries to launch.
type AmrexBackend struct{}

func (b *AmrexBackend) Kind() string { return "amrex" }

func (b *AmrexBackend) NeedsVol(step *types.Step) bool {
	return RequestedMode(step) == ModeAsync
}

func (b *AmrexBackend) Emit(ctx *context.ExecutionContext, rc *context.RunContext, logger zerolog.Logger) ([]string, error) {
	var controls amrexControls
	if err := decodeControls(rc.Step.Configuration, &controls); err != nil {
		return nil, &ArtifactError{Path: rc.Dir, Err: err}
	}

	binary := "h5bench_amrex_sync"
	if strings.EqualFold(controls.Mode, ModeAsync) {
		binary = "h5bench_amrex_async"
	}

	// Plotfiles are written into a nested subdirectory named after the
	// declared output file.
	plotDir := filepath.Join(rc.Dir, rc.Step.File)
	if _, err := os.Stat(plotDir); os.IsNotExist(err) {
		if err := os.MkdirAll(plotDir, 0755); err != nil {
			return nil, &ArtifactError{Path: plotDir, Err: err}
		}
	}

	var sb strings.Builder
	for _, e := range rc.Step.Configuration.Entries() {
		value := e.Value
		if e.Key == "directory" {
			value = plotDir
		}
		fmt.Fprintf(&sb, "%s = %s\n", e.Key, value)
	}

	rc.ConfigFile = filepath.Join(rc.Dir, "amrex.cfg")
	if err := writeArtifact(rc.ConfigFile, []byte(sb.String())); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("config_file", rc.ConfigFile).
		Str("binary", binary).
		Msg("Emitted amrex configuration")

	return []string{binaryPath(ctx, binary), rc.ConfigFile}, nil
}
