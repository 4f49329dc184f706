package backend

import (
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sbyna/h5bench/internal/context"
	"github.com/sbyna/h5bench/types"
)

// patternControls are the control keys of the write/read kernels.
// MODE selects the sync or async I/O path and is consumed by the
// orchestrator's environment toggling, never written to the config
// file. CSV_FILE is rewritten so results land in the step directory.
type patternControls struct {
	Mode    string `mapstructure:"MODE"`
	CSVFile string `mapstructure:"CSV_FILE"`
}

// PatternBackend drives the h5bench write and read access-pattern
// kernels. Both share one config-file dialect (KEY=VALUE lines) and
// one invocation convention: config file path, then output file path.
type PatternBackend struct {
	kind   string
	binary string
}

func NewWriteBackend() *PatternBackend {
	return &PatternBackend{kind: "write", binary: "h5bench_write"}
}

func NewReadBackend() *PatternBackend {
	return &PatternBackend{kind: "read", binary: "h5bench_read"}
}

func (b *PatternBackend) Kind() string { return b.kind }

func (b *PatternBackend) NeedsVol(step *types.Step) bool {
	return RequestedMode(step) == ModeAsync
}

func (b *PatternBackend) Emit(ctx *context.ExecutionContext, rc *context.RunContext, logger zerolog.Logger) ([]string, error) {
	var controls patternControls
	if err := decodeControls(rc.Step.Configuration, &controls); err != nil {
		return nil, &ArtifactError{Path: rc.Dir, Err: err}
	}

	var sb strings.Builder
	for _, e := range rc.Step.Configuration.Entries() {
		if e.Key == "MODE" {
			continue
		}
		value := e.Value
		if e.Key == "CSV_FILE" {
			value = filepath.Join(rc.Dir, filepath.Base(e.Value))
		}
		sb.WriteString(e.Key)
		sb.WriteString("=")
		sb.WriteString(value)
		sb.WriteString("\n")
	}

	rc.ConfigFile = filepath.Join(rc.Dir, "h5bench.cfg")
	if err := writeArtifact(rc.ConfigFile, []byte(sb.String())); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("config_file", rc.ConfigFile).
		Str("mode", controls.Mode).
		Msg("Emitted pattern kernel configuration")

	outputFile := filepath.Join(rc.Dir, rc.Step.File)
	return []string{binaryPath(ctx, b.binary), rc.ConfigFile, outputFile}, nil
}
