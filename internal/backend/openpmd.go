package backend

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sbyna/h5bench/internal/context"
	"github.com/sbyna/h5bench/types"
)

// Base name the openPMD kernels use for their series files when the
// step does not declare one.
const defaultOpenPMDFileName = "8a_parallel_3Db"

type openPMDControls struct {
	Operation string `mapstructure:"operation"`
	FileName  string `mapstructure:"fileName"`
}

// OpenPMDBackend drives the openPMD write/read kernels. The operation
// key picks the binary and is excluded from the emitted file. The
// fileLocation key always points at the suite directory — not the
// step directory — so a read step can locate the series a prior write
// step produced.
type OpenPMDBackend struct{}

func (b *OpenPMDBackend) Kind() string { return "openpmd" }

func (b *OpenPMDBackend) NeedsVol(step *types.Step) bool { return false }

func (b *OpenPMDBackend) Emit(ctx *context.ExecutionContext, rc *context.RunContext, logger zerolog.Logger) ([]string, error) {
	var controls openPMDControls
	if err := decodeControls(rc.Step.Configuration, &controls); err != nil {
		return nil, &ArtifactError{Path: rc.Dir, Err: err}
	}

	operation := strings.ToLower(controls.Operation)

	var binary string
	switch operation {
	case "write":
		binary = "h5bench_openpmd_write"
	case "read":
		binary = "h5bench_openpmd_read"
	default:
		return nil, &DispatchError{Kind: b.Kind(), Detail: fmt.Sprintf("unsupported operation %q", controls.Operation)}
	}

	var sb strings.Builder
	for _, e := range rc.Step.Configuration.Entries() {
		if e.Key == "operation" || e.Key == "fileLocation" {
			continue
		}
		sb.WriteString(e.Key)
		sb.WriteString("=")
		sb.WriteString(e.Value)
		sb.WriteString("\n")
	}
	sb.WriteString("fileLocation=")
	sb.WriteString(ctx.SuiteDir)
	sb.WriteString("\n")

	rc.ConfigFile = filepath.Join(rc.Dir, "openpmd.cfg")
	if err := writeArtifact(rc.ConfigFile, []byte(sb.String())); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("config_file", rc.ConfigFile).
		Str("operation", operation).
		Msg("Emitted openPMD configuration")

	argv := []string{binaryPath(ctx, binary), rc.ConfigFile}
	if operation == "read" {
		fileName := controls.FileName
		if fileName == "" {
			fileName = defaultOpenPMDFileName
		}
		argv = append(argv, filepath.Join(ctx.SuiteDir, fileName))
	}
	return argv, nil
}
