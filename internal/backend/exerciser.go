package backend

import (
	"github.com/rs/zerolog"
	"github.com/sbyna/h5bench/internal/context"
	"github.com/sbyna/h5bench/types"
)

// ExerciserBackend drives the HDF5 exerciser, which takes its whole
// configuration on the command line: every entry becomes a --key value
// pair, in declared order, and no config file is written.
type ExerciserBackend struct{}

func (b *ExerciserBackend) Kind() string { return "exerciser" }

func (b *ExerciserBackend) NeedsVol(step *types.Step) bool { return false }

func (b *ExerciserBackend) Emit(ctx *context.ExecutionContext, rc *context.RunContext, logger zerolog.Logger) ([]string, error) {
	argv := []string{binaryPath(ctx, "h5bench_exerciser")}
	for _, e := range rc.Step.Configuration.Entries() {
		argv = append(argv, "--"+e.Key)
		if e.Value != "" {
			argv = append(argv, e.Value)
		}
	}

	logger.Debug().Strs("argv", argv).Msg("Built exerciser argument vector")
	return argv, nil
}
