package launcher

import (
	"fmt"
	"strconv"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/rs/zerolog/log"
	"github.com/sbyna/h5bench/types"
)

// BuildPrefix converts the declared launcher selection into the token
// prefix prepended to every backend invocation. The prefix is built
// once per suite and reused for every step.
//
// An explicit configuration string wins and is used verbatim (with
// shell-quoting respected, so values with embedded spaces survive).
// Otherwise known launchers get their conventional rank flag. An
// unrecognized launcher degrades to an empty prefix: the backend then
// runs as a single unmanaged process, which may well be intentional
// for a local run, so this is a warning rather than an error.
func BuildPrefix(spec types.LaunchSpec) ([]string, error) {
	if spec.Configuration != "" {
		args, err := shellwords.Parse(spec.Configuration)
		if err != nil {
			return nil, fmt.Errorf("failed to parse mpi.configuration %q: %w", spec.Configuration, err)
		}
		return append([]string{spec.Command}, args...), nil
	}

	ranks := strconv.Itoa(spec.Ranks)

	switch spec.Command {
	case "mpirun", "mpiexec":
		return []string{spec.Command, "-np", ranks}, nil
	case "srun":
		return []string{spec.Command, "--cpu_bind=cores", "-n", ranks}, nil
	default:
		log.Warn().Str("launcher", spec.Command).Msg("Unknown launcher, benchmarks will run without a parallel prefix")
		return nil, nil
	}
}
