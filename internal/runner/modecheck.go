package runner

import (
	"bufio"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// The pattern kernels report the I/O path they actually took on
// stdout, e.g. "Mode: SYNC". The last marker wins if several appear.
var modeMarker = regexp.MustCompile(`(?i)mode:?\s+(SYNC|ASYNC)`)

// ObservedMode scans a captured stdout file for the mode marker.
// Returns "" when no marker is present.
func ObservedMode(stdoutFile string) (string, error) {
	f, err := os.Open(stdoutFile)
	if err != nil {
		return "", err
	}
	defer f.Close()

	observed := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if m := modeMarker.FindStringSubmatch(scanner.Text()); m != nil {
			observed = strings.ToUpper(m[1])
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return observed, nil
}

// CheckMode compares the mode a step requested against what the
// backend reported. Purely diagnostic: a mismatch is logged as a
// warning and never changes the step's success classification.
func CheckMode(stdoutFile, requested string, logger zerolog.Logger) string {
	observed, err := ObservedMode(stdoutFile)
	if err != nil {
		logger.Debug().Err(err).Msg("Could not scan stdout for a mode marker")
		return ""
	}
	if observed == "" {
		logger.Debug().Msg("No mode marker found in captured stdout")
		return ""
	}

	if requested != "" && observed != requested {
		logger.Warn().
			Str("requested", requested).
			Str("observed", observed).
			Msg("Benchmark ran in a different mode than requested")
	}
	return observed
}
