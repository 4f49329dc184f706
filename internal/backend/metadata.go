package backend

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/sbyna/h5bench/internal/context"
	"github.com/sbyna/h5bench/types"
	"gopkg.in/ini.v1"
)

func init() {
	// hdf5-iotest insists on an explicit [DEFAULT] section header.
	ini.DefaultHeader = true
}

// MetadataBackend drives the hdf5-iotest metadata stress generator,
// which reads an INI file with a single DEFAULT section.
type MetadataBackend struct{}

func (b *MetadataBackend) Kind() string { return "metadata" }

// The metadata generator has no async path.
func (b *MetadataBackend) NeedsVol(step *types.Step) bool { return false }

func (b *MetadataBackend) Emit(ctx *context.ExecutionContext, rc *context.RunContext, logger zerolog.Logger) ([]string, error) {
	file := ini.Empty()
	section := file.Section(ini.DefaultSection)

	for _, e := range rc.Step.Configuration.Entries() {
		if e.Key == "hdf5-file" {
			// Overridden below: the output always lands in the step
			// directory no matter what the spec says.
			continue
		}
		value := e.Value
		if e.Key == "csv-file" {
			value = filepath.Join(rc.Dir, filepath.Base(e.Value))
		}
		if _, err := section.NewKey(e.Key, value); err != nil {
			return nil, &ArtifactError{Path: rc.Dir, Err: err}
		}
	}

	if _, err := section.NewKey("hdf5-file", filepath.Join(rc.Dir, rc.Step.File)); err != nil {
		return nil, &ArtifactError{Path: rc.Dir, Err: err}
	}

	rc.ConfigFile = filepath.Join(rc.Dir, "hdf5_iotest.ini")
	if err := file.SaveTo(rc.ConfigFile); err != nil {
		return nil, &ArtifactError{Path: rc.ConfigFile, Err: err}
	}

	logger.Debug().Str("config_file", rc.ConfigFile).Msg("Emitted metadata stress configuration")

	return []string{binaryPath(ctx, "hdf5_iotest"), rc.ConfigFile}, nil
}
