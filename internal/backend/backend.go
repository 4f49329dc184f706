package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sbyna/h5bench/internal/context"
	"github.com/sbyna/h5bench/types"
)

// Backend is the contract every benchmark kind implements: translate a
// step's declarative configuration into the config-file artifact and
// argument vector its externally built binary expects.
type Backend interface {
	// Kind returns the canonical step kind tag (e.g. "write").
	Kind() string

	// NeedsVol reports whether the step requests the VOL acceleration
	// layer and therefore an Enable before launch.
	NeedsVol(step *types.Step) bool

	// Emit writes the step's config artifact (if any) into rc.Dir and
	// returns the full argument vector, binary included. Any failure
	// here is fatal to the whole suite.
	Emit(ctx *context.ExecutionContext, rc *context.RunContext, logger zerolog.Logger) ([]string, error)
}

// DispatchError marks an unknown step kind or an unsupported operation
// value within a kind. Always fatal, regardless of the abort policy.
type DispatchError struct {
	Kind   string
	Detail string
}

func (e *DispatchError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("dispatch error for step kind %q: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("unknown step kind %q", e.Kind)
}

// ArtifactError marks a failure generating a config artifact or
// argument vector. It indicates a broken specification rather than a
// backend runtime failure and is therefore always fatal.
type ArtifactError struct {
	Path string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("failed to generate artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// Registry holds the known backends keyed by step kind.
type Registry struct {
	backends map[string]Backend
}

func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register adds a backend. It panics on duplicate kinds since that is
// an initialization bug, not a runtime condition.
func (r *Registry) Register(b Backend) {
	kind := b.Kind()
	if _, exists := r.backends[kind]; exists {
		panic(fmt.Sprintf("backend for kind %q already registered", kind))
	}
	r.backends[kind] = b
	log.Debug().Str("kind", kind).Msg("Registered benchmark backend")
}

// Get retrieves a backend by kind. Returns the backend and true if
// found, otherwise nil and false.
func (r *Registry) Get(kind string) (Backend, bool) {
	b, exists := r.backends[kind]
	return b, exists
}

// RegisteredKinds returns a sorted list of known kinds.
func (r *Registry) RegisteredKinds() []string {
	kinds := make([]string, 0, len(r.backends))
	for k := range r.backends {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// NewDefaultRegistry wires up the five shipped backends.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewWriteBackend())
	r.Register(NewReadBackend())
	r.Register(&MetadataBackend{})
	r.Register(&AmrexBackend{})
	r.Register(&OpenPMDBackend{})
	r.Register(&ExerciserBackend{})
	return r
}

// Transfer modes understood by the mode-aware backends.
const (
	ModeSync  = "SYNC"
	ModeAsync = "ASYNC"
)

// RequestedMode returns the declared transfer mode of a step, upper
// cased, or "" when the step does not declare one. Both the h5bench
// spelling (MODE) and the amrex spelling (mode) are recognized.
func RequestedMode(step *types.Step) string {
	v, ok := step.Configuration.Get("MODE")
	if !ok {
		v, _ = step.Configuration.Get("mode")
	}
	return strings.ToUpper(strings.TrimSpace(v))
}

// decodeControls extracts a kind's control keys from the loose step
// configuration into a typed struct. Input is weakly typed since YAML
// scalars arrive as strings.
func decodeControls(cm types.ConfigMap, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(cm.ToMap())
}

// binaryPath resolves a backend binary name against the optional
// binary-dir of the suite spec; otherwise the name is left for PATH
// lookup by the launcher.
func binaryPath(ctx *context.ExecutionContext, name string) string {
	if ctx.Spec.BinaryDir != "" {
		return filepath.Join(ctx.Spec.BinaryDir, name)
	}
	return name
}

// writeArtifact writes a generated config file, classifying failures
// as artifact errors.
func writeArtifact(path string, content []byte) error {
	if err := os.WriteFile(path, content, 0644); err != nil {
		return &ArtifactError{Path: path, Err: err}
	}
	return nil
}
