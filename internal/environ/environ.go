package environ

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sbyna/h5bench/types"
)

// Environment variables owned by the controller.
const (
	EnvLibraryPath     = "LD_LIBRARY_PATH"
	EnvDyldLibraryPath = "DYLD_LIBRARY_PATH"
	EnvPluginPath      = "HDF5_PLUGIN_PATH"
	EnvConnector       = "HDF5_VOL_CONNECTOR"
	EnvStackSize       = "ABT_THREAD_STACKSIZE"
)

// Argobots worker stack size used whenever the VOL layer is loaded.
const defaultStackSize = "100000"

// State of the controller's life cycle:
// uninitialized -> Prepare -> idle -> Enable -> active -> Disable -> idle.
type State int

const (
	StateUninitialized State = iota
	StateIdle
	StateActive
)

// Controller owns a mutable copy of the ambient process environment
// and toggles the VOL acceleration layer on and off between steps.
// Children are spawned with the overlay as their full environment, so
// the ambient environment of the orchestrator itself is never touched.
type Controller struct {
	vars   map[string]string
	vol    *types.VolSpec
	state  State
	logger zerolog.Logger
}

// NewController builds a controller seeded from os.Environ.
func NewController(vol *types.VolSpec) *Controller {
	return NewControllerFromEnv(vol, os.Environ())
}

// NewControllerFromEnv builds a controller seeded from an explicit
// base environment. Used directly by tests.
func NewControllerFromEnv(vol *types.VolSpec, base []string) *Controller {
	vars := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	return &Controller{
		vars:   vars,
		vol:    vol,
		logger: log.With().Str("component", "environ").Logger(),
	}
}

// Prepare injects the library and plugin search paths plus the fixed
// thread stack size. It runs once per suite; without a vol block it
// only advances the state machine.
func (c *Controller) Prepare() {
	if c.state != StateUninitialized {
		return
	}
	c.state = StateIdle

	if c.vol == nil {
		c.logger.Debug().Msg("No vol block configured, environment left untouched")
		return
	}

	c.prepend(EnvLibraryPath, c.vol.Library)
	c.prepend(EnvDyldLibraryPath, c.vol.Library)
	c.vars[EnvPluginPath] = c.vol.Path
	c.vars[EnvStackSize] = defaultStackSize

	c.logger.Debug().
		Str("library", c.vol.Library).
		Str("plugin_path", c.vol.Path).
		Msg("Prepared VOL environment overlay")
}

// Enable injects the connector-selection variable for a step that
// requested the acceleration layer. Requesting it without a vol block
// is a configuration error.
func (c *Controller) Enable() error {
	if c.vol == nil {
		return fmt.Errorf("step requires the VOL acceleration layer but the suite has no vol block configured")
	}
	if c.state == StateUninitialized {
		return fmt.Errorf("environment controller used before Prepare")
	}
	if c.state == StateActive {
		return fmt.Errorf("VOL connector already enabled; unbalanced enable/disable")
	}

	c.vars[EnvConnector] = c.vol.Connector
	c.state = StateActive
	c.logger.Debug().Str("connector", c.vol.Connector).Msg("Enabled VOL connector")
	return nil
}

// Disable removes only the connector-selection variable. It is safe to
// call unconditionally after every launch attempt: when no connector
// is active it is a no-op.
func (c *Controller) Disable() {
	if c.state != StateActive {
		return
	}
	delete(c.vars, EnvConnector)
	c.state = StateIdle
	c.logger.Debug().Msg("Disabled VOL connector")
}

// Reset removes every injected variable and returns the controller to
// its uninitialized state. Used for teardown and defensive recovery.
func (c *Controller) Reset() {
	delete(c.vars, EnvConnector)
	delete(c.vars, EnvPluginPath)
	delete(c.vars, EnvStackSize)
	if c.vol != nil {
		c.strip(EnvLibraryPath, c.vol.Library)
		c.strip(EnvDyldLibraryPath, c.vol.Library)
	}
	c.state = StateUninitialized
}

// State reports the controller's current life-cycle state.
func (c *Controller) State() State {
	return c.state
}

// Lookup returns the overlay value for key and whether it is set.
func (c *Controller) Lookup(key string) (string, bool) {
	v, ok := c.vars[key]
	return v, ok
}

// Environ renders the overlay as a KEY=VALUE slice for os/exec. Keys
// are sorted for deterministic child environments.
func (c *Controller) Environ() []string {
	keys := make([]string, 0, len(c.vars))
	for k := range c.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+c.vars[k])
	}
	return env
}

// prepend adds dir in front of any ambient value of a path-list
// variable, preserving what was already there.
func (c *Controller) prepend(key, dir string) {
	if existing, ok := c.vars[key]; ok && existing != "" {
		c.vars[key] = dir + string(os.PathListSeparator) + existing
		return
	}
	c.vars[key] = dir
}

// strip undoes prepend for Reset.
func (c *Controller) strip(key, dir string) {
	existing, ok := c.vars[key]
	if !ok {
		return
	}
	sep := string(os.PathListSeparator)
	switch {
	case existing == dir:
		delete(c.vars, key)
	case strings.HasPrefix(existing, dir+sep):
		c.vars[key] = strings.TrimPrefix(existing, dir+sep)
	}
}
