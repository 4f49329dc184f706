package environ

import (
	"testing"

	"github.com/sbyna/h5bench/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVol() *types.VolSpec {
	return &types.VolSpec{
		Library:   "/opt/vol-async/lib",
		Path:      "/opt/vol-async/plugin",
		Connector: "async under_vol=0;under_info={}",
	}
}

func TestPrepareInjectsSearchPaths(t *testing.T) {
	c := NewControllerFromEnv(testVol(), []string{"PATH=/usr/bin", "LD_LIBRARY_PATH=/usr/lib"})
	c.Prepare()

	lib, ok := c.Lookup(EnvLibraryPath)
	require.True(t, ok)
	assert.Equal(t, "/opt/vol-async/lib:/usr/lib", lib)

	dyld, ok := c.Lookup(EnvDyldLibraryPath)
	require.True(t, ok)
	assert.Equal(t, "/opt/vol-async/lib", dyld)

	plugin, ok := c.Lookup(EnvPluginPath)
	require.True(t, ok)
	assert.Equal(t, "/opt/vol-async/plugin", plugin)

	stack, ok := c.Lookup(EnvStackSize)
	require.True(t, ok)
	assert.Equal(t, "100000", stack)

	// Prepare never touches the connector variable
	_, ok = c.Lookup(EnvConnector)
	assert.False(t, ok)
}

func TestPrepareWithoutVolBlockIsNoOp(t *testing.T) {
	c := NewControllerFromEnv(nil, []string{"PATH=/usr/bin"})
	c.Prepare()

	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, []string{"PATH=/usr/bin"}, c.Environ())
}

func TestEnableDisablePairing(t *testing.T) {
	c := NewControllerFromEnv(testVol(), nil)
	c.Prepare()

	require.NoError(t, c.Enable())
	conn, ok := c.Lookup(EnvConnector)
	require.True(t, ok)
	assert.Equal(t, "async under_vol=0;under_info={}", conn)
	assert.Equal(t, StateActive, c.State())

	c.Disable()
	_, ok = c.Lookup(EnvConnector)
	assert.False(t, ok)
	assert.Equal(t, StateIdle, c.State())

	// Library and plugin paths survive a disable
	_, ok = c.Lookup(EnvPluginPath)
	assert.True(t, ok)

	// A second cycle works
	require.NoError(t, c.Enable())
	c.Disable()
	_, ok = c.Lookup(EnvConnector)
	assert.False(t, ok)
}

func TestEnableWithoutVolBlockFails(t *testing.T) {
	c := NewControllerFromEnv(nil, nil)
	c.Prepare()

	err := c.Enable()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no vol block configured")
}

func TestEnableBeforePrepareFails(t *testing.T) {
	c := NewControllerFromEnv(testVol(), nil)

	err := c.Enable()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before Prepare")
}

func TestDoubleEnableFails(t *testing.T) {
	c := NewControllerFromEnv(testVol(), nil)
	c.Prepare()
	require.NoError(t, c.Enable())

	err := c.Enable()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already enabled")
}

func TestDisableWhenIdleIsNoOp(t *testing.T) {
	c := NewControllerFromEnv(testVol(), nil)
	c.Prepare()

	c.Disable()
	assert.Equal(t, StateIdle, c.State())
}

func TestResetRemovesEverything(t *testing.T) {
	c := NewControllerFromEnv(testVol(), []string{"LD_LIBRARY_PATH=/usr/lib"})
	c.Prepare()
	require.NoError(t, c.Enable())

	c.Reset()

	for _, key := range []string{EnvConnector, EnvPluginPath, EnvStackSize, EnvDyldLibraryPath} {
		_, ok := c.Lookup(key)
		assert.False(t, ok, "expected %s to be removed", key)
	}

	// The ambient library path survives, only the injected prefix goes
	lib, ok := c.Lookup(EnvLibraryPath)
	require.True(t, ok)
	assert.Equal(t, "/usr/lib", lib)

	assert.Equal(t, StateUninitialized, c.State())
}

func TestEnvironIsSortedAndComplete(t *testing.T) {
	c := NewControllerFromEnv(nil, []string{"B=2", "A=1", "C=3"})
	assert.Equal(t, []string{"A=1", "B=2", "C=3"}, c.Environ())
}
