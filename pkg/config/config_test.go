package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/maidnode/pkg/config"
)

func TestGetDefaultConfigIsValid(t *testing.T) {
	cfg := config.GetDefaultConfig()
	require.NoError(t, config.Validate(cfg))
	assert.Equal(t, 4, cfg.Routing.GroupSize)
	assert.Equal(t, 8, cfg.Routing.ExpectedCount())
	assert.Equal(t, 10*time.Second, cfg.Routing.DefaultTimeout)
}

func TestRoutingTimeoutForOverride(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Routing.OperationTimeouts = map[string]time.Duration{"GetVersions": 30 * time.Second}
	assert.Equal(t, 30*time.Second, cfg.Routing.TimeoutFor("GetVersions"))
	assert.Equal(t, cfg.Routing.DefaultTimeout, cfg.Routing.TimeoutFor("Get"))
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "maidnode.yaml")
	contents := `
routing:
  group_size: 6
  default_timeout: 5s
shutdown_timeout: 20s
logging:
  level: DEBUG
  format: json
  output: stderr
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Routing.GroupSize)
	assert.Equal(t, 5*time.Second, cfg.Routing.DefaultTimeout)
	assert.Equal(t, 20*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	// Identity credentials are freshly generated per load, so compare the
	// deterministic fields only.
	want := config.GetDefaultConfig()
	assert.Equal(t, want.Routing, cfg.Routing)
	assert.Equal(t, want.Logging, cfg.Logging)
	assert.Equal(t, want.Peer, cfg.Peer)
	assert.Equal(t, want.ShutdownTimeout, cfg.ShutdownTimeout)
	assert.Len(t, cfg.Identity.NodeId, 64)
	assert.NotEmpty(t, cfg.Identity.Secret)
}

func TestValidateRejectsZeroGroupSize(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Routing.GroupSize = 0
	assert.Error(t, config.Validate(cfg))
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = "VERBOSE"
	assert.Error(t, config.Validate(cfg))
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "maidnode.yaml")
	cfg := config.GetDefaultConfig()
	cfg.Routing.GroupSize = 9

	require.NoError(t, config.SaveConfig(cfg, path))
	reloaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, reloaded.Routing.GroupSize)
}

func TestWireMappingFromConfig(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Routing.Personas = map[string]uint8{"MaidNode": 0x10}
	cfg.Routing.Actions = map[string]uint8{"Get": 0x20}

	m, err := cfg.Routing.WireMapping()
	require.NoError(t, err)
	require.NotNil(t, m)
	require.NoError(t, config.Validate(cfg))
}

func TestValidateRejectsUnknownWireMappingName(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Routing.Actions = map[string]uint8{"NoSuchAction": 0x20}
	assert.Error(t, config.Validate(cfg))
}
