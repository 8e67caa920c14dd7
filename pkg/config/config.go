// Package config loads the maidnode client's static configuration:
// logging, telemetry/profiling, metrics, and the routing-layer values that
// must be injected rather than hard-coded (group size, per-operation
// timeouts, and the persona/action wire-constant mapping table).
// Precedence is environment variables > config file > defaults; no CLI flag
// overrides a config value.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/maidnode/pkg/envelope"
)

// Config is the maidnode client's complete static configuration.
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry" yaml:"telemetry"`
	Metrics     MetricsConfig     `mapstructure:"metrics" yaml:"metrics"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics" yaml:"diagnostics"`
	Routing     RoutingConfig     `mapstructure:"routing" validate:"required" yaml:"routing"`
	Identity    IdentityConfig    `mapstructure:"identity" validate:"required" yaml:"identity"`
	Peer        PeerConfig        `mapstructure:"peer" validate:"required" yaml:"peer"`

	// ShutdownTimeout bounds how long the daemon waits for the diagnostics
	// HTTP server to shut down gracefully.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// IdentityConfig carries the maidnode process's own node identity and the
// signing secret pkg/identity uses to stamp PmidRegistration envelopes.
type IdentityConfig struct {
	// NodeId is this process's hex-encoded overlay address (pkg/ids.NodeId).
	NodeId string `mapstructure:"node_id" validate:"required,len=64" yaml:"node_id"`
	// Secret is the HMAC-SHA256 key pkg/identity signs with. In production
	// this is supplied via the MAIDNODE_IDENTITY_SECRET environment
	// variable rather than committed to the config file.
	Secret string `mapstructure:"secret" validate:"required" yaml:"secret"`
	// Issuer is the JWT "iss" claim pkg/identity stamps onto every signed
	// registration.
	Issuer string `mapstructure:"issuer" validate:"required" yaml:"issuer"`
	// TTL bounds how long a stamped PmidRegistration claim remains valid.
	TTL time.Duration `mapstructure:"ttl" validate:"required,gt=0" yaml:"ttl"`
}

// PeerConfig addresses the single overlay peer this process's
// pkg/transport/grpcrouter.Router dials, standing in for the real overlay
// routing layer.
type PeerConfig struct {
	// Addr is the "host:port" gRPC endpoint to dial.
	Addr string `mapstructure:"addr" validate:"required,hostname_port" yaml:"addr"`
	// Insecure disables TLS for the gRPC connection, for local/dev use.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`
}

// LoggingConfig controls logging behavior, mirroring internal/logger.Config.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	Enabled    bool            `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string          `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool            `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64         `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
	Profiling  ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig enables Prometheus metrics collection. The metrics are
// served on the diagnostics server's /metrics route; Port is not read.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// DiagnosticsConfig configures the go-chi diagnostics HTTP server exposing
// /healthz, /metrics, /debug/pprof and /ops.
type DiagnosticsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" validate:"omitempty,hostname_port" yaml:"addr"`
}

// RoutingConfig carries the routing-layer values that are injected, never
// hard-coded: the overlay group size (the expected-reply-count multiplier),
// per-operation timeout overrides, and the persona/action wire-constant
// mapping table required for interop with an existing vault side.
type RoutingConfig struct {
	// GroupSize is the overlay routing group size G. ExpectedCount derives
	// 2×G from it.
	GroupSize int `mapstructure:"group_size" validate:"required,gt=0" yaml:"group_size"`

	// DefaultTimeout is the default per-operation deadline.
	DefaultTimeout time.Duration `mapstructure:"default_timeout" validate:"required,gt=0" yaml:"default_timeout"`

	// OperationTimeouts overrides DefaultTimeout per action name (matching
	// envelope.Action.String(), e.g. "GetVersions").
	OperationTimeouts map[string]time.Duration `mapstructure:"operation_timeouts" yaml:"operation_timeouts,omitempty"`

	// Personas overrides the default wire-byte value for a persona name
	// (envelope.Persona.String()). Entries not present keep the package
	// default assigned in envelope/persona.go.
	Personas map[string]uint8 `mapstructure:"personas" yaml:"personas,omitempty"`

	// Actions overrides the default wire-byte value for an action name
	// (envelope.Action.String()). Entries not present keep the package
	// default assigned in envelope/action.go.
	Actions map[string]uint8 `mapstructure:"actions" yaml:"actions,omitempty"`
}

// ExpectedCount returns 2×GroupSize: a group of G nodes may reply up to
// twice each across membership churn, so a fanned-out request waits on at
// most 2G replies.
func (r RoutingConfig) ExpectedCount() int {
	return 2 * r.GroupSize
}

// WireMapping builds the injected persona/action wire-constant mapping from
// this config's override tables, for installation at the wire boundary (the
// transport's send path and the demultiplexer's parse path).
func (r RoutingConfig) WireMapping() (*envelope.Mapping, error) {
	return envelope.NewMapping(r.Personas, r.Actions)
}

// TimeoutFor returns the configured timeout for the named action, falling
// back to DefaultTimeout when no override is present.
func (r RoutingConfig) TimeoutFor(action string) time.Duration {
	if d, ok := r.OperationTimeouts[action]; ok && d > 0 {
		return d
	}
	return r.DefaultTimeout
}

// Load reads the config file, overlays environment variables on it, fills
// unset fields with defaults, and validates the result. When no config file
// is found it returns the defaults as they are, without reading the
// environment or validating.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := GetDefaultConfig()
	if !found {
		return cfg, nil
	}

	if err := v.Unmarshal(cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration, returning an actionable error if no config
// file exists at the resolved path.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"initialize one first:\n"+
				"  maidnode init\n\n"+
				"or specify a custom path:\n"+
				"  maidnode start --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML, creating parent directories as
// needed.
func SaveConfig(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("MAIDNODE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.SetConfigName("maidnode")
	v.SetConfigType("yaml")
	v.AddConfigPath(getConfigDir())
	v.AddConfigPath(".")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		// Searching config paths reports ConfigFileNotFoundError; an
		// explicit --config path that does not exist reports a PathError.
		// Both mean "no file", not "bad file".
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound || errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func getConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "maidnode")
	}
	return "."
}

// GetDefaultConfigPath returns the default config file location.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "maidnode.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the directory maidnode looks for its config file in.
func GetConfigDir() string {
	return getConfigDir()
}
