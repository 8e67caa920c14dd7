package config

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// GetDefaultConfig returns a fully populated, valid configuration, used
// when no config file is found and as the base ApplyDefaults fills gaps on
// top of.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in zero-valued fields of cfg with their defaults.
// It is safe to call on a partially populated Config loaded from file.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyDiagnosticsDefaults(&cfg.Diagnostics)
	applyRoutingDefaults(&cfg.Routing)
	applyIdentityDefaults(&cfg.Identity)
	applyPeerDefaults(&cfg.Peer)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 15 * time.Second
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	applyProfilingDefaults(&cfg.Profiling)
}

func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"}
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyDiagnosticsDefaults(cfg *DiagnosticsConfig) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8090"
	}
}

func applyRoutingDefaults(cfg *RoutingConfig) {
	if cfg.GroupSize == 0 {
		cfg.GroupSize = 4
	}
	if cfg.DefaultTimeout == 0 {
		cfg.DefaultTimeout = 10 * time.Second
	}
}

// applyIdentityDefaults generates a fresh node id and signing secret when
// none are configured, so a first run on a developer machine comes up with
// random credentials rather than a fixed development secret.
func applyIdentityDefaults(cfg *IdentityConfig) {
	if cfg.NodeId == "" {
		cfg.NodeId = randomHex(32)
	}
	if cfg.Secret == "" {
		cfg.Secret = randomHex(32)
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "maidnode"
	}
	if cfg.TTL == 0 {
		cfg.TTL = time.Hour
	}
}

func applyPeerDefaults(cfg *PeerConfig) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:7080"
	}
}

// randomHex returns n bytes of crypto/rand entropy, hex-encoded. Panics
// only if the system CSPRNG itself is unavailable, which rand.Read treats
// as unrecoverable.
func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("config: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
