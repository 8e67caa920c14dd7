// Package metrics owns the process-wide Prometheus registry maidnode's
// domain metrics (pkg/metrics/prometheus) register against: a package-level
// registry guarded by IsEnabled/GetRegistry, initialized once at startup
// from config.MetricsConfig, so every collaborator that wants to export a
// metric can promauto.With(metrics.GetRegistry()) without threading a
// *Registry through every constructor.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
)

// Init installs reg as the process-wide registry. Called once at startup
// when config.MetricsConfig.Enabled is true; collaborators constructed
// before Init runs see IsEnabled()==false and skip metric registration
// entirely, matching the nil-receiver-safe pattern every metrics type here
// follows.
func Init(reg *prometheus.Registry) {
	mu.Lock()
	defer mu.Unlock()
	registry = reg
}

// IsEnabled reports whether a registry has been installed.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

// GetRegistry returns the installed registry, or nil if Init has not been
// called. Callers must check IsEnabled first; GetRegistry does not panic on
// a nil registry because promauto.With(nil) is never reached in that path.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// NewRegistry builds a fresh Prometheus registry with the Go runtime and
// process collectors preinstalled.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return reg
}
