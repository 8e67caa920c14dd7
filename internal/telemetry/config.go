package telemetry

// Config selects the OTLP endpoint and sampling for distributed tracing.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	// Endpoint is the OTLP gRPC endpoint, e.g. "localhost:4317".
	Endpoint string
	// Insecure disables TLS on the exporter connection.
	Insecure bool
	// SampleRate is the head-sampling ratio in [0, 1].
	SampleRate float64
}

// DefaultConfig returns the local-development defaults: tracing off, a
// localhost collector, full sampling when enabled.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "maidnode",
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}
