package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/marmos91/maidnode/internal/logger"
	"github.com/marmos91/maidnode/internal/telemetry"
	"github.com/marmos91/maidnode/pkg/client"
	"github.com/marmos91/maidnode/pkg/config"
	"github.com/marmos91/maidnode/pkg/diag"
	"github.com/marmos91/maidnode/pkg/envelope"
	"github.com/marmos91/maidnode/pkg/identity"
	"github.com/marmos91/maidnode/pkg/ids"
	"github.com/marmos91/maidnode/pkg/metrics"
	metricssink "github.com/marmos91/maidnode/pkg/metrics/prometheus"
	"github.com/marmos91/maidnode/pkg/transport/grpcrouter"
	"github.com/spf13/cobra"
)

// lazyRouter implements dispatch.Router while the real grpcrouter.Router is
// still being dialed: pkg/client.NewMaidNode needs a Router to construct its
// Dispatcher, but grpcrouter.Dial needs the Demultiplexer NewMaidNode
// returns as its inbound delivery hook. bind closes this cycle once both
// halves exist.
type lazyRouter struct {
	mu sync.Mutex
	r  *grpcrouter.Router
}

func (l *lazyRouter) bind(r *grpcrouter.Router) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r = r
}

func (l *lazyRouter) Send(ctx context.Context, env envelope.Envelope) error {
	l.mu.Lock()
	r := l.r
	l.mu.Unlock()
	if r == nil {
		return fmt.Errorf("maidnode: router not yet connected")
	}
	return r.Send(ctx, env)
}

var (
	foreground bool
	pidFile    string
	logFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the maidnode client",
	Long: `Start the maidnode client: dial the configured overlay peer, construct
the MaidNode façade, and serve the diagnostics HTTP endpoint until stopped.

By default, the client runs in the background (daemon mode). Use --foreground
to run in the foreground for debugging or when managed by a process supervisor.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/maidnode/maidnode.yaml.

Examples:
  # Start in background (default)
  maidnode start

  # Start in foreground
  maidnode start --foreground

  # Start with custom config file
  maidnode start --config /etc/maidnode/maidnode.yaml

  # Start with environment variable overrides
  MAIDNODE_LOGGING_LEVEL=DEBUG maidnode start --foreground`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground (default: background/daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/maidnode/maidnode.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/maidnode/maidnode.log)")
}

func runStart(cmd *cobra.Command, args []string) error {
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "maidnode",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "maidnode",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("maidnode starting",
		"level", cfg.Logging.Level, "format", cfg.Logging.Format,
		"config_source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	metricsReg := initMetrics(cfg)

	nodeID, err := ids.ParseIdentity(cfg.Identity.NodeId)
	if err != nil {
		return fmt.Errorf("invalid identity.node_id: %w", err)
	}
	id, err := identity.New(ids.NodeId(nodeID), []byte(cfg.Identity.Secret), cfg.Identity.Issuer, cfg.Identity.TTL)
	if err != nil {
		return fmt.Errorf("failed to construct signing identity: %w", err)
	}

	dialOpts := []grpc.DialOption{}
	if cfg.Peer.Insecure {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.NewClient(cfg.Peer.Addr, dialOpts...)
	if err != nil {
		return fmt.Errorf("failed to construct gRPC client for peer %s: %w", cfg.Peer.Addr, err)
	}
	defer conn.Close()

	wireMapping, err := cfg.Routing.WireMapping()
	if err != nil {
		return fmt.Errorf("invalid routing wire mapping: %w", err)
	}

	lr := &lazyRouter{}
	maidNode, demux := client.NewMaidNode(lr, id, cfg.Routing)
	demux.SetWireMapping(wireMapping)
	router, err := grpcrouter.Dial(ctx, conn, demux)
	if err != nil {
		return fmt.Errorf("failed to dial peer %s: %w", cfg.Peer.Addr, err)
	}
	defer router.Close()
	router.SetWireMapping(wireMapping)
	lr.bind(router)

	if metricsReg != nil {
		maidNode.SetMetricsSink(metricssink.NewRegistrySink())
		demux.SetSink(metricssink.NewServiceSink())
	}

	maidNode.Start(ctx)
	defer maidNode.Stop()

	logger.Info("maidnode connected", "peer", cfg.Peer.Addr, "node_id", nodeID.String())

	var diagServer *http.Server
	if cfg.Diagnostics.Enabled {
		diagServer = &http.Server{Addr: cfg.Diagnostics.Addr, Handler: diag.NewRouter(maidNode, metricsReg)}
		go func() {
			logger.Info("diagnostics server listening", "addr", cfg.Diagnostics.Addr)
			if err := diagServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("diagnostics server error", "error", err)
			}
		}()
	}

	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("maidnode is running. Press Ctrl+C to stop.")
	<-sigChan
	signal.Stop(sigChan)
	logger.Info("shutdown signal received, initiating graceful shutdown")
	cancel()

	if diagServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := diagServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("diagnostics server shutdown error", "error", err)
		}
	}

	logger.Info("maidnode stopped gracefully")
	return nil
}

func initMetrics(cfg *config.Config) *prometheus.Registry {
	if !cfg.Metrics.Enabled {
		return nil
	}
	reg := metrics.NewRegistry()
	metrics.Init(reg)
	return reg
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}

// startDaemon starts the client as a background daemon process.
func startDaemon() error {
	stateDir := GetDefaultStateDir()
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	pidPath := pidFile
	if pidPath == "" {
		pidPath = filepath.Join(stateDir, "maidnode.pid")
	}

	if _, err := os.Stat(pidPath); err == nil {
		pidData, err := os.ReadFile(pidPath)
		if err == nil {
			var pid int
			if _, err := fmt.Sscanf(string(pidData), "%d", &pid); err == nil {
				if process, err := os.FindProcess(pid); err == nil {
					if err := process.Signal(syscall.Signal(0)); err == nil {
						return fmt.Errorf("maidnode is already running (PID %d)\nStop it with 'kill %d' before starting a new instance", pid, pid)
					}
				}
			}
		}
		_ = os.Remove(pidPath)
	}

	logPath := logFile
	if logPath == "" {
		logPath = filepath.Join(stateDir, "maidnode.log")
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	daemonArgs := []string{"start", "--foreground", "--pid-file", pidPath}
	if GetConfigFile() != "" {
		daemonArgs = append(daemonArgs, "--config", GetConfigFile())
	}

	cmd := exec.Command(executable, daemonArgs...)

	logFileHandle, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	cmd.Stdout = logFileHandle
	cmd.Stderr = logFileHandle
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		_ = logFileHandle.Close()
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	_ = logFileHandle.Close()

	fmt.Printf("maidnode started in background (PID %d)\n", cmd.Process.Pid)
	fmt.Printf("  PID file: %s\n", pidPath)
	fmt.Printf("  Log file: %s\n", logPath)
	fmt.Println("\nUse 'maidnode status' to check node status")

	return nil
}
