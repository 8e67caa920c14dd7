package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/marmos91/maidnode/internal/cli/health"
	"github.com/marmos91/maidnode/internal/cli/output"
	"github.com/spf13/cobra"
)

var (
	statusOutput   string
	statusPidFile  string
	statusDiagAddr string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show node status",
	Long: `Display the current status of the maidnode client.

This command checks the PID file and the diagnostics server's /healthz
endpoint and reports whether the client is running and connected.

Examples:
  # Check status (uses default settings)
  maidnode status

  # Check status with a custom diagnostics address
  maidnode status --diag-addr localhost:9090

  # Output as JSON
  maidnode status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/maidnode/maidnode.pid)")
	statusCmd.Flags().StringVar(&statusDiagAddr, "diag-addr", "localhost:8090", "Diagnostics server address")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// NodeStatus represents the maidnode client's status information.
type NodeStatus struct {
	Running bool   `json:"running" yaml:"running"`
	PID     int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	Message string `json:"message" yaml:"message"`
	Healthy bool   `json:"healthy" yaml:"healthy"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	status := NodeStatus{
		Running: false,
		Healthy: false,
		Message: "maidnode is not running",
	}

	pidPath := statusPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	pidData, err := os.ReadFile(pidPath)
	if err == nil {
		pid, err := strconv.Atoi(strings.TrimSpace(string(pidData)))
		if err == nil {
			process, err := os.FindProcess(pid)
			if err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					status.Running = true
					status.PID = pid
				}
			}
		}
	}

	healthURL := fmt.Sprintf("http://%s/healthz", statusDiagAddr)
	httpClient := &http.Client{Timeout: 2 * time.Second}

	resp, err := httpClient.Get(healthURL)
	if err == nil {
		defer func() { _ = resp.Body.Close() }()

		var healthResp health.Response
		if err := json.NewDecoder(resp.Body).Decode(&healthResp); err == nil {
			status.Running = true
			status.Healthy = healthResp.Status == "ok" || healthResp.Status == "healthy"
			if status.Healthy {
				status.Message = "maidnode is running and connected"
			} else {
				status.Message = fmt.Sprintf("maidnode is running but unhealthy: %s", healthResp.Error)
			}
		} else {
			status.Running = true
			status.Message = "maidnode is running but health response invalid"
		}
	} else if status.Running {
		status.Message = "maidnode process exists but the diagnostics server is unreachable"
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusTable(status)
	}

	return nil
}

func printStatusTable(status NodeStatus) {
	fmt.Println()
	fmt.Println("maidnode Status")
	fmt.Println("===============")
	fmt.Println()

	if status.Running {
		if status.Healthy {
			fmt.Printf("  Status:     \033[32m● Running\033[0m\n")
		} else {
			fmt.Printf("  Status:     \033[33m● Running (unhealthy)\033[0m\n")
		}
		fmt.Printf("  PID:        %d\n", status.PID)
	} else {
		fmt.Printf("  Status:     \033[31m○ Stopped\033[0m\n")
	}

	fmt.Println()
	fmt.Printf("  %s\n", status.Message)
	fmt.Println()
}
