package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/maidnode/internal/cli/output"
)

var opsDiagAddr string

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "Inspect a running maidnode's pending operations",
}

var opsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending operation counts per payload family",
	Long: `Fetch the /ops endpoint from a running maidnode's diagnostics server
and print the number of currently pending operations per payload family.

Examples:
  maidnodectl ops list
  maidnodectl ops list --diag-addr localhost:9090 --output json`,
	RunE: runOpsList,
}

func init() {
	opsCmd.AddCommand(opsListCmd)
	opsListCmd.Flags().StringVar(&opsDiagAddr, "diag-addr", "localhost:8090", "Diagnostics server address")
}

func runOpsList(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/ops", opsDiagAddr)
	httpClient := &http.Client{Timeout: 3 * time.Second}

	resp, err := httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("failed to reach diagnostics server at %s: %w", opsDiagAddr, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var stats map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return fmt.Errorf("failed to decode /ops response: %w", err)
	}

	families := make([]string, 0, len(stats))
	for family := range stats {
		families = append(families, family)
	}
	sort.Strings(families)

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, stats)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, stats)
	default:
		table := output.NewTableData("FAMILY", "PENDING")
		for _, family := range families {
			table.AddRow(family, fmt.Sprintf("%d", stats[family]))
		}
		return output.PrintTable(os.Stdout, table)
	}
}
