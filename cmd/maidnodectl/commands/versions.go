package commands

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/maidnode/cmd/maidnodectl/cmdutil"
	"github.com/marmos91/maidnode/internal/cli/output"
	"github.com/marmos91/maidnode/pkg/payload"
)

var (
	getVersionsTag  string
	getVersionsName string
)

var getVersionsCmd = &cobra.Command{
	Use:   "get-versions",
	Short: "Resolve a structured data object's full known version history",
	Long: `Resolve the full known version history of a structured data object.

Examples:
  maidnodectl get-versions --name <hex>`,
	RunE: runGetVersions,
}

func init() {
	getVersionsCmd.Flags().StringVar(&getVersionsTag, "tag", "structured", "Data tag (normally structured)")
	getVersionsCmd.Flags().StringVar(&getVersionsName, "name", "", "Hex-encoded content address")
	_ = getVersionsCmd.MarkFlagRequired("name")
}

// versionsResult is the printable shape of a GetVersions/GetBranch reply.
type versionsResult struct {
	Name     string   `json:"name" yaml:"name"`
	Versions []string `json:"versions" yaml:"versions"`
}

func (r versionsResult) Headers() []string { return []string{"INDEX", "VERSION ID"} }

func (r versionsResult) Rows() [][]string {
	rows := make([][]string, len(r.Versions))
	for i, v := range r.Versions {
		rows[i] = []string{fmt.Sprintf("%d", i), v}
	}
	return rows
}

func renderVersions(name payload.DataName, versions payload.StructuredDataVersions) versionsResult {
	ids := make([]string, len(versions.Versions))
	for i, v := range versions.Versions {
		ids[i] = hex.EncodeToString(v.ID[:])
	}
	return versionsResult{Name: hex.EncodeToString(name.RawName[:]), Versions: ids}
}

func runGetVersions(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	name, err := parseDataName(getVersionsTag, getVersionsName)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	conn, err := cmdutil.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	versions, err := conn.Node.GetVersions(ctx, name)
	if err != nil {
		return err
	}

	return printResult(format, renderVersions(name, versions))
}
