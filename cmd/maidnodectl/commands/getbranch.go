package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marmos91/maidnode/cmd/maidnodectl/cmdutil"
	"github.com/marmos91/maidnode/internal/cli/output"
)

var (
	getBranchTag          string
	getBranchName         string
	getBranchVersionID    string
	getBranchVersionIndex uint64
)

var getBranchCmd = &cobra.Command{
	Use:   "get-branch",
	Short: "Resolve a single version's fork history",
	Long: `Resolve a single version's fork history.

Examples:
  maidnodectl get-branch --name <hex> --version-id <hex> --version-index 3`,
	RunE: runGetBranch,
}

func init() {
	getBranchCmd.Flags().StringVar(&getBranchTag, "tag", "structured", "Data tag (normally structured)")
	getBranchCmd.Flags().StringVar(&getBranchName, "name", "", "Hex-encoded content address")
	getBranchCmd.Flags().StringVar(&getBranchVersionID, "version-id", "", "Hex-encoded version identity")
	getBranchCmd.Flags().Uint64Var(&getBranchVersionIndex, "version-index", 0, "Version index")
	_ = getBranchCmd.MarkFlagRequired("name")
	_ = getBranchCmd.MarkFlagRequired("version-id")
}

func runGetBranch(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	name, err := parseDataName(getBranchTag, getBranchName)
	if err != nil {
		return err
	}
	version, err := parseVersion(getBranchVersionID, getBranchVersionIndex)
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

	versions, err := conn.Node.GetBranch(ctx, name, version)
	if err != nil {
		return err
	}

	return printResult(format, renderVersions(name, versions))
}
