package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/maidnode/cmd/maidnodectl/cmdutil"
	"github.com/marmos91/maidnode/internal/cli/output"
)

var (
	deleteBranchTag          string
	deleteBranchName         string
	deleteBranchVersionID    string
	deleteBranchVersionIndex uint64
)

var deleteBranchUntilForkCmd = &cobra.Command{
	Use:   "delete-branch-until-fork",
	Short: "Prune a version branch back to its most recent fork point",
	Long: `Prune a version branch back to its most recent fork point.
Fire-and-forget, like put and delete.

Examples:
  maidnodectl delete-branch-until-fork --name <hex> --version-id <hex> --version-index 5`,
	RunE: runDeleteBranchUntilFork,
}

func init() {
	deleteBranchUntilForkCmd.Flags().StringVar(&deleteBranchTag, "tag", "structured", "Data tag (normally structured)")
	deleteBranchUntilForkCmd.Flags().StringVar(&deleteBranchName, "name", "", "Hex-encoded content address")
	deleteBranchUntilForkCmd.Flags().StringVar(&deleteBranchVersionID, "version-id", "", "Hex-encoded version identity")
	deleteBranchUntilForkCmd.Flags().Uint64Var(&deleteBranchVersionIndex, "version-index", 0, "Version index")
	_ = deleteBranchUntilForkCmd.MarkFlagRequired("name")
	_ = deleteBranchUntilForkCmd.MarkFlagRequired("version-id")
}

func runDeleteBranchUntilFork(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	name, err := parseDataName(deleteBranchTag, deleteBranchName)
	if err != nil {
		return err
	}
	version, err := parseVersion(deleteBranchVersionID, deleteBranchVersionIndex)
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

	if err := conn.Node.DeleteBranchUntilFork(ctx, name, version); err != nil {
		return err
	}

	return printResult(format, ok(fmt.Sprintf("branch prune sent from index %d", version.Index)))
}
