package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/maidnode/cmd/maidnodectl/cmdutil"
	"github.com/marmos91/maidnode/internal/cli/output"
)

var (
	deleteTag  string
	deleteName string
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the data stored under a data name",
	Long: `Remove the data stored under a data name. Fire-and-forget, like put.

Examples:
  maidnodectl delete --tag immutable --name <hex>`,
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().StringVar(&deleteTag, "tag", "immutable", "Data tag (immutable|structured|passport|pmid)")
	deleteCmd.Flags().StringVar(&deleteName, "name", "", "Hex-encoded content address")
	_ = deleteCmd.MarkFlagRequired("name")
}

func runDelete(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	name, err := parseDataName(deleteTag, deleteName)
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

	if err := conn.Node.Delete(ctx, name); err != nil {
		return err
	}

	return printResult(format, ok(fmt.Sprintf("delete accepted for %s", deleteName)))
}
