package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/maidnode/cmd/maidnodectl/cmdutil"
	"github.com/marmos91/maidnode/internal/cli/output"
)

var (
	putVersionTag         string
	putVersionName        string
	putVersionOldID       string
	putVersionOldIndex    uint64
	putVersionNewID       string
	putVersionNewIndex    uint64
)

var putVersionCmd = &cobra.Command{
	Use:   "put-version",
	Short: "Compare-and-swap a structured data object's tip version",
	Long: `Compare-and-swap a structured data object's tip version.

Examples:
  maidnodectl put-version --name <hex> \
    --old-version-id <hex> --old-version-index 2 \
    --new-version-id <hex> --new-version-index 3`,
	RunE: runPutVersion,
}

func init() {
	putVersionCmd.Flags().StringVar(&putVersionTag, "tag", "structured", "Data tag (normally structured)")
	putVersionCmd.Flags().StringVar(&putVersionName, "name", "", "Hex-encoded content address")
	putVersionCmd.Flags().StringVar(&putVersionOldID, "old-version-id", "", "Hex-encoded previous tip version identity")
	putVersionCmd.Flags().Uint64Var(&putVersionOldIndex, "old-version-index", 0, "Previous tip version index")
	putVersionCmd.Flags().StringVar(&putVersionNewID, "new-version-id", "", "Hex-encoded new tip version identity")
	putVersionCmd.Flags().Uint64Var(&putVersionNewIndex, "new-version-index", 0, "New tip version index")
	_ = putVersionCmd.MarkFlagRequired("name")
	_ = putVersionCmd.MarkFlagRequired("old-version-id")
	_ = putVersionCmd.MarkFlagRequired("new-version-id")
}

func runPutVersion(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	name, err := parseDataName(putVersionTag, putVersionName)
	if err != nil {
		return err
	}
	oldVersion, err := parseVersion(putVersionOldID, putVersionOldIndex)
	if err != nil {
		return err
	}
	newVersion, err := parseVersion(putVersionNewID, putVersionNewIndex)
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

	if err := conn.Node.PutVersion(ctx, name, oldVersion, newVersion); err != nil {
		return err
	}

	return printResult(format, ok(fmt.Sprintf("tip advanced to index %d", newVersion.Index)))
}
