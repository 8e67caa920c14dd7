package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/maidnode/cmd/maidnodectl/cmdutil"
	"github.com/marmos91/maidnode/internal/cli/output"
	"github.com/marmos91/maidnode/pkg/ids"
	"github.com/marmos91/maidnode/pkg/payload"
)

var (
	putTag      string
	putName     string
	putFile     string
	putPmidHint string
)

var putCmd = &cobra.Command{
	Use:   "put",
	Short: "Store content under a data name",
	Long: `Store content under a data name, hinting a preferred storage node.

Put is fire-and-forget: this command returns once the router accepts the
envelope for delivery, not once the vault has durably stored the content.

Examples:
  maidnodectl put --tag immutable --name <hex> --file data.bin`,
	RunE: runPut,
}

func init() {
	putCmd.Flags().StringVar(&putTag, "tag", "immutable", "Data tag (immutable|structured|passport|pmid)")
	putCmd.Flags().StringVar(&putName, "name", "", "Hex-encoded content address")
	putCmd.Flags().StringVar(&putFile, "file", "", "Path to file containing the content (default: read stdin)")
	putCmd.Flags().StringVar(&putPmidHint, "pmid-hint", "", "Hex-encoded preferred storage node identity (default: zero)")
	_ = putCmd.MarkFlagRequired("name")
}

func runPut(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	name, err := parseDataName(putTag, putName)
	if err != nil {
		return err
	}

	var content []byte
	if putFile != "" {
		content, err = os.ReadFile(putFile)
		if err != nil {
			return fmt.Errorf("failed to read --file: %w", err)
		}
	} else {
		content, err = readAllStdin()
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	var pmidHint ids.Identity
	if putPmidHint != "" {
		pmidHint, err = parseIdentity("pmid-hint", putPmidHint)
		if err != nil {
			return err
		}
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

	if err := conn.Node.Put(ctx, payload.DataNameAndContent{Name: name, Content: content}, pmidHint); err != nil {
		return err
	}

	return printResult(format, ok(fmt.Sprintf("put accepted for delivery (%d bytes)", len(content))))
}
