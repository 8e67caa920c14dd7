package commands

import (
	"context"
	"encoding/hex"

	"github.com/spf13/cobra"

	"github.com/marmos91/maidnode/cmd/maidnodectl/cmdutil"
	"github.com/marmos91/maidnode/internal/cli/output"
)

var (
	getTag  string
	getName string
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch the content stored under a data name",
	Long: `Fetch the content stored under a data name, waiting for a success
quorum or the most-frequent-error fallback, whichever settles first.

Examples:
  maidnodectl get --tag immutable --name <hex>`,
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringVar(&getTag, "tag", "immutable", "Data tag (immutable|structured|passport|pmid)")
	getCmd.Flags().StringVar(&getName, "name", "", "Hex-encoded content address")
	_ = getCmd.MarkFlagRequired("name")
}

// getResult is the printable shape of a Get reply.
type getResult struct {
	Name    string `json:"name" yaml:"name"`
	Content string `json:"content" yaml:"content"`
}

func (r getResult) Headers() []string { return []string{"NAME", "CONTENT (HEX)"} }
func (r getResult) Rows() [][]string  { return [][]string{{r.Name, r.Content}} }

func runGet(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	name, err := parseDataName(getTag, getName)
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

	content, err := conn.Node.Get(ctx, name)
	if err != nil {
		return err
	}

	result := getResult{Name: hex.EncodeToString(content.Name.RawName[:]), Content: hex.EncodeToString(content.Content)}
	return printResult(format, result)
}
