package commands

import (
	"context"
	"encoding/hex"

	"github.com/spf13/cobra"

	"github.com/marmos91/maidnode/cmd/maidnodectl/cmdutil"
	"github.com/marmos91/maidnode/internal/cli/output"
)

var fetchIdentityName string

var fetchIdentityCmd = &cobra.Command{
	Use:   "fetch-identity",
	Short: "Fetch a public identity artifact",
	Long: `Fetch a public identity artifact (e.g. a public Pmid). Like get,
this resolves on the first success reply, or on the most frequent error
once every expected reply has arrived.

Examples:
  maidnodectl fetch-identity --name <hex>`,
	RunE: runFetchIdentity,
}

func init() {
	fetchIdentityCmd.Flags().StringVar(&fetchIdentityName, "name", "", "Hex-encoded identity artifact address")
	_ = fetchIdentityCmd.MarkFlagRequired("name")
}

func runFetchIdentity(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	name, err := parseDataName("passport", fetchIdentityName)
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

	content, err := conn.Node.FetchIdentity(ctx, name)
	if err != nil {
		return err
	}

	result := getResult{Name: hex.EncodeToString(content.Name.RawName[:]), Content: hex.EncodeToString(content.Content)}
	return printResult(format, result)
}
