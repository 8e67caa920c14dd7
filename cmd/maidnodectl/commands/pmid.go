package commands

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/maidnode/cmd/maidnodectl/cmdutil"
	"github.com/marmos91/maidnode/internal/cli/output"
)

var (
	registerPmidMaidName string
	registerPmidPmidName string
)

var registerPmidCmd = &cobra.Command{
	Use:   "register-pmid",
	Short: "Offer a storage node under this account",
	Long: `Offer pmidName as a storage node under this account, stamping the
request with this node's signing identity before dispatch.

Examples:
  maidnodectl register-pmid --maid-name <hex> --pmid-name <hex>`,
	RunE: runRegisterPmid,
}

func init() {
	registerPmidCmd.Flags().StringVar(&registerPmidMaidName, "maid-name", "", "Hex-encoded MaidManager account identity")
	registerPmidCmd.Flags().StringVar(&registerPmidPmidName, "pmid-name", "", "Hex-encoded storage node identity to register")
	_ = registerPmidCmd.MarkFlagRequired("maid-name")
	_ = registerPmidCmd.MarkFlagRequired("pmid-name")
}

func runRegisterPmid(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	maidName, err := parseIdentity("maid-name", registerPmidMaidName)
	if err != nil {
		return err
	}
	pmidName, err := parseIdentity("pmid-name", registerPmidPmidName)
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

	if err := conn.Node.RegisterPmid(ctx, maidName, pmidName); err != nil {
		return err
	}

	return printResult(format, ok(fmt.Sprintf("pmid %s registered", registerPmidPmidName)))
}

var (
	unregisterPmidMaidName string
	unregisterPmidPmidName string
)

var unregisterPmidCmd = &cobra.Command{
	Use:   "unregister-pmid",
	Short: "Withdraw a previously registered storage node offer",
	Long: `Withdraw a previously registered storage node offer.

Examples:
  maidnodectl unregister-pmid --maid-name <hex> --pmid-name <hex>`,
	RunE: runUnregisterPmid,
}

func init() {
	unregisterPmidCmd.Flags().StringVar(&unregisterPmidMaidName, "maid-name", "", "Hex-encoded MaidManager account identity")
	unregisterPmidCmd.Flags().StringVar(&unregisterPmidPmidName, "pmid-name", "", "Hex-encoded storage node identity to unregister")
	_ = unregisterPmidCmd.MarkFlagRequired("maid-name")
	_ = unregisterPmidCmd.MarkFlagRequired("pmid-name")
}

func runUnregisterPmid(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	maidName, err := parseIdentity("maid-name", unregisterPmidMaidName)
	if err != nil {
		return err
	}
	pmidName, err := parseIdentity("pmid-name", unregisterPmidPmidName)
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

	if err := conn.Node.UnregisterPmid(ctx, maidName, pmidName); err != nil {
		return err
	}

	return printResult(format, ok(fmt.Sprintf("pmid %s unregistered", unregisterPmidPmidName)))
}

var getPmidHealthPmidName string

var getPmidHealthCmd = &cobra.Command{
	Use:   "get-pmid-health",
	Short: "Resolve a storage node's current health report",
	Long: `Resolve pmidName's current health report.

Examples:
  maidnodectl get-pmid-health --pmid-name <hex>`,
	RunE: runGetPmidHealth,
}

func init() {
	getPmidHealthCmd.Flags().StringVar(&getPmidHealthPmidName, "pmid-name", "", "Hex-encoded storage node identity")
	_ = getPmidHealthCmd.MarkFlagRequired("pmid-name")
}

// pmidHealthResult is the printable shape of a GetPmidHealth reply. The
// wire payload is an opaque vault-signed report; maidnodectl surfaces it
// as hex rather than attempting to interpret vault-side health semantics.
type pmidHealthResult struct {
	PmidName string `json:"pmid_name" yaml:"pmid_name"`
	Report   string `json:"report" yaml:"report"`
}

func (r pmidHealthResult) Headers() []string { return []string{"PMID", "HEALTH REPORT (HEX)"} }
func (r pmidHealthResult) Rows() [][]string  { return [][]string{{r.PmidName, r.Report}} }

func runGetPmidHealth(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	pmidName, err := parseIdentity("pmid-name", getPmidHealthPmidName)
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

	health, err := conn.Node.GetPmidHealth(ctx, pmidName)
	if err != nil {
		return err
	}

	return printResult(format, pmidHealthResult{
		PmidName: getPmidHealthPmidName,
		Report:   hex.EncodeToString(health.Serialised),
	})
}
