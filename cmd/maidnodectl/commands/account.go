package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marmos91/maidnode/cmd/maidnodectl/cmdutil"
	"github.com/marmos91/maidnode/internal/cli/output"
	"github.com/marmos91/maidnode/internal/cli/prompt"
)

var createAccountForce bool

var createAccountCmd = &cobra.Command{
	Use:   "create-account",
	Short: "Register this node's signing identity with the MaidManager group",
	Long: `Register this signing identity's address with the MaidManager group,
the precondition for any put/delete to succeed.

Examples:
  maidnodectl create-account`,
	RunE: runCreateAccount,
}

func init() {
	createAccountCmd.Flags().BoolVarP(&createAccountForce, "force", "y", false, "Skip the confirmation prompt")
}

func runCreateAccount(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	confirmed, err := prompt.ConfirmWithForce("Create an account for this node's identity?", createAccountForce)
	if err != nil {
		return err
	}
	if !confirmed {
		return printResult(format, opMessage{Status: "aborted", Message: "create-account cancelled"})
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

	if err := conn.Node.CreateAccount(ctx); err != nil {
		return err
	}

	return printResult(format, ok("account created"))
}

var removeAccountForce bool

var removeAccountCmd = &cobra.Command{
	Use:   "remove-account",
	Short: "Withdraw this node's signing identity's account",
	Long: `Withdraw this signing identity's account. Requires explicit
confirmation, since it is destructive to the node's own storage account.

Examples:
  maidnodectl remove-account`,
	RunE: runRemoveAccount,
}

func init() {
	removeAccountCmd.Flags().BoolVarP(&removeAccountForce, "force", "y", false, "Skip the confirmation prompt")
}

func runRemoveAccount(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	confirmed, err := prompt.ConfirmWithForce("Remove this node's account? This cannot be undone.", removeAccountForce)
	if err != nil {
		return err
	}
	if !confirmed {
		return printResult(format, opMessage{Status: "aborted", Message: "remove-account cancelled"})
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

	if err := conn.Node.RemoveAccount(ctx); err != nil {
		return err
	}

	return printResult(format, ok("account removed"))
}
