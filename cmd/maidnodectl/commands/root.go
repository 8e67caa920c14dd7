// Package commands implements maidnodectl: the one-shot operator CLI that
// dials a running maidnode's configured peer, issues a single Get/Put/
// version/account/Pmid operation, prints the result, and exits.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "maidnodectl",
	Short: "maidnodectl - issue one-shot operations against a maidnode client",
	Long: `maidnodectl dials the overlay peer configured for a maidnode client and
issues a single Get/Put/version/account/Pmid operation, printing the
aggregated result and exiting.

Use "maidnodectl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/maidnode/maidnode.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table|json|yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(opsCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(fetchIdentityCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(getVersionsCmd)
	rootCmd.AddCommand(getBranchCmd)
	rootCmd.AddCommand(putVersionCmd)
	rootCmd.AddCommand(deleteBranchUntilForkCmd)
	rootCmd.AddCommand(createAccountCmd)
	rootCmd.AddCommand(removeAccountCmd)
	rootCmd.AddCommand(registerPmidCmd)
	rootCmd.AddCommand(unregisterPmidCmd)
	rootCmd.AddCommand(getPmidHealthCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
