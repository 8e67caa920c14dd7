package commands

import (
	"fmt"

	"github.com/marmos91/maidnode/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample maidnode configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/maidnode/maidnode.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  maidnode init

  # Initialize with custom path
  maidnode init --config /etc/maidnode/maidnode.yaml

  # Force overwrite existing config
  maidnode init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		configPath = configFile
		_, err = config.InitConfigToPath(configFile, initForce)
	} else {
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your node id and routing group size")
	fmt.Println("  2. Start the node with: maidnode start")
	fmt.Printf("  3. Or specify custom config: maidnode start --config %s\n", configPath)
	fmt.Println("\nSecurity note:")
	fmt.Println("  A random signing secret has been generated for development use.")
	fmt.Println("  For production, generate a secure secret and use an environment variable:")
	fmt.Println("    # Generates a 64-character hex string (32 bytes of entropy)")
	fmt.Printf("    export %s=$(openssl rand -hex 32)\n", config.EnvIdentitySecret)

	return nil
}
