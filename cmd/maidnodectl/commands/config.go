package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/marmos91/maidnode/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect maidnode configuration",
}

var schemaOutput string

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate JSON schema for the maidnode configuration file",
	Long: `Generate a JSON schema for the maidnode configuration file.

The schema can be used for:
  - IDE autocompletion (VS Code, IntelliJ, etc.)
  - Configuration file validation
  - Documentation generation

Examples:
  # Print schema to stdout
  maidnodectl config schema

  # Save schema to file
  maidnodectl config schema --output config.schema.json`,
	RunE: runConfigSchema,
}

func init() {
	configCmd.AddCommand(configSchemaCmd)
	configSchemaCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "Output file (default: stdout)")
}

func runConfigSchema(cmd *cobra.Command, args []string) error {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&config.Config{})
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.Title = "maidnode Configuration"
	schema.Description = "Configuration schema for the maidnode client"

	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if schemaOutput != "" {
		if err := os.WriteFile(schemaOutput, schemaJSON, 0644); err != nil {
			return fmt.Errorf("failed to write schema file: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "JSON schema written to %s\n", schemaOutput)
		return nil
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(schemaJSON))
	return nil
}
