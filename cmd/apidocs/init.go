package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/prasenjit/go-apidocs/internal/config"
	"github.com/prasenjit/go-apidocs/internal/schema"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize apidocs with default configuration and a starter documentation file",
	Long: `Creates the default configuration file (config.yaml) and data directory.

This command will:
  - Create config.yaml with default settings
  - Create data/ directory for file and sqlite storage
  - With --with-docs, write docs.yaml containing the built-in documentation
    and point docs.file at it

If config.yaml already exists, it will not be overwritten unless --force is used.`,
	RunE: runInit,
}

var (
	initForce    bool
	initPath     string
	initWithDocs bool
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing files")
	initCmd.Flags().StringVarP(&initPath, "path", "p", ".", "Path where to initialize (default: current directory)")
	initCmd.Flags().BoolVar(&initWithDocs, "with-docs", false, "Write a starter docs.yaml")
}

func runInit(cmd *cobra.Command, args []string) error {
	absPath, err := filepath.Abs(initPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	configFile := filepath.Join(absPath, "config.yaml")
	docsFile := filepath.Join(absPath, "docs.yaml")
	dataDir := filepath.Join(absPath, "data")

	if _, err := os.Stat(configFile); err == nil && !initForce {
		return fmt.Errorf("config.yaml already exists. Use --force to overwrite")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dataDir, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created directory: %s\n", dataDir)

	cfg := config.Default()
	if initWithDocs {
		if _, err := os.Stat(docsFile); err == nil && !initForce {
			return fmt.Errorf("docs.yaml already exists. Use --force to overwrite")
		}
		if err := os.WriteFile(docsFile, schema.DefaultSource(), 0644); err != nil {
			return fmt.Errorf("failed to write docs file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created docs file: %s\n", docsFile)
		cfg.Docs.File = "./docs.yaml"
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}

	header := "# apidocs configuration\n# Every key can be overridden with an APIDOCS_ environment variable,\n# e.g. APIDOCS_TESTER_TIMEOUT=10s\n\n"
	if err := os.WriteFile(configFile, []byte(header+string(data)), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", configFile)

	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), "Initialization complete! You can now start the server with:")
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintf(cmd.OutOrStdout(), "  cd %s\n", absPath)
	fmt.Fprintln(cmd.OutOrStdout(), "  apidocs serve")

	return nil
}
