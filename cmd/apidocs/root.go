package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prasenjit/go-apidocs/internal/config"
	"github.com/prasenjit/go-apidocs/internal/logging"
	"github.com/prasenjit/go-apidocs/internal/models"
	"github.com/prasenjit/go-apidocs/internal/schema"
)

// builtinName is the catalog name of the built-in documentation
const builtinName = "platform"

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "apidocs",
		Short: "apidocs - browsable API documentation with a live request tester",
		Long: `apidocs serves sectioned HTTP API documentation, generates cURL examples
for every endpoint and sends real requests against the documented API.

Documentation is native YAML/JSON or imported from OpenAPI 3. Without a
documentation file the built-in platform documentation is used.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringP("docs", "d", "", "documentation file (default: built-in documentation)")
	rootCmd.PersistentFlags().String("format", "", "documentation format: yaml, json or openapi (default: detect)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")

	viper.BindPFlag("docs.file", rootCmd.PersistentFlags().Lookup("docs"))
	viper.BindPFlag("docs.format", rootCmd.PersistentFlags().Lookup("format"))
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(sectionsCmd)
	rootCmd.AddCommand(curlCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(importCmd)
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			cwd = "."
		}

		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// APIDOCS_TESTER_TIMEOUT overrides tester.timeout
	viper.SetEnvPrefix("APIDOCS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults mirrors config.Default into viper
func setDefaults() {
	d := config.Default()

	viper.SetDefault("server.port", d.Server.Port)
	viper.SetDefault("server.host", d.Server.Host)

	viper.SetDefault("storage.type", d.Storage.Type)
	viper.SetDefault("storage.path", d.Storage.Path)

	viper.SetDefault("docs.file", d.Docs.File)
	viper.SetDefault("docs.format", d.Docs.Format)

	viper.SetDefault("schema.enforcement", d.Schema.Enforcement)

	viper.SetDefault("tester.timeout", d.Tester.Timeout)
	viper.SetDefault("tester.validation", d.Tester.Validation)
	viper.SetDefault("tester.maxBodyBytes", d.Tester.MaxBodyBytes)
	viper.SetDefault("tester.sessionIdleTimeout", d.Tester.SessionIdleTimeout)

	viper.SetDefault("history.maxEntries", d.History.MaxEntries)

	viper.SetDefault("logging.level", d.Logging.Level)
	viper.SetDefault("logging.format", d.Logging.Format)
}

// loadConfig collects the effective configuration from viper
func loadConfig() (*config.Config, error) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port: viper.GetInt("server.port"),
			Host: viper.GetString("server.host"),
		},
		Storage: config.StorageConfig{
			Type: viper.GetString("storage.type"),
			Path: viper.GetString("storage.path"),
		},
		Docs: config.DocsConfig{
			File:   viper.GetString("docs.file"),
			Format: viper.GetString("docs.format"),
		},
		Schema: config.SchemaConfig{
			Enforcement: viper.GetString("schema.enforcement"),
		},
		Tester: config.TesterConfig{
			Timeout:            viper.GetDuration("tester.timeout"),
			Validation:         viper.GetString("tester.validation"),
			MaxBodyBytes:       viper.GetInt64("tester.maxBodyBytes"),
			SessionIdleTimeout: viper.GetDuration("tester.sessionIdleTimeout"),
		},
		History: config.HistoryConfig{
			MaxEntries: viper.GetInt("history.maxEntries"),
		},
		Logging: config.LoggingConfig{
			Level:  viper.GetString("logging.level"),
			Format: viper.GetString("logging.format"),
		},
	}

	if cfg.Storage.Path != "" && !filepath.IsAbs(cfg.Storage.Path) {
		if abs, err := filepath.Abs(cfg.Storage.Path); err == nil {
			cfg.Storage.Path = abs
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setup loads configuration and builds the process logger
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)

	return cfg, logger, nil
}

// loadDocs loads the configured documentation file, or the built-in
// documentation when none is configured. It returns the catalog name and
// source of the documentation.
func loadDocs(cfg *config.Config, logger *slog.Logger) (*models.Documentation, string, string, error) {
	mode, err := schema.ParseMode(cfg.Schema.Enforcement)
	if err != nil {
		return nil, "", "", err
	}

	if cfg.Docs.File == "" {
		doc, err := schema.Default()
		if err != nil {
			return nil, "", "", err
		}
		return doc, builtinName, models.SourceBuiltin, nil
	}

	doc, source, err := schema.LoadFile(cfg.Docs.File, cfg.Docs.Format)
	if err != nil {
		return nil, "", "", err
	}
	if _, err := schema.Enforce(doc, mode, cfg.Docs.File, logger); err != nil {
		return nil, "", "", err
	}

	name := strings.TrimSuffix(filepath.Base(cfg.Docs.File), filepath.Ext(cfg.Docs.File))
	return doc, name, source, nil
}
