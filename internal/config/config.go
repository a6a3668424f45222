package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/prasenjit/go-apidocs/internal/schema"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Docs    DocsConfig    `yaml:"docs"`
	Schema  SchemaConfig  `yaml:"schema"`
	Tester  TesterConfig  `yaml:"tester"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// Address returns host:port for net/http
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds documentation catalog storage configuration
type StorageConfig struct {
	Type string `yaml:"type"` // "memory", "file" or "sqlite"
	Path string `yaml:"path"` // Directory for file storage, database file for sqlite
}

// DocsConfig selects the documentation served as the default document
type DocsConfig struct {
	File   string `yaml:"file"`   // Empty means the built-in platform documentation
	Format string `yaml:"format"` // yaml, json, openapi or empty to detect
}

// SchemaConfig holds load-time validation settings
type SchemaConfig struct {
	Enforcement string `yaml:"enforcement"` // off, warn or strict
}

// TesterConfig holds request tester settings
type TesterConfig struct {
	Timeout            time.Duration `yaml:"timeout"`
	Validation         string        `yaml:"validation"` // off, warn or strict
	MaxBodyBytes       int64         `yaml:"maxBodyBytes"`
	SessionIdleTimeout time.Duration `yaml:"sessionIdleTimeout"`
}

// HistoryConfig holds execution history configuration
type HistoryConfig struct {
	MaxEntries int `yaml:"maxEntries"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Storage: StorageConfig{
			Type: "memory",
			Path: "./data",
		},
		Schema: SchemaConfig{
			Enforcement: "warn",
		},
		Tester: TesterConfig{
			Timeout:            30 * time.Second,
			Validation:         "strict",
			MaxBodyBytes:       1 << 20,
			SessionIdleTimeout: 30 * time.Minute,
		},
		History: HistoryConfig{
			MaxEntries: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file. Unset keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate reports every invalid setting
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Storage.Type {
	case "memory", "file", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("storage.type %q (want memory, file or sqlite)", c.Storage.Type))
	}
	if _, err := schema.ParseMode(c.Schema.Enforcement); err != nil {
		errs = append(errs, fmt.Errorf("schema.enforcement: %w", err))
	}
	if _, err := schema.ParseMode(c.Tester.Validation); err != nil {
		errs = append(errs, fmt.Errorf("tester.validation: %w", err))
	}
	if c.Tester.Timeout < 0 {
		errs = append(errs, errors.New("tester.timeout must not be negative"))
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q (want json or text)", c.Logging.Format))
	}

	return errors.Join(errs...)
}
