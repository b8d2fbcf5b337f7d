package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nsxbet/ddl-validator/pkg/types"
)

// Config represents the configuration for a validation run
type Config struct {
	ID          string            `yaml:"id" json:"id"`
	Database    DatabaseConfig    `yaml:"database" json:"database"`
	Advisory    AdvisoryConfig    `yaml:"advisory" json:"advisory"`
	Knowledge   KnowledgeConfig   `yaml:"knowledge" json:"knowledge"`
	Standards   []*StandardRule   `yaml:"standards" json:"standards"`
	Syntax      SyntaxConfig      `yaml:"syntax" json:"syntax"`
	Performance PerformanceConfig `yaml:"performance" json:"performance"`
	Upload      UploadConfig      `yaml:"upload" json:"upload"`
}

// DatabaseConfig locates the target database.
// Secret takes precedence over DSN when both are set.
type DatabaseConfig struct {
	Secret         string        `yaml:"secret" json:"secret"`
	Region         string        `yaml:"region" json:"region"`
	DSN            string        `yaml:"dsn" json:"dsn"`
	ConnectTimeout time.Duration `yaml:"connectTimeout" json:"connectTimeout"`
	QueryTimeout   time.Duration `yaml:"queryTimeout" json:"queryTimeout"`
}

// AdvisoryConfig configures the LLM-backed advisory service
type AdvisoryConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Model     string        `yaml:"model" json:"model"`
	BaseURL   string        `yaml:"baseURL" json:"baseURL"`
	APIKeyEnv string        `yaml:"apiKeyEnv" json:"apiKeyEnv"`
	MaxTokens int           `yaml:"maxTokens" json:"maxTokens"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// KnowledgeConfig points to the standards documents used by the advisory standards check
type KnowledgeConfig struct {
	File string `yaml:"file" json:"file"`
}

// SyntaxConfig toggles the optional grammar check
type SyntaxConfig struct {
	ParserCheck bool `yaml:"parserCheck" json:"parserCheck"`
}

// PerformanceConfig holds the performance rule thresholds
type PerformanceConfig struct {
	MaxLobColumns   int `yaml:"maxLobColumns" json:"maxLobColumns"`
	MaxIndexColumns int `yaml:"maxIndexColumns" json:"maxIndexColumns"`
}

// UploadConfig configures where rendered reports are archived
type UploadConfig struct {
	// Provider is one of "", "s3" or "gcs". Empty disables uploading.
	Provider        string `yaml:"provider" json:"provider"`
	Bucket          string `yaml:"bucket" json:"bucket"`
	Prefix          string `yaml:"prefix" json:"prefix"`
	Region          string `yaml:"region" json:"region"`
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	AccessKeyID     string `yaml:"accessKeyID" json:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey" json:"secretAccessKey"`
	CredentialsFile string `yaml:"credentialsFile" json:"credentialsFile"`
	Compress        bool   `yaml:"compress" json:"compress"`
}

// StandardRule is a deterministic naming standard
type StandardRule struct {
	Type      string         `yaml:"type" json:"type"`
	Level     types.Severity `yaml:"level" json:"level"`
	Format    string         `yaml:"format" json:"format"`
	MaxLength int            `yaml:"maxLength" json:"maxLength"`
}

const (
	// StandardTableNaming checks table names of CREATE TABLE statements.
	StandardTableNaming = "naming.table"
	// StandardIndexNaming checks index names of CREATE INDEX statements.
	StandardIndexNaming = "naming.index.idx"
	// StandardUniqueIndexNaming checks index names of CREATE UNIQUE INDEX statements.
	StandardUniqueIndexNaming = "naming.index.uk"
)

// LoadFromFile loads configuration from a file on top of DefaultConfig
func LoadFromFile(filename string) (*Config, error) {
	slog.Debug("Loading config from file", "filename", filename)
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", filename)
	}
	return Parse(data)
}

// Parse decodes YAML, falling back to JSON, on top of DefaultConfig
func Parse(data []byte) (*Config, error) {
	config := DefaultConfig("default")
	config.Standards = nil

	if err := yaml.Unmarshal(data, config); err != nil {
		slog.Debug("YAML unmarshal failed, attempting JSON", "error", err)
		config = DefaultConfig("default")
		config.Standards = nil
		if err := json.Unmarshal(data, config); err != nil {
			return nil, errors.Wrap(err, "config is neither valid YAML nor JSON")
		}
	}

	if config.Standards == nil {
		config.Standards = DefaultStandards()
	}
	config.normalize()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("Loaded config", "id", config.ID, "standards_count", len(config.Standards))
	return config, nil
}

// LoadStandards loads a standalone list of naming standards
func LoadStandards(filename string) ([]*StandardRule, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read standards file %s", filename)
	}

	var rules []*StandardRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, errors.Wrapf(err, "failed to parse standards file %s", filename)
	}
	for _, rule := range rules {
		if rule.Level == types.Severity_SEVERITY_UNSPECIFIED {
			rule.Level = types.Severity_WARNING
		}
	}
	return rules, nil
}

func (c *Config) normalize() {
	defaults := DefaultConfig(c.ID)
	if c.Performance.MaxLobColumns <= 0 {
		c.Performance.MaxLobColumns = defaults.Performance.MaxLobColumns
	}
	if c.Performance.MaxIndexColumns <= 0 {
		c.Performance.MaxIndexColumns = defaults.Performance.MaxIndexColumns
	}
	if c.Database.ConnectTimeout <= 0 {
		c.Database.ConnectTimeout = defaults.Database.ConnectTimeout
	}
	if c.Database.QueryTimeout <= 0 {
		c.Database.QueryTimeout = defaults.Database.QueryTimeout
	}
	if c.Advisory.Timeout <= 0 {
		c.Advisory.Timeout = defaults.Advisory.Timeout
	}
	if c.Advisory.Model == "" {
		c.Advisory.Model = defaults.Advisory.Model
	}
	if c.Advisory.APIKeyEnv == "" {
		c.Advisory.APIKeyEnv = defaults.Advisory.APIKeyEnv
	}
	if c.Advisory.MaxTokens <= 0 {
		c.Advisory.MaxTokens = defaults.Advisory.MaxTokens
	}
	for _, rule := range c.Standards {
		if rule.Level == types.Severity_SEVERITY_UNSPECIFIED {
			rule.Level = types.Severity_WARNING
		}
	}
}

// Validate checks the values that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Upload.Provider {
	case "", "s3", "gcs":
	default:
		return errors.Errorf("unsupported upload provider: %s", c.Upload.Provider)
	}
	if c.Upload.Provider != "" && c.Upload.Bucket == "" {
		return errors.Errorf("upload provider %s requires a bucket", c.Upload.Provider)
	}
	return nil
}

// DefaultConfig returns a default configuration
func DefaultConfig(id string) *Config {
	return &Config{
		ID: id,
		Database: DatabaseConfig{
			ConnectTimeout: 10 * time.Second,
			QueryTimeout:   30 * time.Second,
		},
		Advisory: AdvisoryConfig{
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
			MaxTokens: 1024,
			Timeout:   60 * time.Second,
		},
		Standards: DefaultStandards(),
		Performance: PerformanceConfig{
			MaxLobColumns:   3,
			MaxIndexColumns: 5,
		},
	}
}

// DefaultStandards returns the built-in naming standards
func DefaultStandards() []*StandardRule {
	return []*StandardRule{
		{
			Type:      StandardTableNaming,
			Level:     types.Severity_WARNING,
			Format:    "^[a-z][a-z0-9_]*$",
			MaxLength: 64,
		},
	}
}
