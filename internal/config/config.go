// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration. A resolved *Config is
// constructed once at startup and passed into components explicitly; nothing
// reads mutable global provider state at runtime.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Scan      ScanConfig      `mapstructure:"scan" yaml:"scan"`
	Extractor ExtractorConfig `mapstructure:"extractor" yaml:"extractor"`
	Export    ExportConfig    `mapstructure:"export" yaml:"export"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// ScanConfig tunes discovery, change detection and the extraction run.
type ScanConfig struct {
	OutputDir       string   `mapstructure:"output_dir" yaml:"output_dir"`
	RepoName        string   `mapstructure:"repo_name" yaml:"repo_name"`
	Concurrency     int      `mapstructure:"concurrency" yaml:"concurrency"`
	ChunkThreshold  int      `mapstructure:"chunk_threshold" yaml:"chunk_threshold"`
	ChunkSize       int      `mapstructure:"chunk_size" yaml:"chunk_size"`
	ContentHash     bool     `mapstructure:"content_hash" yaml:"content_hash"`
	ExcludePatterns []string `mapstructure:"exclude_patterns" yaml:"exclude_patterns"`
	IncludePatterns []string `mapstructure:"include_patterns" yaml:"include_patterns"`
}

// Provider identifies an extraction model provider.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// ExtractorConfig defines the configuration for the extraction collaborator.
type ExtractorConfig struct {
	Provider    Provider      `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// ExportConfig holds the graph-database export settings.
type ExportConfig struct {
	DatabaseURL string `mapstructure:"database_url" yaml:"-"`
}

// DefaultExcludePatterns are directories and files never worth extracting.
var DefaultExcludePatterns = []string{
	".git", ".svn", ".hg",
	"node_modules", "bower_components", "vendor",
	"build", "dist", "out", "target", "bin", "obj",
	"__pycache__", ".pytest_cache", ".mypy_cache", ".cache",
	".vscode", ".idea",
	"venv", ".venv", "env", ".env", "virtualenv",
	"coverage", ".nyc_output",
	"logs", "log", "*.log",
	"tmp", "temp", ".tmp",
	"*.min.js", "*.lock",
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "codegraph")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Scan --
	v.SetDefault("scan.output_dir", "./data/outputs")
	v.SetDefault("scan.concurrency", 5)
	v.SetDefault("scan.chunk_threshold", 1000)
	v.SetDefault("scan.chunk_size", 800)
	v.SetDefault("scan.content_hash", false)
	v.SetDefault("scan.exclude_patterns", DefaultExcludePatterns)
	v.SetDefault("scan.include_patterns", []string{})

	// -- Extractor --
	v.SetDefault("extractor.provider", "openai")
	v.SetDefault("extractor.model", "gpt-4o-mini")
	v.SetDefault("extractor.endpoint", "")
	v.SetDefault("extractor.api_timeout", "120s")
	v.SetDefault("extractor.temperature", 0.1)
	v.SetDefault("extractor.max_tokens", 8192)
}

// NewConfigFromViper creates a validated configuration from a viper instance.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Bind environment variables for sensitive data.
	_ = v.BindEnv("extractor.api_key", "CODEGRAPH_API_KEY")
	_ = v.BindEnv("export.database_url", "CODEGRAPH_DB_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Allow "~/..." output locations in config files and env vars.
	expanded, err := homedir.Expand(cfg.Scan.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("invalid scan.output_dir: %w", err)
	}
	cfg.Scan.OutputDir = expanded

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Scan.Concurrency <= 0 {
		return fmt.Errorf("scan.concurrency must be a positive integer")
	}
	if c.Scan.ChunkSize <= 0 {
		return fmt.Errorf("scan.chunk_size must be a positive integer")
	}
	if c.Scan.ChunkThreshold < c.Scan.ChunkSize {
		return fmt.Errorf("scan.chunk_threshold (%d) must not be below scan.chunk_size (%d)",
			c.Scan.ChunkThreshold, c.Scan.ChunkSize)
	}
	switch c.Extractor.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown extractor provider: %q. Supported: [%s, %s]",
			c.Extractor.Provider, ProviderGemini, ProviderOpenAI)
	}
	return nil
}
