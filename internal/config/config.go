// Package config handles jobtrack configuration loading.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order:
// ./config.yaml, ~/.config/jobtrack/config.yaml, /etc/jobtrack/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "jobtrack", "config.yaml"))
	}

	paths = append(paths, "/etc/jobtrack/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must
// exist. Otherwise the first existing entry of DefaultSearchPaths wins.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all jobtrack configuration.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // text or json
	DataDir   string `yaml:"data_dir"`

	// UserID is the user applications are logged for when the command
	// line does not name one.
	UserID string `yaml:"user_id"`

	Models  ModelsConfig  `yaml:"models"`
	Agent   AgentConfig   `yaml:"agent"`
	Retry   RetryConfig   `yaml:"retry"`
	Tools   ToolsConfig   `yaml:"tools"`
	Store   StoreConfig   `yaml:"store"`
	Prompts PromptsConfig `yaml:"prompts"`
	Batch   BatchConfig   `yaml:"batch"`
}

// ModelsConfig names the models used for each capability.
type ModelsConfig struct {
	OllamaURL  string `yaml:"ollama_url"`
	Classifier string `yaml:"classifier"`
	Decider    string `yaml:"decider"`
}

// AgentConfig bounds the application tracking tool loop.
type AgentConfig struct {
	MaxIterations int `yaml:"max_iterations"`
}

// RetryConfig controls retries of classifier and decision model calls.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
}

// ToolsConfig limits how fast tools may run. Zero disables the limit.
type ToolsConfig struct {
	RatePerMinute float64 `yaml:"rate_per_minute"`
	Burst         int     `yaml:"burst"`
}

// StoreConfig selects the application database.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite3 (cgo) or sqlite (pure Go)
	Path   string `yaml:"path"`   // default: <data_dir>/jobtrack.db
}

// PromptsConfig names files that replace the built-in prompts.
type PromptsConfig struct {
	ClassifierSystem   string `yaml:"classifier_system"`
	ClassifierUser     string `yaml:"classifier_user"`
	ApplicationManager string `yaml:"application_manager"`
}

// BatchConfig controls the batch command.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// Load reads, expands, and validates configuration from a YAML file.
// ${VAR} references are expanded from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.UserID == "" {
		c.UserID = "default"
	}
	if c.Models.OllamaURL == "" {
		c.Models.OllamaURL = "http://localhost:11434"
	}
	if c.Models.Classifier == "" {
		c.Models.Classifier = "qwen3:4b"
	}
	if c.Models.Decider == "" {
		c.Models.Decider = c.Models.Classifier
	}
	if c.Agent.MaxIterations == 0 {
		c.Agent.MaxIterations = 10
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.InitialInterval == 0 {
		c.Retry.InitialInterval = 500 * time.Millisecond
	}
	if c.Retry.MaxInterval == 0 {
		c.Retry.MaxInterval = 10 * time.Second
	}
	if c.Tools.RatePerMinute > 0 && c.Tools.Burst == 0 {
		c.Tools.Burst = 5
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite3"
	}
	c.DataDir = expandHome(c.DataDir)
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.DataDir, "jobtrack.db")
	}
	c.Store.Path = expandHome(c.Store.Path)
	c.Prompts.ClassifierSystem = expandHome(c.Prompts.ClassifierSystem)
	c.Prompts.ClassifierUser = expandHome(c.Prompts.ClassifierUser)
	c.Prompts.ApplicationManager = expandHome(c.Prompts.ApplicationManager)
	if c.Batch.Concurrency == 0 {
		c.Batch.Concurrency = 4
	}
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q must be text or json", c.LogFormat))
	}
	if u, err := url.Parse(c.Models.OllamaURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("models.ollama_url %q is not an absolute URL", c.Models.OllamaURL))
	}
	if c.Agent.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("agent.max_iterations must be positive, got %d", c.Agent.MaxIterations))
	}
	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be positive, got %d", c.Retry.MaxAttempts))
	}
	if c.Retry.InitialInterval < 0 || c.Retry.MaxInterval < 0 {
		errs = append(errs, errors.New("retry intervals must not be negative"))
	}
	if c.Retry.MaxInterval > 0 && c.Retry.InitialInterval > c.Retry.MaxInterval {
		errs = append(errs, fmt.Errorf("retry.initial_interval %s exceeds retry.max_interval %s", c.Retry.InitialInterval, c.Retry.MaxInterval))
	}
	if c.Tools.RatePerMinute < 0 || c.Tools.Burst < 0 {
		errs = append(errs, errors.New("tools.rate_per_minute and tools.burst must not be negative"))
	}
	switch c.Store.Driver {
	case "sqlite3", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("store.driver %q must be sqlite3 or sqlite", c.Store.Driver))
	}
	if c.Batch.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("batch.concurrency must be positive, got %d", c.Batch.Concurrency))
	}

	return errors.Join(errs...)
}
