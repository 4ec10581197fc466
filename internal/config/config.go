// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > embedded > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Guliveer/hostsnap/internal/errs"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "15s", "30s", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all hostsnap configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Plugins PluginsConfig `yaml:"plugins"`
	Watch   WatchConfig   `yaml:"watch"`
	Serve   ServeConfig   `yaml:"serve"`
}

// LoggingConfig holds logging settings. An empty File logs to stdout only.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	File  string `yaml:"file"`
}

// PluginsConfig controls where plugins are found and how they are set up.
type PluginsConfig struct {
	SearchPaths     []string `yaml:"search_paths" validate:"dive,required"`
	UseDefaultPaths bool     `yaml:"use_default_paths"`
	// Autoload names the plugins loaded at startup, in order.
	Autoload []string `yaml:"autoload" validate:"dive,required,excludesall=/\\"`
	// Settings holds each plugin's configuration document by plugin name.
	Settings       map[string]yaml.Node `yaml:"settings"`
	StoreDir       string               `yaml:"store_dir"`
	StoreMaxSizeMB int                  `yaml:"store_max_size_mb" validate:"min=0"`
}

// WatchConfig holds periodic collection settings.
type WatchConfig struct {
	Interval  Duration `yaml:"interval"`
	Timeout   Duration `yaml:"timeout"`
	HotReload bool     `yaml:"hot_reload"`
}

// ServeConfig holds HTTP API settings.
type ServeConfig struct {
	Listen string `yaml:"listen" validate:"required,hostname_port"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Plugins: PluginsConfig{
			StoreMaxSizeMB: 16,
		},
		Watch: WatchConfig{
			Interval:  Duration{15 * time.Second},
			Timeout:   Duration{10 * time.Second},
			HotReload: true,
		},
		Serve: ServeConfig{
			Listen: "127.0.0.1:8787",
		},
	}
}

// LoadFromBytes parses YAML configuration from a byte slice and merges with defaults.
// Environment variables take highest precedence and override values from the byte slice.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errs.Wrap(errs.ParseError, "config.parse", err)
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// Load reads configuration from a YAML file and merges with defaults.
// If path is empty or the file does not exist, only defaults and environment
// variables are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromBytes(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errs.WrapIO("config.read", err)
		}
		return LoadFromBytes(nil)
	}

	return LoadFromBytes(data)
}

// CLIOverrides holds values from command-line flags.
// Zero values are treated as "not set" and skipped.
type CLIOverrides struct {
	LogLevel    string
	Listen      string
	PluginPaths []string
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > external YAML file > embedded bytes > defaults.
//
// An optional configPath argument controls external-file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value  → use that path ("" means no external file)
func LoadLayered(cli CLIOverrides, embedded []byte, configPath ...string) (*Config, error) {
	cfg := DefaultConfig()

	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, cfg); err != nil {
			return nil, errs.Wrap(errs.ParseError, "config.parse_embedded", err)
		}
	}

	var filePath string
	if len(configPath) > 0 {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errs.Wrap(errs.ParseError, "config.parse_file", fmt.Errorf("%s: %w", filePath, err))
			}
		case !os.IsNotExist(err):
			return nil, errs.WrapIO("config.read", err)
		}
	}

	applyEnvOverrides(cfg)

	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.Listen != "" {
		cfg.Serve.Listen = cli.Listen
	}
	cfg.Plugins.SearchPaths = append(cfg.Plugins.SearchPaths, cli.PluginPaths...)

	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errs.WrapIO("config.write", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errs.Wrap(errs.InternalError, "config.write", err)
	}
	return os.WriteFile(path, data, 0640)
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if level := os.Getenv("HOSTSNAP_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if file := os.Getenv("HOSTSNAP_LOG_FILE"); file != "" {
		cfg.Logging.File = file
	}
	if paths := os.Getenv("HOSTSNAP_PLUGIN_PATH"); paths != "" {
		for _, p := range filepath.SplitList(paths) {
			if p != "" {
				cfg.Plugins.SearchPaths = append(cfg.Plugins.SearchPaths, p)
			}
		}
	}
	if listen := os.Getenv("HOSTSNAP_LISTEN"); listen != "" {
		cfg.Serve.Listen = listen
	}
}

// PluginSettings returns the configuration document for the named plugin
// as YAML text.
func (c *Config) PluginSettings(name string) (string, bool) {
	node, ok := c.Plugins.Settings[name]
	if !ok {
		return "", false
	}
	data, err := yaml.Marshal(&node)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// AllPluginSettings returns PluginSettings for every configured plugin.
func (c *Config) AllPluginSettings() map[string]string {
	out := make(map[string]string, len(c.Plugins.Settings))
	for name := range c.Plugins.Settings {
		if text, ok := c.PluginSettings(name); ok {
			out[name] = text
		}
	}
	return out
}

var validate = validator.New()

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return errs.Wrap(errs.ConfigurationError, "config.validate", err)
		}
		for _, e := range fieldErrs {
			problems = append(problems, formatValidationMessage(e))
		}
	}

	if c.Watch.Interval.Duration < time.Second {
		problems = append(problems, "watch.interval must be at least 1s")
	}
	if c.Watch.Timeout.Duration <= 0 {
		problems = append(problems, "watch.timeout must be positive")
	}
	for name, node := range c.Plugins.Settings {
		if node.Kind != yaml.MappingNode {
			problems = append(problems, fmt.Sprintf("plugins.settings.%s must be a mapping", name))
		}
	}

	if len(problems) > 0 {
		return errs.New(errs.ConfigurationError, "config.validate", strings.Join(problems, "; "))
	}
	return nil
}

func formatValidationMessage(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port", field)
	case "excludesall":
		return fmt.Sprintf("%s must be a plugin name, not a path", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, e.Tag())
	}
}
