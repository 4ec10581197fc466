package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/plugin"
)

const embedded = `
logging:
  level: warn
serve:
  listen: "0.0.0.0:9000"
plugins:
  autoload: [processes, netio]
  settings:
    processes:
      top_n: 5
    weather:
      location:
        lat: 52.2
        lon: 21.0
`

func TestLoadLayered_CLIOverridesEverything(t *testing.T) {
	t.Setenv("HOSTSNAP_LISTEN", "127.0.0.1:7000")
	cli := CLIOverrides{Listen: "127.0.0.1:6000", LogLevel: "debug"}

	cfg, err := LoadLayered(cli, []byte(embedded), "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Serve.Listen != "127.0.0.1:6000" {
		t.Errorf("Listen = %q, want CLI override", cfg.Serve.Listen)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want CLI override", cfg.Logging.Level)
	}
}

func TestLoadLayered_EnvOverridesEmbed(t *testing.T) {
	t.Setenv("HOSTSNAP_LISTEN", "127.0.0.1:7000")
	t.Setenv("HOSTSNAP_PLUGIN_PATH", strings.Join([]string{"/opt/a", "", "/opt/b"}, string(os.PathListSeparator)))

	cfg, err := LoadLayered(CLIOverrides{PluginPaths: []string{"/cli"}}, []byte(embedded), "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Serve.Listen != "127.0.0.1:7000" {
		t.Errorf("Listen = %q, want env override", cfg.Serve.Listen)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %q, want embedded value", cfg.Logging.Level)
	}
	want := []string{"/opt/a", "/opt/b", "/cli"}
	if strings.Join(cfg.Plugins.SearchPaths, ",") != strings.Join(want, ",") {
		t.Errorf("SearchPaths = %v, want %v", cfg.Plugins.SearchPaths, want)
	}
}

func TestLoadLayered_FileOverridesEmbed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("watch:\n  interval: 1m\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadLayered(CLIOverrides{}, []byte(embedded), path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Watch.Interval.Duration != time.Minute {
		t.Errorf("Interval = %v, want file value", cfg.Watch.Interval.Duration)
	}
	if cfg.Serve.Listen != "0.0.0.0:9000" {
		t.Errorf("Listen = %q, want embedded value", cfg.Serve.Listen)
	}
}

func TestLoadLayered_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("watch: [\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadLayered(CLIOverrides{}, nil, path); !errors.Is(err, errs.ParseError) {
		t.Errorf("error = %v, want ParseError", err)
	}
}

func TestLoadLayered_DefaultsWhenEmpty(t *testing.T) {
	cfg, err := LoadLayered(CLIOverrides{}, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Watch.Interval.Duration.Seconds() != 15 {
		t.Errorf("Interval = %v, want 15s default", cfg.Watch.Interval.Duration)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestPluginSettingsFeedPluginConfig(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(embedded))
	if err != nil {
		t.Fatal(err)
	}

	text, ok := cfg.PluginSettings("weather")
	if !ok {
		t.Fatal("weather settings missing")
	}
	parsed, err := plugin.ParseConfig(text)
	if err != nil {
		t.Fatalf("settings do not parse as plugin config: %v\n%s", err, text)
	}
	if lat, _ := parsed.Sub("location").Float("lat"); lat != 52.2 {
		t.Errorf("location.lat = %v", lat)
	}

	if _, ok := cfg.PluginSettings("absent"); ok {
		t.Error("absent plugin reported settings")
	}
	if all := cfg.AllPluginSettings(); len(all) != 2 {
		t.Errorf("AllPluginSettings() = %v", all)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"level", func(c *Config) { c.Logging.Level = "loud" }, "Level"},
		{"listen", func(c *Config) { c.Serve.Listen = "nowhere" }, "Listen"},
		{"interval", func(c *Config) { c.Watch.Interval = Duration{time.Millisecond} }, "watch.interval"},
		{"timeout", func(c *Config) { c.Watch.Timeout = Duration{} }, "watch.timeout"},
		{"autoload path", func(c *Config) { c.Plugins.Autoload = []string{"../evil"} }, "Autoload"},
		{"store size", func(c *Config) { c.Plugins.StoreMaxSizeMB = -1 }, "StoreMaxSizeMB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, errs.ConfigurationError) {
				t.Fatalf("Validate() error = %v, want ConfigurationError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error %q does not mention %q", err, tt.want)
			}
		})
	}

	cfg, err := LoadFromBytes([]byte("plugins:\n  settings:\n    bad: [1, 2]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "plugins.settings.bad") {
		t.Errorf("Validate() error = %v, want non-mapping settings rejected", err)
	}
}

func TestWriteConfig_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Serve.Listen = "127.0.0.1:1234"

	if err := WriteConfig(cfg, path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Serve.Listen != "127.0.0.1:1234" || loaded.Watch.Interval.Duration != 15*time.Second {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}
