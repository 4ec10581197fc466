// Package pluginapi is the contract between hostsnap and its plugins.
//
// A plugin is a Module. Static plugins register a Factory from an init
// function; shared-object plugins export
//
//	var NewModule pluginapi.Factory
//
// and script plugins follow the same lifecycle from Lua. The host drives
// every module through Configure, Initialize, then repeated Collect calls,
// and finally Close.
package pluginapi

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/models"
)

// Info describes a plugin independent of its load state.
type Info = models.PluginInfo

// Type groups plugins by what they produce.
type Type = models.PluginType

// Plugin types.
const (
	TypeInfoProvider   = models.PluginTypeInfoProvider
	TypeOutputFormat   = models.PluginTypeOutputFormat
	TypeSystemProvider = models.PluginTypeSystemProvider
)

// Metric keys accepted by Host.Metric.
const (
	MetricMemory             = "memory"
	MetricCPUCores           = "cpu_cores"
	MetricCPUModel           = "cpu_model"
	MetricGPUModel           = "gpu_model"
	MetricOS                 = "os"
	MetricKernelVersion      = "kernel_version"
	MetricHost               = "host"
	MetricDesktopEnvironment = "desktop_environment"
	MetricWindowManager      = "window_manager"
	MetricShell              = "shell"
	MetricDisks              = "disks"
	MetricDiskUsage          = "disk_usage"
	MetricSystemDisk         = "system_disk"
	MetricDisplays           = "displays"
	MetricPrimaryDisplay     = "primary_display"
	MetricNetworkInterfaces  = "network_interfaces"
	MetricPrimaryInterface   = "primary_interface"
	MetricBattery            = "battery"
	MetricUptime             = "uptime"
)

// Host gives plugins read access to built-in metrics of the current run.
// Values come from the shared snapshot cache.
type Host interface {
	Metric(ctx context.Context, key string) (any, error)
}

// Store is a per-plugin persistent key/value cache that survives restarts.
type Store interface {
	// Get decodes the value stored under key into v. It reports false on
	// a miss or an expired entry.
	Get(key string, v any) (bool, error)
	// Set stores v under key. A zero ttl never expires.
	Set(key string, v any, ttl time.Duration) error
	Invalidate(key string) error
}

// Env is handed to a module on Initialize.
type Env struct {
	Name      string
	ConfigDir string
	CacheDir  string
	DataDir   string
	Store     Store
	Logger    *zap.Logger
}

// Module is implemented by every plugin.
type Module interface {
	Info() Info

	// Configure receives the plugin's configuration before Initialize.
	// It is called with an empty Config when none was supplied.
	Configure(cfg Config) error

	// Initialize validates configuration, acquires resources and decides
	// whether the plugin is enabled.
	Initialize(ctx context.Context, env Env) error

	IsEnabled() bool

	// IsReady reports whether Collect is currently expected to succeed.
	IsReady() bool

	// Collect gathers fresh data. The returned map replaces the previous
	// result only when err is nil.
	Collect(ctx context.Context, host Host) (map[string]any, error)

	// LastError returns the module's own diagnostic, or "".
	LastError() string

	Close() error
}

// Factory creates a fresh, unconfigured Module.
type Factory func() Module
