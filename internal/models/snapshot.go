package models

import "time"

// Snapshot is a point-in-time view of every built-in metric plus the
// output of loaded plugins. A metric that failed to collect is absent and
// its error text is recorded in Errors under the metric's key.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	Memory             Option[ResourceUsage]      `json:"memory"`
	CPUCores           Option[CPUCores]           `json:"cpu_cores"`
	CPUModel           Option[string]             `json:"cpu_model"`
	GPUModel           Option[string]             `json:"gpu_model"`
	OS                 Option[OSInfo]             `json:"os"`
	KernelVersion      Option[string]             `json:"kernel_version"`
	Host               Option[string]             `json:"host"`
	DesktopEnvironment Option[string]             `json:"desktop_environment"`
	WindowManager      Option[string]             `json:"window_manager"`
	Shell              Option[string]             `json:"shell"`
	Disks              Option[[]DiskInfo]         `json:"disks"`
	DiskUsage          Option[ResourceUsage]      `json:"disk_usage"`
	Displays           Option[[]DisplayInfo]      `json:"displays"`
	NetworkInterfaces  Option[[]NetworkInterface] `json:"network_interfaces"`
	PrimaryInterface   Option[NetworkInterface]   `json:"primary_interface"`
	Battery            Option[Battery]            `json:"battery"`
	Uptime             Option[time.Duration]      `json:"uptime"`

	Plugins map[string]map[string]any `json:"plugins,omitempty"`
	Errors  map[string]string         `json:"errors,omitempty"`
}
