// Package models defines the metric value model shared by collectors, the
// snapshot cache, plugins and the C boundary. Values are immutable once
// returned to a caller.
package models

import "time"

// ResourceUsage is a used/total pair in bytes (memory, disk space).
type ResourceUsage struct {
	UsedBytes  uint64 `json:"used_bytes"`
	TotalBytes uint64 `json:"total_bytes"`
}

// CPUCores holds the processor topology.
type CPUCores struct {
	Physical uint `json:"physical"`
	Logical  uint `json:"logical"`
}

// OSInfo identifies the operating system.
type OSInfo struct {
	Name    string `json:"name"`    // e.g. "Ubuntu", "macOS", "Windows 11 Pro"
	Version string `json:"version"` // e.g. "24.04", "14.2.1"
	ID      string `json:"id"`      // e.g. "ubuntu", "darwin", "windows"
}

// DriveType classifies a disk.
type DriveType uint8

const (
	DriveUnknown DriveType = iota
	DriveFixed
	DriveRemovable
	DriveNetwork
	DriveCDRom
	DriveRAM
)

var driveTypeNames = [...]string{"unknown", "fixed", "removable", "network", "cdrom", "ram"}

func (d DriveType) String() string {
	if int(d) < len(driveTypeNames) {
		return driveTypeNames[d]
	}
	return "unknown"
}

// MarshalText renders the drive type by name.
func (d DriveType) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// DiskInfo represents a single mounted volume.
type DiskInfo struct {
	Name          string    `json:"name"`
	MountPoint    string    `json:"mount_point"`
	Filesystem    string    `json:"filesystem"`
	DriveType     DriveType `json:"drive_type"`
	TotalBytes    uint64    `json:"total_bytes"`
	UsedBytes     uint64    `json:"used_bytes"`
	IsSystemDrive bool      `json:"is_system_drive"`
}

// DisplayInfo describes one active output.
type DisplayInfo struct {
	ID          uint64  `json:"id"`
	Width       uint64  `json:"width"`
	Height      uint64  `json:"height"`
	RefreshRate float64 `json:"refresh_rate"`
	IsPrimary   bool    `json:"is_primary"`
}

// NetworkInterface describes one network interface. Addresses are absent
// when the interface has none of that family.
type NetworkInterface struct {
	Name        string         `json:"name"`
	IPv4Address Option[string] `json:"ipv4_address"`
	IPv6Address Option[string] `json:"ipv6_address"`
	MACAddress  Option[string] `json:"mac_address"`
	IsUp        bool           `json:"is_up"`
	IsLoopback  bool           `json:"is_loopback"`
}

// BatteryStatus is the charging state. Numeric values cross the C boundary.
type BatteryStatus uint8

const (
	BatteryUnknown     BatteryStatus = 0
	BatteryCharging    BatteryStatus = 1
	BatteryDischarging BatteryStatus = 2
	BatteryFull        BatteryStatus = 3
	BatteryNotPresent  BatteryStatus = 4
)

var batteryStatusNames = [...]string{"unknown", "charging", "discharging", "full", "not_present"}

func (s BatteryStatus) String() string {
	if int(s) < len(batteryStatusNames) {
		return batteryStatusNames[s]
	}
	return "unknown"
}

// MarshalText renders the status by name.
func (s BatteryStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Battery holds the state of the first system battery.
type Battery struct {
	Status        BatteryStatus         `json:"status"`
	Percentage    Option[uint8]         `json:"percentage"`
	TimeRemaining Option[time.Duration] `json:"time_remaining"`
}

// ProcessInfo represents a single process's resource usage.
type ProcessInfo struct {
	PID    int32   `json:"pid"`
	Name   string  `json:"name"`
	CPU    float64 `json:"cpu"`
	Memory float64 `json:"memory"`
	Status string  `json:"status"`
}
