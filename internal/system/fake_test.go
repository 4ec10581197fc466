package system

import (
	"context"
	"time"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/models"
)

// countingSource counts collector invocations per metric. A metric listed
// in failFirst fails on its first call only.
type countingSource struct {
	calls     map[string]int
	failFirst map[string]bool
	route     string
	ifaces    []models.NetworkInterface
	displays  []models.DisplayInfo
	disks     []models.DiskInfo
}

func newCountingSource() *countingSource {
	return &countingSource{
		calls:     make(map[string]int),
		failFirst: make(map[string]bool),
		ifaces: []models.NetworkInterface{
			{Name: "lo", IsUp: true, IsLoopback: true},
			{Name: "eth0", IsUp: false},
			{Name: "wlan0", IsUp: true, IPv4Address: models.Some("192.168.1.5")},
		},
		displays: []models.DisplayInfo{
			{ID: 1, Width: 1920, Height: 1080, RefreshRate: 60},
			{ID: 2, Width: 2560, Height: 1440, RefreshRate: 144, IsPrimary: true},
		},
		disks: []models.DiskInfo{
			{Name: "/dev/nvme0n1p2", MountPoint: "/", TotalBytes: 500, UsedBytes: 200, IsSystemDrive: true},
			{Name: "/dev/sda1", MountPoint: "/data", TotalBytes: 1000, UsedBytes: 10},
		},
	}
}

func (s *countingSource) hit(key string) error {
	s.calls[key]++
	if s.failFirst[key] && s.calls[key] == 1 {
		return errs.New(errs.ApiUnavailable, key, "transient failure")
	}
	return nil
}

func (s *countingSource) Memory(ctx context.Context) (models.ResourceUsage, error) {
	return models.ResourceUsage{UsedBytes: 1, TotalBytes: 2}, s.hit("memory")
}

func (s *countingSource) CPUCores(ctx context.Context) (models.CPUCores, error) {
	return models.CPUCores{Physical: 4, Logical: 8}, s.hit("cpu_cores")
}

func (s *countingSource) CPUModel(ctx context.Context) (string, error) {
	return "Test CPU", s.hit("cpu_model")
}

func (s *countingSource) GPUModel(ctx context.Context) (string, error) {
	return "Test GPU", s.hit("gpu_model")
}

func (s *countingSource) OSInfo(ctx context.Context) (models.OSInfo, error) {
	return models.OSInfo{Name: "TestOS", Version: "1", ID: "test"}, s.hit("os")
}

func (s *countingSource) KernelVersion(ctx context.Context) (string, error) {
	return "6.9.0", s.hit("kernel_version")
}

func (s *countingSource) Host(ctx context.Context) (string, error) {
	return "Test Host", s.hit("host")
}

func (s *countingSource) DesktopEnvironment(ctx context.Context) (string, error) {
	return "GNOME", s.hit("desktop_environment")
}

func (s *countingSource) WindowManager(ctx context.Context) (string, error) {
	return "Mutter", s.hit("window_manager")
}

func (s *countingSource) Shell(ctx context.Context) (string, error) {
	return "Zsh", s.hit("shell")
}

func (s *countingSource) Disks(ctx context.Context) ([]models.DiskInfo, error) {
	if err := s.hit("disks"); err != nil {
		return nil, err
	}
	return append([]models.DiskInfo(nil), s.disks...), nil
}

func (s *countingSource) Displays(ctx context.Context) ([]models.DisplayInfo, error) {
	if err := s.hit("displays"); err != nil {
		return nil, err
	}
	return append([]models.DisplayInfo(nil), s.displays...), nil
}

func (s *countingSource) NetworkInterfaces(ctx context.Context) ([]models.NetworkInterface, error) {
	if err := s.hit("network_interfaces"); err != nil {
		return nil, err
	}
	return append([]models.NetworkInterface(nil), s.ifaces...), nil
}

func (s *countingSource) DefaultRouteInterface(ctx context.Context) (string, error) {
	s.calls["default_route"]++
	if s.route == "" {
		return "", errs.New(errs.NotFound, "route", "no default route")
	}
	return s.route, nil
}

func (s *countingSource) Battery(ctx context.Context) (models.Battery, error) {
	return models.Battery{Status: models.BatteryCharging, Percentage: models.Some[uint8](50)}, s.hit("battery")
}

func (s *countingSource) Uptime(ctx context.Context) (time.Duration, error) {
	return time.Duration(s.calls["uptime"]+1) * time.Second, s.hit("uptime")
}
