//go:build linux

package platform

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Guliveer/hostsnap/internal/errs"
)

// pciVendors maps PCI vendor ids found under /sys/class/drm to names.
var pciVendors = map[string]string{
	"0x10de": "NVIDIA",
	"0x1002": "AMD",
	"0x8086": "Intel",
	"0x1af4": "Virtio",
	"0x15ad": "VMware",
	"0x1234": "QEMU",
}

// LinuxPlatform implements Platform using sysfs and nvidia-smi.
type LinuxPlatform struct {
	sysfs string
}

// New creates the Linux platform.
func New() Platform {
	return &LinuxPlatform{sysfs: "/sys"}
}

// Name returns the platform identifier.
func (p *LinuxPlatform) Name() string { return "linux" }

// GPUModel prefers nvidia-smi, then the vendor of the first DRM card.
func (p *LinuxPlatform) GPUModel(ctx context.Context) (string, error) {
	if name, err := nvidiaQuery(ctx, "name"); err == nil {
		return name, nil
	}

	cards, _ := filepath.Glob(filepath.Join(p.sysfs, "class", "drm", "card[0-9]*", "device", "vendor"))
	for _, vendorFile := range cards {
		data, err := os.ReadFile(vendorFile)
		if err != nil {
			continue
		}
		vendor := strings.TrimSpace(string(data))
		name, ok := pciVendors[vendor]
		if !ok {
			name = "PCI " + vendor
		}
		device, _ := os.ReadFile(filepath.Join(filepath.Dir(vendorFile), "device"))
		if d := strings.TrimSpace(string(device)); d != "" {
			return name + " GPU (" + d + ")", nil
		}
		return name + " GPU", nil
	}
	return "", errs.New(errs.NotFound, "platform.gpu", "no GPU found")
}

// GPUTemperature reads the NVIDIA sensor, then any amdgpu/nouveau hwmon.
func (p *LinuxPlatform) GPUTemperature(ctx context.Context) (*float64, error) {
	if t := nvidiaTemperature(ctx); t != nil {
		return t, nil
	}
	inputs, _ := filepath.Glob(filepath.Join(p.sysfs, "class", "drm", "card[0-9]*", "device", "hwmon", "hwmon*", "temp1_input"))
	for _, in := range inputs {
		data, err := os.ReadFile(in)
		if err != nil {
			continue
		}
		milli, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
		if err != nil {
			continue
		}
		c := milli / 1000
		return &c, nil
	}
	return nil, nil
}

// LastShutdown is unknown on Linux without parsing wtmp; boot time is used
// by callers as the approximation.
func (p *LinuxPlatform) LastShutdown(ctx context.Context) (time.Time, error) {
	return time.Time{}, nil
}
