//go:build windows

// Windows-specific Platform implementation.
// Uses system commands for Windows-specific metrics.
package platform

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/Guliveer/hostsnap/internal/errs"
)

// WindowsPlatform implements Platform for Windows systems.
type WindowsPlatform struct{}

// New creates a new Windows platform instance.
func New() Platform {
	return &WindowsPlatform{}
}

// Name returns the platform identifier.
func (p *WindowsPlatform) Name() string { return "windows" }

// GPUModel asks nvidia-smi first, then WMI through PowerShell.
func (p *WindowsPlatform) GPUModel(ctx context.Context) (string, error) {
	if name, err := nvidiaQuery(ctx, "name"); err == nil {
		return name, nil
	}
	out, err := exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command",
		"(Get-CimInstance Win32_VideoController | Select-Object -First 1).Name").Output()
	if err != nil {
		return "", errs.Wrap(errs.ApiUnavailable, "platform.gpu", err)
	}
	name := strings.TrimSpace(string(out))
	if name == "" {
		return "", errs.New(errs.NotFound, "platform.gpu", "no video controller")
	}
	return name, nil
}

// GPUTemperature attempts to read GPU temperature via nvidia-smi.
// Returns nil if NVIDIA GPU or nvidia-smi is not available.
func (p *WindowsPlatform) GPUTemperature(ctx context.Context) (*float64, error) {
	return nvidiaTemperature(ctx), nil
}

// LastShutdown queries the System event log for the newest event 1074.
func (p *WindowsPlatform) LastShutdown(ctx context.Context) (time.Time, error) {
	out, err := exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command",
		"(Get-WinEvent -FilterHashtable @{LogName='System';Id=1074} -MaxEvents 1).TimeCreated.ToUniversalTime().ToString('o')").Output()
	if err != nil {
		return time.Time{}, errs.Wrap(errs.ApiUnavailable, "platform.shutdown", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(out)))
	if err != nil {
		return time.Time{}, errs.Wrap(errs.ParseError, "platform.shutdown", err)
	}
	return ts, nil
}
