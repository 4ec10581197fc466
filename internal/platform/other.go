//go:build !linux && !windows

package platform

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/Guliveer/hostsnap/internal/errs"
)

// GenericPlatform serves darwin and the BSDs.
type GenericPlatform struct{}

// New creates the platform for the running OS.
func New() Platform {
	return &GenericPlatform{}
}

// Name returns runtime.GOOS.
func (p *GenericPlatform) Name() string { return runtime.GOOS }

// GPUModel reads the chipset model from system_profiler on macOS.
func (p *GenericPlatform) GPUModel(ctx context.Context) (string, error) {
	if runtime.GOOS != "darwin" {
		return "", errs.New(errs.NotSupported, "platform.gpu", runtime.GOOS)
	}
	out, err := exec.CommandContext(ctx, "system_profiler", "SPDisplaysDataType").Output()
	if err != nil {
		return "", errs.Wrap(errs.ApiUnavailable, "platform.gpu", err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		if k, v, ok := strings.Cut(strings.TrimSpace(line), ":"); ok && k == "Chipset Model" {
			return strings.TrimSpace(v), nil
		}
	}
	return "", errs.New(errs.NotFound, "platform.gpu", "no chipset model reported")
}

// GPUTemperature is not available without private APIs.
func (p *GenericPlatform) GPUTemperature(ctx context.Context) (*float64, error) {
	return nil, nil
}

// LastShutdown is unknown.
func (p *GenericPlatform) LastShutdown(ctx context.Context) (time.Time, error) {
	return time.Time{}, nil
}
