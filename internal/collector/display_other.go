//go:build !linux

package collector

import (
	"context"
	"runtime"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/models"
)

// Displays is only implemented for X11.
func (s *System) Displays(ctx context.Context) ([]models.DisplayInfo, error) {
	return nil, errs.New(errs.NotSupported, "collector.displays", runtime.GOOS)
}

// WindowManager names the built-in compositor of the OS.
func (s *System) WindowManager(ctx context.Context) (string, error) {
	switch runtime.GOOS {
	case "darwin":
		return "Quartz Compositor", nil
	case "windows":
		return "Desktop Window Manager", nil
	}
	return "", errs.New(errs.NotSupported, "collector.window_manager", runtime.GOOS)
}
