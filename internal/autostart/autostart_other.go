//go:build !linux && !darwin && !windows

package autostart

import (
	"github.com/Guliveer/hostsnap/internal/errs"
)

type unsupportedManager struct{}

// New returns a Manager whose operations report NotSupported.
func New(mode Mode) Manager { return unsupportedManager{} }

func (unsupportedManager) ServiceName() string { return "hostsnap" }

func (unsupportedManager) IsInstalled() (bool, error) { return false, nil }

func (unsupportedManager) Install(execPath string, args ...string) error {
	return errs.New(errs.NotSupported, "autostart.install", "no service manager support on this platform")
}

func (unsupportedManager) Uninstall() error {
	return errs.New(errs.NotSupported, "autostart.uninstall", "no service manager support on this platform")
}
