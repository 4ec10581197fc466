//go:build !windows

// Package service runs the hostsnap daemon under the Windows Service
// Control Manager. Elsewhere the daemon always runs in the foreground.
package service

import (
	"context"

	"go.uber.org/zap"
)

// Name is the SCM service name.
const Name = "HostSnap"

// Daemon runs its function directly.
type Daemon struct {
	logger *zap.Logger
	run    func(ctx context.Context)
}

// New creates a service wrapper.
func New(logger *zap.Logger, run func(ctx context.Context)) *Daemon {
	return &Daemon{logger: logger, run: run}
}

// IsWindowsService always returns false outside Windows.
func IsWindowsService() bool { return false }

// Run calls the daemon function in the foreground.
func (d *Daemon) Run() error {
	d.run(context.Background())
	return nil
}
