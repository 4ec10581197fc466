//go:build windows

// Package service runs the hostsnap daemon under the Windows Service
// Control Manager. From a terminal the daemon runs in the foreground.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/windows/svc"
)

// Name is the SCM service name.
const Name = "HostSnap"

// stopGrace bounds how long Execute waits for the daemon after a stop
// request.
const stopGrace = 10 * time.Second

// Daemon adapts a blocking run function to svc.Handler.
type Daemon struct {
	logger *zap.Logger
	run    func(ctx context.Context)
}

// New creates a service wrapper. run must return once its context is
// cancelled.
func New(logger *zap.Logger, run func(ctx context.Context)) *Daemon {
	return &Daemon{logger: logger, run: run}
}

// IsWindowsService reports whether the process was started by the SCM.
func IsWindowsService() bool {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return isService
}

// Run enters the SCM control loop and blocks until the service stops.
func (d *Daemon) Run() error {
	return svc.Run(Name, d)
}

// Execute implements svc.Handler.
func (d *Daemon) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (ssec bool, errno uint32) {
	changes <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.run(ctx)
	}()

	changes <- svc.Status{
		State:   svc.Running,
		Accepts: svc.AcceptStop | svc.AcceptShutdown,
	}
	d.logger.Info("Windows service started")

	for {
		select {
		case <-done:
			d.logger.Warn("Daemon exited without a stop request")
			return false, 1
		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- c.CurrentStatus
			case svc.Stop, svc.Shutdown:
				d.logger.Info("Windows service stopping")
				changes <- svc.Status{State: svc.StopPending}
				cancel()
				select {
				case <-done:
				case <-time.After(stopGrace):
					d.logger.Warn("Daemon did not stop in time", zap.Duration("grace", stopGrace))
				}
				return false, 0
			default:
				d.logger.Warn("Unexpected service control request",
					zap.Uint32("cmd", uint32(c.Cmd)))
			}
		}
	}
}
