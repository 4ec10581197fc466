//go:build windows

package autostart

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/Guliveer/hostsnap/internal/service"
)

const serviceDesc = "Collects system snapshots and serves them over a local HTTP API"

// restartDelay matches RestartSec in the systemd unit.
const restartDelay = 10 * time.Second

// windowsManager installs hostsnap as an SCM service. The SCM has no
// per-user services, so both modes install the same service.
type windowsManager struct{}

// New returns a Manager that uses the Windows Service Control Manager.
func New(mode Mode) Manager {
	return &windowsManager{}
}

func (w *windowsManager) ServiceName() string { return service.Name }

// withService connects to the SCM and opens the hostsnap service.
func withService(fn func(s *mgr.Service) error) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connecting to SCM: %w", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(service.Name)
	if err != nil {
		return fmt.Errorf("opening service: %w", err)
	}
	defer s.Close()
	return fn(s)
}

func (w *windowsManager) IsInstalled() (bool, error) {
	err := withService(func(*mgr.Service) error { return nil })
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST):
		return false, nil
	default:
		return false, err
	}
}

// Install creates an auto-start service that the SCM restarts after a
// crash, then starts it.
func (w *windowsManager) Install(execPath string, args ...string) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connecting to SCM: %w", err)
	}
	defer m.Disconnect()

	s, err := m.CreateService(service.Name, execPath, mgr.Config{
		DisplayName: "hostsnap",
		Description: serviceDesc,
		StartType:   mgr.StartAutomatic,
	}, args...)
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}
	defer s.Close()

	actions := []mgr.RecoveryAction{
		{Type: mgr.ServiceRestart, Delay: restartDelay},
		{Type: mgr.ServiceRestart, Delay: restartDelay},
		{Type: mgr.NoAction},
	}
	if err := s.SetRecoveryActions(actions, uint32((24 * time.Hour).Seconds())); err != nil {
		return fmt.Errorf("setting recovery actions: %w", err)
	}

	if err := s.Start(); err != nil {
		return fmt.Errorf("starting service: %w", err)
	}
	return nil
}

// Uninstall stops the service, waiting briefly for it to exit, and deletes it.
func (w *windowsManager) Uninstall() error {
	return withService(func(s *mgr.Service) error {
		status, err := s.Control(svc.Stop)
		deadline := time.Now().Add(restartDelay)
		for err == nil && status.State != svc.Stopped && time.Now().Before(deadline) {
			time.Sleep(250 * time.Millisecond)
			status, err = s.Query()
		}

		if err := s.Delete(); err != nil {
			return fmt.Errorf("deleting service: %w", err)
		}
		return nil
	})
}
