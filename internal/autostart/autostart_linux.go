//go:build linux

package autostart

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const serviceName = "hostsnap"

// unitTemplate is the systemd unit written during installation.
const unitTemplate = `[Unit]
Description=hostsnap system snapshot daemon
After=network-online.target

[Service]
Type=simple
ExecStart={command}
Restart=on-failure
RestartSec=10
SyslogIdentifier=hostsnap
{hardening}
[Install]
WantedBy={target}
`

const systemHardening = `NoNewPrivileges=true
ProtectSystem=strict
ProtectHome=read-only
StateDirectory=hostsnap
PrivateTmp=true
`

type linuxManager struct {
	mode     Mode
	unitPath string
}

// New returns a Manager that uses systemd. UserMode installs a
// systemd --user unit.
func New(mode Mode) Manager {
	m := &linuxManager{mode: mode, unitPath: "/etc/systemd/system/hostsnap.service"}
	if mode == UserMode {
		dir, err := os.UserConfigDir()
		if err != nil {
			home, _ := os.UserHomeDir()
			dir = filepath.Join(home, ".config")
		}
		m.unitPath = filepath.Join(dir, "systemd", "user", "hostsnap.service")
	}
	return m
}

func (l *linuxManager) ServiceName() string { return serviceName }

// unit renders the unit file for the given command line.
func (l *linuxManager) unit(command string) string {
	target, hardening := "multi-user.target", systemHardening
	if l.mode == UserMode {
		target, hardening = "default.target", ""
	}
	r := strings.NewReplacer("{command}", command, "{hardening}", hardening, "{target}", target)
	return r.Replace(unitTemplate)
}

func (l *linuxManager) systemctl(args ...string) *exec.Cmd {
	if l.mode == UserMode {
		args = append([]string{"--user"}, args...)
	}
	return exec.Command("systemctl", args...)
}

func (l *linuxManager) IsInstalled() (bool, error) {
	_, err := os.Stat(l.unitPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking unit file: %w", err)
	}
	return true, nil
}

// Install writes the unit file, reloads the daemon, enables and starts the service.
func (l *linuxManager) Install(execPath string, args ...string) error {
	if err := os.MkdirAll(filepath.Dir(l.unitPath), 0755); err != nil {
		return fmt.Errorf("creating unit directory: %w", err)
	}
	unit := l.unit(commandLine(execPath, args))
	if err := os.WriteFile(l.unitPath, []byte(unit), 0644); err != nil {
		return fmt.Errorf("writing unit file: %w", err)
	}

	for _, args := range [][]string{
		{"daemon-reload"},
		{"enable", serviceName},
		{"start", serviceName},
	} {
		if err := l.systemctl(args...).Run(); err != nil {
			return fmt.Errorf("running systemctl %s: %w", strings.Join(args, " "), err)
		}
	}
	return nil
}

// Uninstall stops, disables and removes the service.
func (l *linuxManager) Uninstall() error {
	// Best-effort; the service may already be inactive.
	_ = l.systemctl("stop", serviceName).Run()
	_ = l.systemctl("disable", serviceName).Run()

	if err := os.Remove(l.unitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing unit file: %w", err)
	}

	_ = l.systemctl("daemon-reload").Run()
	return nil
}
