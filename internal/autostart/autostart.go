// Package autostart registers the hostsnap daemon with the platform's
// service manager: systemd on Linux, launchd on macOS and the Service
// Control Manager on Windows.
package autostart

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode determines whether the daemon is installed system-wide or per-user.
type Mode int

const (
	SystemMode Mode = iota // System-wide service (requires root/admin)
	UserMode               // Per-user service/agent
)

func (m Mode) String() string {
	switch m {
	case SystemMode:
		return "system"
	case UserMode:
		return "user"
	default:
		return "unknown"
	}
}

// ParseMode parses "system" or "user".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "system":
		return SystemMode, nil
	case "user":
		return UserMode, nil
	default:
		return 0, fmt.Errorf("invalid install mode %q (expected \"system\" or \"user\")", s)
	}
}

// Manager provides platform-specific autostart installation.
type Manager interface {
	IsInstalled() (bool, error)
	// Install registers execPath, started with args, and starts it.
	Install(execPath string, args ...string) error
	Uninstall() error
	ServiceName() string
}

// commandLine joins a command for a service definition, quoting words that
// contain whitespace or quotes.
func commandLine(execPath string, args []string) string {
	words := make([]string, 0, len(args)+1)
	for _, w := range append([]string{execPath}, args...) {
		if w == "" || strings.ContainsAny(w, " \t\"'\\") {
			w = strconv.Quote(w)
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}
