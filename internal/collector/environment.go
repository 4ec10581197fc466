// Session environment collector: desktop environment and login shell.
package collector

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Guliveer/hostsnap/internal/errs"
)

// shellNames maps shell executables to display names.
var shellNames = map[string]string{
	"bash":           "Bash",
	"zsh":            "Zsh",
	"fish":           "Fish",
	"nu":             "Nushell",
	"sh":             "SH",
	"dash":           "Dash",
	"ksh":            "KornShell",
	"tcsh":           "tcsh",
	"elvish":         "Elvish",
	"xonsh":          "Xonsh",
	"pwsh":           "PowerShell",
	"powershell":     "PowerShell",
	"cmd":            "Command Prompt",
	"pwsh.exe":       "PowerShell",
	"powershell.exe": "Windows PowerShell",
	"cmd.exe":        "Command Prompt",
}

// DesktopEnvironment reports XDG_CURRENT_DESKTOP (first entry) or
// DESKTOP_SESSION.
func (s *System) DesktopEnvironment(ctx context.Context) (string, error) {
	switch runtime.GOOS {
	case "darwin":
		return "Aqua", nil
	case "windows":
		return "Windows Shell", nil
	}
	if xdg, ok := s.env("XDG_CURRENT_DESKTOP"); ok {
		de, _, _ := strings.Cut(xdg, ":")
		return de, nil
	}
	if session, ok := s.env("DESKTOP_SESSION"); ok {
		return session, nil
	}
	return "", errs.New(errs.ApiUnavailable, "collector.desktop_environment", "no desktop session detected")
}

// Shell reports the login shell from SHELL, or ComSpec on Windows.
func (s *System) Shell(ctx context.Context) (string, error) {
	path, ok := s.env("SHELL")
	if !ok && runtime.GOOS == "windows" {
		path, ok = s.env("ComSpec")
	}
	if !ok {
		return "", errs.New(errs.NotFound, "collector.shell", "SHELL is not set")
	}
	return shellName(path), nil
}

// shellName maps a shell path through shellNames, else its basename.
func shellName(path string) string {
	base := path
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		base = path[i+1:]
	}
	if name, ok := shellNames[strings.ToLower(base)]; ok {
		return name
	}
	if name, ok := shellNames[strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))]; ok {
		return name
	}
	return base
}
