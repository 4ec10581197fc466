//go:build darwin

package autostart

import (
	"fmt"
	"html"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const serviceLabel = "io.hostsnap.daemon"

const plistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>io.hostsnap.daemon</string>
    <key>ProgramArguments</key>
    <array>
{arguments}    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <true/>
    <key>StandardOutPath</key>
    <string>{logDir}/hostsnap.stdout.log</string>
    <key>StandardErrorPath</key>
    <string>{logDir}/hostsnap.stderr.log</string>
</dict>
</plist>
`

type darwinManager struct {
	plistPath string
	logDir    string
}

// New returns a Manager that uses launchd. UserMode installs a LaunchAgent,
// SystemMode a LaunchDaemon.
func New(mode Mode) Manager {
	if mode == UserMode {
		home, _ := os.UserHomeDir()
		return &darwinManager{
			plistPath: filepath.Join(home, "Library", "LaunchAgents", serviceLabel+".plist"),
			logDir:    filepath.Join(home, "Library", "Logs", "hostsnap"),
		}
	}
	return &darwinManager{
		plistPath: filepath.Join("/Library/LaunchDaemons", serviceLabel+".plist"),
		logDir:    "/var/log/hostsnap",
	}
}

func (d *darwinManager) ServiceName() string { return serviceLabel }

func (d *darwinManager) plist(execPath string, args []string) string {
	var b strings.Builder
	for _, a := range append([]string{execPath}, args...) {
		fmt.Fprintf(&b, "        <string>%s</string>\n", html.EscapeString(a))
	}
	r := strings.NewReplacer("{arguments}", b.String(), "{logDir}", html.EscapeString(d.logDir))
	return r.Replace(plistTemplate)
}

func (d *darwinManager) IsInstalled() (bool, error) {
	_, err := os.Stat(d.plistPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking plist file: %w", err)
	}
	return true, nil
}

func (d *darwinManager) Install(execPath string, args ...string) error {
	for _, dir := range []string{d.logDir, filepath.Dir(d.plistPath)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(d.plistPath, []byte(d.plist(execPath, args)), 0644); err != nil {
		return fmt.Errorf("creating plist: %w", err)
	}
	if err := exec.Command("launchctl", "load", "-w", d.plistPath).Run(); err != nil {
		return fmt.Errorf("loading plist: %w", err)
	}
	return nil
}

func (d *darwinManager) Uninstall() error {
	_ = exec.Command("launchctl", "unload", d.plistPath).Run()
	if err := os.Remove(d.plistPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing plist: %w", err)
	}
	return nil
}
