//go:build linux

package platform

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLinuxGPUModelFromDRM(t *testing.T) {
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		t.Skip("nvidia-smi present; DRM fallback not reached")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "class", "drm", "card0", "device", "vendor"), "0x8086\n")
	writeFile(t, filepath.Join(root, "class", "drm", "card0", "device", "device"), "0x46a6\n")

	p := &LinuxPlatform{sysfs: root}
	got, err := p.GPUModel(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != "Intel GPU (0x46a6)" {
		t.Errorf("GPUModel = %q", got)
	}
}

func TestLinuxGPUModelNone(t *testing.T) {
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		t.Skip("nvidia-smi present")
	}
	p := &LinuxPlatform{sysfs: t.TempDir()}
	if _, err := p.GPUModel(context.Background()); err == nil {
		t.Error("expected an error with no DRM cards")
	}
}

func TestLinuxGPUTemperatureFromHwmon(t *testing.T) {
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		t.Skip("nvidia-smi present")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "class", "drm", "card0", "device", "hwmon", "hwmon3", "temp1_input"), "54000\n")

	p := &LinuxPlatform{sysfs: root}
	temp, err := p.GPUTemperature(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if temp == nil || *temp != 54 {
		t.Errorf("GPUTemperature = %v, want 54", temp)
	}
}
