//go:build linux

package collector

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/models"
)

// Battery reads the first power supply of type "Battery" from sysfs.
func (s *System) Battery(ctx context.Context) (models.Battery, error) {
	return readBattery(filepath.Join(s.sysfs, "class", "power_supply"))
}

func readBattery(dir string) (models.Battery, error) {
	const op = "collector.battery"
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Battery{}, errs.New(errs.NotFound, op, "power supply directory not found")
		}
		return models.Battery{}, errs.WrapIO(op, err)
	}

	var path string
	for _, e := range entries {
		if t, ok := readSysValue(filepath.Join(dir, e.Name(), "type")); ok && t == "Battery" {
			path = filepath.Join(dir, e.Name())
			break
		}
	}
	if path == "" {
		return models.Battery{}, errs.New(errs.NotFound, op, "no battery found")
	}

	var b models.Battery
	if raw, ok := readSysValue(filepath.Join(path, "capacity")); ok {
		if pct, err := strconv.ParseUint(raw, 10, 8); err == nil && pct <= 100 {
			b.Percentage = models.Some(uint8(pct))
		}
	}

	status, _ := readSysValue(filepath.Join(path, "status"))
	b.Status = batteryStatus(status, b.Percentage)

	var timeFile string
	switch b.Status {
	case models.BatteryDischarging:
		timeFile = "time_to_empty_now"
	case models.BatteryCharging:
		timeFile = "time_to_full_now"
	default:
		return b, nil
	}
	if raw, ok := readSysValue(filepath.Join(path, timeFile)); ok {
		if minutes, err := strconv.ParseInt(raw, 10, 32); err == nil && minutes > 0 {
			b.TimeRemaining = models.Some(time.Duration(minutes) * time.Minute)
		}
	}
	return b, nil
}

// batteryStatus maps the sysfs status string. "Not charging" means the
// charger is holding a full battery or a charge threshold was reached.
func batteryStatus(status string, pct models.Option[uint8]) models.BatteryStatus {
	switch status {
	case "Charging":
		return models.BatteryCharging
	case "Discharging":
		return models.BatteryDischarging
	case "Full":
		return models.BatteryFull
	case "Not charging":
		if v, ok := pct.Get(); ok && v == 100 {
			return models.BatteryFull
		}
		return models.BatteryDischarging
	}
	return models.BatteryUnknown
}

func readSysValue(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(string(data))
	return v, v != ""
}
