package builtin

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/platform"
	"github.com/Guliveer/hostsnap/pkg/pluginapi"
)

var thermalInfo = pluginapi.Info{
	Name:        "thermal",
	Version:     version,
	Author:      "hostsnap",
	Description: "Hottest CPU and GPU sensor readings",
	Type:        pluginapi.TypeSystemProvider,
}

// Sensor name substrings used to identify CPU temperature sensors.
// Linux:  coretemp_core_0_input, k10temp_tctl_input, acpitz_temp1_input
// macOS:  TC0P (CPU proximity), TC0D (CPU die), TCXC (CPU core)
var cpuSensorKeys = []string{
	"cpu", "core", "package",
	"tctl", "tdie", "k10temp", "coretemp",
	"tc0p", "tc0d", "tcxc",
	"acpitz", "zenpower",
}

// Sensor name substrings used to identify GPU temperature sensors.
var gpuSensorKeys = []string{
	"gpu", "nvidia", "amd", "radeon",
	"tg0p", "tg0d",
	"amdgpu", "nouveau",
}

// Readings outside (minValidTemp, maxValidTemp] are treated as sensor noise.
const (
	minValidTemp = 0.0
	maxValidTemp = 150.0
)

// Thermal reports the maximum CPU and GPU temperatures in Celsius. A
// missing sensor is reported as null.
type Thermal struct {
	pluginapi.Base

	platform platform.Platform
	sensors  func(ctx context.Context) ([]host.TemperatureStat, error)
	logger   *zap.Logger
}

// NewThermal creates the thermal plugin. p supplies the GPU reading when
// no sensor matches; it may be nil.
func NewThermal(p platform.Platform) *Thermal {
	return &Thermal{
		Base:     pluginapi.Base{Meta: thermalInfo},
		platform: p,
		sensors:  host.SensorsTemperaturesWithContext,
		logger:   zap.NewNop(),
	}
}

func (t *Thermal) Configure(pluginapi.Config) error { return nil }

func (t *Thermal) Initialize(ctx context.Context, env pluginapi.Env) error {
	if env.Logger != nil {
		t.logger = env.Logger
	}
	t.SetEnabled(true)
	t.SetReady(true)
	return nil
}

func (t *Thermal) Collect(ctx context.Context, _ pluginapi.Host) (map[string]any, error) {
	temps, err := t.sensors(ctx)
	if err != nil {
		// gopsutil returns partial readings together with warnings.
		t.logger.Debug("Temperature sensors not fully available", zap.Error(err))
	}

	var cpuMax, gpuMax *float64
	for _, s := range temps {
		if !isValidTemperature(s.Temperature) {
			continue
		}
		name := strings.ToLower(s.SensorKey)
		if matchesSensor(name, cpuSensorKeys) {
			cpuMax = hotter(cpuMax, s.Temperature)
		}
		if matchesSensor(name, gpuSensorKeys) {
			gpuMax = hotter(gpuMax, s.Temperature)
		}
	}
	if gpuMax == nil {
		gpuMax = t.platformGPU(ctx)
	}

	return map[string]any{
		"cpu_celsius": cpuMax,
		"gpu_celsius": gpuMax,
	}, nil
}

func (t *Thermal) platformGPU(ctx context.Context) *float64 {
	if t.platform == nil {
		return nil
	}
	temp, err := t.platform.GPUTemperature(ctx)
	if err != nil {
		t.logger.Debug("Platform GPU temperature failed", zap.Error(err))
		return nil
	}
	if temp == nil || !isValidTemperature(*temp) {
		return nil
	}
	return temp
}

func hotter(cur *float64, v float64) *float64 {
	if cur == nil || v > *cur {
		return &v
	}
	return cur
}

func matchesSensor(name string, keys []string) bool {
	for _, key := range keys {
		if strings.Contains(name, key) {
			return true
		}
	}
	return false
}

func isValidTemperature(temp float64) bool {
	return temp > minValidTemp && temp <= maxValidTemp
}
