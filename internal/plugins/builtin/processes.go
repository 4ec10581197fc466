package builtin

import (
	"context"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/models"
	"github.com/Guliveer/hostsnap/pkg/pluginapi"
)

var processesInfo = pluginapi.Info{
	Name:        "processes",
	Version:     version,
	Author:      "hostsnap",
	Description: "Top processes by CPU usage",
	Type:        pluginapi.TypeSystemProvider,
}

// normalizedStatuses maps raw gopsutil status strings to a consistent set of
// display values used across all platforms.
var normalizedStatuses = map[string]string{
	"running":               "running",
	"sleeping":              "sleeping",
	"idle":                  "idle",
	"stopped":               "stopped",
	"zombie":                "zombie",
	"wait":                  "sleeping",
	"lock":                  "sleeping",
	"sleep":                 "sleeping",
	"disk-sleep":            "sleeping",
	"tracing-stop":          "stopped",
	"dead":                  "zombie",
	"wake-kill":             "sleeping",
	"waking":                "running",
	"parked":                "idle",
	"idle-interrupt":        "idle",
	"suspended":             "stopped",
	"uninterruptible-sleep": "sleeping",
}

// normalizeStatus maps a raw status to a display value. An empty status
// (common on Windows) is inferred from CPU activity.
func normalizeStatus(raw string, cpuPct float64) string {
	if raw != "" {
		key := strings.ToLower(strings.TrimSpace(raw))
		if mapped, ok := normalizedStatuses[key]; ok {
			return mapped
		}
		return key
	}
	if cpuPct > 0 {
		return "running"
	}
	return "idle"
}

type processesConfig struct {
	TopN int `yaml:"top_n" validate:"min=1,max=100"`
}

// Processes reports the top N processes by CPU usage.
type Processes struct {
	pluginapi.Base

	cfg  processesConfig
	list func(ctx context.Context) ([]models.ProcessInfo, error)
}

// NewProcesses creates the processes plugin reading the live process table.
func NewProcesses() *Processes {
	return &Processes{
		Base: pluginapi.Base{Meta: processesInfo},
		cfg:  processesConfig{TopN: 10},
		list: listProcesses,
	}
}

func (p *Processes) Configure(cfg pluginapi.Config) error {
	c := processesConfig{TopN: 10}
	if err := decodeConfig("processes.configure", cfg, &c); err != nil {
		return p.Fail(err)
	}
	p.cfg = c
	return nil
}

func (p *Processes) Initialize(ctx context.Context, env pluginapi.Env) error {
	p.SetEnabled(true)
	p.SetReady(true)
	return nil
}

// Collect returns the busiest processes first. Processes that vanish or
// deny access during the scan are skipped.
func (p *Processes) Collect(ctx context.Context, _ pluginapi.Host) (map[string]any, error) {
	infos, err := p.list(ctx)
	if err != nil {
		return nil, p.Fail(errs.WrapIO("processes.collect", err))
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].CPU > infos[j].CPU
	})
	total := len(infos)
	if len(infos) > p.cfg.TopN {
		infos = infos[:p.cfg.TopN]
	}

	return map[string]any{
		"total": total,
		"top":   infos,
	}, nil
}

func listProcesses(ctx context.Context) ([]models.ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]models.ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		cpuPct, _ := p.CPUPercentWithContext(ctx)
		memPct, _ := p.MemoryPercentWithContext(ctx)
		status, _ := p.StatusWithContext(ctx)

		rawStatus := ""
		if len(status) > 0 {
			rawStatus = status[0]
		}

		infos = append(infos, models.ProcessInfo{
			PID:    p.Pid,
			Name:   name,
			CPU:    cpuPct,
			Memory: float64(memPct),
			Status: normalizeStatus(rawStatus, cpuPct),
		})
	}
	return infos, nil
}
