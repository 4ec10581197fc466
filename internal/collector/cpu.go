// CPU topology and model collector.
package collector

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/models"
)

// CPUCores returns physical and logical core counts.
func (s *System) CPUCores(ctx context.Context) (models.CPUCores, error) {
	logical, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return models.CPUCores{}, errs.Wrap(errs.ApiUnavailable, "collector.cpu_cores", err)
	}
	physical, err := cpu.CountsWithContext(ctx, false)
	if err != nil || physical == 0 {
		// Some VMs hide the topology; report logical as physical.
		s.logger.Debug("Physical core count unavailable")
		physical = logical
	}
	return models.CPUCores{Physical: uint(physical), Logical: uint(logical)}, nil
}

// CPUModel returns the model name of the first processor.
func (s *System) CPUModel(ctx context.Context) (string, error) {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return "", errs.Wrap(errs.ApiUnavailable, "collector.cpu_model", err)
	}
	for _, info := range infos {
		if name := strings.TrimSpace(info.ModelName); name != "" {
			return strings.Join(strings.Fields(name), " "), nil
		}
	}
	return "", errs.New(errs.NotFound, "collector.cpu_model", "no processor model reported")
}

// GPUModel delegates to the platform layer.
func (s *System) GPUModel(ctx context.Context) (string, error) {
	if s.platform == nil {
		return "", errs.New(errs.NotSupported, "collector.gpu_model", "no platform probe")
	}
	return s.platform.GPUModel(ctx)
}
