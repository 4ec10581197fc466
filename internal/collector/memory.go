// RAM usage collector: used and total memory bytes via gopsutil.
package collector

import (
	"context"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/models"
)

// Memory returns used and total physical memory.
func (s *System) Memory(ctx context.Context) (models.ResourceUsage, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return models.ResourceUsage{}, errs.Wrap(errs.ApiUnavailable, "collector.memory", err)
	}
	return models.ResourceUsage{
		UsedBytes:  v.Used,
		TotalBytes: v.Total,
	}, nil
}
