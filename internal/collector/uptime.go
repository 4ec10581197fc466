// System uptime collector.
package collector

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/Guliveer/hostsnap/internal/errs"
)

// Uptime returns the time since boot.
func (s *System) Uptime(ctx context.Context) (time.Duration, error) {
	secs, err := host.UptimeWithContext(ctx)
	if err != nil {
		return 0, errs.Wrap(errs.ApiUnavailable, "collector.uptime", err)
	}
	return time.Duration(secs) * time.Second, nil
}
