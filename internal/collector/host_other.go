//go:build !linux && !darwin

package collector

import (
	"context"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/Guliveer/hostsnap/internal/errs"
)

// Host falls back to the hostname where no model identifier is exposed.
func (s *System) Host(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", errs.Wrap(errs.ApiUnavailable, "collector.host", err)
	}
	if info.Hostname == "" {
		return "", errs.New(errs.NotFound, "collector.host", "no hostname")
	}
	return info.Hostname, nil
}
