//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package collector

import (
	"context"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/Guliveer/hostsnap/internal/errs"
)

// KernelVersion returns the kernel build reported by gopsutil.
func (s *System) KernelVersion(ctx context.Context) (string, error) {
	v, err := host.KernelVersionWithContext(ctx)
	if err != nil {
		return "", errs.Wrap(errs.ApiUnavailable, "collector.kernel", err)
	}
	return v, nil
}
