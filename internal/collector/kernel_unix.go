//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package collector

import (
	"context"

	"golang.org/x/sys/unix"

	"github.com/Guliveer/hostsnap/internal/errs"
)

// KernelVersion returns the uname release string.
func (s *System) KernelVersion(ctx context.Context) (string, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return "", errs.Wrap(errs.ApiUnavailable, "collector.kernel", err)
	}
	release := unix.ByteSliceToString(u.Release[:])
	if release == "" {
		return "", errs.New(errs.NotFound, "collector.kernel", "empty uname release")
	}
	return release, nil
}
