//go:build darwin

package collector

import (
	"context"

	"golang.org/x/sys/unix"

	"github.com/Guliveer/hostsnap/internal/errs"
)

// Host returns the hardware model identifier (e.g. "MacBookPro18,3").
func (s *System) Host(ctx context.Context) (string, error) {
	model, err := unix.Sysctl("hw.model")
	if err != nil {
		return "", errs.Wrap(errs.ApiUnavailable, "collector.host", err)
	}
	return model, nil
}
