//go:build !linux

package collector

import (
	"context"
	"runtime"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/models"
)

// Battery is only implemented for Linux sysfs.
func (s *System) Battery(ctx context.Context) (models.Battery, error) {
	return models.Battery{}, errs.New(errs.NotSupported, "collector.battery", runtime.GOOS)
}
