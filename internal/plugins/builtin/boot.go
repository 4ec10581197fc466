package builtin

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/platform"
	"github.com/Guliveer/hostsnap/pkg/pluginapi"
)

var bootInfo = pluginapi.Info{
	Name:        "boot",
	Version:     version,
	Author:      "hostsnap",
	Description: "Boot time, uptime and last shutdown",
	Type:        pluginapi.TypeInfoProvider,
}

// Boot reports when the machine started and last shut down.
type Boot struct {
	pluginapi.Base

	platform platform.Platform
	bootTime func(ctx context.Context) (uint64, error)
	logger   *zap.Logger
}

// NewBoot creates the boot plugin. p may be nil, in which case the last
// shutdown is never reported.
func NewBoot(p platform.Platform) *Boot {
	return &Boot{
		Base:     pluginapi.Base{Meta: bootInfo},
		platform: p,
		bootTime: host.BootTimeWithContext,
		logger:   zap.NewNop(),
	}
}

func (b *Boot) Configure(pluginapi.Config) error { return nil }

func (b *Boot) Initialize(ctx context.Context, env pluginapi.Env) error {
	if env.Logger != nil {
		b.logger = env.Logger
	}
	b.SetEnabled(true)
	b.SetReady(true)
	return nil
}

// Collect takes uptime from the host so it agrees with the snapshot of the
// same run.
func (b *Boot) Collect(ctx context.Context, h pluginapi.Host) (map[string]any, error) {
	const op = "boot.collect"
	v, err := h.Metric(ctx, pluginapi.MetricUptime)
	if err != nil {
		return nil, b.Fail(err)
	}
	uptime, ok := v.(time.Duration)
	if !ok {
		return nil, b.Fail(errs.Errorf(errs.InternalError, op, "uptime has type %T", v))
	}

	out := map[string]any{
		"uptime_seconds": int64(uptime.Seconds()),
	}
	if secs, err := b.bootTime(ctx); err == nil && secs > 0 {
		out["boot_time"] = time.Unix(int64(secs), 0).UTC().Format(time.RFC3339)
	} else if err != nil {
		b.logger.Debug("Boot time unavailable", zap.Error(err))
	}

	if b.platform != nil {
		last, err := b.platform.LastShutdown(ctx)
		switch {
		case err != nil:
			b.logger.Debug("Last shutdown unavailable", zap.Error(err))
		case !last.IsZero():
			out["last_shutdown"] = last.UTC().Format(time.RFC3339)
		}
	}
	return out, nil
}
