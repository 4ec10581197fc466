package builtin

import (
	"context"
	"time"

	psnet "github.com/shirou/gopsutil/v3/net"
	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/pkg/pluginapi"
)

var netioInfo = pluginapi.Info{
	Name:        "netio",
	Version:     version,
	Author:      "hostsnap",
	Description: "Network throughput since the previous collection",
	Type:        pluginapi.TypeSystemProvider,
}

const baselineKey = "baseline"

type netioConfig struct {
	// Interface restricts counting to one NIC. Empty sums all of them.
	Interface string `yaml:"interface" validate:"max=64"`
	// MaxAge discards a stored baseline older than this.
	MaxAge time.Duration `yaml:"max_age" validate:"min=0"`
}

type counters struct {
	RX uint64    `json:"rx"`
	TX uint64    `json:"tx"`
	At time.Time `json:"at"`
}

// NetIO reports received and transmitted bytes between collections. The
// previous counters live in the plugin store, so a restart keeps the
// baseline and the plugin is ready on its first run.
type NetIO struct {
	pluginapi.Base

	cfg      netioConfig
	store    pluginapi.Store
	logger   *zap.Logger
	now      func() time.Time
	counters func(ctx context.Context, iface string) (counters, error)
	baseline *counters
}

// NewNetIO creates the netio plugin reading live interface counters.
func NewNetIO() *NetIO {
	return &NetIO{
		Base:     pluginapi.Base{Meta: netioInfo},
		cfg:      netioConfig{MaxAge: 24 * time.Hour},
		logger:   zap.NewNop(),
		now:      time.Now,
		counters: readCounters,
	}
}

func (n *NetIO) Configure(cfg pluginapi.Config) error {
	c := netioConfig{MaxAge: 24 * time.Hour}
	if err := decodeConfig("netio.configure", cfg, &c); err != nil {
		return n.Fail(err)
	}
	n.cfg = c
	return nil
}

func (n *NetIO) Initialize(ctx context.Context, env pluginapi.Env) error {
	if env.Logger != nil {
		n.logger = env.Logger
	}
	n.store = env.Store
	n.SetEnabled(true)

	if n.store != nil {
		var b counters
		ok, err := n.store.Get(baselineKey, &b)
		if err != nil {
			n.logger.Warn("Failed to read stored baseline", zap.Error(err))
		}
		if ok && n.now().Sub(b.At) <= n.cfg.MaxAge {
			n.baseline = &b
		}
	}
	n.SetReady(n.baseline != nil)
	return nil
}

// Collect reports totals always and deltas once a baseline exists. A
// counter that went backwards (NIC reset) counts from zero.
func (n *NetIO) Collect(ctx context.Context, _ pluginapi.Host) (map[string]any, error) {
	cur, err := n.counters(ctx, n.cfg.Interface)
	if err != nil {
		return nil, n.Fail(err)
	}
	cur.At = n.now()

	out := map[string]any{
		"rx_bytes_total": cur.RX,
		"tx_bytes_total": cur.TX,
	}
	if prev := n.baseline; prev != nil {
		rx, tx := delta(prev.RX, cur.RX), delta(prev.TX, cur.TX)
		out["rx_bytes"] = rx
		out["tx_bytes"] = tx
		if secs := cur.At.Sub(prev.At).Seconds(); secs > 0 {
			out["rx_bytes_per_sec"] = float64(rx) / secs
			out["tx_bytes_per_sec"] = float64(tx) / secs
			out["interval_seconds"] = secs
		}
	}

	n.baseline = &cur
	n.SetReady(true)
	if n.store != nil {
		if err := n.store.Set(baselineKey, cur, n.cfg.MaxAge); err != nil {
			n.logger.Warn("Failed to persist baseline", zap.Error(err))
		}
	}
	return out, nil
}

func delta(prev, cur uint64) uint64 {
	if cur < prev {
		return cur
	}
	return cur - prev
}

func readCounters(ctx context.Context, iface string) (counters, error) {
	const op = "netio.collect"
	stats, err := psnet.IOCountersWithContext(ctx, iface != "")
	if err != nil {
		return counters{}, errs.WrapIO(op, err)
	}

	var c counters
	for _, s := range stats {
		if iface != "" && s.Name != iface {
			continue
		}
		c.RX += s.BytesRecv
		c.TX += s.BytesSent
		if iface != "" {
			return c, nil
		}
	}
	if iface != "" {
		return counters{}, errs.Errorf(errs.NotFound, op, "interface %q not found", iface)
	}
	return c, nil
}
