package system

import (
	"context"
	"testing"

	"github.com/Guliveer/hostsnap/internal/cache"
	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/pkg/pluginapi"
)

// cachedMetrics are all metrics with run-scoped caching.
var cachedMetrics = []string{
	pluginapi.MetricMemory,
	pluginapi.MetricCPUCores,
	pluginapi.MetricCPUModel,
	pluginapi.MetricGPUModel,
	pluginapi.MetricOS,
	pluginapi.MetricKernelVersion,
	pluginapi.MetricHost,
	pluginapi.MetricDesktopEnvironment,
	pluginapi.MetricWindowManager,
	pluginapi.MetricShell,
	pluginapi.MetricDisks,
	pluginapi.MetricDisplays,
	pluginapi.MetricNetworkInterfaces,
	pluginapi.MetricBattery,
}

func TestEveryMetricCollectedAtMostOnce(t *testing.T) {
	ctx := context.Background()
	for _, key := range cachedMetrics {
		t.Run(key, func(t *testing.T) {
			src := newCountingSource()
			d := New(src, nil)
			m := cache.New()
			defer m.Close()

			host := d.Host(m)
			for i := 0; i < 3; i++ {
				if _, err := host.Metric(ctx, key); err != nil {
					t.Fatalf("Metric(%s): %v", key, err)
				}
			}
			if src.calls[key] != 1 {
				t.Errorf("collector called %d times, want 1", src.calls[key])
			}

			fresh := cache.New()
			defer fresh.Close()
			if _, err := d.Host(fresh).Metric(ctx, key); err != nil {
				t.Fatal(err)
			}
			if src.calls[key] != 2 {
				t.Errorf("new cache manager should recompute; calls = %d", src.calls[key])
			}
		})
	}
}

func TestFailedCollectionIsRetried(t *testing.T) {
	ctx := context.Background()
	for _, key := range cachedMetrics {
		t.Run(key, func(t *testing.T) {
			src := newCountingSource()
			src.failFirst[key] = true
			d := New(src, nil)
			m := cache.New()
			defer m.Close()

			host := d.Host(m)
			if _, err := host.Metric(ctx, key); errs.KindOf(err) != errs.ApiUnavailable {
				t.Fatalf("first call err = %v, want ApiUnavailable", err)
			}
			if _, err := host.Metric(ctx, key); err != nil {
				t.Fatalf("second call err = %v, want success", err)
			}
			if src.calls[key] != 2 {
				t.Errorf("collector called %d times, want 2", src.calls[key])
			}
		})
	}
}

func TestUptimeNeverCached(t *testing.T) {
	src := newCountingSource()
	d := New(src, nil)
	m := cache.New()
	defer m.Close()

	first, _ := d.Uptime(context.Background(), m)
	second, _ := d.Uptime(context.Background(), m)
	if src.calls["uptime"] != 2 {
		t.Errorf("uptime collector called %d times, want 2", src.calls["uptime"])
	}
	if second <= first {
		t.Errorf("uptime should be fresh: %v then %v", first, second)
	}
	if m.Has(pluginapi.MetricUptime) {
		t.Error("uptime must not be stored")
	}
}

func TestUptimeRejectsUnusableCache(t *testing.T) {
	src := newCountingSource()
	d := New(src, nil)
	closed := cache.New()
	closed.Close()

	for name, m := range map[string]*cache.Manager{"nil": nil, "closed": closed} {
		if _, err := d.Uptime(context.Background(), m); errs.KindOf(err) != errs.InvalidArgument {
			t.Errorf("%s cache: Uptime() error = %v, want InvalidArgument", name, err)
		}
	}
	if src.calls["uptime"] != 0 {
		t.Errorf("uptime collector called %d times, want 0", src.calls["uptime"])
	}
}

func TestListsAreCopies(t *testing.T) {
	src := newCountingSource()
	d := New(src, nil)
	m := cache.New()
	defer m.Close()
	ctx := context.Background()

	disks, _ := d.Disks(ctx, m)
	disks[0].MountPoint = "/mutated"
	again, _ := d.Disks(ctx, m)
	if again[0].MountPoint != "/" {
		t.Errorf("cached list was mutated through a returned slice: %q", again[0].MountPoint)
	}
	if len(again) != len(src.disks) {
		t.Errorf("len = %d, want %d", len(again), len(src.disks))
	}
}

func TestPrimaryInterface(t *testing.T) {
	ctx := context.Background()

	src := newCountingSource()
	src.route = "eth0"
	d := New(src, nil)
	m := cache.New()
	iface, err := d.PrimaryInterface(ctx, m)
	if err != nil || iface.Name != "eth0" {
		t.Errorf("with default route: %q, %v", iface.Name, err)
	}
	m.Close()

	src = newCountingSource()
	d = New(src, nil)
	m = cache.New()
	defer m.Close()
	iface, err = d.PrimaryInterface(ctx, m)
	if err != nil || iface.Name != "wlan0" {
		t.Errorf("fallback: %q, %v; want first up non-loopback", iface.Name, err)
	}
	d.PrimaryInterface(ctx, m)
	if src.calls["network_interfaces"] != 1 || src.calls["default_route"] != 1 {
		t.Errorf("derived metric should be cached: %v", src.calls)
	}
}

func TestPrimaryInterfaceUnknownRoute(t *testing.T) {
	src := newCountingSource()
	src.route = "tun9"
	m := cache.New()
	defer m.Close()
	_, err := New(src, nil).PrimaryInterface(context.Background(), m)
	if errs.KindOf(err) != errs.NotFound {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestDerivedDiskAndDisplay(t *testing.T) {
	src := newCountingSource()
	d := New(src, nil)
	m := cache.New()
	defer m.Close()
	ctx := context.Background()

	usage, err := d.DiskUsage(ctx, m)
	if err != nil || usage.UsedBytes != 200 || usage.TotalBytes != 500 {
		t.Errorf("DiskUsage = %+v, %v", usage, err)
	}
	sys, _ := d.SystemDisk(ctx, m)
	if sys.MountPoint != "/" {
		t.Errorf("SystemDisk = %q", sys.MountPoint)
	}
	disp, err := d.PrimaryDisplay(ctx, m)
	if err != nil || disp.ID != 2 {
		t.Errorf("PrimaryDisplay = %+v, %v", disp, err)
	}
	if src.calls["disks"] != 1 || src.calls["displays"] != 1 {
		t.Errorf("derived metrics should reuse cached lists: %v", src.calls)
	}
}

func TestSnapshotRecordsErrors(t *testing.T) {
	src := newCountingSource()
	src.failFirst["battery"] = true
	src.failFirst["displays"] = true
	d := New(src, nil)
	m := cache.New()
	defer m.Close()

	snap := d.Snapshot(context.Background(), m)
	if snap.Battery.IsSome() || snap.Displays.IsSome() {
		t.Error("failed metrics should be absent")
	}
	if _, ok := snap.Errors[pluginapi.MetricBattery]; !ok {
		t.Error("battery error should be recorded")
	}
	if v, ok := snap.Memory.Get(); !ok || v.TotalBytes != 2 {
		t.Errorf("memory = %+v, %v", v, ok)
	}
	if !snap.Uptime.IsSome() || !snap.PrimaryInterface.IsSome() || !snap.DiskUsage.IsSome() {
		t.Error("remaining metrics should be present")
	}

	again := d.Snapshot(context.Background(), m)
	if !again.Battery.IsSome() || len(again.Errors) != 0 {
		t.Errorf("retry within the same run should succeed: %v", again.Errors)
	}
}

func TestUnknownMetric(t *testing.T) {
	m := cache.New()
	defer m.Close()
	_, err := New(newCountingSource(), nil).Host(m).Metric(context.Background(), "bogus")
	if errs.KindOf(err) != errs.InvalidArgument {
		t.Errorf("err = %v, want InvalidArgument", err)
	}
}
