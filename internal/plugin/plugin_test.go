package plugin

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/cache"
	"github.com/Guliveer/hostsnap/internal/errs"
)

func newTestPlugin(mod *fakeModule) *Plugin {
	return newPlugin(mod.Info(), mod, nil, memEnv, zap.NewNop())
}

func TestLifecycle(t *testing.T) {
	mod := newFake("demo")
	p := newTestPlugin(mod)
	ctx := context.Background()

	if p.State() != StateUnconfigured {
		t.Fatalf("initial state = %v", p.State())
	}
	if p.IsEnabled() || p.IsReady() {
		t.Error("uninitialized plugin reports enabled or ready")
	}

	if err := p.SetConfig("threshold: 5\nname: x\n"); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}
	if p.State() != StateConfigured {
		t.Errorf("state after SetConfig = %v", p.State())
	}

	if err := p.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if p.State() != StateReady {
		t.Errorf("state after Initialize = %v", p.State())
	}
	if got, _ := mod.config.Int("threshold"); got != 5 {
		t.Errorf("module saw threshold %d, want 5", got)
	}

	if _, err := p.JSON(); !errors.Is(err, errs.NotFound) {
		t.Errorf("JSON() before collect error = %v, want NotFound", err)
	}
	if f, err := p.Fields(); err != nil || len(f) != 0 {
		t.Errorf("Fields() before collect = %v, %v", f, err)
	}

	m := cache.New()
	defer m.Close()
	if err := p.CollectData(ctx, m); err != nil {
		t.Fatalf("CollectData() error = %v", err)
	}
	if p.State() != StateDataCollected {
		t.Errorf("state after collect = %v", p.State())
	}
	out, err := p.JSON()
	if err != nil || out != `{"value":1}` {
		t.Errorf("JSON() = %q, %v", out, err)
	}

	if err := p.Unload(); err != nil {
		t.Fatalf("Unload() error = %v", err)
	}
	if err := p.Unload(); err != nil {
		t.Fatalf("second Unload() error = %v", err)
	}
	if mod.closed != 1 {
		t.Errorf("module closed %d times, want 1", mod.closed)
	}
	if p.State() != StateUnloaded {
		t.Errorf("state after Unload = %v", p.State())
	}
	if err := p.CollectData(ctx, m); !errors.Is(err, errs.InvalidArgument) {
		t.Errorf("CollectData() after Unload error = %v", err)
	}
	if err := p.SetConfig(""); !errors.Is(err, errs.InvalidArgument) {
		t.Errorf("SetConfig() after Unload error = %v", err)
	}
	if _, err := p.JSON(); !errors.Is(err, errs.InvalidArgument) {
		t.Errorf("JSON() after Unload error = %v", err)
	}
}

func TestSetConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want errs.Kind
	}{
		{"invalid utf8", "key: \xff\xfe", errs.InvalidArgument},
		{"nul byte", "key: a\x00b", errs.InvalidArgument},
		{"bad yaml", "key: [unclosed", errs.ParseError},
		{"not a mapping", "- a\n- b\n", errs.ParseError},
		{"scalar", "just text", errs.ParseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPlugin(newFake("cfg"))
			if err := p.SetConfig(tt.text); !errors.Is(err, tt.want) {
				t.Errorf("SetConfig() error = %v, want %v", err, tt.want)
			}
		})
	}

	p := newTestPlugin(newFake("cfg"))
	if err := p.SetConfig("   \n"); err != nil {
		t.Errorf("blank config error = %v", err)
	}
}

func TestSetConfigAfterInitializeIsIgnored(t *testing.T) {
	mod := newFake("cfg")
	p := newTestPlugin(mod)
	if err := p.SetConfig("a: 1"); err != nil {
		t.Fatal(err)
	}
	if err := p.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := p.SetConfig("a: 2"); err != nil {
		t.Fatalf("SetConfig() after init error = %v", err)
	}
	if got, _ := mod.config.Int("a"); got != 1 {
		t.Errorf("module config changed to %d", got)
	}
	if err := p.Initialize(context.Background()); !errors.Is(err, errs.InvalidArgument) {
		t.Errorf("second Initialize() error = %v", err)
	}
}

func TestCollectBeforeInitialize(t *testing.T) {
	p := newTestPlugin(newFake("early"))
	err := p.CollectData(context.Background(), cache.New())
	if !errors.Is(err, errs.InvalidArgument) {
		t.Fatalf("CollectData() error = %v, want InvalidArgument", err)
	}
	if msg, ok := p.LastError(); !ok || msg == "" {
		t.Error("expected a last error")
	}
}

func TestInitializeFailureAndRetry(t *testing.T) {
	mod := newFake("flaky")
	mod.initErr = errs.New(errs.ConfigurationError, "fake.init", "api key missing")
	p := newTestPlugin(mod)

	err := p.Initialize(context.Background())
	if !errors.Is(err, errs.ConfigurationError) {
		t.Fatalf("Initialize() error = %v", err)
	}
	if p.State() != StateError {
		t.Errorf("state = %v, want error", p.State())
	}
	if msg, ok := p.LastError(); !ok || !strings.Contains(msg, "api key missing") {
		t.Errorf("LastError() = %q, %v", msg, ok)
	}

	mod.initErr = nil
	if err := p.SetConfig("api_key: abc"); err != nil {
		t.Fatalf("SetConfig() after failure error = %v", err)
	}
	if err := p.Initialize(context.Background()); err != nil {
		t.Fatalf("retry Initialize() error = %v", err)
	}
	if p.State() != StateReady {
		t.Errorf("state after retry = %v", p.State())
	}
}

func TestUntypedInitializeErrorGetsKind(t *testing.T) {
	mod := newFake("plain")
	mod.initErr = errors.New("plain failure")
	p := newTestPlugin(mod)

	err := p.Initialize(context.Background())
	var e *errs.Error
	if !errors.As(err, &e) {
		t.Fatalf("Initialize() error %T is not typed", err)
	}
}

func TestDisabledAndNotReadyStates(t *testing.T) {
	off := newFake("off")
	off.disable = true
	p := newTestPlugin(off)
	if err := p.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p.State() != StateDisabled {
		t.Errorf("state = %v, want disabled", p.State())
	}
	if err := p.CollectData(context.Background(), cache.New()); !errors.Is(err, errs.UnavailableFeature) {
		t.Errorf("CollectData() on disabled error = %v", err)
	}

	cold := newFake("cold")
	cold.notReady = true
	p = newTestPlugin(cold)
	if err := p.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p.State() != StateInitialized || p.IsReady() {
		t.Errorf("state = %v ready = %v", p.State(), p.IsReady())
	}
}

func TestCollectFailureKeepsData(t *testing.T) {
	mod := newFake("keep")
	p := newTestPlugin(mod)
	ctx := context.Background()
	if err := p.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	m := cache.New()
	if err := p.CollectData(ctx, m); err != nil {
		t.Fatal(err)
	}

	mod.collectErr = errs.New(errs.IoError, "fake.collect", "device gone")
	if err := p.CollectData(ctx, m); !errors.Is(err, errs.IoError) {
		t.Fatalf("CollectData() error = %v", err)
	}
	if p.State() != StateError {
		t.Errorf("state = %v, want error", p.State())
	}
	if out, err := p.JSON(); err != nil || out != `{"value":1}` {
		t.Errorf("previous data lost: %q, %v", out, err)
	}

	mod.collectErr = nil
	if err := p.CollectData(ctx, m); err != nil {
		t.Fatal(err)
	}
	if p.State() != StateDataCollected {
		t.Errorf("state after recovery = %v", p.State())
	}
	if msg, ok := p.LastError(); !ok || !strings.Contains(msg, "device gone") {
		t.Errorf("last error cleared: %q", msg)
	}
}

func TestLastErrorReportsNewestFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("init then collect", func(t *testing.T) {
		mod := newFake("flaky")
		mod.initErr = errs.New(errs.ConfigurationError, "fake.init", "api key missing")
		p := newTestPlugin(mod)
		if err := p.Initialize(ctx); err == nil {
			t.Fatal("Initialize() succeeded")
		}
		mod.initErr = nil
		if err := p.Initialize(ctx); err != nil {
			t.Fatalf("retry Initialize() error = %v", err)
		}

		mod.collectErr = errors.New("device gone")
		if err := p.CollectData(ctx, cache.New()); err == nil {
			t.Fatal("CollectData() succeeded")
		}
		msg, ok := p.LastError()
		if !ok || !strings.Contains(msg, "device gone") || strings.Contains(msg, "api key missing") {
			t.Errorf("LastError() = %q, want the collect failure", msg)
		}
	})

	t.Run("module message then plain error", func(t *testing.T) {
		mod := newFake("sensor")
		p := newTestPlugin(mod)
		if err := p.Initialize(ctx); err != nil {
			t.Fatal(err)
		}
		m := cache.New()

		mod.failCollect = true
		mod.collectErr = errs.New(errs.IoError, "fake.collect", "sensor offline")
		if err := p.CollectData(ctx, m); err == nil {
			t.Fatal("CollectData() succeeded")
		}
		if msg, _ := p.LastError(); msg != mod.LastError() {
			t.Errorf("LastError() = %q, want module message %q", msg, mod.LastError())
		}

		mod.failCollect = false
		mod.collectErr = errors.New("bus reset")
		if err := p.CollectData(ctx, m); err == nil {
			t.Fatal("CollectData() succeeded")
		}
		msg, ok := p.LastError()
		if !ok || !strings.Contains(msg, "bus reset") || strings.Contains(msg, "sensor offline") {
			t.Errorf("LastError() = %q, want the plain failure", msg)
		}
	})
}

func TestPanicsAreRecovered(t *testing.T) {
	for _, where := range []string{"configure", "collect"} {
		t.Run(where, func(t *testing.T) {
			mod := newFake("boom")
			if where == "configure" {
				mod.panicOn = where
			}
			p := newTestPlugin(mod)
			err := p.Initialize(context.Background())
			if where == "configure" {
				if !errors.Is(err, errs.InternalError) {
					t.Fatalf("Initialize() error = %v, want InternalError", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			mod.panicOn = where
			if err := p.CollectData(context.Background(), cache.New()); !errors.Is(err, errs.InternalError) {
				t.Fatalf("CollectData() error = %v, want InternalError", err)
			}
		})
	}
}

func TestFieldsFlatten(t *testing.T) {
	mod := newFake("nested")
	mod.data = map[string]any{
		"cpu":  map[string]any{"temp": 61.5, "cores": 8},
		"list": []any{1, "a"},
		"ok":   true,
		"":     "dropped",
		"none": nil,
	}
	p := newTestPlugin(mod)
	if err := p.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := p.CollectData(context.Background(), cache.New()); err != nil {
		t.Fatal(err)
	}

	got, err := p.Fields()
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"cpu.temp":  "61.5",
		"cpu.cores": "8",
		"list":      `[1,"a"]`,
		"ok":        "true",
		"none":      "",
	}
	if len(got) != len(want) {
		t.Fatalf("Fields() = %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Fields()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestHostSharesRunCache(t *testing.T) {
	host := &countingHost{}
	first, second := newFake("a"), newFake("b")
	first.metricKey, second.metricKey = "memory", "memory"

	m := cache.New()
	defer m.Close()
	for _, mod := range []*fakeModule{first, second} {
		p := newPlugin(mod.Info(), mod, host.bind, memEnv, zap.NewNop())
		if err := p.Initialize(context.Background()); err != nil {
			t.Fatal(err)
		}
		if err := p.CollectData(context.Background(), m); err != nil {
			t.Fatal(err)
		}
	}
	if host.calls != 1 {
		t.Errorf("metric computed %d times in one run, want 1", host.calls)
	}
	if first.metricValue != "value-of-memory" {
		t.Errorf("metric value = %v", first.metricValue)
	}
}

func TestIDsAreUnique(t *testing.T) {
	a := newTestPlugin(newFake("same"))
	b := newTestPlugin(newFake("same"))
	if a.ID() == b.ID() {
		t.Error("two handles share an ID")
	}
}
