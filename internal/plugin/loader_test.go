package plugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/cache"
	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/models"
	"github.com/Guliveer/hostsnap/pkg/pluginapi"
)

func newTestLoader(t *testing.T, dirs ...string) (*Loader, *StaticRegistry) {
	t.Helper()
	reg := NewStaticRegistry()
	l := NewLoader(
		WithStaticRegistry(reg),
		WithSearchPaths(NewSearchPaths(dirs...)),
		WithEnv(memEnv),
		WithLogger(zap.NewNop()),
	)
	return l, reg
}

const scriptPlugin = `
plugin = { name = "ignored", version = "0.3", description = "script" }
function collect() return { answer = 42 } end
`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestStaticRegistryInit(t *testing.T) {
	reg := NewStaticRegistry()
	if n := reg.Init(); n != 0 {
		t.Errorf("empty Init() = %d, want 0", n)
	}

	reg = NewStaticRegistry()
	reg.Register(models.PluginInfo{Name: "a"}, func() pluginapi.Module { return newFake("a") })
	reg.Register(models.PluginInfo{Name: "b"}, func() pluginapi.Module { return newFake("b") })
	reg.Register(models.PluginInfo{Name: "a", Version: "dup"}, func() pluginapi.Module { return newFake("a") })
	reg.Register(models.PluginInfo{Name: "nil"}, nil)

	if n := reg.Init(); n != 2 {
		t.Errorf("Init() = %d, want 2", n)
	}
	if n := reg.Init(); n != 2 {
		t.Errorf("second Init() = %d, want 2", n)
	}
	infos := reg.Infos()
	if len(infos) != 2 || infos[0].Name != "a" || infos[0].Version == "dup" || !infos[0].Static {
		t.Errorf("Infos() = %+v", infos)
	}
}

func TestSearchPaths(t *testing.T) {
	s := NewSearchPaths()
	if !s.Add("/opt/plugins/") {
		t.Error("first Add should change the list")
	}
	if s.Add("/opt/plugins") || s.Add("/opt/./plugins") {
		t.Error("equivalent path added twice")
	}
	s.Add("/usr/lib/hostsnap")
	if s.Add("") {
		t.Error("empty path accepted")
	}

	got := s.List()
	got[0] = "mutated"
	if s.List()[0] != "/opt/plugins" {
		t.Error("List() exposes internal slice")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d", s.Len())
	}

	if d := DefaultSearchPaths(); len(d) < 3 || d[0] != "/usr/local/lib/hostsnap/plugins" {
		t.Errorf("DefaultSearchPaths() = %v", d)
	}
}

func TestLoadRejectsBadNames(t *testing.T) {
	l, _ := newTestLoader(t, t.TempDir())
	for _, name := range []string{"", "bad\x00name", "../escape", `a\b`} {
		if _, err := l.Load(name); !errors.Is(err, errs.InvalidArgument) {
			t.Errorf("Load(%q) error = %v, want InvalidArgument", name, err)
		}
	}
	if _, err := l.LoadPath("x\x00.lua"); !errors.Is(err, errs.InvalidArgument) {
		t.Errorf("LoadPath with NUL error = %v", err)
	}
}

func TestLoadNotFound(t *testing.T) {
	l, _ := newTestLoader(t, t.TempDir())
	if _, err := l.Load("nope"); !errors.Is(err, errs.NotFound) {
		t.Errorf("Load() error = %v, want NotFound", err)
	}
	l, _ = newTestLoader(t)
	if _, err := l.Load("nope"); !errors.Is(err, errs.NotFound) {
		t.Errorf("Load() without paths error = %v, want NotFound", err)
	}
}

func TestLoadPrefersStatic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "dual.lua"), scriptPlugin)

	l, reg := newTestLoader(t, dir)
	reg.Register(models.PluginInfo{Name: "dual", Version: "static"}, func() pluginapi.Module { return newFake("dual") })
	l.InitStatic()

	p, err := l.Load("dual")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !p.Info().Static || p.Info().Version != "static" {
		t.Errorf("Load() picked %+v, want the static plugin", p.Info())
	}
}

func TestLoadScriptFromSearchPath(t *testing.T) {
	empty, dir := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(dir, "answer.lua"), scriptPlugin)

	l, _ := newTestLoader(t, empty, dir)
	p, err := l.Load("answer")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer p.Unload()

	if p.Name() != "answer" || p.Info().Path != filepath.Join(dir, "answer.lua") {
		t.Errorf("Info() = %+v", p.Info())
	}
	if err := p.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := p.CollectData(context.Background(), cache.New()); err != nil {
		t.Fatal(err)
	}
	if out, _ := p.JSON(); out != `{"answer":42}` {
		t.Errorf("JSON() = %s", out)
	}
}

func TestLoadPath(t *testing.T) {
	dir := t.TempDir()
	l, _ := newTestLoader(t)

	if _, err := l.LoadPath(filepath.Join(dir, "absent.lua")); !errors.Is(err, errs.NotFound) {
		t.Errorf("missing file error = %v, want NotFound", err)
	}

	txt := filepath.Join(dir, "notes.txt")
	writeFile(t, txt, "hello")
	if _, err := l.LoadPath(txt); !errors.Is(err, errs.NotSupported) {
		t.Errorf("unknown extension error = %v, want NotSupported", err)
	}

	broken := filepath.Join(dir, "broken.lua")
	writeFile(t, broken, "plugin = {")
	if _, err := l.LoadPath(broken); !errors.Is(err, errs.ParseError) {
		t.Errorf("broken script error = %v, want ParseError", err)
	}

	script := filepath.Join(dir, "by-path.lua")
	writeFile(t, script, scriptPlugin)
	p, err := l.LoadPath(script)
	if err != nil {
		t.Fatalf("LoadPath() error = %v", err)
	}
	defer p.Unload()
	if p.Name() != "by-path" {
		t.Errorf("Name() = %q, want file stem", p.Name())
	}
}

func TestCustomOpener(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "custom.fake"), "")

	opened := ""
	l, _ := newTestLoader(t, dir)
	WithOpener(".fake", func(path string, _ *zap.Logger) (pluginapi.Module, error) {
		opened = path
		return newFake("whatever"), nil
	})(l)

	p, err := l.Load("custom")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.Name() != "custom" || opened == "" {
		t.Errorf("custom opener not used: name=%q opened=%q", p.Name(), opened)
	}
}

func TestDiscover(t *testing.T) {
	l, _ := newTestLoader(t)
	if got := l.Discover(); got == nil || len(got) != 0 {
		t.Errorf("Discover() with no paths = %#v, want empty list", got)
	}

	first, second := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(first, "alpha.lua"), scriptPlugin)
	writeFile(t, filepath.Join(first, "alpha.manifest.yaml"), "version: 2.1.0\nauthor: ops\ndescription: Alpha\ntype: system_provider\n")
	writeFile(t, filepath.Join(first, "beta.lua"), scriptPlugin)
	writeFile(t, filepath.Join(first, "beta.manifest.yaml"), "author: nobody\n")
	writeFile(t, filepath.Join(first, "readme.txt"), "skip")
	writeFile(t, filepath.Join(second, "alpha.lua"), scriptPlugin)
	writeFile(t, filepath.Join(second, "stat.lua"), scriptPlugin)

	l, reg := newTestLoader(t, first, second, filepath.Join(first, "missing"))
	reg.Register(models.PluginInfo{Name: "stat", Version: "9"}, func() pluginapi.Module { return newFake("stat") })
	l.InitStatic()

	got := l.Discover()
	byName := make(map[string]models.PluginInfo)
	for _, info := range got {
		byName[info.Name] = info
	}
	if len(got) != 3 || len(byName) != 3 {
		t.Fatalf("Discover() = %+v", got)
	}
	if got[0].Name != "stat" || !got[0].Static || got[0].Version != "9" {
		t.Errorf("static entry = %+v", got[0])
	}
	alpha := byName["alpha"]
	if alpha.Version != "2.1.0" || alpha.Type != models.PluginTypeSystemProvider || alpha.Path != filepath.Join(first, "alpha.lua") {
		t.Errorf("alpha = %+v", alpha)
	}
	if beta := byName["beta"]; beta.Author != "" || beta.Version != "" {
		t.Errorf("invalid manifest should be ignored, got %+v", beta)
	}
}

func TestManager(t *testing.T) {
	l, reg := newTestLoader(t)
	good, bad, off := newFake("good"), newFake("bad"), newFake("off")
	bad.collectErr = errs.New(errs.IoError, "fake", "sensor unplugged")
	off.disable = true
	for _, mod := range []*fakeModule{good, bad, off} {
		reg.Register(mod.Info(), func() pluginapi.Module { return mod })
	}
	l.InitStatic()

	mgr := NewManager(l, zap.NewNop())
	err := mgr.LoadAll(context.Background(), []string{"good", "bad", "off", "ghost"}, map[string]string{"good": "level: 3"})
	if !errors.Is(err, errs.NotFound) {
		t.Errorf("LoadAll() error = %v, want NotFound for ghost", err)
	}
	if len(mgr.Plugins()) != 3 {
		t.Fatalf("Plugins() = %d, want 3", len(mgr.Plugins()))
	}
	if v, _ := good.config.Int("level"); v != 3 {
		t.Errorf("settings not applied, level = %d", v)
	}
	if _, err := mgr.Load(context.Background(), "good", ""); !errors.Is(err, errs.InvalidArgument) {
		t.Errorf("duplicate Load() error = %v", err)
	}

	m := cache.New()
	defer m.Close()
	data, failures := mgr.CollectAll(context.Background(), m)
	if _, ok := data["good"]; !ok {
		t.Error("good plugin missing from results")
	}
	if _, ok := data["off"]; ok {
		t.Error("disabled plugin collected")
	}
	if !errors.Is(failures["bad"], errs.IoError) || len(failures) != 1 {
		t.Errorf("failures = %v", failures)
	}
	if off.collects != 0 {
		t.Error("disabled plugin was asked to collect")
	}

	if p, ok := mgr.Get("bad"); !ok || p.State() != StateError {
		t.Errorf("Get(bad) = %v, %v", p, ok)
	}
	if err := mgr.Unload("off"); err != nil {
		t.Fatal(err)
	}
	if err := mgr.Unload("off"); !errors.Is(err, errs.NotFound) {
		t.Errorf("second Unload() error = %v", err)
	}

	mgr.UnloadAll()
	if len(mgr.Plugins()) != 0 || good.closed != 1 || bad.closed != 1 || off.closed != 1 {
		t.Errorf("UnloadAll left plugins or skipped Close: %d %d %d", good.closed, bad.closed, off.closed)
	}
}

func TestDefaultLoader(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() is not a singleton")
	}
	InitStaticPlugins()
	if _, err := Load("definitely-not-a-plugin"); !errors.Is(err, errs.NotFound) {
		t.Errorf("Load() error = %v", err)
	}
	if _, err := LoadPath(""); !errors.Is(err, errs.InvalidArgument) {
		t.Errorf("LoadPath(\"\") error = %v", err)
	}
	if DiscoverPlugins() == nil {
		t.Error("DiscoverPlugins() returned nil")
	}
}
