// Package luaplugin runs plugins written in Lua.
//
// A script declares a global table and a few functions:
//
//	plugin = { name = "uptime", version = "1.0", author = "", description = "" }
//
//	function initialize(config)   -- optional; return false to disable
//	  return true
//	end
//
//	function is_ready()           -- optional
//	  return true
//	end
//
//	function collect()
//	  local up = host_metric("uptime")
//	  return { uptime_seconds = up }
//	end
//
// host_metric(key) returns the built-in metric as plain Lua values, or nil
// and an error message.
package luaplugin

import (
	"bytes"
	"context"
	"os"
	"sync"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"
	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/pkg/pluginapi"
)

// Ext is the file extension of script plugins.
const Ext = ".lua"

// Limits bounds every call into a script.
type Limits struct {
	// CPU is the instruction budget per call. 0 means unlimited.
	CPU uint64
	// Memory is the allocation budget per call in bytes. 0 means unlimited.
	Memory uint64
}

// DefaultLimits are applied by Open.
var DefaultLimits = Limits{
	CPU:    10_000_000,
	Memory: 50 * 1024 * 1024,
}

// Module adapts a Lua script to pluginapi.Module.
type Module struct {
	pluginapi.Base

	path    string
	limits  Limits
	logger  *zap.Logger
	runtime *rt.Runtime
	cleanup func()

	mu     sync.Mutex
	config pluginapi.Config
	host   pluginapi.Host
	ctx    context.Context
	closed bool
}

// Open loads the script at path with DefaultLimits.
func Open(path string, logger *zap.Logger) (pluginapi.Module, error) {
	return OpenWithLimits(path, DefaultLimits, logger)
}

// OpenWithLimits loads and runs the script's top level, then reads its
// plugin table.
func OpenWithLimits(path string, limits Limits, logger *zap.Logger) (*Module, error) {
	const op = "luaplugin.open"
	if logger == nil {
		logger = zap.NewNop()
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.WrapIO(op, err)
	}
	return load(path, src, limits, logger)
}

func load(name string, src []byte, limits Limits, logger *zap.Logger) (*Module, error) {
	const op = "luaplugin.open"

	m := &Module{
		path:   name,
		limits: limits,
		logger: logger.With(zap.String("script", name)),
		ctx:    context.Background(),
	}
	m.runtime = rt.New(&logWriter{logger: m.logger})
	m.cleanup = lib.LoadAll(m.runtime)
	m.setGoFunction("host_metric", m.hostMetric, 1)

	chunk, err := m.runtime.CompileAndLoadLuaChunk(name, src, rt.TableValue(m.runtime.GlobalEnv()))
	if err != nil {
		m.cleanup()
		return nil, errs.Wrap(errs.ParseError, op, err)
	}
	if _, err := m.call(op, rt.FunctionValue(chunk)); err != nil {
		m.cleanup()
		return nil, err
	}

	meta, ok := m.global("plugin").TryTable()
	if !ok {
		m.cleanup()
		return nil, errs.Errorf(errs.ApiUnavailable, op, "%s does not define a plugin table", name)
	}
	if m.global("collect").Type() != rt.FunctionType {
		m.cleanup()
		return nil, errs.Errorf(errs.ApiUnavailable, op, "%s does not define collect()", name)
	}

	m.Meta = pluginapi.Info{
		Name:        field(meta, "name"),
		Version:     field(meta, "version"),
		Author:      field(meta, "author"),
		Description: field(meta, "description"),
		Type:        pluginapi.TypeInfoProvider,
	}
	if t := field(meta, "type"); t != "" {
		m.Meta.Type = pluginapi.Type(t)
	}
	return m, nil
}

// Configure keeps cfg for initialize().
func (m *Module) Configure(cfg pluginapi.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = cfg
	return nil
}

// Initialize calls the script's initialize(config). A missing function or
// a nil result enables the plugin.
func (m *Module) Initialize(ctx context.Context, env pluginapi.Env) error {
	const op = "luaplugin.initialize"
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errs.New(errs.InvalidArgument, op, "script is closed")
	}
	if env.Logger != nil {
		m.logger = env.Logger
	}

	enabled := true
	if fn := m.global("initialize"); fn.Type() == rt.FunctionType {
		res, err := m.call(op, fn, toLua(map[string]any(m.config), 0))
		if err != nil {
			return m.Fail(errs.Wrap(errs.ConfigurationError, op, err))
		}
		enabled = truthy(res, true)
	}

	m.SetEnabled(enabled)
	m.SetReady(enabled)
	return nil
}

// IsReady calls is_ready() when the script defines it.
func (m *Module) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || !m.IsEnabled() {
		return false
	}
	fn := m.global("is_ready")
	if fn.Type() != rt.FunctionType {
		return m.Base.IsReady()
	}
	res, err := m.call("luaplugin.is_ready", fn)
	if err != nil {
		m.logger.Debug("is_ready failed", zap.Error(err))
		return false
	}
	return truthy(res, false)
}

// Collect calls collect() and converts its table.
func (m *Module) Collect(ctx context.Context, host pluginapi.Host) (map[string]any, error) {
	const op = "luaplugin.collect"
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errs.New(errs.InvalidArgument, op, "script is closed")
	}

	m.host, m.ctx = host, ctx
	defer func() { m.host, m.ctx = nil, context.Background() }()

	res, err := m.call(op, m.global("collect"))
	if err != nil {
		return nil, m.Fail(err)
	}
	tbl, ok := res.TryTable()
	if !ok {
		return nil, m.Fail(errs.Errorf(errs.InternalError, op, "collect() returned %s, want a table", res.TypeName()))
	}
	out, _ := fromLua(rt.TableValue(tbl), 0).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// Close releases the Lua runtime.
func (m *Module) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.cleanup()
	return nil
}

// call runs fn under the configured limits. Exceeding a limit surfaces as
// ResourceExhausted.
func (m *Module) call(op string, fn rt.Value, args ...rt.Value) (res rt.Value, err error) {
	m.runtime.PushContext(rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    m.limits.CPU,
			Memory: m.limits.Memory,
		},
	})
	defer m.runtime.PopContext()
	defer func() {
		if r := recover(); r != nil {
			res, err = rt.NilValue, errs.Errorf(errs.ResourceExhausted, op, "script aborted: %v", r)
		}
	}()

	res, err = rt.Call1(m.runtime.MainThread(), fn, args...)
	if err != nil {
		return rt.NilValue, errs.Wrap(errs.InternalError, op, err)
	}
	return res, nil
}

func (m *Module) global(name string) rt.Value {
	return m.runtime.GlobalEnv().Get(rt.StringValue(name))
}

func (m *Module) setGoFunction(name string, fn rt.GoFunctionFunc, nArgs int) {
	f := rt.NewGoFunction(fn, name, nArgs, false)
	rt.SolemnlyDeclareCompliance(rt.ComplyMemSafe|rt.ComplyCpuSafe, f)
	m.runtime.GlobalEnv().Set(rt.StringValue(name), rt.FunctionValue(f))
}

// hostMetric is host_metric(key). It runs inside call, so m.mu is held.
func (m *Module) hostMetric(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	key, err := c.StringArg(0)
	if err != nil {
		return nil, err
	}
	if m.host == nil {
		return c.PushingNext(t.Runtime, rt.NilValue, rt.StringValue("no metric host during this call")), nil
	}
	v, err := m.host.Metric(m.ctx, key)
	if err != nil {
		return c.PushingNext(t.Runtime, rt.NilValue, rt.StringValue(err.Error())), nil
	}
	plain, err := plainValue(v)
	if err != nil {
		return c.PushingNext(t.Runtime, rt.NilValue, rt.StringValue(err.Error())), nil
	}
	return c.PushingNext1(t.Runtime, toLua(plain, 0)), nil
}

func field(t *rt.Table, key string) string {
	s, _ := t.Get(rt.StringValue(key)).TryString()
	return s
}

func truthy(v rt.Value, def bool) bool {
	if v == rt.NilValue {
		return def
	}
	if b, ok := v.TryBool(); ok {
		return b
	}
	return true
}

// logWriter sends script print output to the logger line by line.
type logWriter struct {
	logger *zap.Logger
	buf    bytes.Buffer
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			w.buf.Reset()
			w.buf.WriteString(line)
			return len(p), nil
		}
		w.logger.Debug("Script output", zap.String("line", line[:len(line)-1]))
	}
}
