package main

/*
#include "hostsnap.h"
*/
import "C"

import (
	"context"
	"sort"
	"unsafe"

	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/models"
	"github.com/Guliveer/hostsnap/internal/plugin"
)

// hostsnap_init_static_plugins moves compiled-in plugins into the lookup
// table and returns how many are registered. Call it once before loading.
//
//export hostsnap_init_static_plugins
func hostsnap_init_static_plugins() C.size_t {
	return C.size_t(loader.InitStatic())
}

//export hostsnap_add_plugin_search_path
func hostsnap_add_plugin_search_path(path *C.char) C.hostsnap_error_code {
	if path == nil {
		return code(errs.New(errs.InvalidArgument, "hostsnap_add_plugin_search_path", "nil path"))
	}
	loader.AddSearchPath(C.GoString(path))
	return code(nil)
}

//export hostsnap_discover_plugins
func hostsnap_discover_plugins(out *C.hostsnap_plugin_info_list) C.hostsnap_error_code {
	const op = "hostsnap_discover_plugins"
	if out == nil {
		return code(errs.New(errs.InvalidArgument, op, "nil output pointer"))
	}
	*out = C.hostsnap_plugin_info_list{}
	infos := loader.Discover()
	if len(infos) == 0 {
		return code(nil)
	}
	p := cArray(len(infos), unsafe.Sizeof(C.hostsnap_plugin_info{}))
	if p == nil {
		return code(errs.New(errs.OutOfMemory, op, "calloc failed"))
	}
	items := trackList[C.hostsnap_plugin_info](p, len(infos))
	for i, info := range infos {
		fillInfo(&items[i], info)
	}
	out.items = &items[0]
	out.count = C.size_t(len(items))
	return code(nil)
}

func fillInfo(out *C.hostsnap_plugin_info, info models.PluginInfo) {
	out.name = cString(info.Name)
	out.version = cString(info.Version)
	out.author = cString(info.Author)
	out.description = cString(info.Description)
	out._type = cString(string(info.Type))
	out.is_static = C.bool(info.Static)
}

// hostsnap_load_plugin resolves name against the static registry and then
// the search paths. On success *out holds the plugin handle; on failure it
// is 0.
//
//export hostsnap_load_plugin
func hostsnap_load_plugin(name *C.char, out *C.hostsnap_plugin) C.hostsnap_error_code {
	return loadWith("hostsnap_load_plugin", name, out, loader.Load)
}

//export hostsnap_load_plugin_from_path
func hostsnap_load_plugin_from_path(path *C.char, out *C.hostsnap_plugin) C.hostsnap_error_code {
	return loadWith("hostsnap_load_plugin_from_path", path, out, loader.LoadPath)
}

func loadWith(op string, arg *C.char, out *C.hostsnap_plugin, load func(string) (*plugin.Plugin, error)) C.hostsnap_error_code {
	if out == nil {
		return code(errs.New(errs.InvalidArgument, op, "nil output pointer"))
	}
	*out = 0
	if arg == nil {
		return code(errs.New(errs.InvalidArgument, op, "nil name"))
	}
	p, err := load(C.GoString(arg))
	if err != nil {
		logger.Debug("Plugin load failed", zap.String("op", op), zap.Error(err))
		return code(err)
	}
	*out = C.hostsnap_plugin(plugins.add(p))
	return code(nil)
}

// hostsnap_unload_plugin releases the plugin. The handle is invalid
// afterwards; unloading it again is InvalidArgument.
//
//export hostsnap_unload_plugin
func hostsnap_unload_plugin(h C.hostsnap_plugin) C.hostsnap_error_code {
	p, ok := plugins.remove(uintptr(h))
	if !ok {
		return code(errs.New(errs.InvalidArgument, "hostsnap_unload_plugin", "unknown plugin handle"))
	}
	return code(p.Unload())
}

func withPlugin(op string, h C.hostsnap_plugin, fn func(*plugin.Plugin) error) C.hostsnap_error_code {
	p, ok := plugins.get(uintptr(h))
	if !ok {
		return code(errs.New(errs.InvalidArgument, op, "unknown plugin handle"))
	}
	return code(fn(p))
}

// hostsnap_plugin_set_config passes a YAML document to the plugin. It must
// be called before hostsnap_plugin_initialize to take effect.
//
//export hostsnap_plugin_set_config
func hostsnap_plugin_set_config(h C.hostsnap_plugin, config *C.char) C.hostsnap_error_code {
	return withPlugin("hostsnap_plugin_set_config", h, func(p *plugin.Plugin) error {
		if config == nil {
			return p.SetConfig("")
		}
		return p.SetConfig(C.GoString(config))
	})
}

//export hostsnap_plugin_initialize
func hostsnap_plugin_initialize(h C.hostsnap_plugin) C.hostsnap_error_code {
	return withPlugin("hostsnap_plugin_initialize", h, func(p *plugin.Plugin) error {
		return p.Initialize(context.Background())
	})
}

//export hostsnap_plugin_is_enabled
func hostsnap_plugin_is_enabled(h C.hostsnap_plugin) C.bool {
	p, ok := plugins.get(uintptr(h))
	return C.bool(ok && p.IsEnabled())
}

//export hostsnap_plugin_is_ready
func hostsnap_plugin_is_ready(h C.hostsnap_plugin) C.bool {
	p, ok := plugins.get(uintptr(h))
	return C.bool(ok && p.IsReady())
}

// hostsnap_plugin_collect_data runs the plugin against the values memoized
// in cache. A cache of 0 collects without access to system metrics.
//
//export hostsnap_plugin_collect_data
func hostsnap_plugin_collect_data(h C.hostsnap_plugin, c C.hostsnap_cache) C.hostsnap_error_code {
	const op = "hostsnap_plugin_collect_data"
	return withPlugin(op, h, func(p *plugin.Plugin) error {
		if c == 0 {
			return p.CollectData(context.Background(), nil)
		}
		m, ok := caches.get(uintptr(c))
		if !ok {
			return errs.New(errs.InvalidArgument, op, "unknown cache handle")
		}
		return p.CollectData(context.Background(), m)
	})
}

//export hostsnap_plugin_get_json
func hostsnap_plugin_get_json(h C.hostsnap_plugin, out **C.char) C.hostsnap_error_code {
	const op = "hostsnap_plugin_get_json"
	if out == nil {
		return code(errs.New(errs.InvalidArgument, op, "nil output pointer"))
	}
	*out = nil
	return withPlugin(op, h, func(p *plugin.Plugin) error {
		text, err := p.JSON()
		if err != nil {
			return err
		}
		*out = cString(text)
		return nil
	})
}

// hostsnap_plugin_get_fields returns the collected data flattened to
// key/value text, sorted by key.
//
//export hostsnap_plugin_get_fields
func hostsnap_plugin_get_fields(h C.hostsnap_plugin, out *C.hostsnap_plugin_field_list) C.hostsnap_error_code {
	const op = "hostsnap_plugin_get_fields"
	if out == nil {
		return code(errs.New(errs.InvalidArgument, op, "nil output pointer"))
	}
	*out = C.hostsnap_plugin_field_list{}
	return withPlugin(op, h, func(p *plugin.Plugin) error {
		fields, err := p.Fields()
		if err != nil {
			return err
		}
		keys := sortedKeys(fields)
		if len(keys) == 0 {
			return nil
		}
		ptr := cArray(len(keys), unsafe.Sizeof(C.hostsnap_plugin_field{}))
		if ptr == nil {
			return errs.New(errs.OutOfMemory, op, "calloc failed")
		}
		items := trackList[C.hostsnap_plugin_field](ptr, len(keys))
		for i, k := range keys {
			items[i].key = cString(k)
			items[i].value = cString(fields[k])
		}
		out.items = &items[0]
		out.count = C.size_t(len(items))
		return nil
	})
}

// hostsnap_plugin_get_last_error returns the most recent failure message,
// or NotFound if the plugin has not failed.
//
//export hostsnap_plugin_get_last_error
func hostsnap_plugin_get_last_error(h C.hostsnap_plugin, out **C.char) C.hostsnap_error_code {
	const op = "hostsnap_plugin_get_last_error"
	if out == nil {
		return code(errs.New(errs.InvalidArgument, op, "nil output pointer"))
	}
	*out = nil
	return withPlugin(op, h, func(p *plugin.Plugin) error {
		msg, ok := p.LastError()
		if !ok {
			return errs.New(errs.NotFound, op, "no error recorded")
		}
		*out = cString(msg)
		return nil
	})
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
