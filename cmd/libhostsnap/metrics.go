package main

/*
#include "hostsnap.h"
*/
import "C"

import (
	"context"
	"time"
	"unsafe"

	"github.com/Guliveer/hostsnap/internal/abi"
	"github.com/Guliveer/hostsnap/internal/cache"
	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/models"
)

func code(err error) C.hostsnap_error_code {
	return C.hostsnap_error_code(abi.CodeOf(err))
}

//export hostsnap_cache_create
func hostsnap_cache_create() C.hostsnap_cache {
	return C.hostsnap_cache(caches.add(cache.New(cache.WithLogger(logger))))
}

// hostsnap_cache_destroy drops every value the cache holds. Unknown handles
// are ignored.
//
//export hostsnap_cache_destroy
func hostsnap_cache_destroy(h C.hostsnap_cache) {
	if m, ok := caches.remove(uintptr(h)); ok {
		m.Close()
	}
}

// withCache resolves h, checks out and runs fn.
func withCache(op string, h C.hostsnap_cache, out unsafe.Pointer, fn func(ctx context.Context, m *cache.Manager) error) C.hostsnap_error_code {
	if out == nil {
		return code(errs.New(errs.InvalidArgument, op, "nil output pointer"))
	}
	m, ok := caches.get(uintptr(h))
	if !ok {
		return code(errs.New(errs.InvalidArgument, op, "unknown cache handle"))
	}
	return code(fn(context.Background(), m))
}

func stringMetric(op string, h C.hostsnap_cache, out **C.char, get func(context.Context, *cache.Manager) (string, error)) C.hostsnap_error_code {
	return withCache(op, h, unsafe.Pointer(out), func(ctx context.Context, m *cache.Manager) error {
		s, err := get(ctx, m)
		if err != nil {
			return err
		}
		*out = cString(s)
		return nil
	})
}

func resourceUsage(out *C.hostsnap_resource_usage, u models.ResourceUsage) {
	out.used_bytes = C.uint64_t(u.UsedBytes)
	out.total_bytes = C.uint64_t(u.TotalBytes)
}

func fillDisk(out *C.hostsnap_disk_info, d models.DiskInfo) {
	out.name = cString(d.Name)
	out.mount_point = cString(d.MountPoint)
	out.filesystem = cString(d.Filesystem)
	out.drive_type = cString(d.DriveType.String())
	out.total_bytes = C.uint64_t(d.TotalBytes)
	out.used_bytes = C.uint64_t(d.UsedBytes)
	out.is_system_drive = C.bool(d.IsSystemDrive)
}

func fillDisplay(out *C.hostsnap_display_info, d models.DisplayInfo) {
	out.id = C.uint64_t(d.ID)
	out.width = C.uint64_t(d.Width)
	out.height = C.uint64_t(d.Height)
	out.refresh_rate = C.double(d.RefreshRate)
	out.is_primary = C.bool(d.IsPrimary)
}

func fillInterface(out *C.hostsnap_network_interface, n models.NetworkInterface) {
	raw := abi.EncodeInterface(n)
	out.name = cString(raw.Name)
	out.ipv4_address = cOptString(raw.IPv4Address)
	out.ipv6_address = cOptString(raw.IPv6Address)
	out.mac_address = cOptString(raw.MACAddress)
	out.is_up = C.bool(raw.IsUp)
	out.is_loopback = C.bool(raw.IsLoopback)
}

//export hostsnap_get_uptime
func hostsnap_get_uptime(h C.hostsnap_cache, out *C.uint64_t) C.hostsnap_error_code {
	return withCache("hostsnap_get_uptime", h, unsafe.Pointer(out), func(ctx context.Context, m *cache.Manager) error {
		d, err := dispatcher.Uptime(ctx, m)
		if err != nil {
			return err
		}
		*out = C.uint64_t(d / time.Second)
		return nil
	})
}

//export hostsnap_get_mem_info
func hostsnap_get_mem_info(h C.hostsnap_cache, out *C.hostsnap_resource_usage) C.hostsnap_error_code {
	return withCache("hostsnap_get_mem_info", h, unsafe.Pointer(out), func(ctx context.Context, m *cache.Manager) error {
		u, err := dispatcher.Memory(ctx, m)
		if err != nil {
			return err
		}
		resourceUsage(out, u)
		return nil
	})
}

//export hostsnap_get_disk_usage
func hostsnap_get_disk_usage(h C.hostsnap_cache, out *C.hostsnap_resource_usage) C.hostsnap_error_code {
	return withCache("hostsnap_get_disk_usage", h, unsafe.Pointer(out), func(ctx context.Context, m *cache.Manager) error {
		u, err := dispatcher.DiskUsage(ctx, m)
		if err != nil {
			return err
		}
		resourceUsage(out, u)
		return nil
	})
}

//export hostsnap_get_cpu_cores
func hostsnap_get_cpu_cores(h C.hostsnap_cache, out *C.hostsnap_cpu_cores) C.hostsnap_error_code {
	return withCache("hostsnap_get_cpu_cores", h, unsafe.Pointer(out), func(ctx context.Context, m *cache.Manager) error {
		c, err := dispatcher.CPUCores(ctx, m)
		if err != nil {
			return err
		}
		out.physical = C.size_t(c.Physical)
		out.logical = C.size_t(c.Logical)
		return nil
	})
}

//export hostsnap_get_operating_system
func hostsnap_get_operating_system(h C.hostsnap_cache, out *C.hostsnap_os_info) C.hostsnap_error_code {
	return withCache("hostsnap_get_operating_system", h, unsafe.Pointer(out), func(ctx context.Context, m *cache.Manager) error {
		info, err := dispatcher.OSInfo(ctx, m)
		if err != nil {
			return err
		}
		out.name = cString(info.Name)
		out.version = cString(info.Version)
		out.id = cString(info.ID)
		return nil
	})
}

//export hostsnap_get_desktop_environment
func hostsnap_get_desktop_environment(h C.hostsnap_cache, out **C.char) C.hostsnap_error_code {
	return stringMetric("hostsnap_get_desktop_environment", h, out, dispatcher.DesktopEnvironment)
}

//export hostsnap_get_window_manager
func hostsnap_get_window_manager(h C.hostsnap_cache, out **C.char) C.hostsnap_error_code {
	return stringMetric("hostsnap_get_window_manager", h, out, dispatcher.WindowManager)
}

//export hostsnap_get_shell
func hostsnap_get_shell(h C.hostsnap_cache, out **C.char) C.hostsnap_error_code {
	return stringMetric("hostsnap_get_shell", h, out, dispatcher.Shell)
}

//export hostsnap_get_host
func hostsnap_get_host(h C.hostsnap_cache, out **C.char) C.hostsnap_error_code {
	return stringMetric("hostsnap_get_host", h, out, dispatcher.HostModel)
}

//export hostsnap_get_cpu_model
func hostsnap_get_cpu_model(h C.hostsnap_cache, out **C.char) C.hostsnap_error_code {
	return stringMetric("hostsnap_get_cpu_model", h, out, dispatcher.CPUModel)
}

//export hostsnap_get_gpu_model
func hostsnap_get_gpu_model(h C.hostsnap_cache, out **C.char) C.hostsnap_error_code {
	return stringMetric("hostsnap_get_gpu_model", h, out, dispatcher.GPUModel)
}

//export hostsnap_get_kernel_version
func hostsnap_get_kernel_version(h C.hostsnap_cache, out **C.char) C.hostsnap_error_code {
	return stringMetric("hostsnap_get_kernel_version", h, out, dispatcher.KernelVersion)
}

//export hostsnap_get_disks
func hostsnap_get_disks(h C.hostsnap_cache, out *C.hostsnap_disk_info_list) C.hostsnap_error_code {
	return withCache("hostsnap_get_disks", h, unsafe.Pointer(out), func(ctx context.Context, m *cache.Manager) error {
		disks, err := dispatcher.Disks(ctx, m)
		if err != nil {
			return err
		}
		*out = C.hostsnap_disk_info_list{}
		if len(disks) == 0 {
			return nil
		}
		p := cArray(len(disks), unsafe.Sizeof(C.hostsnap_disk_info{}))
		if p == nil {
			return errs.New(errs.OutOfMemory, "hostsnap_get_disks", "calloc failed")
		}
		items := trackList[C.hostsnap_disk_info](p, len(disks))
		for i, d := range disks {
			fillDisk(&items[i], d)
		}
		out.items = &items[0]
		out.count = C.size_t(len(items))
		return nil
	})
}

//export hostsnap_get_system_disk
func hostsnap_get_system_disk(h C.hostsnap_cache, out *C.hostsnap_disk_info) C.hostsnap_error_code {
	return withCache("hostsnap_get_system_disk", h, unsafe.Pointer(out), func(ctx context.Context, m *cache.Manager) error {
		d, err := dispatcher.SystemDisk(ctx, m)
		if err != nil {
			return err
		}
		fillDisk(out, d)
		return nil
	})
}

//export hostsnap_get_displays
func hostsnap_get_displays(h C.hostsnap_cache, out *C.hostsnap_display_info_list) C.hostsnap_error_code {
	return withCache("hostsnap_get_displays", h, unsafe.Pointer(out), func(ctx context.Context, m *cache.Manager) error {
		displays, err := dispatcher.Displays(ctx, m)
		if err != nil {
			return err
		}
		*out = C.hostsnap_display_info_list{}
		if len(displays) == 0 {
			return nil
		}
		p := cArray(len(displays), unsafe.Sizeof(C.hostsnap_display_info{}))
		if p == nil {
			return errs.New(errs.OutOfMemory, "hostsnap_get_displays", "calloc failed")
		}
		items := trackList[C.hostsnap_display_info](p, len(displays))
		for i, d := range displays {
			fillDisplay(&items[i], d)
		}
		out.items = &items[0]
		out.count = C.size_t(len(items))
		return nil
	})
}

//export hostsnap_get_primary_display
func hostsnap_get_primary_display(h C.hostsnap_cache, out *C.hostsnap_display_info) C.hostsnap_error_code {
	return withCache("hostsnap_get_primary_display", h, unsafe.Pointer(out), func(ctx context.Context, m *cache.Manager) error {
		d, err := dispatcher.PrimaryDisplay(ctx, m)
		if err != nil {
			return err
		}
		fillDisplay(out, d)
		return nil
	})
}

//export hostsnap_get_network_interfaces
func hostsnap_get_network_interfaces(h C.hostsnap_cache, out *C.hostsnap_network_interface_list) C.hostsnap_error_code {
	return withCache("hostsnap_get_network_interfaces", h, unsafe.Pointer(out), func(ctx context.Context, m *cache.Manager) error {
		ifaces, err := dispatcher.NetworkInterfaces(ctx, m)
		if err != nil {
			return err
		}
		*out = C.hostsnap_network_interface_list{}
		if len(ifaces) == 0 {
			return nil
		}
		p := cArray(len(ifaces), unsafe.Sizeof(C.hostsnap_network_interface{}))
		if p == nil {
			return errs.New(errs.OutOfMemory, "hostsnap_get_network_interfaces", "calloc failed")
		}
		items := trackList[C.hostsnap_network_interface](p, len(ifaces))
		for i, n := range ifaces {
			fillInterface(&items[i], n)
		}
		out.items = &items[0]
		out.count = C.size_t(len(items))
		return nil
	})
}

//export hostsnap_get_primary_network_interface
func hostsnap_get_primary_network_interface(h C.hostsnap_cache, out *C.hostsnap_network_interface) C.hostsnap_error_code {
	return withCache("hostsnap_get_primary_network_interface", h, unsafe.Pointer(out), func(ctx context.Context, m *cache.Manager) error {
		n, err := dispatcher.PrimaryInterface(ctx, m)
		if err != nil {
			return err
		}
		fillInterface(out, n)
		return nil
	})
}

//export hostsnap_get_battery
func hostsnap_get_battery(h C.hostsnap_cache, out *C.hostsnap_battery) C.hostsnap_error_code {
	return withCache("hostsnap_get_battery", h, unsafe.Pointer(out), func(ctx context.Context, m *cache.Manager) error {
		b, err := dispatcher.Battery(ctx, m)
		if err != nil {
			return err
		}
		raw := abi.EncodeBattery(b)
		out.status = C.hostsnap_battery_status(raw.Status)
		out.percentage = C.uint8_t(raw.Percentage)
		out.time_remaining_secs = C.int64_t(raw.SecondsRemaining)
		return nil
	})
}
