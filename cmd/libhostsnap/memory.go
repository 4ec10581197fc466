package main

/*
#include <stdlib.h>
#include "hostsnap.h"
*/
import "C"

import (
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/abi"
)

var (
	ledger = abi.NewLedger()

	allocMu sync.Mutex
	allocs  = make(map[unsafe.Pointer]func() error)
)

func track(p unsafe.Pointer, release func() error) {
	allocMu.Lock()
	allocs[p] = release
	allocMu.Unlock()
}

// cFree releases a block previously returned to C. Pointers that are not
// live, including ones already freed, are logged and left alone.
func cFree(p unsafe.Pointer) {
	if p == nil {
		return
	}
	allocMu.Lock()
	release, ok := allocs[p]
	delete(allocs, p)
	allocMu.Unlock()

	if !ok {
		logger.Warn("Ignoring free of untracked pointer", zap.Uintptr("ptr", uintptr(p)))
		return
	}
	if err := release(); err != nil {
		logger.Warn("Ledger release failed", zap.Error(err))
	}
	C.free(p)
}

func cString(s string) *C.char {
	p := C.CString(s)
	h := ledger.Track(len(s) + 1)
	track(unsafe.Pointer(p), func() error { return ledger.Release(h) })
	return p
}

// cOptString returns NULL for an absent string.
func cOptString(s *string) *C.char {
	if s == nil {
		return nil
	}
	return cString(*s)
}

// cArray allocates n zeroed elements of size bytes. n must be positive.
func cArray(n int, size uintptr) unsafe.Pointer {
	return C.calloc(C.size_t(n), C.size_t(size))
}

// trackList views the n elements at p as a slice and accounts for them as
// one list in the ledger.
func trackList[T any](p unsafe.Pointer, n int) []T {
	items := unsafe.Slice((*T)(p), n)
	list := abi.NewList(ledger, items)
	track(p, func() error { return abi.ReleaseList(ledger, list) })
	return items
}

//export hostsnap_free_string
func hostsnap_free_string(s *C.char) {
	cFree(unsafe.Pointer(s))
}

//export hostsnap_free_os_info
func hostsnap_free_os_info(info *C.hostsnap_os_info) {
	if info == nil {
		return
	}
	cFree(unsafe.Pointer(info.name))
	cFree(unsafe.Pointer(info.version))
	cFree(unsafe.Pointer(info.id))
	*info = C.hostsnap_os_info{}
}

//export hostsnap_free_disk_info
func hostsnap_free_disk_info(info *C.hostsnap_disk_info) {
	if info == nil {
		return
	}
	cFree(unsafe.Pointer(info.name))
	cFree(unsafe.Pointer(info.mount_point))
	cFree(unsafe.Pointer(info.filesystem))
	cFree(unsafe.Pointer(info.drive_type))
	*info = C.hostsnap_disk_info{}
}

//export hostsnap_free_disk_info_list
func hostsnap_free_disk_info_list(list *C.hostsnap_disk_info_list) {
	if list == nil || list.items == nil {
		return
	}
	items := unsafe.Slice(list.items, int(list.count))
	for i := range items {
		hostsnap_free_disk_info(&items[i])
	}
	cFree(unsafe.Pointer(list.items))
	*list = C.hostsnap_disk_info_list{}
}

//export hostsnap_free_display_info_list
func hostsnap_free_display_info_list(list *C.hostsnap_display_info_list) {
	if list == nil || list.items == nil {
		return
	}
	cFree(unsafe.Pointer(list.items))
	*list = C.hostsnap_display_info_list{}
}

//export hostsnap_free_network_interface
func hostsnap_free_network_interface(iface *C.hostsnap_network_interface) {
	if iface == nil {
		return
	}
	cFree(unsafe.Pointer(iface.name))
	cFree(unsafe.Pointer(iface.ipv4_address))
	cFree(unsafe.Pointer(iface.ipv6_address))
	cFree(unsafe.Pointer(iface.mac_address))
	*iface = C.hostsnap_network_interface{}
}

//export hostsnap_free_network_interface_list
func hostsnap_free_network_interface_list(list *C.hostsnap_network_interface_list) {
	if list == nil || list.items == nil {
		return
	}
	items := unsafe.Slice(list.items, int(list.count))
	for i := range items {
		hostsnap_free_network_interface(&items[i])
	}
	cFree(unsafe.Pointer(list.items))
	*list = C.hostsnap_network_interface_list{}
}

//export hostsnap_free_plugin_info_list
func hostsnap_free_plugin_info_list(list *C.hostsnap_plugin_info_list) {
	if list == nil || list.items == nil {
		return
	}
	for _, info := range unsafe.Slice(list.items, int(list.count)) {
		cFree(unsafe.Pointer(info.name))
		cFree(unsafe.Pointer(info.version))
		cFree(unsafe.Pointer(info.author))
		cFree(unsafe.Pointer(info.description))
		cFree(unsafe.Pointer(info._type))
	}
	cFree(unsafe.Pointer(list.items))
	*list = C.hostsnap_plugin_info_list{}
}

//export hostsnap_free_plugin_field_list
func hostsnap_free_plugin_field_list(list *C.hostsnap_plugin_field_list) {
	if list == nil || list.items == nil {
		return
	}
	for _, f := range unsafe.Slice(list.items, int(list.count)) {
		cFree(unsafe.Pointer(f.key))
		cFree(unsafe.Pointer(f.value))
	}
	cFree(unsafe.Pointer(list.items))
	*list = C.hostsnap_plugin_field_list{}
}

// hostsnap_outstanding_allocations returns the number of blocks handed to C
// and not yet freed.
//
//export hostsnap_outstanding_allocations
func hostsnap_outstanding_allocations() C.size_t {
	return C.size_t(ledger.Outstanding())
}

// hostsnap_outstanding_bytes returns the total size of blocks handed to C
// and not yet freed.
//
//export hostsnap_outstanding_bytes
func hostsnap_outstanding_bytes() C.size_t {
	return C.size_t(ledger.Bytes())
}
