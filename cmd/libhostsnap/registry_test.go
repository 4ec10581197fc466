package main

import (
	"reflect"
	"testing"
)

func TestRegistry(t *testing.T) {
	r := newRegistry[string]()
	a, b := r.add("a"), r.add("b")
	if a == 0 || b == 0 || a == b {
		t.Fatalf("handles = %d, %d", a, b)
	}
	if v, ok := r.get(a); !ok || v != "a" {
		t.Errorf("get(a) = %q, %v", v, ok)
	}
	if _, ok := r.get(0); ok {
		t.Error("handle 0 resolved")
	}

	if v, ok := r.remove(a); !ok || v != "a" {
		t.Errorf("remove(a) = %q, %v", v, ok)
	}
	if _, ok := r.remove(a); ok {
		t.Error("second remove(a) succeeded")
	}
	if _, ok := r.get(a); ok {
		t.Error("removed handle still resolves")
	}
	if r.len() != 1 {
		t.Errorf("len() = %d, want 1", r.len())
	}
}

func TestSortedKeys(t *testing.T) {
	got := sortedKeys(map[string]string{"b": "2", "a.c": "3", "a": "1"})
	want := []string{"a", "a.c", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sortedKeys() = %v, want %v", got, want)
	}
}

func TestStringAccounting(t *testing.T) {
	n, size := hostsnap_outstanding_allocations(), hostsnap_outstanding_bytes()

	s := cString("hello")
	if got := hostsnap_outstanding_allocations(); got != n+1 {
		t.Errorf("allocations = %d, want %d", got, n+1)
	}
	if got := hostsnap_outstanding_bytes(); got != size+6 {
		t.Errorf("bytes = %d, want %d", got, size+6)
	}

	hostsnap_free_string(s)
	hostsnap_free_string(s)
	if hostsnap_outstanding_allocations() != n || hostsnap_outstanding_bytes() != size {
		t.Errorf("leak: %d allocations, %d bytes", hostsnap_outstanding_allocations(), hostsnap_outstanding_bytes())
	}
}
