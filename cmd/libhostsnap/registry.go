package main

import (
	"runtime/cgo"
	"sync"
)

// registry maps the handles given to C back to Go values. Looking up a
// handle that was never issued, or was already removed, fails instead of
// panicking inside cgo.Handle.Value.
type registry[T any] struct {
	mu   sync.Mutex
	live map[cgo.Handle]T
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{live: make(map[cgo.Handle]T)}
}

func (r *registry[T]) add(v T) uintptr {
	h := cgo.NewHandle(v)
	r.mu.Lock()
	r.live[h] = v
	r.mu.Unlock()
	return uintptr(h)
}

func (r *registry[T]) get(h uintptr) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.live[cgo.Handle(h)]
	return v, ok
}

func (r *registry[T]) remove(h uintptr) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.live[cgo.Handle(h)]
	if ok {
		delete(r.live, cgo.Handle(h))
		cgo.Handle(h).Delete()
	}
	return v, ok
}

func (r *registry[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}
