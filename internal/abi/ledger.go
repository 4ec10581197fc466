package abi

import (
	"sync"
	"unsafe"

	"github.com/Guliveer/hostsnap/internal/errs"
)

// Handle identifies one tracked allocation. The zero Handle is never issued.
type Handle uint64

// Ledger accounts for memory handed across the boundary. Every Track must
// be matched by exactly one Release.
type Ledger struct {
	mu    sync.Mutex
	next  Handle
	live  map[Handle]int
	bytes int64
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{live: make(map[Handle]int)}
}

// Track records an allocation of size bytes.
func (l *Ledger) Track(size int) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	l.live[l.next] = size
	l.bytes += int64(size)
	return l.next
}

// Release forgets h. Releasing an unknown or already released handle is
// an InvalidArgument error.
func (l *Ledger) Release(h Handle) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	size, ok := l.live[h]
	if !ok {
		return errs.Errorf(errs.InvalidArgument, "abi.release", "handle %d is not live", h)
	}
	delete(l.live, h)
	l.bytes -= int64(size)
	return nil
}

// Outstanding returns the number of live allocations.
func (l *Ledger) Outstanding() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.live)
}

// Bytes returns the total size of live allocations.
func (l *Ledger) Bytes() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bytes
}

// List is an owned list. Count always equals len(Items) and Size is the
// number of bytes the list accounts for in its ledger.
type List[T any] struct {
	Items  []T
	Count  int
	Size   int
	handle Handle
}

// NewList tracks items as one allocation in l.
func NewList[T any](l *Ledger, items []T) *List[T] {
	var zero T
	size := len(items) * int(unsafe.Sizeof(zero))
	return &List[T]{
		Items:  items,
		Count:  len(items),
		Size:   size,
		handle: l.Track(size),
	}
}

// ReleaseList releases list. A nil list is a no-op; releasing twice is an
// InvalidArgument error.
func ReleaseList[T any](l *Ledger, list *List[T]) error {
	if list == nil {
		return nil
	}
	if list.handle == 0 {
		return errs.New(errs.InvalidArgument, "abi.release_list", "list already released")
	}
	if err := l.Release(list.handle); err != nil {
		return err
	}
	list.handle = 0
	list.Items = nil
	list.Count = 0
	list.Size = 0
	return nil
}
