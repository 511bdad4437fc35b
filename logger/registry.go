package logger

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/philipp01105/fanlog/destination"
)

// registry is a copy-on-write set of destinations. Readers load the
// current slice without locking; writers serialize on mu and publish a
// fresh slice, so a snapshot taken by Emit never changes underneath it.
type registry struct {
	mu   sync.Mutex
	list atomic.Pointer[[]destination.Destination]
}

// snapshot returns the current destinations in registration order
func (r *registry) snapshot() []destination.Destination {
	if p := r.list.Load(); p != nil {
		return *p
	}
	return nil
}

// add appends dest unless it is already registered
func (r *registry) add(dest destination.Destination) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.snapshot()
	for _, existing := range current {
		if sameDestination(existing, dest) {
			return false
		}
	}
	next := make([]destination.Destination, len(current), len(current)+1)
	copy(next, current)
	next = append(next, dest)
	r.list.Store(&next)
	return true
}

// remove drops dest. Removing an unknown destination is a no-op.
func (r *registry) remove(dest destination.Destination) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.snapshot()
	for i, existing := range current {
		if !sameDestination(existing, dest) {
			continue
		}
		next := make([]destination.Destination, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		r.list.Store(&next)
		return true
	}
	return false
}

// clear empties the registry and returns what it held
func (r *registry) clear() []destination.Destination {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.snapshot()
	r.list.Store(nil)
	return current
}

// sameDestination compares by identity. Values of non-comparable types,
// such as destination.Func, never match.
func sameDestination(a, b destination.Destination) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
