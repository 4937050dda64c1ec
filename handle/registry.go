package handle

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// ErrDuplicateName is returned by Registry.Insert when an item with the
// same name is already registered for that kind.
var ErrDuplicateName = errors.New("duplicate name")

// Identified is implemented by every item kind a Registry can hold:
// SubscriptionInfo, PublicationInfo, EndpointInfo, and FilterInfo all
// satisfy this, giving the four per-kind registries in federate.State a
// single shared implementation instead of four hand-duplicated ones.
type Identified interface {
	ID() Handle
	Name() string
}

// Registry is a name- and handle-indexed collection of items of a single
// kind, matching the structure spec'd for HandleRegistry: O(1) name
// lookup via a map, O(log n) handle lookup via a handle-sorted slice.
//
// Items are referenced by pointer; a Registry never stores T by value.
// Because Go heap-allocates the pointee independently of the slice that
// references it, re-sorting byHandle after an out-of-order insertion
// never invalidates a pointer already handed out by byName or by a
// prior lookup — unlike a C++ vector<unique_ptr<T>>'s raw observer
// pointers, which the original implementation's back-pointer name map
// could in principle outlive a reallocation of the owning vector.
type Registry[T Identified] struct {
	mu       sync.Mutex
	byName   map[string]*T
	byHandle []*T
}

// NewRegistry returns an empty Registry.
func NewRegistry[T Identified]() *Registry[T] {
	return &Registry[T]{byName: make(map[string]*T)}
}

// Insert adds item under its Name() and ID(). It returns
// ErrDuplicateName if an item with the same name is already present.
// The handle-sorted slice is appended to in O(1) when the new handle is
// larger than every existing one, and re-sorted otherwise, matching the
// reference implementation's insertion strategy.
func (r *Registry[T]) Insert(item *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var name = (*item).Name()
	if _, exists := r.byName[name]; exists {
		return errors.Wrapf(ErrDuplicateName, "name %q", name)
	}
	r.byName[name] = item

	if len(r.byHandle) == 0 || (*item).ID() > (*r.byHandle[len(r.byHandle)-1]).ID() {
		r.byHandle = append(r.byHandle, item)
	} else {
		r.byHandle = append(r.byHandle, item)
		sort.Slice(r.byHandle, func(i, j int) bool {
			return (*r.byHandle[i]).ID() < (*r.byHandle[j]).ID()
		})
	}
	return nil
}

// ByName returns the item registered under name, or (nil, false).
func (r *Registry[T]) ByName(name string) (*T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.byName[name]
	return item, ok
}

// ByHandle binary-searches for the item with the given Handle, or
// returns (nil, false). The bound is checked before dereferencing the
// search result, unlike the reference implementation's documented bug
// of dereferencing an end()/missing iterator.
func (r *Registry[T]) ByHandle(h Handle) (*T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n = len(r.byHandle)
	var idx = sort.Search(n, func(i int) bool {
		return (*r.byHandle[i]).ID() >= h
	})
	if idx >= n || (*r.byHandle[idx]).ID() != h {
		return nil, false
	}
	return r.byHandle[idx], true
}

// Len returns the number of registered items.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byHandle)
}

// Each calls fn once per item, in handle order. fn must not call back
// into the Registry; Each holds the Registry's lock for its duration.
func (r *Registry[T]) Each(fn func(*T)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.byHandle {
		fn(item)
	}
}
