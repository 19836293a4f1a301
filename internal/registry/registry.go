// Package registry provides the name-keyed component table shared by the
// adapter, translator and plugin families.
//
// Entries are keyed by name and carry a priority and an optional scope.
// Sorted returns them in ascending priority; equal priorities keep
// registration order.
package registry

import (
	"sort"
	"sync"

	"github.com/dayuer/justrobot-go/internal/component"
	"github.com/dayuer/justrobot-go/internal/logging"
)

// Entry is one registered component.
type Entry[T any] struct {
	Name     string
	Priority int
	Scope    *component.Scope
	Value    T
}

// Registry holds the components of one family.
type Registry[T any] struct {
	family component.Family
	log    logging.Logger

	mu      sync.RWMutex
	entries map[string]*Entry[T]
	order   []string // registration order
}

// New creates an empty registry for family.
func New[T any](family component.Family, log logging.Logger) *Registry[T] {
	if log == nil {
		log = logging.Nop()
	}
	return &Registry[T]{
		family:  family,
		log:     log,
		entries: make(map[string]*Entry[T]),
	}
}

// Register adds e. A second entry with the same name replaces the first
// and keeps the first one's registration slot.
func (r *Registry[T]) Register(e Entry[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[e.Name]; exists {
		r.log.Log(logging.Warn, logging.En("[Registry] ⚠️ Duplicate %s %q, the later one replaces the earlier", r.family, e.Name).
			Zh("[Registry] ⚠️ %s 名称重复: %q, 后加载的覆盖先加载的", r.family, e.Name))
	} else {
		r.order = append(r.order, e.Name)
	}
	r.entries[e.Name] = &e
}

// Get returns the entry named name.
func (r *Registry[T]) Get(name string) (Entry[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[name]; ok {
		return *e, true
	}
	return Entry[T]{}, false
}

// Sorted returns all entries in ascending priority, stable on registration order.
func (r *Registry[T]) Sorted() []Entry[T] {
	r.mu.RLock()
	out := make([]Entry[T], 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.entries[name])
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// Names returns the registered names in ascending priority.
func (r *Registry[T]) Names() []string {
	sorted := r.Sorted()
	names := make([]string, 0, len(sorted))
	for _, e := range sorted {
		names = append(names, e.Name)
	}
	return names
}

// Len returns the number of registered entries.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Contains checks whether name is registered.
func (r *Registry[T]) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Family returns the family the registry holds.
func (r *Registry[T]) Family() component.Family { return r.family }
