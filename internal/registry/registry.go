// Package registry maps stable custom tag names to component definitions.
// Registration is explicitly idempotent: a tag is bound at most once per
// registry, and re-registration attempts are guarded no-ops rather than
// errors, matching the once-per-document registration convention of the
// page runtime.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/lucidcomponents/lucid/internal/runtime"
)

// EventType represents the type of registry event.
type EventType int

const (
	EventTypeRegistered EventType = iota
	EventTypeRemoved
)

// Event represents a change in the component registry.
type Event struct {
	Type       EventType
	Definition *runtime.Definition
	Timestamp  time.Time
}

// ComponentRegistry manages all registered component definitions.
type ComponentRegistry struct {
	definitions map[string]*runtime.Definition
	mutex       sync.RWMutex
	watchers    []chan Event
}

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		definitions: make(map[string]*runtime.Definition),
		watchers:    make([]chan Event, 0),
	}
}

// RegisterIfAbsent binds def's tag name unless it is already bound. It
// reports whether the registration took effect; a second registration for
// the same tag is a no-op returning false.
func (r *ComponentRegistry) RegisterIfAbsent(def *runtime.Definition) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.definitions[def.TagName]; exists {
		return false
	}

	r.definitions[def.TagName] = def
	r.notify(Event{Type: EventTypeRegistered, Definition: def, Timestamp: time.Now()})

	return true
}

// Get retrieves a definition by tag name.
func (r *ComponentRegistry) Get(tag string) (*runtime.Definition, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	def, exists := r.definitions[tag]
	return def, exists
}

// Tags returns the registered tag names in sorted order.
func (r *ComponentRegistry) Tags() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	tags := make([]string, 0, len(r.definitions))
	for tag := range r.definitions {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	return tags
}

// GetAll returns all registered definitions keyed by tag name.
func (r *ComponentRegistry) GetAll() map[string]*runtime.Definition {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make(map[string]*runtime.Definition, len(r.definitions))
	for tag, def := range r.definitions {
		result[tag] = def
	}

	return result
}

// Remove unbinds a tag. Unknown tags are ignored.
func (r *ComponentRegistry) Remove(tag string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	def, exists := r.definitions[tag]
	if !exists {
		return
	}

	delete(r.definitions, tag)
	r.notify(Event{Type: EventTypeRemoved, Definition: def, Timestamp: time.Now()})
}

// Count returns the number of registered definitions.
func (r *ComponentRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.definitions)
}

// Watch returns a channel that receives registry events.
func (r *ComponentRegistry) Watch() <-chan Event {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan Event, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it.
func (r *ComponentRegistry) UnWatch(ch <-chan Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

func (r *ComponentRegistry) notify(event Event) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}
