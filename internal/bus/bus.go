// Package bus implements the scoped publish/subscribe mechanism backing
// element events. Each element publishes into its own scope; events marked
// Composed propagate outward through parent scopes, crossing isolation
// boundaries the way a composed event crosses a rendering scope. Events
// without the flag stop at the first isolated boundary.
package bus

import (
	"sync"
	"time"
)

// Event is a typed event published to a scope.
type Event struct {
	Name   string
	Detail interface{}
	Source string
	Time   time.Time
	// Composed controls whether the event crosses isolated scope
	// boundaries while propagating toward the document scope.
	Composed bool
}

// Handler receives published events.
type Handler func(Event)

// Bus owns the scope tree. The root scope plays the role of the document:
// handlers registered there see every composed event in the tree.
type Bus struct {
	mu   sync.RWMutex
	root *Scope
}

// Scope is one propagation level. Isolated scopes stop non-composed events.
type Scope struct {
	bus      *Bus
	parent   *Scope
	isolated bool
	handlers map[string][]*Subscription
}

// Subscription identifies one registered handler for later cancellation.
type Subscription struct {
	scope   *Scope
	event   string
	handler Handler
}

// New creates a bus with an empty document scope.
func New() *Bus {
	b := &Bus{}
	b.root = &Scope{bus: b, handlers: make(map[string][]*Subscription)}

	return b
}

// Document returns the root scope.
func (b *Bus) Document() *Scope {
	return b.root
}

// NewChild creates a scope nested under s. Isolated scopes form an
// isolation boundary for event propagation.
func (s *Scope) NewChild(isolated bool) *Scope {
	return &Scope{
		bus:      s.bus,
		parent:   s,
		isolated: isolated,
		handlers: make(map[string][]*Subscription),
	}
}

// Subscribe registers a handler for the named event on this scope.
func (s *Scope) Subscribe(event string, h Handler) *Subscription {
	sub := &Subscription{scope: s, event: event, handler: h}

	s.bus.mu.Lock()
	s.handlers[event] = append(s.handlers[event], sub)
	s.bus.mu.Unlock()

	return sub
}

// Cancel removes the subscription. Safe to call more than once.
func (sub *Subscription) Cancel() {
	if sub == nil || sub.scope == nil {
		return
	}

	s := sub.scope
	s.bus.mu.Lock()
	subs := s.handlers[sub.event]
	for i, candidate := range subs {
		if candidate == sub {
			s.handlers[sub.event] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	s.bus.mu.Unlock()

	sub.scope = nil
}

// Publish delivers the event to this scope's handlers and then propagates
// toward the document scope. Propagation stops at an isolated boundary
// unless the event is composed.
func (s *Scope) Publish(evt Event) {
	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}

	for scope := s; scope != nil; scope = scope.parent {
		for _, h := range scope.snapshot(evt.Name) {
			h(evt)
		}
		if scope.isolated && !evt.Composed {
			return
		}
	}
}

// HandlerCount returns the number of handlers registered on this scope for
// the named event.
func (s *Scope) HandlerCount(event string) int {
	s.bus.mu.RLock()
	defer s.bus.mu.RUnlock()

	return len(s.handlers[event])
}

// TotalHandlers returns the number of handlers registered on this scope
// across all events.
func (s *Scope) TotalHandlers() int {
	s.bus.mu.RLock()
	defer s.bus.mu.RUnlock()

	total := 0
	for _, subs := range s.handlers {
		total += len(subs)
	}

	return total
}

// snapshot copies the handler list so publishing never holds the lock while
// running handlers, and handlers may subscribe or cancel reentrantly.
func (s *Scope) snapshot(event string) []Handler {
	s.bus.mu.RLock()
	defer s.bus.mu.RUnlock()

	subs := s.handlers[event]
	if len(subs) == 0 {
		return nil
	}

	out := make([]Handler, len(subs))
	for i, sub := range subs {
		out[i] = sub.handler
	}

	return out
}
