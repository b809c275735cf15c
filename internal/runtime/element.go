package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/lucidcomponents/lucid/internal/bus"
	"github.com/lucidcomponents/lucid/internal/dom"
	lucerrors "github.com/lucidcomponents/lucid/internal/errors"
)

// LifecycleState is the explicit per-instance state machine.
type LifecycleState int

const (
	StateUnattached LifecycleState = iota
	StateInitializing
	StateAttached
	StateDetached
)

// String returns the string representation of the lifecycle state.
func (s LifecycleState) String() string {
	switch s {
	case StateUnattached:
		return "unattached"
	case StateInitializing:
		return "initializing"
	case StateAttached:
		return "attached"
	case StateDetached:
		return "detached"
	default:
		return "unknown"
	}
}

// EventTarget selects where a listener is registered.
type EventTarget int

const (
	// TargetSelf listens on the element's own scope.
	TargetSelf EventTarget = iota
	// TargetDocument listens on the document scope. These registrations
	// are tracked like any other and removed on detach.
	TargetDocument
)

// ScopeAttr marks the isolated render root an element owns.
const ScopeAttr = "data-lucid-scope"

// InstanceAttr carries the per-instance random id on the render root.
const InstanceAttr = "data-lucid-instance"

type listener struct {
	target EventTarget
	event  string
	sub    *bus.Subscription
}

// Element is one mounted component instance. It owns the host node it was
// created for, a render root (the host itself in shared mode, a nested
// scope root in isolated mode), a listener registry for guaranteed
// cleanup, and a bus scope for event propagation.
type Element struct {
	def  *Definition
	host *html.Node
	doc  *dom.Document
	svc  Services
	id   string

	mu        sync.Mutex
	state     LifecycleState
	scope     *html.Node
	busScope  *bus.Scope
	listeners []listener
}

// NewElement creates an unattached instance of def bound to the host node.
func NewElement(def *Definition, host *html.Node, doc *dom.Document, svc Services) *Element {
	return &Element{
		def:   def,
		host:  host,
		doc:   doc,
		svc:   svc,
		id:    uuid.NewString(),
		state: StateUnattached,
	}
}

// Definition returns the component definition the element was created from.
func (e *Element) Definition() *Definition {
	return e.def
}

// ID returns the per-instance random id.
func (e *Element) ID() string {
	return e.id
}

// State returns the current lifecycle state.
func (e *Element) State() LifecycleState {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

// Host returns the element's host node in the page tree.
func (e *Element) Host() *html.Node {
	return e.host
}

// Root returns the render root: the host in shared mode, the isolated
// scope root otherwise. Nil before first attachment.
func (e *Element) Root() *html.Node {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.scope
}

// Services returns the injected service set.
func (e *Element) Services() Services {
	return e.svc
}

// Attach drives the instance from Unattached (or Detached, for
// reattachment) through Initializing to Attached. Template loading, render,
// listener wiring, and style injection all happen inside this transition.
// No error escapes: failures are logged and the element degrades to empty
// output while still reaching Attached.
func (e *Element) Attach(ctx context.Context) {
	e.mu.Lock()
	if e.state == StateAttached || e.state == StateInitializing {
		e.mu.Unlock()
		e.svc.Logger.Warn(ctx, nil, "attach ignored in current state",
			"tag", e.def.TagName, "state", e.state.String())
		return
	}
	e.state = StateInitializing
	e.mu.Unlock()

	defer e.recoverLifecycle(ctx, "attach")

	if len(e.def.Templates) > 0 {
		if err := e.svc.Templates.LoadAll(ctx, e.def.Templates, false); err != nil {
			// Missing templates degrade to an empty element; attachment
			// continues so the page never breaks on a fetch failure.
			e.svc.Logger.Warn(ctx, err, "template load failed, rendering degraded",
				"tag", e.def.TagName)
		}
	}

	e.mu.Lock()
	e.prepareScopeLocked()
	e.mu.Unlock()

	e.renderInto(ctx)
	e.applyStyles()

	e.mu.Lock()
	e.state = StateAttached
	e.mu.Unlock()
}

// Detach transitions to Detached and removes every listener the instance
// registered, including document-scope ones.
func (e *Element) Detach() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateDetached || e.state == StateUnattached {
		return
	}

	e.removeListenersLocked()
	e.state = StateDetached
}

// SetAttribute writes an attribute on the host and, when the attribute is
// observed and the element is attached, triggers a rerender. Notifications
// are delivered in the order attributes change.
func (e *Element) SetAttribute(ctx context.Context, name, value string) {
	old, had := dom.Attr(e.host, name)
	dom.SetAttr(e.host, name, value)

	if had && old == value {
		return
	}
	if e.State() == StateAttached && e.def.Observes(name) {
		e.Rerender(ctx)
	}
}

// RemoveAttribute deletes an attribute on the host with the same
// reactivity rules as SetAttribute.
func (e *Element) RemoveAttribute(ctx context.Context, name string) {
	if _, had := dom.Attr(e.host, name); !had {
		return
	}
	dom.RemoveAttr(e.host, name)

	if e.State() == StateAttached && e.def.Observes(name) {
		e.Rerender(ctx)
	}
}

// Rerender tears down the rendered subtree and listener registrations,
// re-runs render, and rewires listeners. Because every prior registration
// is removed first, document-scope listeners are never duplicated.
func (e *Element) Rerender(ctx context.Context) {
	if e.State() != StateAttached {
		return
	}

	defer e.recoverLifecycle(ctx, "rerender")

	e.mu.Lock()
	e.removeListenersLocked()
	e.mu.Unlock()

	e.renderInto(ctx)
	e.applyStyles()
}

// On registers a listener on the chosen target and records it in the
// instance registry so Detach can remove it.
func (e *Element) On(target EventTarget, event string, h bus.Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()

	scope := e.busScope
	if target == TargetDocument {
		scope = e.svc.Bus.Document()
	}
	if scope == nil {
		return
	}

	sub := scope.Subscribe(event, h)
	e.listeners = append(e.listeners, listener{target: target, event: event, sub: sub})
}

// Emit publishes a composed event from the element's scope. Composed
// events bubble through parent scopes and cross isolation boundaries.
func (e *Element) Emit(name string, detail interface{}) {
	e.mu.Lock()
	scope := e.busScope
	e.mu.Unlock()

	if scope == nil {
		scope = e.svc.Bus.Document()
	}

	scope.Publish(bus.Event{
		Name:     name,
		Detail:   detail,
		Source:   e.def.TagName + "#" + e.id,
		Composed: true,
	})
}

// ListenerCount returns the number of live registrations for a target.
func (e *Element) ListenerCount(target EventTarget) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	count := 0
	for _, l := range e.listeners {
		if l.target == target {
			count++
		}
	}

	return count
}

// Attribute accessors

// Attr returns the named attribute or def when absent.
func (e *Element) Attr(name, def string) string {
	if v, ok := dom.Attr(e.host, name); ok {
		return v
	}

	return def
}

// BoolAttr reports attribute presence, ignoring its value.
func (e *Element) BoolAttr(name string) bool {
	_, ok := dom.Attr(e.host, name)
	return ok
}

// NumAttr parses the attribute as a number, falling back to def on a
// missing or malformed value.
func (e *Element) NumAttr(name string, def float64) float64 {
	v, ok := dom.Attr(e.host, name)
	if !ok {
		return def
	}

	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}

	return parsed
}

// JSONAttr parses the attribute as JSON into the value pointed to by into.
// Malformed JSON never panics: the failure is logged as a parse error,
// into is left untouched, and false is returned so the caller keeps its
// default.
func (e *Element) JSONAttr(name string, into interface{}) bool {
	v, ok := dom.Attr(e.host, name)
	if !ok {
		return false
	}

	raw := json.RawMessage(v)
	if !json.Valid(raw) {
		perr := lucerrors.NewParseError(fmt.Sprintf("attribute %q", name), nil).
			WithComponent(e.def.TagName)
		e.svc.Logger.Warn(context.Background(), perr, "json attribute fell back to default")
		return false
	}
	if err := json.Unmarshal(raw, into); err != nil {
		perr := lucerrors.NewParseError(fmt.Sprintf("attribute %q", name), err).
			WithComponent(e.def.TagName)
		e.svc.Logger.Warn(context.Background(), perr, "json attribute fell back to default")
		return false
	}

	return true
}

// internal machinery

// prepareScopeLocked sets up the render root and bus scope. Isolated mode
// nests a scope root under the host so outside selectors cannot reach the
// rendered markup; shared mode renders straight into the host.
func (e *Element) prepareScopeLocked() {
	if e.busScope == nil {
		e.busScope = e.svc.Bus.Document().NewChild(e.def.Mode == ModeIsolated)
	}

	if e.def.Mode == ModeShared {
		e.scope = e.host
		dom.SetAttr(e.host, InstanceAttr, e.id)
		return
	}

	// Reattachment reuses an existing scope root instead of nesting a
	// second one.
	for c := e.host.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			if _, ok := dom.Attr(c, ScopeAttr); ok {
				e.scope = c
				return
			}
		}
	}

	scope := dom.NewElement("div",
		html.Attribute{Key: ScopeAttr, Val: e.def.TagName},
		html.Attribute{Key: InstanceAttr, Val: e.id},
	)
	e.host.AppendChild(scope)
	e.scope = scope
}

// renderInto clears the render root and runs the definition's render
// function. Clearing first is what makes render idempotent: two runs with
// unchanged attributes produce structurally identical output with no
// accumulated nodes.
func (e *Element) renderInto(ctx context.Context) {
	e.mu.Lock()
	scope := e.scope
	e.mu.Unlock()

	if scope == nil || e.def.Render == nil {
		return
	}

	dom.RemoveChildren(scope)

	if err := e.def.Render(ctx, e); err != nil {
		e.svc.Logger.Error(ctx, err, "render failed, element degraded to empty",
			"tag", e.def.TagName, "instance", e.id,
			"base_path", e.svc.Paths.BasePath(), "page_path", e.svc.Paths.Location().Path)
		dom.RemoveChildren(scope)
	}
}

// applyStyles is the style-injector entry point. Shared mode deduplicates
// globally by StyleID; isolated mode scopes the stylesheet to the render
// root, once per instance scope.
func (e *Element) applyStyles() {
	if e.def.Stylesheet == "" {
		return
	}

	if e.def.Mode == ModeShared {
		e.svc.Styles.Apply(e.def.StyleID, e.def.Stylesheet)
		return
	}

	e.mu.Lock()
	scope := e.scope
	e.mu.Unlock()
	if scope == nil {
		return
	}

	for _, style := range dom.ElementsByTag(scope, "style") {
		if v, ok := dom.Attr(style, "data-style-id"); ok && v == e.def.StyleID {
			return
		}
	}

	style := dom.NewElement("style", html.Attribute{Key: "data-style-id", Val: e.def.StyleID})
	style.AppendChild(dom.NewText(e.def.Stylesheet))
	if scope.FirstChild != nil {
		scope.InsertBefore(style, scope.FirstChild)
	} else {
		scope.AppendChild(style)
	}
}

func (e *Element) removeListenersLocked() {
	for _, l := range e.listeners {
		l.sub.Cancel()
	}
	e.listeners = nil
}

// recoverLifecycle converts a panic inside a lifecycle method into a log
// line. The attachment boundary offers no recovery path for exceptions, so
// nothing may propagate across it.
func (e *Element) recoverLifecycle(ctx context.Context, phase string) {
	if r := recover(); r != nil {
		err := lucerrors.NewInternalError(lucerrors.ErrCodeInternalError,
			fmt.Sprintf("panic during %s: %v", phase, r), nil).
			WithComponent(e.def.TagName)
		e.svc.Logger.Error(ctx, err, "lifecycle failure contained",
			"tag", e.def.TagName, "instance", e.id, "phase", phase)

		e.mu.Lock()
		if e.state == StateInitializing {
			e.state = StateAttached
		}
		e.mu.Unlock()
	}
}
