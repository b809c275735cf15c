// Package runtime implements the lifecycle contract every Lucid element
// follows: construction, attachment, attribute-change reactivity,
// idempotent rendering, listener registration with guaranteed cleanup, and
// deduplicated style injection. Lifecycle transitions are modeled as an
// explicit state machine with guarded transitions rather than hook methods
// called in a platform-defined order.
package runtime

import (
	"context"

	"github.com/lucidcomponents/lucid/internal/bus"
	"github.com/lucidcomponents/lucid/internal/logging"
	"github.com/lucidcomponents/lucid/internal/paths"
	"github.com/lucidcomponents/lucid/internal/styles"
	"github.com/lucidcomponents/lucid/internal/templates"
)

// RenderMode declares an element's rendering target as a capability flag
// on its definition, not as inheritance.
type RenderMode int

const (
	// ModeShared renders into the shared document tree; the stylesheet is
	// global and must be deduplicated per component type.
	ModeShared RenderMode = iota
	// ModeIsolated renders into an isolated scope whose markup and style
	// are not reachable by outside selectors.
	ModeIsolated
)

// String returns the string representation of the render mode.
func (m RenderMode) String() string {
	switch m {
	case ModeShared:
		return "shared"
	case ModeIsolated:
		return "isolated"
	default:
		return "unknown"
	}
}

// RenderFunc builds an element's internal structure from its current
// attributes into the element's render root. It must be idempotent: the
// runtime clears the render root before every invocation.
type RenderFunc func(ctx context.Context, el *Element) error

// Definition describes one component type.
type Definition struct {
	// TagName is the stable custom tag, e.g. "lc-card".
	TagName string
	// Mode selects the rendering target.
	Mode RenderMode
	// StyleID is the stable identifier styling is deduplicated under.
	StyleID string
	// Stylesheet is the CSS injected once per type (shared mode) or once
	// per scope (isolated mode).
	Stylesheet string
	// Templates lists the template fragments loaded before first render.
	Templates []string
	// ObservedAttributes lists attributes whose changes trigger rerender.
	ObservedAttributes []string
	// Render builds the element subtree.
	Render RenderFunc
	// Description is human-readable documentation for listing tools.
	Description string
}

// Observes reports whether the definition reacts to the named attribute.
func (d *Definition) Observes(name string) bool {
	for _, a := range d.ObservedAttributes {
		if a == name {
			return true
		}
	}

	return false
}

// Services is the explicit service set injected into every element, in
// place of the ambient globals of a conventional page runtime.
type Services struct {
	Paths     *paths.Service
	Templates *templates.Service
	Styles    *styles.Injector
	Bus       *bus.Bus
	Logger    logging.Logger
}
