// Package styles implements deduplicated stylesheet injection. Many
// independently-initialized element instances share the document head, so
// the injector uses check-before-insert by stable identifier: N instances
// of one component type produce exactly one stylesheet element.
package styles

import (
	"sync"

	"golang.org/x/net/html"

	"github.com/lucidcomponents/lucid/internal/dom"
)

// IdentifierAttr marks injected stylesheet elements with the stable style
// identifier used for the check-before-insert test.
const IdentifierAttr = "data-lucid-style"

// Injector injects stylesheets into a document head exactly once per
// identifier.
type Injector struct {
	doc *dom.Document
	mu  sync.Mutex
}

// NewInjector creates an injector bound to the document.
func NewInjector(doc *dom.Document) *Injector {
	return &Injector{doc: doc}
}

// Apply injects css under styleID unless a stylesheet bearing that
// identifier is already present in the head. It reports whether an
// insertion happened. The check and insert run under one lock, keeping the
// pair atomic for concurrent attachers.
func (i *Injector) Apply(styleID, css string) bool {
	if styleID == "" || css == "" {
		return false
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.find(styleID) != nil {
		return false
	}

	head := i.doc.Head()
	if head == nil {
		return false
	}

	style := dom.NewElement("style", html.Attribute{Key: IdentifierAttr, Val: styleID})
	style.AppendChild(dom.NewText(css))
	head.AppendChild(style)

	return true
}

// Injected reports whether a stylesheet with the identifier is present.
func (i *Injector) Injected(styleID string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.find(styleID) != nil
}

// Count returns the number of stylesheet elements bearing the identifier.
// Useful for verifying the exactly-once guarantee.
func (i *Injector) Count(styleID string) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	head := i.doc.Head()
	if head == nil {
		return 0
	}

	count := 0
	for _, style := range dom.ElementsByTag(head, "style") {
		if v, ok := dom.Attr(style, IdentifierAttr); ok && v == styleID {
			count++
		}
	}

	return count
}

func (i *Injector) find(styleID string) *html.Node {
	head := i.doc.Head()
	if head == nil {
		return nil
	}

	for _, style := range dom.ElementsByTag(head, "style") {
		if v, ok := dom.Attr(style, IdentifierAttr); ok && v == styleID {
			return style
		}
	}

	return nil
}
