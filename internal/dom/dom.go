// Package dom provides the document model the Lucid runtime renders into,
// built on golang.org/x/net/html. It adds the small set of operations the
// runtime needs over raw nodes: id lookup, attribute access, deep cloning,
// fragment parsing, and the hidden holding container that stores fetched
// template fragments.
package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HoldingContainerID identifies the hidden element appended to the body
// that holds fetched <template> fragments for id lookup.
const HoldingContainerID = "lucid-template-store"

// Document wraps a parsed HTML tree.
type Document struct {
	root *html.Node
}

// ParseDocument parses a full HTML document from markup.
func ParseDocument(markup string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}

	return &Document{root: root}, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Head returns the document's <head> element, or nil.
func (d *Document) Head() *html.Node {
	return findElement(d.root, atom.Head)
}

// Body returns the document's <body> element, or nil.
func (d *Document) Body() *html.Node {
	return findElement(d.root, atom.Body)
}

// ByID returns the first element with the given id attribute, or nil.
func (d *Document) ByID(id string) *html.Node {
	return ByID(d.root, id)
}

// HoldingContainer returns the hidden template holding container, creating
// and appending it to the body on first use. Returns nil when the document
// has no body.
func (d *Document) HoldingContainer() *html.Node {
	if existing := d.ByID(HoldingContainerID); existing != nil {
		return existing
	}

	body := d.Body()
	if body == nil {
		return nil
	}

	holder := NewElement("div",
		html.Attribute{Key: "id", Val: HoldingContainerID},
		html.Attribute{Key: "hidden", Val: ""},
		html.Attribute{Key: "aria-hidden", Val: "true"},
	)
	body.AppendChild(holder)

	return holder
}

// Render serializes the document back to markup.
func (d *Document) Render() (string, error) {
	return RenderNode(d.root)
}

// RenderNode serializes a single node and its subtree.
func RenderNode(n *html.Node) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// NewElement creates a detached element node.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// NewText creates a detached text node.
func NewText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// Attr returns the value of the named attribute and whether it is present.
func Attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}

	return "", false
}

// SetAttr sets or replaces the named attribute.
func SetAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}

	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes the named attribute if present.
func RemoveAttr(n *html.Node, name string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// ByID returns the first element under n with the given id, or nil.
func ByID(n *html.Node, id string) *html.Node {
	var found *html.Node
	Walk(n, func(node *html.Node) bool {
		if node.Type != html.ElementNode {
			return true
		}
		if v, ok := Attr(node, "id"); ok && v == id {
			found = node
			return false
		}
		return true
	})

	return found
}

// ElementsByTag collects all elements under n with the given tag name.
func ElementsByTag(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	Walk(n, func(node *html.Node) bool {
		if node.Type == html.ElementNode && node.Data == tag {
			out = append(out, node)
		}
		return true
	})

	return out
}

// Walk visits n and its subtree in document order. The visitor returns
// false to stop the walk.
func Walk(n *html.Node, visit func(*html.Node) bool) {
	if !walk(n, visit) {
		return
	}
}

func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}

	return true
}

// Clone returns a detached deep copy of n. Mutating the copy never affects
// the original.
func Clone(n *html.Node) *html.Node {
	cloned := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	cloned.Attr = make([]html.Attribute, len(n.Attr))
	copy(cloned.Attr, n.Attr)

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		cloned.AppendChild(Clone(c))
	}

	return cloned
}

// RemoveChildren detaches every child of n.
func RemoveChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// AppendFragment appends each node in the fragment as a child of parent.
func AppendFragment(parent *html.Node, fragment []*html.Node) {
	for _, n := range fragment {
		parent.AppendChild(n)
	}
}

// ParseFragment parses markup as body content and returns the resulting
// detached top-level nodes.
func ParseFragment(markup string) ([]*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, err
	}

	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}

	return nodes, nil
}

// Text returns the concatenated text content of n's subtree.
func Text(n *html.Node) string {
	var sb strings.Builder
	Walk(n, func(node *html.Node) bool {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		return true
	})

	return sb.String()
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	var found *html.Node
	Walk(n, func(node *html.Node) bool {
		if node.Type == html.ElementNode && node.DataAtom == a {
			found = node
			return false
		}
		return true
	})

	return found
}
