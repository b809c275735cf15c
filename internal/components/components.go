// Package components holds the built-in element definitions shipped with
// the runtime: site chrome (lc-header, lc-footer), content cards
// (lc-card), and dialogs (lc-dialog). Each definition exercises the full
// lifecycle contract: template cloning, attribute reactivity, listener
// registration, event emission, and style injection.
package components

import (
	"context"
	"sort"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lucidcomponents/lucid/internal/bus"
	"github.com/lucidcomponents/lucid/internal/dom"
	"github.com/lucidcomponents/lucid/internal/registry"
	"github.com/lucidcomponents/lucid/internal/runtime"
)

// Template fragment names the built-ins load.
const (
	FragmentNavigation = "navigation"
	FragmentCards      = "cards"
)

// Template element ids inside the fragments.
const (
	CardBaseTemplateID = "lc-card-base-template"
	NavTemplateID      = "lc-nav-template"
)

var titleCaser = cases.Title(language.English)

// RegisterBuiltins registers every built-in definition. Registration is
// idempotent, so calling this more than once per registry is harmless.
func RegisterBuiltins(reg *registry.ComponentRegistry) {
	reg.RegisterIfAbsent(Header())
	reg.RegisterIfAbsent(Footer())
	reg.RegisterIfAbsent(Card())
	reg.RegisterIfAbsent(Dialog())
}

// Header renders the site navigation bar from the navigation template
// fragment, with a brand title taken from the page attributes.
func Header() *runtime.Definition {
	return &runtime.Definition{
		TagName:            "lc-header",
		Mode:               runtime.ModeShared,
		StyleID:            "lc-header-styles",
		Stylesheet:         headerCSS,
		Templates:          []string{FragmentNavigation},
		ObservedAttributes: []string{"brand", "active"},
		Description:        "Site header with navigation links",
		Render:             renderHeader,
	}
}

func renderHeader(ctx context.Context, el *runtime.Element) error {
	root := el.Root()
	svc := el.Services()

	header := dom.NewElement("header", html.Attribute{Key: "class", Val: "lc-header"})

	brand := dom.NewElement("a",
		html.Attribute{Key: "class", Val: "lc-header__brand"},
		html.Attribute{Key: "href", Val: svc.Paths.Resolve("/")},
	)
	brand.AppendChild(dom.NewText(el.Attr("brand", "Lucid")))
	header.AppendChild(brand)

	if nav := svc.Templates.Clone(NavTemplateID); nav != nil {
		active := el.Attr("active", "")
		for _, n := range nav {
			markActiveLink(n, active, svc.Paths.Resolve)
			header.AppendChild(n)
		}
	}

	root.AppendChild(header)

	el.On(runtime.TargetDocument, "lucid:navigate", func(evt bus.Event) {
		el.Services().Logger.Debug(ctx, "navigation requested", "detail", evt.Detail)
	})

	return nil
}

// markActiveLink rewrites data-path references to resolved hrefs and tags
// the link matching the active section.
func markActiveLink(n *html.Node, active string, resolve func(string) string) {
	dom.Walk(n, func(node *html.Node) bool {
		if node.Type != html.ElementNode || node.Data != "a" {
			return true
		}
		if p, ok := dom.Attr(node, "data-path"); ok {
			dom.SetAttr(node, "href", resolve(p))
			dom.RemoveAttr(node, "data-path")
			if active != "" && p == active {
				dom.SetAttr(node, "aria-current", "page")
			}
		}
		return true
	})
}

// Footer renders the site footer. Link groups arrive as a JSON attribute;
// malformed JSON falls back to an empty footer rather than failing.
func Footer() *runtime.Definition {
	return &runtime.Definition{
		TagName:            "lc-footer",
		Mode:               runtime.ModeShared,
		StyleID:            "lc-footer-styles",
		Stylesheet:         footerCSS,
		ObservedAttributes: []string{"links", "copyright"},
		Description:        "Site footer with link groups",
		Render:             renderFooter,
	}
}

func renderFooter(ctx context.Context, el *runtime.Element) error {
	root := el.Root()

	footer := dom.NewElement("footer", html.Attribute{Key: "class", Val: "lc-footer"})

	var groups map[string][]string
	if el.JSONAttr("links", &groups) {
		// Stable group order keeps repeated renders structurally identical.
		names := make([]string, 0, len(groups))
		for name := range groups {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			links := groups[name]
			section := dom.NewElement("nav", html.Attribute{Key: "class", Val: "lc-footer__group"})
			heading := dom.NewElement("h2")
			heading.AppendChild(dom.NewText(titleCaser.String(name)))
			section.AppendChild(heading)
			list := dom.NewElement("ul")
			for _, link := range links {
				item := dom.NewElement("li")
				anchor := dom.NewElement("a",
					html.Attribute{Key: "href", Val: el.Services().Paths.Resolve(link)})
				anchor.AppendChild(dom.NewText(link))
				item.AppendChild(anchor)
				list.AppendChild(item)
			}
			section.AppendChild(list)
			footer.AppendChild(section)
		}
	}

	notice := dom.NewElement("p", html.Attribute{Key: "class", Val: "lc-footer__copyright"})
	notice.AppendChild(dom.NewText(el.Attr("copyright", "")))
	footer.AppendChild(notice)

	root.AppendChild(footer)

	return nil
}

// Card renders a content card from the card base template, falling back to
// a minimal structure when the template fragment is unavailable.
func Card() *runtime.Definition {
	return &runtime.Definition{
		TagName:            "lc-card",
		Mode:               runtime.ModeIsolated,
		StyleID:            "lc-card-styles",
		Stylesheet:         cardCSS,
		Templates:          []string{FragmentCards},
		ObservedAttributes: []string{"title", "variant", "elevation"},
		Description:        "Content card with title and variant styling",
		Render:             renderCard,
	}
}

func renderCard(ctx context.Context, el *runtime.Element) error {
	root := el.Root()
	svc := el.Services()

	variant := el.Attr("variant", "default")
	elevation := int(el.NumAttr("elevation", 1))

	fragment := svc.Templates.Clone(CardBaseTemplateID)
	if fragment == nil {
		card := dom.NewElement("article", html.Attribute{Key: "class", Val: "lc-card lc-card--" + variant})
		heading := dom.NewElement("h3", html.Attribute{Key: "class", Val: "lc-card__title"})
		heading.AppendChild(dom.NewText(el.Attr("title", "")))
		card.AppendChild(heading)
		root.AppendChild(card)
		return nil
	}

	for _, n := range fragment {
		dom.Walk(n, func(node *html.Node) bool {
			if node.Type != html.ElementNode {
				return true
			}
			if cls, ok := dom.Attr(node, "class"); ok && cls == "lc-card" {
				dom.SetAttr(node, "class", "lc-card lc-card--"+variant)
				dom.SetAttr(node, "data-elevation", strconv.Itoa(elevation))
			}
			if _, ok := dom.Attr(node, "data-slot-title"); ok {
				dom.RemoveChildren(node)
				node.AppendChild(dom.NewText(el.Attr("title", "")))
			}
			return true
		})
		root.AppendChild(n)
	}

	return nil
}

// Dialog renders a modal dialog. It listens document-wide for a dismiss
// event and emits a composed close event when dismissed, crossing its
// isolation boundary so page scripts can react.
func Dialog() *runtime.Definition {
	return &runtime.Definition{
		TagName:            "lc-dialog",
		Mode:               runtime.ModeIsolated,
		StyleID:            "lc-dialog-styles",
		Stylesheet:         dialogCSS,
		ObservedAttributes: []string{"open", "heading"},
		Description:        "Modal dialog with document-wide dismiss handling",
		Render:             renderDialog,
	}
}

func renderDialog(ctx context.Context, el *runtime.Element) error {
	root := el.Root()

	open := el.BoolAttr("open")

	dialog := dom.NewElement("div",
		html.Attribute{Key: "class", Val: "lc-dialog"},
		html.Attribute{Key: "role", Val: "dialog"},
		html.Attribute{Key: "aria-modal", Val: "true"},
	)
	if !open {
		dom.SetAttr(dialog, "hidden", "")
	}

	heading := dom.NewElement("h2", html.Attribute{Key: "class", Val: "lc-dialog__heading"})
	heading.AppendChild(dom.NewText(el.Attr("heading", "")))
	dialog.AppendChild(heading)

	body := dom.NewElement("div", html.Attribute{Key: "class", Val: "lc-dialog__body"})
	dialog.AppendChild(body)

	root.AppendChild(dialog)

	el.On(runtime.TargetDocument, "lucid:dismiss", func(evt bus.Event) {
		el.Emit("lc-dialog:close", evt.Detail)
	})

	return nil
}

const headerCSS = `.lc-header{display:flex;align-items:center;gap:1rem;padding:0.75rem 1rem}
.lc-header__brand{font-weight:600;text-decoration:none}`

const footerCSS = `.lc-footer{padding:1.5rem 1rem;border-top:1px solid var(--lc-border,#ddd)}
.lc-footer__group h2{font-size:0.875rem;text-transform:uppercase}
.lc-footer__copyright{font-size:0.8rem;opacity:0.7}`

const cardCSS = `.lc-card{border-radius:8px;padding:1rem;border:1px solid var(--lc-border,#ddd)}
.lc-card--featured{border-color:var(--lc-accent,#4a6cf7)}
.lc-card__title{margin:0 0 0.5rem}`

const dialogCSS = `.lc-dialog{position:fixed;inset:20% 25%;border-radius:8px;padding:1.5rem;background:var(--lc-surface,#fff)}
.lc-dialog[hidden]{display:none}
.lc-dialog__heading{margin-top:0}`
