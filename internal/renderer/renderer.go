// Package renderer mounts registered components into parsed pages and
// serializes the result. It drives the full per-page sequence: bootstrap
// (topology detection and alias-map rewrite), element instantiation in
// document order, attachment, and rendering. Rendered pages are cached by
// path and content hash.
package renderer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/net/html"

	"github.com/lucidcomponents/lucid/internal/dom"
	"github.com/lucidcomponents/lucid/internal/logging"
	"github.com/lucidcomponents/lucid/internal/registry"
	"github.com/lucidcomponents/lucid/internal/runtime"
)

// DefaultCacheSize bounds the rendered-page cache.
const DefaultCacheSize = 256

// PageRenderer renders site pages through the component runtime.
type PageRenderer struct {
	registry *registry.ComponentRegistry
	logger   logging.Logger
	cfg      runtime.BootstrapConfig
	cache    *lru.Cache[string, string]
}

// Page is the outcome of rendering one document.
type Page struct {
	Document *dom.Document
	Services *runtime.Services
	Elements []*runtime.Element
}

// NewPageRenderer creates a renderer. cfg supplies everything except the
// per-page location, which callers pass per render.
func NewPageRenderer(reg *registry.ComponentRegistry, cfg runtime.BootstrapConfig, logger logging.Logger) (*PageRenderer, error) {
	cache, err := lru.New[string, string](DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating render cache: %w", err)
	}

	return &PageRenderer{
		registry: reg,
		logger:   logger.WithComponent("renderer"),
		cfg:      cfg,
		cache:    cache,
	}, nil
}

// RenderPage parses markup as a page served at pagePath, mounts every
// registered component found in it, and returns the serialized result.
// Results are cached by (pagePath, markup hash); a content change misses
// the cache naturally.
func (r *PageRenderer) RenderPage(ctx context.Context, pagePath, markup string) (string, error) {
	key := cacheKey(pagePath, markup)
	if cached, ok := r.cache.Get(key); ok {
		return cached, nil
	}

	page, err := r.MountPage(ctx, pagePath, markup)
	if err != nil {
		return "", err
	}

	rendered, err := page.Document.Render()
	if err != nil {
		return "", fmt.Errorf("serializing page %s: %w", pagePath, err)
	}

	r.cache.Add(key, rendered)
	return rendered, nil
}

// MountPage parses and mounts a page without serializing it, for callers
// that keep interacting with the live element instances.
func (r *PageRenderer) MountPage(ctx context.Context, pagePath, markup string) (*Page, error) {
	doc, err := dom.ParseDocument(markup)
	if err != nil {
		return nil, fmt.Errorf("parsing page %s: %w", pagePath, err)
	}

	cfg := r.cfg
	cfg.Location.Path = pagePath

	svc := runtime.Bootstrap(ctx, doc, cfg, r.logger)

	var elements []*runtime.Element
	body := doc.Body()
	if body != nil {
		for _, host := range r.hosts(body) {
			def, _ := r.registry.Get(host.Data)
			el := runtime.NewElement(def, host, doc, *svc)
			el.Attach(ctx)
			elements = append(elements, el)
		}
	}

	r.logger.Debug(ctx, "page mounted",
		"page_path", pagePath, "elements", len(elements), "base_path", svc.Paths.BasePath())

	return &Page{Document: doc, Services: svc, Elements: elements}, nil
}

// RenderComponent mounts a single component with the given attributes into
// a minimal page, for preview endpoints.
func (r *PageRenderer) RenderComponent(ctx context.Context, tag string, attrs map[string]string) (string, error) {
	if _, ok := r.registry.Get(tag); !ok {
		return "", fmt.Errorf("component %s not found", tag)
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html><html><head></head><body><")
	sb.WriteString(tag)
	for k, v := range attrs {
		sb.WriteString(fmt.Sprintf(" %s=%q", k, v))
	}
	sb.WriteString("></")
	sb.WriteString(tag)
	sb.WriteString("></body></html>")

	page, err := r.MountPage(ctx, "/", sb.String())
	if err != nil {
		return "", err
	}

	host := page.Elements
	if len(host) == 0 {
		return "", fmt.Errorf("component %s did not mount", tag)
	}

	return dom.RenderNode(host[0].Host())
}

// PurgeCache drops all cached rendered pages.
func (r *PageRenderer) PurgeCache() {
	r.cache.Purge()
}

// CacheLen returns the number of cached rendered pages.
func (r *PageRenderer) CacheLen() int {
	return r.cache.Len()
}

// hosts collects, in document order, the elements whose tags are
// registered. Nested hosts inside another host's subtree are left for
// their parent component to manage.
func (r *PageRenderer) hosts(root *html.Node) []*html.Node {
	var out []*html.Node
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, ok := r.registry.Get(n.Data); ok {
				out = append(out, n)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(root)

	return out
}

func cacheKey(pagePath, markup string) string {
	sum := sha256.Sum256([]byte(markup))
	return pagePath + ":" + hex.EncodeToString(sum[:8])
}
