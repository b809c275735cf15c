// Package templates fetches, caches, and serves the named markup fragments
// components render from. Each fragment file may contain several <template>
// elements; a fragment is fetched at most once per document, validated
// against a safe-character allowlist before any network access, and its
// templates are inserted into a hidden holding container so later lookups
// by id succeed.
//
// Concurrent first-time loads of the same fragment are collapsed into a
// single request: callers share one in-flight fetch per name instead of
// each issuing their own.
package templates

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/lucidcomponents/lucid/internal/dom"
	lucerrors "github.com/lucidcomponents/lucid/internal/errors"
	"github.com/lucidcomponents/lucid/internal/logging"
	"github.com/lucidcomponents/lucid/internal/paths"
)

// DefaultRoute is the site-relative directory template fragments are
// fetched from.
const DefaultRoute = "shared/partials/templates"

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// IsValidName reports whether name is safe to interpolate into a fetch
// URL. Only letters, digits, underscore, and hyphen pass; any separator or
// traversal character fails.
func IsValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Service is the per-document template cache and loader.
type Service struct {
	paths  *paths.Service
	doc    *dom.Document
	client *http.Client
	logger logging.Logger

	// origin is the scheme://host the resolved root-relative URL is
	// fetched against.
	origin string
	route  string

	mu    sync.RWMutex
	cache map[string]string

	group singleflight.Group
}

// Options configures a Service.
type Options struct {
	Origin string
	Route  string
	Client *http.Client
}

// NewService creates a loader bound to a document and path service.
func NewService(doc *dom.Document, resolver *paths.Service, logger logging.Logger, opts Options) *Service {
	if opts.Route == "" {
		opts.Route = DefaultRoute
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}

	return &Service{
		paths:  resolver,
		doc:    doc,
		client: opts.Client,
		logger: logger.WithComponent("templates"),
		origin: strings.TrimRight(opts.Origin, "/"),
		route:  opts.Route,
		cache:  make(map[string]string),
	}
}

// Cached reports whether the named fragment has already been loaded.
func (s *Service) Cached(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.cache[name]
	return ok
}

// Load fetches the named fragment unless it is already cached. Invalid
// names fail fast with no network call. Fetch failures are logged with the
// attempted URL and deployment context and returned as recoverable errors;
// callers degrade to empty rendering rather than failing attachment.
func (s *Service) Load(ctx context.Context, name string) error {
	if !IsValidName(name) {
		err := lucerrors.NewInvalidNameError(name)
		s.logger.Warn(ctx, err, "rejected template name before fetch")
		return err
	}

	if s.Cached(name) {
		return nil
	}

	// Collapse concurrent first-time loads of one name into a single
	// fetch; every caller observes the same result.
	_, err, _ := s.group.Do(name, func() (interface{}, error) {
		if s.Cached(name) {
			return nil, nil
		}
		return nil, s.fetch(ctx, name)
	})

	return err
}

// LoadAll loads several fragments. Sequential mode loads one at a time in
// order, for callers whose side effects are order-sensitive; otherwise all
// fetches are issued concurrently.
func (s *Service) LoadAll(ctx context.Context, names []string, sequential bool) error {
	if sequential {
		for _, name := range names {
			if err := s.Load(ctx, name); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		name := name
		g.Go(func() error {
			return s.Load(gctx, name)
		})
	}

	return g.Wait()
}

// Get returns the previously inserted template element with the given id,
// or nil. A missing id or a non-template element under that id is logged.
func (s *Service) Get(id string) *html.Node {
	holder := s.doc.HoldingContainer()
	if holder == nil {
		s.logger.Warn(context.Background(), nil, "document has no holding container", "template_id", id)
		return nil
	}

	node := dom.ByID(holder, id)
	if node == nil {
		s.logger.Warn(context.Background(), nil, "template not found", "template_id", id)
		return nil
	}
	if node.Data != "template" {
		s.logger.Warn(context.Background(), nil, "element is not a template", "template_id", id, "tag", node.Data)
		return nil
	}

	return node
}

// Clone returns a fresh, independent deep clone of the template's content.
// Each call produces new nodes; mutating one clone never affects another
// clone or the stored template.
func (s *Service) Clone(id string) []*html.Node {
	tmpl := s.Get(id)
	if tmpl == nil {
		return nil
	}

	var fragment []*html.Node
	for c := tmpl.FirstChild; c != nil; c = c.NextSibling {
		fragment = append(fragment, dom.Clone(c))
	}

	return fragment
}

// Names returns the loaded fragment names.
func (s *Service) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.cache))
	for name := range s.cache {
		out = append(out, name)
	}

	return out
}

// URLFor returns the absolute URL the named fragment is fetched from.
func (s *Service) URLFor(name string) string {
	return s.origin + s.paths.Resolve(s.route+"/"+name+".html")
}

func (s *Service) fetch(ctx context.Context, name string) error {
	url := s.URLFor(name)
	loc := s.paths.Location()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		nerr := lucerrors.NewNetworkError("template "+name, err).WithURL(url)
		s.logger.Error(ctx, nerr, "building template request failed",
			"base_path", s.paths.BasePath(), "page_path", loc.Path)
		return nerr
	}

	resp, err := s.client.Do(req)
	if err != nil {
		nerr := lucerrors.NewNetworkError("template "+name, err).WithURL(url).
			WithLocation(s.paths.BasePath(), loc.Path)
		s.logger.Error(ctx, nerr, "template fetch failed")
		return nerr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		nerr := lucerrors.NewNotFoundError("template "+name, resp.StatusCode).WithURL(url).
			WithLocation(s.paths.BasePath(), loc.Path)
		s.logger.Error(ctx, nerr, "template fetch returned non-success status")
		return nerr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		nerr := lucerrors.NewNetworkError("template "+name, err).WithURL(url)
		s.logger.Error(ctx, nerr, "reading template body failed")
		return nerr
	}

	return s.install(ctx, name, string(body))
}

// install stores the raw markup and inserts its <template> elements into
// the holding container. Cache presence implies the templates are in the
// document, so both writes happen under one lock.
func (s *Service) install(ctx context.Context, name, markup string) error {
	nodes, err := dom.ParseFragment(markup)
	if err != nil {
		perr := lucerrors.NewParseError(fmt.Sprintf("template fragment %q", name), err)
		s.logger.Error(ctx, perr, "template fragment rejected")
		return perr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cache[name]; ok {
		return nil
	}

	holder := s.doc.HoldingContainer()
	if holder == nil {
		ierr := lucerrors.NewInternalError(lucerrors.ErrCodeInternalError, "document has no body for holding container", nil)
		s.logger.Error(ctx, ierr, "cannot install templates", "fragment", name)
		return ierr
	}

	installed := 0
	for _, n := range nodes {
		for _, tmpl := range collectTemplates(n) {
			if tmpl.Parent != nil {
				tmpl.Parent.RemoveChild(tmpl)
			}
			holder.AppendChild(tmpl)
			installed++
		}
	}

	s.cache[name] = markup
	s.logger.Debug(ctx, "template fragment installed", "fragment", name, "templates", installed)

	return nil
}

func collectTemplates(n *html.Node) []*html.Node {
	if n.Type == html.ElementNode && n.Data == "template" {
		return []*html.Node{n}
	}

	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, collectTemplates(c)...)
	}

	return out
}
