// Package paths implements deployment-topology detection and path
// resolution for the Lucid runtime.
//
// A page may be served from three hosting topologies: a root domain, a
// subpath-hosted static deployment (wildcard static-hosting domains where
// the first path segment is the project name), and local development. The
// detector classifies the topology once per document from the page's
// hostname and path, and the resulting Service is the sole source of truth
// for turning a logical resource path into a deployment-correct URL.
package paths

import (
	"strings"
)

// Config controls topology detection.
type Config struct {
	// SubpathHosts lists wildcard hostname patterns (e.g. "*.lucidpages.dev")
	// that serve sites under a project subpath.
	SubpathHosts []string
	// ReservedRoots lists first path segments that are content roots rather
	// than project names. A reserved first segment means root deployment.
	ReservedRoots []string
	// IndexDocument is the directory index filename excluded from depth
	// counting (typically "index.html").
	IndexDocument string
}

// DefaultConfig returns the detection defaults used by the public site.
func DefaultConfig() Config {
	return Config{
		SubpathHosts:  []string{"*.lucidpages.dev"},
		ReservedRoots: []string{"pages", "shared", "common", "components", "styles", "scripts", "assets"},
		IndexDocument: "index.html",
	}
}

// Location is the page address the service resolves against.
type Location struct {
	Hostname string
	Path     string
}

// Service resolves logical resource paths against a base path computed once
// per document. All methods are pure functions over the immutable (base,
// location) pair, so repeated calls always produce identical results.
type Service struct {
	base string
	loc  Location
	cfg  Config
}

// Detect classifies the deployment topology and computes the base path.
// It returns "" for root deployments and "/<segment>" for subpath-hosted
// deployments. Detection never fails: an unrecognized hostname pattern
// falls back to the root-deployment base path.
func Detect(hostname, pathname string, cfg Config) string {
	if !matchesAny(hostname, cfg.SubpathHosts) {
		return ""
	}

	first := firstSegment(pathname)
	if first == "" || isReserved(first, cfg.ReservedRoots) {
		return ""
	}

	return "/" + first
}

// NewService computes the base path for loc and returns a resolver bound to
// it. The base path never changes for the lifetime of the service.
func NewService(loc Location, cfg Config) *Service {
	if cfg.IndexDocument == "" {
		cfg.IndexDocument = "index.html"
	}

	return &Service{
		base: Detect(loc.Hostname, loc.Path, cfg),
		loc:  loc,
		cfg:  cfg,
	}
}

// BasePath returns the computed base path: "" for root deployments,
// "/<segment>" for subpath deployments.
func (s *Service) BasePath() string {
	return s.base
}

// Location returns the page address the service was constructed with.
func (s *Service) Location() Location {
	return s.loc
}

// Resolve turns a logical root-relative resource path into a
// deployment-correct root-relative URL, regardless of the calling page's
// depth.
func (s *Service) Resolve(p string) string {
	return s.base + "/" + strings.TrimPrefix(p, "/")
}

// ResolveRelative returns a page-relative form of p, for use before the
// base path can be trusted. Depth counts the non-empty, non-index-document
// segments of the page path after the base path is removed: "./<p>" at
// depth zero, "../" repeated depth times otherwise.
func (s *Service) ResolveRelative(p string) string {
	depth := s.depth()
	if depth == 0 {
		return "./" + p
	}

	return strings.Repeat("../", depth) + p
}

// depth counts directory levels between the current page and the site root.
func (s *Service) depth() int {
	path := strings.TrimPrefix(s.loc.Path, s.base)

	depth := 0
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == s.cfg.IndexDocument {
			continue
		}
		depth++
	}

	return depth
}

// firstSegment returns the first non-empty path segment, or "".
func firstSegment(pathname string) string {
	for _, seg := range strings.Split(pathname, "/") {
		if seg != "" {
			return seg
		}
	}

	return ""
}

func isReserved(segment string, reserved []string) bool {
	for _, r := range reserved {
		if segment == r {
			return true
		}
	}

	return false
}

// matchesAny reports whether hostname matches one of the wildcard patterns.
// A pattern of the form "*.suffix" matches any hostname with at least one
// label before ".suffix"; a pattern without a wildcard must match exactly.
func matchesAny(hostname string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchHost(hostname, pattern) {
			return true
		}
	}

	return false
}

func matchHost(hostname, pattern string) bool {
	if rest, ok := strings.CutPrefix(pattern, "*."); ok {
		suffix := "." + rest
		return strings.HasSuffix(hostname, suffix) && len(hostname) > len(suffix)
	}

	return hostname == pattern
}
