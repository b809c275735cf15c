package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidcomponents/lucid/internal/components"
	"github.com/lucidcomponents/lucid/internal/config"
	"github.com/lucidcomponents/lucid/internal/logging"
	"github.com/lucidcomponents/lucid/internal/registry"
)

func newTestServer(t *testing.T, cfg *config.Config) *DevServer {
	t.Helper()

	reg := registry.NewComponentRegistry()
	components.RegisterBuiltins(reg)

	srv, err := New(cfg, reg, logging.NewTestLogger())
	require.NoError(t, err)

	return srv
}

func baseConfig(root string) *config.Config {
	return &config.Config{
		Site: config.SiteConfig{
			Root:          root,
			SubpathHosts:  []string{"*.lucidpages.dev"},
			IndexDocument: "index.html",
			TemplateRoute: "shared/partials/templates",
		},
		Server: config.ServerConfig{Host: "localhost", Port: 8120},
	}
}

func TestSitePathMapping(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pages", "about"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pages", "about", "index.html"), []byte("<html></html>"), 0o644))

	srv := newTestServer(t, baseConfig(root))

	tests := []struct {
		urlPath  string
		expected string
		ok       bool
	}{
		{"/", filepath.Join(root, "index.html"), true},
		{"/index.html", filepath.Join(root, "index.html"), true},
		{"/pages/about/", filepath.Join(root, "pages", "about", "index.html"), true},
		{"/pages/about", filepath.Join(root, "pages", "about", "index.html"), true},
		{"/missing.html", "", false},
		{"/../etc/passwd", "", false},
	}

	for _, tt := range tests {
		got, ok := srv.sitePath(tt.urlPath)
		assert.Equal(t, tt.ok, ok, tt.urlPath)
		if tt.ok {
			assert.Equal(t, tt.expected, got, tt.urlPath)
		}
	}
}

func TestSimulatedBaseRendersPrefixedLinks(t *testing.T) {
	root := t.TempDir()
	page := `<!DOCTYPE html><html><head></head><body><lc-header brand="My Site"></lc-header></body></html>`
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte(page), 0o644))

	cfg := baseConfig(root)
	cfg.Site.SimulateBase = "/myrepo"
	srv := newTestServer(t, cfg)

	rec := httptest.NewRecorder()
	srv.handleSite(rec, httptest.NewRequest(http.MethodGet, "/myrepo/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `href="/myrepo/"`)
	assert.NotContains(t, body, `href="/"`)

	// The bare base redirects to its canonical slash form.
	rec = httptest.NewRecorder()
	srv.handleSite(rec, httptest.NewRequest(http.MethodGet, "/myrepo", nil))
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)

	// Paths outside the base are not served.
	rec = httptest.NewRecorder()
	srv.handleSite(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckOrigin(t *testing.T) {
	cfg := baseConfig(t.TempDir())
	cfg.Server.AllowedOrigins = []string{"http://preview.example"}
	srv := newTestServer(t, cfg)

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"", true},
		{"http://localhost:8120", true},
		{"http://127.0.0.1:8120", true},
		{"http://preview.example", true},
		{"http://evil.example", false},
		{"http://localhost:9999", false},
	}

	for _, tt := range tests {
		req, err := http.NewRequest(http.MethodGet, "/ws", nil)
		require.NoError(t, err)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.allowed, srv.checkOrigin(req), tt.origin)
	}
}

func TestInjectReloadScript(t *testing.T) {
	page := `<html><body><p>hi</p></body></html>`
	out := injectReloadScript(page)

	assert.Contains(t, out, "new WebSocket")
	assert.Less(t, strings.Index(out, "new WebSocket"), strings.Index(out, "</body>"))

	// Pages without a body still get the script appended.
	bare := injectReloadScript("<p>hi</p>")
	assert.Contains(t, bare, "new WebSocket")
}
