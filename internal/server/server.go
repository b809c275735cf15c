// Package server implements the Lucid development server: it serves the
// site tree (optionally under a simulated subpath base), renders pages
// through the component runtime, previews individual components, and
// pushes live-reload notifications over WebSocket when source files
// change.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/lucidcomponents/lucid/internal/config"
	"github.com/lucidcomponents/lucid/internal/logging"
	"github.com/lucidcomponents/lucid/internal/paths"
	"github.com/lucidcomponents/lucid/internal/registry"
	"github.com/lucidcomponents/lucid/internal/renderer"
	"github.com/lucidcomponents/lucid/internal/runtime"
	"github.com/lucidcomponents/lucid/internal/watcher"
)

// DevServer serves the site through the component runtime.
type DevServer struct {
	cfg      *config.Config
	logger   logging.Logger
	registry *registry.ComponentRegistry
	renderer *renderer.PageRenderer

	httpServer *http.Server

	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex
	register     chan *Client
	unregister   chan *websocket.Conn
	broadcast    chan []byte
}

// New creates a development server.
func New(cfg *config.Config, reg *registry.ComponentRegistry, logger logging.Logger) (*DevServer, error) {
	origin := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)

	pathsCfg := paths.Config{
		SubpathHosts:  cfg.Site.SubpathHosts,
		ReservedRoots: cfg.Site.ReservedRoots,
		IndexDocument: cfg.Site.IndexDocument,
	}
	if cfg.Site.SimulateBase != "" {
		// A simulated base mimics a wildcard static host: the local host
		// counts as a subpath host and the base segment is never a content
		// root, so detection yields the simulated base for every page.
		pathsCfg.SubpathHosts = append([]string{cfg.Server.Host}, pathsCfg.SubpathHosts...)
		pathsCfg.ReservedRoots = nil
	}

	pageRenderer, err := renderer.NewPageRenderer(reg, runtime.BootstrapConfig{
		Location:      paths.Location{Hostname: cfg.Server.Host},
		Paths:         pathsCfg,
		Origin:        origin,
		TemplateRoute: cfg.Site.TemplateRoute,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &DevServer{
		cfg:        cfg,
		logger:     logger.WithComponent("server"),
		registry:   reg,
		renderer:   pageRenderer,
		clients:    make(map[*websocket.Conn]*Client),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 16),
	}, nil
}

// Start runs the server until the context is cancelled.
func (s *DevServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/preview/", s.handlePreview)
	mux.HandleFunc("/", s.handleSite)

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.runWebSocketHub(ctx)

	if err := s.startWatcher(ctx); err != nil {
		s.logger.Warn(ctx, err, "file watching disabled")
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "development server listening", "addr", addr, "site_root", s.cfg.Site.Root)

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}

	return err
}

// handleSite serves the site tree. HTML pages run through the component
// runtime; other assets are served as files. A configured simulate_base
// prefix is stripped before lookup so the subpath topology can be
// exercised locally.
func (s *DevServer) handleSite(w http.ResponseWriter, r *http.Request) {
	urlPath := r.URL.Path

	if base := s.cfg.Site.SimulateBase; base != "" {
		if urlPath == base {
			http.Redirect(w, r, base+"/", http.StatusMovedPermanently)
			return
		}
		trimmed, ok := strings.CutPrefix(urlPath, base+"/")
		if !ok {
			http.NotFound(w, r)
			return
		}
		urlPath = "/" + trimmed
	}

	filePath, ok := s.sitePath(urlPath)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if filepath.Ext(filePath) != ".html" {
		http.ServeFile(w, r, filePath)
		return
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	rendered, err := s.renderer.RenderPage(r.Context(), r.URL.Path, string(content))
	if err != nil {
		s.logger.Error(r.Context(), err, "page render failed", "path", r.URL.Path)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, injectReloadScript(rendered))
}

// handlePreview renders a single registered component with attributes
// taken from the query string, wrapped in the preview layout.
func (s *DevServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	tag := strings.TrimPrefix(r.URL.Path, "/preview/")
	if tag == "" {
		http.Error(w, "missing component tag", http.StatusBadRequest)
		return
	}

	attrs := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			attrs[key] = values[0]
		}
	}

	rendered, err := s.renderer.RenderComponent(r.Context(), tag, attrs)
	if err != nil {
		s.logger.Warn(r.Context(), err, "component preview failed", "tag", tag)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := previewLayout(tag, rendered).Render(r.Context(), w); err != nil {
		s.logger.Error(r.Context(), err, "preview layout render failed", "tag", tag)
	}
}

// sitePath maps a URL path to a file under the site root, trying the index
// document for directory targets, and rejects traversal outside the root.
func (s *DevServer) sitePath(urlPath string) (string, bool) {
	cleaned := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(urlPath, "/")))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", false
	}

	full := filepath.Join(s.cfg.Site.Root, cleaned)

	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		full = filepath.Join(full, s.cfg.Site.IndexDocument)
		info, err = os.Stat(full)
	}
	if err != nil || info.IsDir() {
		return "", false
	}

	return full, true
}

func (s *DevServer) startWatcher(ctx context.Context) error {
	debounce := time.Duration(s.cfg.Watch.DebounceMS) * time.Millisecond
	fw, err := watcher.NewFileWatcher(debounce, s.logger)
	if err != nil {
		return err
	}

	fw.AddFilter(watcher.SiteAssetFilter)
	fw.AddFilter(watcher.NoBackupFilter)
	fw.AddFilter(watcher.NoGitFilter)
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		s.renderer.PurgeCache()
		s.logger.Info(ctx, "source changed, reloading clients", "files", len(events))
		s.broadcast <- []byte(`{"type":"full_reload"}`)
		return nil
	})

	for _, p := range s.cfg.Watch.Paths {
		if err := fw.AddRecursive(p); err != nil {
			return err
		}
	}

	fw.Start(ctx)

	go func() {
		<-ctx.Done()
		_ = fw.Stop()
	}()

	return nil
}

// injectReloadScript appends the live-reload client before </body>.
func injectReloadScript(page string) string {
	const script = `<script>
(() => {
  const ws = new WebSocket('ws://' + location.host + '/ws');
  ws.onmessage = (event) => {
    const message = JSON.parse(event.data);
    if (message.type === 'full_reload') {
      location.reload();
    }
  };
})();
</script>`

	if idx := strings.LastIndex(page, "</body>"); idx >= 0 {
		return page[:idx] + script + page[idx:]
	}

	return page + script
}
