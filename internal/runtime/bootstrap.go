package runtime

import (
	"context"
	"net/http"

	"github.com/lucidcomponents/lucid/internal/aliasmap"
	"github.com/lucidcomponents/lucid/internal/bus"
	"github.com/lucidcomponents/lucid/internal/dom"
	"github.com/lucidcomponents/lucid/internal/logging"
	"github.com/lucidcomponents/lucid/internal/paths"
	"github.com/lucidcomponents/lucid/internal/styles"
	"github.com/lucidcomponents/lucid/internal/templates"
)

// BootstrapConfig carries everything needed to stand up the per-document
// service set.
type BootstrapConfig struct {
	// Location is the page address topology detection runs against.
	Location paths.Location
	// Paths configures topology detection.
	Paths paths.Config
	// Origin is the scheme://host template fetches are issued against.
	Origin string
	// TemplateRoute overrides the default template fetch directory.
	TemplateRoute string
	// HTTPClient overrides the template fetch client.
	HTTPClient *http.Client
}

// Bootstrap runs the initialization sequence the page runtime depends on,
// in its required order: topology detection first, then the alias-map
// rewrite, and only then construction of the services elements resolve
// paths through. Callers get a service set that is safe to hand to every
// element; nothing resolves a path before the base path exists.
//
// An alias-map failure is logged and does not abort bootstrap: the map is
// left untouched and the page runs with unprefixed aliases.
func Bootstrap(ctx context.Context, doc *dom.Document, cfg BootstrapConfig, logger logging.Logger) *Services {
	resolver := paths.NewService(cfg.Location, cfg.Paths)

	mutator := aliasmap.NewMutator(logger)
	if err := mutator.Apply(ctx, doc, resolver.BasePath()); err != nil {
		logger.Warn(ctx, err, "alias map rewrite failed, continuing with untouched map",
			"base_path", resolver.BasePath(), "page_path", cfg.Location.Path)
	}

	loader := templates.NewService(doc, resolver, logger, templates.Options{
		Origin: cfg.Origin,
		Route:  cfg.TemplateRoute,
		Client: cfg.HTTPClient,
	})

	return &Services{
		Paths:     resolver,
		Templates: loader,
		Styles:    styles.NewInjector(doc),
		Bus:       bus.New(),
		Logger:    logger,
	}
}
