package components

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidcomponents/lucid/internal/bus"
	"github.com/lucidcomponents/lucid/internal/dom"
	"github.com/lucidcomponents/lucid/internal/logging"
	"github.com/lucidcomponents/lucid/internal/paths"
	"github.com/lucidcomponents/lucid/internal/registry"
	"github.com/lucidcomponents/lucid/internal/runtime"
)

const navFragment = `<template id="lc-nav-template">
<nav class="lc-nav">
<a data-path="/">Home</a>
<a data-path="/pages/about/">About</a>
</nav>
</template>`

const cardsFragment = `<template id="lc-card-base-template">
<article class="lc-card"><h3 data-slot-title></h3><div class="lc-card__body"></div></article>
</template>`

func fragmentServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/shared/partials/templates/navigation.html":
			_, _ = w.Write([]byte(navFragment))
		case "/shared/partials/templates/cards.html":
			_, _ = w.Write([]byte(cardsFragment))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	return srv
}

func mountOne(t *testing.T, def *runtime.Definition, hostMarkup string) (*runtime.Element, *dom.Document, *runtime.Services) {
	t.Helper()

	srv := fragmentServer(t)

	doc, err := dom.ParseDocument(`<!DOCTYPE html><html><head></head><body>` + hostMarkup + `</body></html>`)
	require.NoError(t, err)

	svc := runtime.Bootstrap(context.Background(), doc, runtime.BootstrapConfig{
		Location:   paths.Location{Hostname: "localhost", Path: "/index.html"},
		Paths:      paths.DefaultConfig(),
		Origin:     srv.URL,
		HTTPClient: srv.Client(),
	}, logging.NewTestLogger())

	hosts := dom.ElementsByTag(doc.Root(), def.TagName)
	require.Len(t, hosts, 1)

	el := runtime.NewElement(def, hosts[0], doc, *svc)
	el.Attach(context.Background())
	require.Equal(t, runtime.StateAttached, el.State())

	return el, doc, svc
}

func TestRegisterBuiltins(t *testing.T) {
	reg := registry.NewComponentRegistry()
	RegisterBuiltins(reg)

	assert.Equal(t, []string{"lc-card", "lc-dialog", "lc-footer", "lc-header"}, reg.Tags())

	// Idempotent.
	RegisterBuiltins(reg)
	assert.Equal(t, 4, reg.Count())
}

func TestHeaderRendersNavigation(t *testing.T) {
	el, _, svc := mountOne(t, Header(), `<lc-header brand="My Site" active="/pages/about/"></lc-header>`)

	out, err := dom.RenderNode(el.Host())
	require.NoError(t, err)

	assert.Contains(t, out, "My Site")
	assert.Contains(t, out, `href="/pages/about/"`)
	assert.Contains(t, out, `aria-current="page"`)
	assert.NotContains(t, out, "data-path")

	// Shared mode styling lands in the head once.
	assert.Equal(t, 1, svc.Styles.Count("lc-header-styles"))
}

func TestHeaderBrandDefault(t *testing.T) {
	el, _, _ := mountOne(t, Header(), `<lc-header></lc-header>`)

	out, err := dom.RenderNode(el.Host())
	require.NoError(t, err)
	assert.Contains(t, out, "Lucid")
}

func TestFooterLinkGroups(t *testing.T) {
	el, _, _ := mountOne(t, Footer(),
		`<lc-footer links='{"resources":["/pages/docs/","/pages/faq/"]}' copyright="© 2026"></lc-footer>`)

	out, err := dom.RenderNode(el.Host())
	require.NoError(t, err)

	assert.Contains(t, out, "<h2>Resources</h2>")
	assert.Contains(t, out, `href="/pages/docs/"`)
	assert.Contains(t, out, "© 2026")
}

func TestFooterRerenderIsStable(t *testing.T) {
	el, _, _ := mountOne(t, Footer(),
		`<lc-footer links='{"b":["/b"],"c":["/c"],"d":["/d"],"e":["/e"],"f":["/f"],"g":["/g"],"h":["/h"],"a":["/a"]}'></lc-footer>`)
	ctx := context.Background()

	first, err := dom.RenderNode(el.Host())
	require.NoError(t, err)

	// Groups come out in name order, independent of attribute order.
	for _, pair := range [][2]string{{"<h2>A</h2>", "<h2>B</h2>"}, {"<h2>D</h2>", "<h2>E</h2>"}, {"<h2>G</h2>", "<h2>H</h2>"}} {
		require.Contains(t, first, pair[0])
		require.Contains(t, first, pair[1])
		assert.Less(t, strings.Index(first, pair[0]), strings.Index(first, pair[1]))
	}

	for i := 0; i < 5; i++ {
		el.Rerender(ctx)
		out, err := dom.RenderNode(el.Host())
		require.NoError(t, err)
		require.Equal(t, first, out)
	}
}

func TestFooterMalformedLinksFallsBack(t *testing.T) {
	el, _, _ := mountOne(t, Footer(), `<lc-footer links='{broken' copyright="ok"></lc-footer>`)

	out, err := dom.RenderNode(el.Host())
	require.NoError(t, err)

	assert.NotContains(t, out, "<ul>")
	assert.Contains(t, out, "ok")
}

func TestCardFromTemplate(t *testing.T) {
	el, _, _ := mountOne(t, Card(), `<lc-card title="Hello" variant="featured" elevation="2"></lc-card>`)

	out, err := dom.RenderNode(el.Host())
	require.NoError(t, err)

	assert.Contains(t, out, "lc-card--featured")
	assert.Contains(t, out, `data-elevation="2"`)
	assert.Contains(t, out, "Hello")
	// Isolated mode keeps its stylesheet inside the scope root.
	assert.Contains(t, out, `data-style-id="lc-card-styles"`)
}

func TestCardFallbackWithoutTemplate(t *testing.T) {
	doc, err := dom.ParseDocument(`<!DOCTYPE html><html><head></head><body><lc-card title="Plain"></lc-card></body></html>`)
	require.NoError(t, err)

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	svc := runtime.Bootstrap(context.Background(), doc, runtime.BootstrapConfig{
		Location:   paths.Location{Hostname: "localhost", Path: "/index.html"},
		Paths:      paths.DefaultConfig(),
		Origin:     srv.URL,
		HTTPClient: srv.Client(),
	}, logging.NewTestLogger())

	host := dom.ElementsByTag(doc.Root(), "lc-card")[0]
	el := runtime.NewElement(Card(), host, doc, *svc)
	el.Attach(context.Background())

	out, err := dom.RenderNode(host)
	require.NoError(t, err)
	assert.Contains(t, out, "lc-card--default")
	assert.Contains(t, out, "Plain")
}

func TestCardReactsToVariantChange(t *testing.T) {
	el, _, _ := mountOne(t, Card(), `<lc-card title="Hello" variant="default"></lc-card>`)
	ctx := context.Background()

	el.SetAttribute(ctx, "variant", "featured")

	out, err := dom.RenderNode(el.Host())
	require.NoError(t, err)
	assert.Contains(t, out, "lc-card--featured")
	assert.NotContains(t, out, "lc-card--default")
}

func TestDialogOpenToggle(t *testing.T) {
	el, _, _ := mountOne(t, Dialog(), `<lc-dialog heading="Confirm"></lc-dialog>`)
	ctx := context.Background()

	out, err := dom.RenderNode(el.Host())
	require.NoError(t, err)
	assert.Contains(t, out, "hidden")

	el.SetAttribute(ctx, "open", "")
	out, err = dom.RenderNode(el.Host())
	require.NoError(t, err)
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "Confirm")
}

func TestDialogDismissEmitsClose(t *testing.T) {
	el, _, svc := mountOne(t, Dialog(), `<lc-dialog open heading="Confirm"></lc-dialog>`)
	require.Equal(t, runtime.StateAttached, el.State())

	var closes []bus.Event
	svc.Bus.Document().Subscribe("lc-dialog:close", func(evt bus.Event) {
		closes = append(closes, evt)
	})

	svc.Bus.Document().Publish(bus.Event{Name: "lucid:dismiss", Detail: "escape"})

	require.Len(t, closes, 1)
	assert.Equal(t, "escape", closes[0].Detail)
}
