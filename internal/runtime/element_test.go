package runtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/lucidcomponents/lucid/internal/bus"
	"github.com/lucidcomponents/lucid/internal/dom"
	"github.com/lucidcomponents/lucid/internal/logging"
	"github.com/lucidcomponents/lucid/internal/paths"
)

const hostPage = `<!DOCTYPE html>
<html><head></head><body><lc-test></lc-test></body></html>`

func testHarness(t *testing.T) (*dom.Document, *Services, *html.Node) {
	t.Helper()

	doc, err := dom.ParseDocument(hostPage)
	require.NoError(t, err)

	svc := Bootstrap(context.Background(), doc, BootstrapConfig{
		Location: paths.Location{Hostname: "localhost", Path: "/index.html"},
		Paths:    paths.DefaultConfig(),
		Origin:   "http://localhost",
	}, logging.NewTestLogger())

	hosts := dom.ElementsByTag(doc.Root(), "lc-test")
	require.Len(t, hosts, 1)

	return doc, svc, hosts[0]
}

func greetingDefinition(mode RenderMode) *Definition {
	return &Definition{
		TagName:            "lc-test",
		Mode:               mode,
		StyleID:            "lc-test",
		Stylesheet:         ".lc-test{display:block}",
		ObservedAttributes: []string{"label"},
		Render: func(ctx context.Context, el *Element) error {
			p := dom.NewElement("p")
			p.AppendChild(dom.NewText(el.Attr("label", "default")))
			el.Root().AppendChild(p)
			return nil
		},
	}
}

func TestLifecycleStates(t *testing.T) {
	doc, svc, host := testHarness(t)

	el := NewElement(greetingDefinition(ModeShared), host, doc, *svc)
	assert.Equal(t, StateUnattached, el.State())

	el.Attach(context.Background())
	assert.Equal(t, StateAttached, el.State())

	el.Detach()
	assert.Equal(t, StateDetached, el.State())

	// Reattachment is allowed from Detached.
	el.Attach(context.Background())
	assert.Equal(t, StateAttached, el.State())
}

func TestAttachIsIdempotent(t *testing.T) {
	doc, svc, host := testHarness(t)

	el := NewElement(greetingDefinition(ModeShared), host, doc, *svc)
	el.Attach(context.Background())
	el.Attach(context.Background())
	el.Attach(context.Background())

	// Repeated attach never duplicates rendered children.
	assert.Len(t, dom.ElementsByTag(host, "p"), 1)
	assert.Equal(t, 1, svc.Styles.Count("lc-test"))
}

func TestRenderIdempotence(t *testing.T) {
	doc, svc, host := testHarness(t)

	el := NewElement(greetingDefinition(ModeShared), host, doc, *svc)
	el.Attach(context.Background())

	first, err := dom.RenderNode(host)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		el.Rerender(context.Background())
	}

	after, err := dom.RenderNode(host)
	require.NoError(t, err)
	assert.Equal(t, first, after)
}

func TestObservedAttributeTriggersRerender(t *testing.T) {
	doc, svc, host := testHarness(t)
	ctx := context.Background()

	el := NewElement(greetingDefinition(ModeShared), host, doc, *svc)
	el.Attach(ctx)

	el.SetAttribute(ctx, "label", "updated")
	out, err := dom.RenderNode(host)
	require.NoError(t, err)
	assert.Contains(t, out, "<p>updated</p>")

	// Unchanged value is not a change notification.
	before, _ := dom.RenderNode(host)
	el.SetAttribute(ctx, "label", "updated")
	after, _ := dom.RenderNode(host)
	assert.Equal(t, before, after)

	el.RemoveAttribute(ctx, "label")
	out, err = dom.RenderNode(host)
	require.NoError(t, err)
	assert.Contains(t, out, "<p>default</p>")
}

func TestUnobservedAttributeDoesNotRerender(t *testing.T) {
	doc, svc, host := testHarness(t)
	ctx := context.Background()

	renders := 0
	def := greetingDefinition(ModeShared)
	inner := def.Render
	def.Render = func(ctx context.Context, el *Element) error {
		renders++
		return inner(ctx, el)
	}

	el := NewElement(def, host, doc, *svc)
	el.Attach(ctx)
	require.Equal(t, 1, renders)

	el.SetAttribute(ctx, "data-unrelated", "x")
	assert.Equal(t, 1, renders)
}

func TestListenerCleanupAcrossCycles(t *testing.T) {
	doc, svc, host := testHarness(t)
	ctx := context.Background()

	def := greetingDefinition(ModeShared)
	def.Render = func(ctx context.Context, el *Element) error {
		el.On(TargetDocument, "lucid:navigate", func(bus.Event) {})
		el.On(TargetSelf, "local", func(bus.Event) {})
		return nil
	}

	el := NewElement(def, host, doc, *svc)

	for i := 0; i < 100; i++ {
		el.Attach(ctx)
		el.Detach()
	}

	// Document scope accumulates nothing across mount/unmount cycles.
	assert.Equal(t, 0, svc.Bus.Document().HandlerCount("lucid:navigate"))
	assert.Equal(t, 0, el.ListenerCount(TargetDocument))
	assert.Equal(t, 0, el.ListenerCount(TargetSelf))
}

func TestRerenderDoesNotDuplicateDocumentListeners(t *testing.T) {
	doc, svc, host := testHarness(t)
	ctx := context.Background()

	def := greetingDefinition(ModeShared)
	def.Render = func(ctx context.Context, el *Element) error {
		el.On(TargetDocument, "lucid:navigate", func(bus.Event) {})
		return nil
	}

	el := NewElement(def, host, doc, *svc)
	el.Attach(ctx)

	for i := 0; i < 10; i++ {
		el.Rerender(ctx)
	}

	assert.Equal(t, 1, svc.Bus.Document().HandlerCount("lucid:navigate"))
}

func TestSharedStyleInjectedOncePerType(t *testing.T) {
	doc, err := dom.ParseDocument(`<!DOCTYPE html><html><head></head><body>
<lc-test></lc-test><lc-test></lc-test><lc-test></lc-test><lc-test></lc-test><lc-test></lc-test>
</body></html>`)
	require.NoError(t, err)

	svc := Bootstrap(context.Background(), doc, BootstrapConfig{
		Location: paths.Location{Hostname: "localhost", Path: "/index.html"},
		Paths:    paths.DefaultConfig(),
	}, logging.NewTestLogger())

	def := greetingDefinition(ModeShared)
	for _, host := range dom.ElementsByTag(doc.Root(), "lc-test") {
		NewElement(def, host, doc, *svc).Attach(context.Background())
	}

	assert.Equal(t, 1, svc.Styles.Count("lc-test"))
}

func TestIsolatedModeScopesMarkupAndStyle(t *testing.T) {
	doc, svc, host := testHarness(t)

	el := NewElement(greetingDefinition(ModeIsolated), host, doc, *svc)
	el.Attach(context.Background())

	root := el.Root()
	require.NotNil(t, root)
	assert.NotSame(t, host, root)

	scopeVal, ok := dom.Attr(root, ScopeAttr)
	require.True(t, ok)
	assert.Equal(t, "lc-test", scopeVal)

	// Style lives inside the scope, not in the document head.
	styles := dom.ElementsByTag(root, "style")
	require.Len(t, styles, 1)
	assert.Equal(t, 0, svc.Styles.Count("lc-test"))

	// Rerender keeps exactly one scoped stylesheet.
	el.Rerender(context.Background())
	assert.Len(t, dom.ElementsByTag(el.Root(), "style"), 1)

	// Reattachment reuses the scope root instead of nesting a second one.
	el.Detach()
	el.Attach(context.Background())
	count := 0
	for c := host.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			if _, ok := dom.Attr(c, ScopeAttr); ok {
				count++
			}
		}
	}
	assert.Equal(t, 1, count)
}

func TestEmitReachesDocumentAcrossIsolation(t *testing.T) {
	doc, svc, host := testHarness(t)

	var got []bus.Event
	svc.Bus.Document().Subscribe("lc-test:ping", func(evt bus.Event) {
		got = append(got, evt)
	})

	el := NewElement(greetingDefinition(ModeIsolated), host, doc, *svc)
	el.Attach(context.Background())
	el.Emit("lc-test:ping", 42)

	require.Len(t, got, 1)
	assert.Equal(t, 42, got[0].Detail)
	assert.Contains(t, got[0].Source, "lc-test#")
	assert.True(t, got[0].Composed)
}

func TestRenderPanicIsContained(t *testing.T) {
	doc, svc, host := testHarness(t)

	def := greetingDefinition(ModeShared)
	def.Render = func(ctx context.Context, el *Element) error {
		panic("boom")
	}

	el := NewElement(def, host, doc, *svc)
	assert.NotPanics(t, func() {
		el.Attach(context.Background())
	})
	assert.Equal(t, StateAttached, el.State())
}

func TestRenderErrorDegradesToEmpty(t *testing.T) {
	doc, svc, host := testHarness(t)

	def := greetingDefinition(ModeShared)
	def.Render = func(ctx context.Context, el *Element) error {
		el.Root().AppendChild(dom.NewElement("p"))
		return assert.AnError
	}

	el := NewElement(def, host, doc, *svc)
	el.Attach(context.Background())

	assert.Equal(t, StateAttached, el.State())
	assert.Len(t, dom.ElementsByTag(host, "p"), 0)
}

func TestTemplateLoadFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	doc, err := dom.ParseDocument(hostPage)
	require.NoError(t, err)

	svc := Bootstrap(context.Background(), doc, BootstrapConfig{
		Location:   paths.Location{Hostname: "localhost", Path: "/index.html"},
		Paths:      paths.DefaultConfig(),
		Origin:     srv.URL,
		HTTPClient: srv.Client(),
	}, logging.NewTestLogger())

	def := greetingDefinition(ModeShared)
	def.Templates = []string{"missing-fragment"}

	host := dom.ElementsByTag(doc.Root(), "lc-test")[0]
	el := NewElement(def, host, doc, *svc)
	el.Attach(context.Background())

	// Attachment completes despite the fetch failure.
	assert.Equal(t, StateAttached, el.State())
}

func TestAttributeAccessors(t *testing.T) {
	doc, svc, host := testHarness(t)

	dom.SetAttr(host, "variant", "primary")
	dom.SetAttr(host, "open", "")
	dom.SetAttr(host, "elevation", "3")
	dom.SetAttr(host, "bad-num", "abc")
	dom.SetAttr(host, "links", `{"Docs":["a","b"]}`)
	dom.SetAttr(host, "broken", `{not json`)

	el := NewElement(greetingDefinition(ModeShared), host, doc, *svc)

	assert.Equal(t, "primary", el.Attr("variant", "x"))
	assert.Equal(t, "x", el.Attr("missing", "x"))

	assert.True(t, el.BoolAttr("open"))
	assert.False(t, el.BoolAttr("closed"))

	assert.Equal(t, 3.0, el.NumAttr("elevation", 1))
	assert.Equal(t, 1.0, el.NumAttr("bad-num", 1))
	assert.Equal(t, 1.0, el.NumAttr("missing", 1))

	var links map[string][]string
	require.True(t, el.JSONAttr("links", &links))
	assert.Equal(t, []string{"a", "b"}, links["Docs"])

	var fallback map[string][]string
	assert.NotPanics(t, func() {
		assert.False(t, el.JSONAttr("broken", &fallback))
	})
	assert.Nil(t, fallback)
}

func TestDetachBeforeAttachIsNoOp(t *testing.T) {
	doc, svc, host := testHarness(t)

	el := NewElement(greetingDefinition(ModeShared), host, doc, *svc)
	el.Detach()
	assert.Equal(t, StateUnattached, el.State())
}
