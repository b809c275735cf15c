// Package aliasmap rewrites a page's module-alias map (an import map of
// short prefixes to resolved resource roots, e.g. "@/" -> "/common/") so
// that every target carries the deployment base path.
//
// The mutator always rewrites from the canonical unprefixed form captured on
// first parse, so applying it any number of times with the same base path
// yields the same map and never double-prefixes a target.
package aliasmap

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/lucidcomponents/lucid/internal/dom"
	lucerrors "github.com/lucidcomponents/lucid/internal/errors"
	"github.com/lucidcomponents/lucid/internal/logging"
)

// ScriptType is the type attribute of the alias-map declaration element.
const ScriptType = "importmap"

type importMap struct {
	Imports map[string]string `json:"imports"`
}

// Mutator applies base-path prefixes to a document's alias map.
type Mutator struct {
	logger    logging.Logger
	canonical map[string]string
}

// NewMutator creates a mutator. The canonical alias map is captured from
// the document on the first Apply call.
func NewMutator(logger logging.Logger) *Mutator {
	return &Mutator{logger: logger.WithComponent("aliasmap")}
}

// Rewrite returns a copy of aliases with every target prefixed by base.
// An empty base returns targets unchanged. Pure: the input map is never
// mutated.
func Rewrite(aliases map[string]string, base string) map[string]string {
	out := make(map[string]string, len(aliases))
	for alias, target := range aliases {
		if base == "" {
			out[alias] = target
			continue
		}
		out[alias] = base + target
	}

	return out
}

// Apply locates the document's alias-map declaration and rewrites its
// targets for the given base path. A missing declaration is a no-op.
// Malformed content is logged and the declaration is left untouched; Apply
// never panics and never leaves the map half-rewritten.
func (m *Mutator) Apply(ctx context.Context, doc *dom.Document, base string) error {
	script := findDeclaration(doc)
	if script == nil {
		m.logger.Debug(ctx, "no alias map declared, skipping rewrite")
		return nil
	}

	if m.canonical == nil {
		raw := strings.TrimSpace(dom.Text(script))
		var parsed importMap
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			perr := lucerrors.NewParseError("alias map", err)
			m.logger.Error(ctx, perr, "alias map left untouched", "base_path", base)
			return perr
		}
		if parsed.Imports == nil {
			parsed.Imports = map[string]string{}
		}
		m.canonical = parsed.Imports
	}

	rewritten := Rewrite(m.canonical, base)

	encoded, err := marshalStable(rewritten)
	if err != nil {
		perr := lucerrors.NewParseError("alias map", err)
		m.logger.Error(ctx, perr, "alias map left untouched", "base_path", base)
		return perr
	}

	dom.RemoveChildren(script)
	script.AppendChild(dom.NewText(encoded))
	m.logger.Debug(ctx, "alias map rewritten", "base_path", base, "aliases", len(rewritten))

	return nil
}

// Canonical returns the unprefixed alias map captured on first Apply, or
// nil when no map has been parsed yet.
func (m *Mutator) Canonical() map[string]string {
	if m.canonical == nil {
		return nil
	}

	out := make(map[string]string, len(m.canonical))
	for k, v := range m.canonical {
		out[k] = v
	}

	return out
}

// marshalStable encodes the import map with sorted alias keys so repeated
// rewrites produce byte-identical declarations.
func marshalStable(aliases map[string]string) (string, error) {
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(`{"imports":{`)
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(",")
		}
		key, err := json.Marshal(k)
		if err != nil {
			return "", err
		}
		val, err := json.Marshal(aliases[k])
		if err != nil {
			return "", err
		}
		sb.Write(key)
		sb.WriteString(":")
		sb.Write(val)
	}
	sb.WriteString("}}")

	return sb.String(), nil
}

func findDeclaration(doc *dom.Document) *html.Node {
	var found *html.Node
	dom.Walk(doc.Root(), func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "script" {
			return true
		}
		if t, ok := dom.Attr(n, "type"); ok && t == ScriptType {
			found = n
			return false
		}
		return true
	})

	return found
}
