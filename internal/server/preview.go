package server

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"
)

// previewLayout wraps one rendered component in a minimal page so it can
// be inspected in isolation.
func previewLayout(tag, rendered string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		escaped := html.EscapeString(tag)

		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s preview</title>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f5f5f5; }
.preview-bar { padding: 0.5rem 1rem; background: #1a1a2e; color: #eee; font-size: 0.875rem; }
.preview-stage { padding: 2rem; }
</style>
</head>
<body>
<div class="preview-bar">%s</div>
<div class="preview-stage">`, escaped, escaped); err != nil {
			return err
		}

		if err := templ.Raw(rendered).Render(ctx, w); err != nil {
			return err
		}

		_, err := io.WriteString(w, `</div>
</body>
</html>`)

		return err
	})
}
