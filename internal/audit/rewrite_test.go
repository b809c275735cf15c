package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidcomponents/lucid/internal/logging"
)

func TestRewriteContent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "deep stylesheet reference",
			input:    `<link href="../../styles/style.css">`,
			expected: `<link href="/styles/style.css">`,
		},
		{
			name:     "single level stylesheet reference",
			input:    `<link href='../styles/style.css'>`,
			expected: `<link href="/styles/style.css">`,
		},
		{
			name:     "core scripts",
			input:    `<script src="../../scripts/theme.js"></script><script src="../scripts/i18n.js"></script>`,
			expected: `<script src="/scripts/theme.js"></script><script src="/scripts/i18n.js"></script>`,
		},
		{
			name:     "root-relative reference untouched",
			input:    `<link href="/styles/style.css">`,
			expected: `<link href="/styles/style.css">`,
		},
		{
			name:     "unrelated script untouched",
			input:    `<script src="../scripts/page.js"></script>`,
			expected: `<script src="../scripts/page.js"></script>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RewriteContent(tt.input))
		})
	}
}

func TestRewriterRun(t *testing.T) {
	root := writeSite(t, map[string]string{
		"index.html":             `<html><head><link href="styles/style.css"></head></html>`,
		"pages/about/index.html": `<html><head><link href="../../styles/style.css"><script src="../../scripts/theme.js"></script></head></html>`,
	})

	r := NewRewriter(root, "index.html", false, logging.NewTestLogger())
	result, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, 1, result.Changed)

	page := filepath.Join(root, "pages", "about", "index.html")
	content, err := os.ReadFile(page)
	require.NoError(t, err)
	assert.Contains(t, string(content), `href="/styles/style.css"`)
	assert.Contains(t, string(content), `src="/scripts/theme.js"`)

	// Original saved once.
	backup, err := os.ReadFile(page + BackupSuffix)
	require.NoError(t, err)
	assert.Contains(t, string(backup), `../../styles/style.css`)

	// A second run changes nothing and preserves the original backup.
	result, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Changed)

	unchanged, err := os.ReadFile(page + BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, backup, unchanged)
}

func TestRewriterDryRun(t *testing.T) {
	root := writeSite(t, map[string]string{
		"pages/a/index.html": `<html><head><link href="../../styles/style.css"></head></html>`,
	})

	r := NewRewriter(root, "index.html", true, logging.NewTestLogger())
	result, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Changed)

	content, err := os.ReadFile(filepath.Join(root, "pages", "a", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "../../styles/style.css")

	_, err = os.Stat(filepath.Join(root, "pages", "a", "index.html"+BackupSuffix))
	assert.True(t, os.IsNotExist(err))
}
