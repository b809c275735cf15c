package audit

import (
	"context"
	"os"
	"regexp"

	lucerrors "github.com/lucidcomponents/lucid/internal/errors"
	"github.com/lucidcomponents/lucid/internal/logging"
)

// BackupSuffix is appended to a page's filename before the first rewrite
// touches it.
const BackupSuffix = ".pathbackup"

var (
	stylesheetRef = regexp.MustCompile(`href=["'](\.\./)+styles/style\.css["']`)
	coreScriptRef = regexp.MustCompile(`src=["'](\.\./)+scripts/(theme|app|i18n)\.js["']`)
)

// RewriteResult summarizes a rewrite run.
type RewriteResult struct {
	Pages   int
	Changed int
}

// Rewriter converts depth-relative references to core assets into
// root-relative form, so pages render identically regardless of their
// directory depth.
type Rewriter struct {
	auditor *Auditor
	logger  logging.Logger
	dryRun  bool
}

// NewRewriter creates a rewriter over the same page set the auditor uses.
func NewRewriter(root, indexDocument string, dryRun bool, logger logging.Logger) *Rewriter {
	return &Rewriter{
		auditor: NewAuditor(root, indexDocument, logger),
		logger:  logger.WithComponent("rewrite"),
		dryRun:  dryRun,
	}
}

// Run rewrites every page, backing up originals on first change.
func (r *Rewriter) Run(ctx context.Context) (*RewriteResult, error) {
	pages, err := r.auditor.Pages()
	if err != nil {
		return nil, err
	}

	result := &RewriteResult{Pages: len(pages)}
	for _, page := range pages {
		changed, err := r.rewritePage(ctx, page)
		if err != nil {
			r.logger.Warn(ctx, err, "page skipped", "page", page)
			continue
		}
		if changed {
			result.Changed++
		}
	}

	r.logger.Info(ctx, "rewrite complete", "pages", result.Pages, "changed", result.Changed, "dry_run", r.dryRun)

	return result, nil
}

// RewriteContent applies the path rewrites to one page's markup.
func RewriteContent(content string) string {
	content = stylesheetRef.ReplaceAllString(content, `href="/styles/style.css"`)
	content = coreScriptRef.ReplaceAllString(content, `src="/scripts/$2.js"`)

	return content
}

func (r *Rewriter) rewritePage(ctx context.Context, page string) (bool, error) {
	original, err := os.ReadFile(page)
	if err != nil {
		return false, lucerrors.NewIOError(lucerrors.ErrCodeFileNotFound, "reading page failed", err)
	}

	rewritten := RewriteContent(string(original))
	if rewritten == string(original) {
		return false, nil
	}

	if r.dryRun {
		r.logger.Info(ctx, "would rewrite page", "page", page)
		return true, nil
	}

	backup := page + BackupSuffix
	if _, err := os.Stat(backup); os.IsNotExist(err) {
		if err := os.WriteFile(backup, original, 0o644); err != nil {
			return false, lucerrors.NewIOError(lucerrors.ErrCodeFileNotFound, "writing backup failed", err)
		}
	}

	if err := os.WriteFile(page, []byte(rewritten), 0o644); err != nil {
		return false, lucerrors.NewIOError(lucerrors.ErrCodeFileNotFound, "writing page failed", err)
	}

	r.logger.Info(ctx, "page rewritten", "page", page)

	return true, nil
}
