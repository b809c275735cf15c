// Package audit checks a site tree for broken links, missing images and
// scripts, and path-convention violations, and can rewrite depth-relative
// core asset references to root-relative form. Both operations work
// entirely offline on the source files.
package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/net/html"

	"github.com/lucidcomponents/lucid/internal/dom"
	lucerrors "github.com/lucidcomponents/lucid/internal/errors"
	"github.com/lucidcomponents/lucid/internal/logging"
)

// skipPrefixes are reference schemes the auditor never checks.
var skipPrefixes = []string{"http", "#", "javascript:", "mailto:", "tel:", "data:"}

// Issue is one problem found on a page.
type Issue struct {
	Kind     string `json:"kind"`
	Ref      string `json:"ref"`
	Resolved string `json:"resolved,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// Issue kinds.
const (
	IssueBrokenLink    = "broken_link"
	IssueMissingImage  = "missing_image"
	IssueMissingScript = "missing_script"
	IssuePathStyle     = "path_style"
)

// PageReport collects the issues of one page.
type PageReport struct {
	Page   string  `json:"page"`
	Issues []Issue `json:"issues"`
}

// Report summarizes an audit run.
type Report struct {
	TotalPages      int          `json:"total_pages"`
	PagesWithIssues int          `json:"pages_with_issues"`
	TotalIssues     int          `json:"total_issues"`
	SkippedPages    int          `json:"skipped_pages,omitempty"`
	Pages           []PageReport `json:"pages,omitempty"`
}

// Auditor audits the pages under a site root.
type Auditor struct {
	root   string
	index  string
	logger logging.Logger
}

// NewAuditor creates an auditor for the site root directory.
func NewAuditor(root, indexDocument string, logger logging.Logger) *Auditor {
	if indexDocument == "" {
		indexDocument = "index.html"
	}

	return &Auditor{
		root:   root,
		index:  indexDocument,
		logger: logger.WithComponent("audit"),
	}
}

// Pages returns the site's page files: the root index document plus every
// index document under pages/, in sorted order.
func (a *Auditor) Pages() ([]string, error) {
	var pages []string

	rootIndex := filepath.Join(a.root, a.index)
	if _, err := os.Stat(rootIndex); err == nil {
		pages = append(pages, rootIndex)
	}

	matches, err := doublestar.FilepathGlob(filepath.Join(a.root, "pages", "**", a.index))
	if err != nil {
		return nil, lucerrors.NewIOError(lucerrors.ErrCodeFileNotFound, "globbing pages failed", err)
	}
	sort.Strings(matches)

	return append(pages, matches...), nil
}

// Run audits every page and returns the aggregate report.
func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	pages, err := a.Pages()
	if err != nil {
		return nil, err
	}

	report := &Report{TotalPages: len(pages)}
	skipped := lucerrors.NewErrorCollector()
	for _, page := range pages {
		pr, err := a.auditPage(ctx, page)
		if err != nil {
			skipped.Add(err)
			a.logger.Warn(ctx, err, "page skipped", "page", page)
			continue
		}
		if len(pr.Issues) == 0 {
			continue
		}
		report.PagesWithIssues++
		report.TotalIssues += len(pr.Issues)
		report.Pages = append(report.Pages, *pr)
	}
	report.SkippedPages = skipped.Count()

	a.logger.Info(ctx, "audit complete",
		"pages", report.TotalPages, "pages_with_issues", report.PagesWithIssues,
		"issues", report.TotalIssues, "skipped", report.SkippedPages)

	return report, nil
}

// WriteReport saves the report as JSON.
func (a *Auditor) WriteReport(report *Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return lucerrors.NewInternalError(lucerrors.ErrCodeInternalError, "encoding report failed", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return lucerrors.NewIOError(lucerrors.ErrCodeFileNotFound, "writing report failed", err)
	}

	return nil
}

func (a *Auditor) auditPage(ctx context.Context, page string) (*PageReport, error) {
	content, err := os.ReadFile(page)
	if err != nil {
		return nil, lucerrors.NewIOError(lucerrors.ErrCodeFileNotFound, "reading page failed", err)
	}

	doc, err := dom.ParseDocument(string(content))
	if err != nil {
		return nil, lucerrors.NewParseError("page "+page, err)
	}

	rel, _ := filepath.Rel(a.root, page)
	pr := &PageReport{Page: rel}

	dom.Walk(doc.Root(), func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.Data {
		case "a", "link":
			if href, ok := dom.Attr(n, "href"); ok && checkable(href) {
				if resolved, exists := a.exists(href, page); !exists {
					pr.Issues = append(pr.Issues, Issue{Kind: IssueBrokenLink, Ref: href, Resolved: resolved})
				}
			}
		case "img":
			if src, ok := dom.Attr(n, "src"); ok && checkable(src) {
				if resolved, exists := a.exists(src, page); !exists {
					pr.Issues = append(pr.Issues, Issue{Kind: IssueMissingImage, Ref: src, Resolved: resolved})
				}
			}
		case "script":
			if src, ok := dom.Attr(n, "src"); ok && checkable(src) {
				if resolved, exists := a.exists(src, page); !exists {
					pr.Issues = append(pr.Issues, Issue{Kind: IssueMissingScript, Ref: src, Resolved: resolved})
				}
			}
		}
		return true
	})

	// Components and core scripts should be referenced root-relative so
	// pages keep working when moved between directory depths.
	text := string(content)
	for _, smell := range []string{"../components/", "../../components/", "../tools/", "../../tools/"} {
		if strings.Contains(text, smell) {
			pr.Issues = append(pr.Issues, Issue{
				Kind:   IssuePathStyle,
				Ref:    smell,
				Detail: "relative reference to a shared resource; use a root-relative path",
			})
			break
		}
	}

	return pr, nil
}

// exists resolves a reference against the site root (root-relative) or the
// page directory (file-relative), trying the index document for directory
// targets, and reports whether the target file is present.
func (a *Auditor) exists(ref, page string) (string, bool) {
	ref = strings.SplitN(ref, "#", 2)[0]
	ref = strings.SplitN(ref, "?", 2)[0]
	if ref == "" {
		return "", true
	}

	var resolved string
	if strings.HasPrefix(ref, "/") {
		resolved = filepath.Join(a.root, filepath.FromSlash(strings.TrimPrefix(ref, "/")))
	} else {
		resolved = filepath.Join(filepath.Dir(page), filepath.FromSlash(ref))
	}

	if strings.HasSuffix(ref, "/") {
		resolved = filepath.Join(resolved, a.index)
	}

	info, err := os.Stat(resolved)
	if err == nil && info.IsDir() {
		resolved = filepath.Join(resolved, a.index)
		info, err = os.Stat(resolved)
	}

	rel, relErr := filepath.Rel(a.root, resolved)
	if relErr != nil {
		rel = resolved
	}

	return rel, err == nil && !info.IsDir()
}

func checkable(ref string) bool {
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(ref, prefix) {
			return false
		}
	}

	return ref != ""
}
