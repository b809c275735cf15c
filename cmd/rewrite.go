package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucidcomponents/lucid/internal/audit"
	"github.com/lucidcomponents/lucid/internal/config"
)

var rewriteDryRun bool

var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Rewrite depth-relative core asset paths to root-relative form",
	Long: `Rewrite references like ../../styles/style.css to /styles/style.css
across every page, so pages render identically regardless of directory
depth. Originals are backed up next to each changed page.`,
	RunE: runRewrite,
}

func init() {
	rewriteCmd.Flags().String("root", "", "site root directory")
	rewriteCmd.Flags().BoolVar(&rewriteDryRun, "dry-run", false, "report changes without writing files")

	rootCmd.AddCommand(rewriteCmd)
}

func runRewrite(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if root, _ := cmd.Flags().GetString("root"); root != "" {
		cfg.Site.Root = root
	}

	logger := buildLogger()
	rewriter := audit.NewRewriter(cfg.Site.Root, cfg.Site.IndexDocument, rewriteDryRun, logger)

	result, err := rewriter.Run(cmd.Context())
	if err != nil {
		return err
	}

	verb := "rewrote"
	if rewriteDryRun {
		verb = "would rewrite"
	}
	fmt.Printf("Scanned %d pages, %s %d\n", result.Pages, verb, result.Changed)

	return nil
}
