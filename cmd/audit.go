package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucidcomponents/lucid/internal/audit"
	"github.com/lucidcomponents/lucid/internal/config"
)

var auditCmd = &cobra.Command{
	Use:     "audit",
	Aliases: []string{"a"},
	Short:   "Check site pages for broken references",
	Long: `Audit every page under the site root for broken links, missing
images and scripts, and depth-relative references to shared resources.
The report is written as JSON and a summary printed to stdout.`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().String("root", "", "site root directory")
	auditCmd.Flags().StringP("output", "o", "", "report file path")

	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if root, _ := cmd.Flags().GetString("root"); root != "" {
		cfg.Site.Root = root
	}
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		cfg.Audit.ReportFile = output
	}

	logger := buildLogger()
	auditor := audit.NewAuditor(cfg.Site.Root, cfg.Site.IndexDocument, logger)

	report, err := auditor.Run(cmd.Context())
	if err != nil {
		return err
	}

	if err := auditor.WriteReport(report, cfg.Audit.ReportFile); err != nil {
		return err
	}

	fmt.Printf("Audited %d pages: %d with issues, %d issues total\n",
		report.TotalPages, report.PagesWithIssues, report.TotalIssues)
	fmt.Printf("Report written to %s\n", cfg.Audit.ReportFile)

	if report.TotalIssues > 0 {
		return fmt.Errorf("%d issues found", report.TotalIssues)
	}

	return nil
}
