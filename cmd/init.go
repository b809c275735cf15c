package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lucidcomponents/lucid/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:     "init [dir]",
	Aliases: []string{"i"},
	Short:   "Initialize a Lucid site project",
	Long: `Create the site directory skeleton (pages, shared template fragments,
styles, scripts) and write a starter .lucid.yml configuration file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing .lucid.yml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	skeleton := []string{
		"pages",
		filepath.Join("shared", "partials", "templates"),
		"styles",
		"scripts",
		"assets",
	}
	for _, sub := range skeleton {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return err
		}
	}

	indexPath := filepath.Join(dir, "index.html")
	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		if err := os.WriteFile(indexPath, []byte(starterIndex), 0o644); err != nil {
			return err
		}
	}

	configPath := filepath.Join(dir, ".lucid.yml")
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	cfg := config.Config{
		Site: config.SiteConfig{
			Root:          ".",
			SubpathHosts:  []string{"*.lucidpages.dev"},
			ReservedRoots: []string{"pages", "shared", "common", "components", "styles", "scripts", "assets"},
			IndexDocument: "index.html",
			TemplateRoute: "shared/partials/templates",
		},
		Server: config.ServerConfig{Host: "localhost", Port: 8120},
		Watch:  config.WatchConfig{Paths: []string{"."}, DebounceMS: 300},
		Audit:  config.AuditConfig{ReportFile: "audit-report.json"},
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return err
	}

	fmt.Printf("Initialized Lucid site in %s\n", dir)
	fmt.Println("Next steps:")
	fmt.Println("  lucid serve       Start the development server")
	fmt.Println("  lucid audit       Check pages for broken references")

	return nil
}

const starterIndex = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Lucid Site</title>
<script type="importmap">{"imports":{"@/":"/shared/"}}</script>
<link rel="stylesheet" href="/styles/style.css">
</head>
<body>
<lc-header brand="Lucid Site"></lc-header>
<main>
<lc-card title="Welcome" variant="featured">
<p>Edit index.html to get started.</p>
</lc-card>
</main>
<lc-footer copyright="Built with Lucid"></lc-footer>
</body>
</html>
`
