// Package config provides configuration management for Lucid using Viper
// for flexible loading from files, environment variables, and command-line
// flags.
//
// The configuration system supports YAML files and environment variable
// overrides with the LUCID_ prefix. It manages site topology settings
// (static-host patterns, reserved content roots), template loading, the
// development server, and audit tooling options.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Site   SiteConfig   `yaml:"site"`
	Server ServerConfig `yaml:"server"`
	Watch  WatchConfig  `yaml:"watch"`
	Audit  AuditConfig  `yaml:"audit"`
}

type SiteConfig struct {
	// Root is the site source directory served and audited.
	Root string `yaml:"root"`
	// SubpathHosts are wildcard hostname patterns that serve the site
	// under a project subpath.
	SubpathHosts []string `yaml:"subpath_hosts"`
	// ReservedRoots are first path segments that are content roots, not
	// project names.
	ReservedRoots []string `yaml:"reserved_roots"`
	// IndexDocument is the directory index filename.
	IndexDocument string `yaml:"index_document"`
	// TemplateRoute is the site-relative directory template fragments are
	// fetched from.
	TemplateRoute string `yaml:"template_route"`
	// SimulateBase serves the site under this base path, to exercise the
	// subpath topology locally.
	SimulateBase string `yaml:"simulate_base"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type WatchConfig struct {
	Paths      []string `yaml:"paths"`
	DebounceMS int      `yaml:"debounce_ms"`
}

type AuditConfig struct {
	ReportFile string `yaml:"report_file"`
}

// Load builds the configuration from viper's merged sources and applies
// defaults for anything unset.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Site.Root == "" {
		config.Site.Root = "."
	}
	if len(config.Site.SubpathHosts) == 0 {
		config.Site.SubpathHosts = []string{"*.lucidpages.dev"}
	}
	if viper.IsSet("site.subpath_hosts") {
		if hosts := viper.GetStringSlice("site.subpath_hosts"); len(hosts) > 0 {
			config.Site.SubpathHosts = hosts
		}
	}
	if len(config.Site.ReservedRoots) == 0 {
		config.Site.ReservedRoots = []string{"pages", "shared", "common", "components", "styles", "scripts", "assets"}
	}
	if config.Site.IndexDocument == "" {
		config.Site.IndexDocument = "index.html"
	}
	if config.Site.TemplateRoute == "" {
		config.Site.TemplateRoute = "shared/partials/templates"
	}

	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8120
	}

	if len(config.Watch.Paths) == 0 {
		config.Watch.Paths = []string{config.Site.Root}
	}
	if config.Watch.DebounceMS == 0 {
		config.Watch.DebounceMS = 300
	}

	if config.Audit.ReportFile == "" {
		config.Audit.ReportFile = "audit-report.json"
	}

	return &config, validate(&config)
}

func validate(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if base := config.Site.SimulateBase; base != "" {
		if len(base) < 2 || !strings.HasPrefix(base, "/") || strings.Count(base, "/") != 1 {
			return fmt.Errorf("simulate_base must be a single root segment like \"/myrepo\", got %q", base)
		}
	}

	for _, host := range config.Site.SubpathHosts {
		if strings.TrimPrefix(host, "*.") == "" {
			return fmt.Errorf("invalid subpath host pattern: %q", host)
		}
	}

	return nil
}
