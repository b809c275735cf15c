// Package cmd provides the command-line interface for Lucid.
//
// Configuration is layered with clear precedence:
//  1. Command-line flags (--config, --port, etc.) - highest priority
//  2. LUCID_CONFIG_FILE environment variable - custom config file path
//  3. Individual environment variables (LUCID_SERVER_PORT, etc.)
//  4. Configuration files (.lucid.yml) - lowest priority
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lucidcomponents/lucid/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "lucid",
	Short: "Development and audit tooling for Lucid component sites",
	Long: `Lucid is a component runtime for static multi-page sites. This tool
serves a site through the runtime with live reload, previews individual
components, audits pages for broken references, and rewrites
depth-relative asset paths to root-relative form.

Quick Start:
  lucid serve                     Start the development server
  lucid list                      List registered components
  lucid audit                     Check pages for broken references
  lucid rewrite --dry-run         Preview path rewrites`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .lucid.yml, can also use LUCID_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("LUCID_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".lucid")
	}

	viper.SetEnvPrefix("LUCID")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// buildLogger creates the process logger from the log-level and log-format
// settings.
func buildLogger() logging.Logger {
	level := logging.LevelInfo
	switch strings.ToLower(viper.GetString("log-level")) {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: viper.GetString("log-format"),
		Output: os.Stderr,
	})
}
