package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lucidcomponents/lucid/internal/components"
	"github.com/lucidcomponents/lucid/internal/config"
	"github.com/lucidcomponents/lucid/internal/registry"
	"github.com/lucidcomponents/lucid/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the development server with live reload",
	Long: `Serve the site through the component runtime. Pages are rendered
server-side with all registered components attached, and connected
browsers reload automatically when source files change.

Use --base to serve the site under a simulated project subpath, the way
a wildcard static host would.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "server host")
	serveCmd.Flags().IntP("port", "p", 0, "server port")
	serveCmd.Flags().String("root", "", "site root directory")
	serveCmd.Flags().String("base", "", "simulated base path, e.g. /myrepo")
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("site.root", serveCmd.Flags().Lookup("root"))
	_ = viper.BindPFlag("site.simulate_base", serveCmd.Flags().Lookup("base"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := buildLogger()

	reg := registry.NewComponentRegistry()
	components.RegisterBuiltins(reg)

	srv, err := server.New(cfg, reg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}
