package main

import (
	"fmt"
	"os"

	"github.com/artpar/jsonview/bootstrap"
	"github.com/artpar/jsonview/config"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON:API server",
	Long: `Start the jsonview server.

The server will:
  - Load configuration from jsonview.yaml (or --config)
  - Or load configuration from JSONVIEW_* environment variables
  - Open the demo store (memory or sqlite)
  - Serve /people, /people/{id} and /teams/{id} as JSON:API documents

Environment variables:
  JSONVIEW_SERVER_PORT       - Server port (default: 8080)
  JSONVIEW_SERVER_BASE_URL   - Public base URL used for generated links
  JSONVIEW_DATABASE_DRIVER   - memory or sqlite (default: memory)
  JSONVIEW_DATABASE_DSN      - SQLite database path
  JSONVIEW_DATABASE_SEED     - Seed demo data into an empty store
  JSONVIEW_LOG_LEVEL         - Log level: debug, info, warn, error

Examples:
  jsonview serve
  jsonview serve --config /etc/jsonview/config.yaml --hot-reload
  JSONVIEW_DATABASE_SEED=true jsonview serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", false, "reload link repositories and clients when the config file changes or on SIGHUP")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	opts := bootstrap.Options{Version: version}

	var app *bootstrap.App
	var err error

	if hasConfigFile && hotReload {
		app, err = bootstrap.NewWithHotReload(cfgFile, opts)
	} else {
		if hotReload {
			fmt.Fprintln(cmd.ErrOrStderr(), "--hot-reload needs a config file, continuing without it")
		}
		cfg, loadErr := config.LoadWithFallback(cfgFile)
		if loadErr != nil {
			return fmt.Errorf("error loading config: %w", loadErr)
		}
		if !hasConfigFile {
			fmt.Fprintln(cmd.ErrOrStderr(), "Running with environment variables (no config file)")
		}
		app, err = bootstrap.New(cfg, opts)
	}

	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
