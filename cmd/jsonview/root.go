package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jsonview",
	Short: "JSON:API document server built from controller views",
	Long: `jsonview serves JSON:API documents built from the views controllers
return. Objects are converted by configurable mappers, links are generated
through named route repositories.

Quick start:
  jsonview serve             # Start the server
  jsonview validate          # Validate configuration
  jsonview routes            # List link repository routes`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "jsonview.yaml", "config file path")
}
