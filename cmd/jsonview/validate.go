package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/artpar/jsonview/bootstrap"
	"github.com/artpar/jsonview/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the jsonview configuration file.

Checks:
  - YAML syntax is valid
  - Required fields are present
  - Every mapper handler and client decorator name is known

Examples:
  jsonview validate
  jsonview validate --config /etc/jsonview/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Fprintf(out, "  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Fprintf(out, "  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config syntax valid\n", checkMark)

	if err := bootstrap.Check(cfg); err != nil {
		fmt.Fprintf(out, "  %s Wiring valid\n", crossMark)
		return fmt.Errorf("wiring error: %w", err)
	}
	fmt.Fprintf(out, "  %s Wiring valid\n", checkMark)

	// Show config summary
	fmt.Fprintf(out, "  %s Database: %s %s\n", checkMark, cfg.Database.Driver, cfg.Database.DSN)
	for _, name := range cfg.MapperNames() {
		fmt.Fprintf(out, "  %s Mapper %s: %s\n", checkMark, name, strings.Join(cfg.Mappers[name].Handlers, ", "))
	}
	fmt.Fprintf(out, "  %s Link repositories: %d\n", checkMark, len(bootstrap.Repositories(cfg)))
	fmt.Fprintf(out, "  %s HTTP clients: %d\n", checkMark, len(cfg.HTTPClients))

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
