package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/artpar/jsonview/bootstrap"
	"github.com/artpar/jsonview/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List link repository routes",
	Long: `List every route of every link repository with its methods and URL
template. Repositories come from link_repositories, http_clients (as
client.<name>) and the built-in api repository.

Examples:
  jsonview routes
  jsonview routes --output yaml`,
	RunE: runRoutes,
}

var routesOutput string

func init() {
	rootCmd.AddCommand(routesCmd)

	routesCmd.Flags().StringVarP(&routesOutput, "output", "o", "table", "output format: table, yaml")
}

func runRoutes(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	entries := bootstrap.RouteTable(cfg)
	out := cmd.OutOrStdout()

	switch routesOutput {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("encode routes: %w", err)
		}
		return enc.Close()
	case "table":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "REPOSITORY\tNAME\tMETHODS\tURL")
		fmt.Fprintln(w, "----------\t----\t-------\t---")
		for _, e := range entries {
			methods := "*"
			if len(e.Methods) > 0 {
				methods = strings.Join(e.Methods, ",")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Repository, e.Name, methods, e.Template)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown output format %q (want table or yaml)", routesOutput)
	}
}
