package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/sophia/internal/cli"
	"github.com/cloo-solutions/sophia/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "sophia",
		Short: "Sophia CLI - retrieval-augmented workflow runner",
		Long: `Sophia CLI drives the workflow engine: index project documents, generate
a workflow plan, run it, and retry failed tasks.

Environment variables:
  SOPHIA_API_TOKEN  API token (only needed when the daemon enforces auth)
  SOPHIA_API_URL    API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-token", "", "API token (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.IndexCmd())
	rootCmd.AddCommand(client.DeleteCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.TemplatesCmd())
	rootCmd.AddCommand(client.GenerateCmd())
	rootCmd.AddCommand(client.RunCmd())
	rootCmd.AddCommand(client.RetryCmd())
	rootCmd.AddCommand(client.HistoryCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
