package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/sophia/internal/cli"
	"github.com/cloo-solutions/sophia/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sophiad",
		Short: "Sophia daemon",
		Long:  "Sophia daemon for serving the workflow engine API",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
