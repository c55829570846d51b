package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/cloo-solutions/sophia/internal/domain"
	"github.com/spf13/cobra"
)

// HistoryCmd creates the history command with its show subcommand.
func HistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past workflow runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runListHistory(cmd, outputJSON)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <filename>",
		Short: "Show a saved run record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShowHistory(cmd, args[0])
		},
	})

	return cmd
}

func runListHistory(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/history")
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	var summaries []domain.RunSummary
	if err := json.Unmarshal(resp.Data, &summaries); err != nil {
		return fmt.Errorf("failed to parse history: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(summaries, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(summaries) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	for _, s := range summaries {
		fmt.Printf("%-42s %s (%d tasks)\n", s.Filename, s.WorkflowName, s.NumTasks)
	}
	return nil
}

func runShowHistory(cmd *cobra.Command, filename string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/history/record?file=" + url.QueryEscape(filename))
	if err != nil {
		return fmt.Errorf("failed to fetch run record: %w", err)
	}

	var record domain.RunRecord
	if err := json.Unmarshal(resp.Data, &record); err != nil {
		return fmt.Errorf("failed to parse run record: %w", err)
	}

	output, _ := json.MarshalIndent(&record, "", "  ")
	fmt.Println(string(output))
	return nil
}
