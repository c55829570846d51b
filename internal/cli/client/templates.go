package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type templateSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	NumTasks    int    `json:"num_tasks"`
}

// TemplatesCmd creates the templates command with its suggest subcommand.
func TemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List workflow templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runListTemplates(cmd, outputJSON)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "suggest <text>",
		Short: "Suggest a template for a project description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggestTemplate(cmd, args[0])
		},
	})

	return cmd
}

func runListTemplates(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/templates")
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}

	var templates []templateSummary
	if err := json.Unmarshal(resp.Data, &templates); err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(templates, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	for _, t := range templates {
		fmt.Printf("%-22s %s (%d tasks)\n", t.ID, t.Name, t.NumTasks)
		fmt.Printf("%-22s %s\n", "", t.Description)
	}
	return nil
}

func runSuggestTemplate(cmd *cobra.Command, text string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/templates/suggest", map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("suggestion failed: %w", err)
	}

	var result struct {
		TemplateID string `json:"template_id"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Println(result.TemplateID)
	return nil
}
