package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cloo-solutions/sophia/internal/domain"
	"github.com/spf13/cobra"
)

type generateRequest struct {
	Mode       string `json:"mode"`
	Goal       string `json:"goal,omitempty"`
	TemplateID string `json:"template_id,omitempty"`
}

// GenerateCmd creates the generate command.
func GenerateCmd() *cobra.Command {
	var (
		goal       string
		templateID string
		outFile    string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a workflow from indexed documents",
		Long: `Generates a workflow plan against the indexed project documents.

By default the model explores the documents and proposes a plan; --goal
focuses the plan on a stated objective, --template fills a static template
with retrieved project context instead of calling the model.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, goal, templateID, outFile)
		},
	}

	cmd.Flags().StringVar(&goal, "goal", "", "Goal to focus the workflow on (min 20 characters)")
	cmd.Flags().StringVar(&templateID, "template", "", "Template ID to instantiate instead of AI generation")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the workflow JSON to a file instead of stdout")
	cmd.MarkFlagsMutuallyExclusive("goal", "template")

	return cmd
}

func runGenerate(cmd *cobra.Command, goal, templateID, outFile string) error {
	req := generateRequest{Mode: "ai"}
	switch {
	case goal != "":
		req.Mode = "goal"
		req.Goal = goal
	case templateID != "":
		req.Mode = "template"
		req.TemplateID = templateID
	}

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/workflows/generate", req)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	var workflow domain.Workflow
	if err := json.Unmarshal(resp.Data, &workflow); err != nil {
		return fmt.Errorf("failed to parse workflow: %w", err)
	}

	output, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow: %w", err)
	}

	if outFile != "" {
		if err := os.WriteFile(outFile, output, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outFile, err)
		}
		fmt.Printf("Workflow '%s' (%d tasks) written to %s\n", workflow.WorkflowName, len(workflow.Tasks), outFile)
		return nil
	}

	fmt.Println(string(output))
	return nil
}
