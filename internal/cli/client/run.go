package client

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cloo-solutions/sophia/internal/domain"
	"github.com/spf13/cobra"
)

type runRequest struct {
	Workflow *domain.Workflow `json:"workflow"`
}

type retryRequest struct {
	Failure *domain.TaskFailure `json:"failure"`
}

// RunCmd creates the run command.
func RunCmd() *cobra.Command {
	var reportFile string

	cmd := &cobra.Command{
		Use:   "run <workflow.json>",
		Short: "Execute a workflow",
		Long: `Executes every task of a workflow in order and saves each output as an
artifact. Failed tasks are recorded in the report and do not stop later
tasks; use 'sophia retry' with the report to re-run a failed task.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args[0], reportFile)
		},
	}

	cmd.Flags().StringVar(&reportFile, "report", "", "Write the full run report JSON to a file")

	return cmd
}

func loadWorkflowFile(path string) (*domain.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	workflow, err := domain.ParseWorkflow(data)
	if err != nil {
		return nil, err
	}
	return workflow, nil
}

func runRun(cmd *cobra.Command, path, reportFile string) error {
	workflow, err := loadWorkflowFile(path)
	if err != nil {
		return err
	}

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("Running '%s' (%d tasks)...\n", workflow.WorkflowName, len(workflow.Tasks))

	resp, err := api.Post("/runs", runRequest{Workflow: workflow})
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	var report domain.RunReport
	if err := json.Unmarshal(resp.Data, &report); err != nil {
		return fmt.Errorf("failed to parse run report: %w", err)
	}

	fmt.Print(formatReport(&report))
	if resp.Warning != "" {
		fmt.Printf("Warning: %s\n", resp.Warning)
	}

	if reportFile != "" {
		data, err := json.MarshalIndent(&report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		if err := os.WriteFile(reportFile, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", reportFile, err)
		}
		fmt.Printf("Report written to %s\n", reportFile)
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d tasks failed", report.Failed, report.Succeeded+report.Failed)
	}
	return nil
}

func formatReport(report *domain.RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s: %d succeeded, %d failed\n", report.WorkflowName, report.Succeeded, report.Failed)
	for _, a := range report.Artifacts {
		fmt.Fprintf(&b, "  ok   [%s] %s -> %s\n", a.TaskID, a.Name, a.Path)
	}
	for _, f := range report.Failures {
		fmt.Fprintf(&b, "  FAIL [%s] %s: %s (%s)\n", f.Task.TaskID, f.Task.Name, f.Err, f.Category)
	}
	if report.HistoryPath != "" {
		fmt.Fprintf(&b, "History: %s\n", report.HistoryPath)
	}
	return b.String()
}

// RetryCmd creates the retry command.
func RetryCmd() *cobra.Command {
	var failureIndex int

	cmd := &cobra.Command{
		Use:   "retry <report.json>",
		Short: "Retry a failed task from a run report",
		Long: `Re-executes one failed task from a saved run report. The task sees
exactly the previous outputs it saw during the original run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRetry(cmd, args[0], failureIndex)
		},
	}

	cmd.Flags().IntVar(&failureIndex, "index", 0, "Index into the report's failures list")

	return cmd
}

func runRetry(cmd *cobra.Command, reportPath string, failureIndex int) error {
	data, err := os.ReadFile(reportPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", reportPath, err)
	}

	var report domain.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return fmt.Errorf("failed to parse run report: %w", err)
	}

	if failureIndex < 0 || failureIndex >= len(report.Failures) {
		return fmt.Errorf("report has %d failures, index %d is out of range", len(report.Failures), failureIndex)
	}
	failure := report.Failures[failureIndex]

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("Retrying task [%s] %s...\n", failure.Task.TaskID, failure.Task.Name)

	resp, err := api.Post("/runs/retry", retryRequest{Failure: &failure})
	if err != nil {
		return fmt.Errorf("retry failed: %w", err)
	}

	var artifact domain.Artifact
	if err := json.Unmarshal(resp.Data, &artifact); err != nil {
		return fmt.Errorf("failed to parse artifact: %w", err)
	}

	fmt.Printf("ok [%s] %s -> %s\n", artifact.TaskID, artifact.Name, artifact.Path)
	return nil
}
