package domain

import (
	"fmt"
	"time"
)

// Artifact references one persisted task output.
type Artifact struct {
	TaskID string       `json:"task_id"`
	Name   string       `json:"name"`
	Path   string       `json:"path"`
	Format OutputFormat `json:"format"`
}

// TaskFailure is a retry-capable record of one failed task. PreviousOutputs
// is the cumulative-outputs list frozen at the moment of failure, not a live
// reference: a later manual retry sees exactly the context the task saw.
type TaskFailure struct {
	TaskIndex       int      `json:"task_index"`
	Task            Task     `json:"task"`
	Err             string   `json:"error"`
	Category        string   `json:"category"`
	PreviousOutputs []string `json:"previous_outputs"`
}

// RunReport is the result of one full sequential pass over a workflow. Every
// task is attempted exactly once; failures never abort the pass.
type RunReport struct {
	WorkflowName string        `json:"workflow_name"`
	Artifacts    []Artifact    `json:"artifacts"`
	Failures     []TaskFailure `json:"failures"`
	Succeeded    int           `json:"succeeded"`
	Failed       int           `json:"failed"`
	HistoryPath  string        `json:"history_path,omitempty"`
}

// PreviousOutput formats a completed task's output the way subsequent tasks
// (and retries) see it in their PREVIOUS OUTPUTS block.
func PreviousOutput(task Task, output string) string {
	return fmt.Sprintf("[Task %s: %s]\n%s", task.TaskID, task.Name, output)
}

// RunRecord is the history document persisted after each run.
type RunRecord struct {
	WorkflowName string    `json:"workflow_name"`
	Timestamp    string    `json:"timestamp"`
	NumTasks     int       `json:"num_tasks"`
	OutputFiles  []string  `json:"output_files"`
	Workflow     *Workflow `json:"workflow"`
}

// NewRunRecord builds the history record for a completed run.
func NewRunRecord(w *Workflow, artifacts []Artifact, at time.Time) *RunRecord {
	files := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		files = append(files, a.Path)
	}
	return &RunRecord{
		WorkflowName: w.WorkflowName,
		Timestamp:    at.Format("2006-01-02_15-04-05"),
		NumTasks:     len(w.Tasks),
		OutputFiles:  files,
		Workflow:     w,
	}
}

// RunSummary is the metadata surfaced when browsing run history.
type RunSummary struct {
	Filename     string `json:"filename"`
	WorkflowName string `json:"workflow_name"`
	Timestamp    string `json:"timestamp"`
	NumTasks     int    `json:"num_tasks"`
}
