package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OutputFormat is the target format of a task's deliverable.
type OutputFormat string

const (
	FormatMarkdown OutputFormat = "markdown"
	FormatCSV      OutputFormat = "csv"
)

// FileExt returns the file extension used when persisting an output.
func (f OutputFormat) FileExt() string {
	if f == FormatCSV {
		return "csv"
	}
	return "md"
}

// MaxWorkflowTasks bounds the size of any workflow the engine will execute.
const MaxWorkflowTasks = 15

// Task is one unit of workflow execution.
type Task struct {
	TaskID       string       `json:"task_id"`
	Name         string       `json:"name"`
	Prompt       string       `json:"prompt"`
	OutputFormat OutputFormat `json:"output_format"`
}

// Workflow is a named ordered sequence of tasks. It is immutable once
// produced; re-running requires regenerating or reusing the same value.
type Workflow struct {
	WorkflowName string `json:"workflow_name"`
	Tasks        []Task `json:"tasks"`
}

// ValidateWorkflow structurally validates a workflow against the execution
// schema. It is deliberately fail-fast: the first violation found is returned
// so the caller can surface one actionable message.
func ValidateWorkflow(w *Workflow) error {
	if w == nil {
		return NewDomainError(ErrCodeValidation, "workflow cannot be nil")
	}
	if w.WorkflowName == "" {
		return NewDomainError(ErrCodeValidation, "missing required field: workflow_name")
	}
	if w.Tasks == nil {
		return NewDomainError(ErrCodeValidation, "missing required field: tasks")
	}
	if len(w.Tasks) == 0 {
		return NewDomainError(ErrCodeValidation, "workflow must have at least one task")
	}
	if len(w.Tasks) > MaxWorkflowTasks {
		return NewDomainError(ErrCodeValidation,
			fmt.Sprintf("too many tasks (maximum %d)", MaxWorkflowTasks))
	}
	for i := range w.Tasks {
		if err := ValidateTask(&w.Tasks[i], i); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTask checks one task against the execution schema. index is only
// used for error messages (zero-based).
func ValidateTask(task *Task, index int) error {
	if task.TaskID == "" {
		return taskFieldError(index, "task_id")
	}
	if task.Name == "" {
		return taskFieldError(index, "name")
	}
	if task.Prompt == "" {
		return taskFieldError(index, "prompt")
	}
	if task.OutputFormat == "" {
		return taskFieldError(index, "output_format")
	}
	if task.OutputFormat != FormatMarkdown && task.OutputFormat != FormatCSV {
		return NewDomainError(ErrCodeValidation,
			fmt.Sprintf("task %d has invalid output_format (must be 'markdown' or 'csv')", index+1))
	}
	return nil
}

func taskFieldError(index int, field string) *DomainError {
	return NewDomainError(ErrCodeValidation,
		fmt.Sprintf("task %d missing required field: %s", index+1, field))
}

// ParseWorkflow decodes and validates a model-produced workflow. A decode
// failure is reported distinctly from a schema violation so the boundary can
// tell "the model returned garbage" apart from "the model returned the wrong
// shape".
func ParseWorkflow(data []byte) (*Workflow, error) {
	// Decode into a raw map first so a present-but-non-array "tasks" field is
	// reported as a schema violation, not a decode failure.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewDomainErrorWithCause(ErrCodeAI, "model returned invalid JSON", err)
	}
	if _, ok := raw["workflow_name"]; !ok {
		return nil, NewDomainError(ErrCodeValidation, "missing required field: workflow_name")
	}
	rawTasks, ok := raw["tasks"]
	if !ok {
		return nil, NewDomainError(ErrCodeValidation, "missing required field: tasks")
	}
	if !json.Valid(rawTasks) || !strings.HasPrefix(strings.TrimSpace(string(rawTasks)), "[") {
		return nil, NewDomainError(ErrCodeValidation, "'tasks' must be a list")
	}

	var w Workflow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, NewDomainErrorWithCause(ErrCodeAI, "model returned invalid JSON", err)
	}
	if err := ValidateWorkflow(&w); err != nil {
		return nil, err
	}
	return &w, nil
}

// ValidateGoal enforces the boundary rule for goal-directed generation: the
// goal must carry at least 20 non-whitespace-padded characters.
func ValidateGoal(goal string) error {
	if len(strings.TrimSpace(goal)) < 20 {
		return ErrGoalTooShort
	}
	return nil
}
