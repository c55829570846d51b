package service

import (
	"context"
	"slices"
	"time"

	"github.com/cloo-solutions/sophia/internal/domain"
	"github.com/cloo-solutions/sophia/internal/telemetry"
)

// TaskRunner executes a single workflow task against the indexed project.
type TaskRunner interface {
	ExecuteTask(ctx context.Context, task domain.Task, previousOutputs []string) (string, error)
}

// ArtifactWriter persists one task output and returns its file path.
type ArtifactWriter interface {
	Save(ctx context.Context, task domain.Task, content string) (string, error)
}

// HistoryWriter persists the record of a completed run.
type HistoryWriter interface {
	SaveRun(record *domain.RunRecord) (string, error)
}

// RunnerService drives a workflow task by task, strictly in order. Every
// task is attempted exactly once per pass; a failure never aborts the pass.
type RunnerService struct {
	executor  TaskRunner
	artifacts ArtifactWriter
	history   HistoryWriter
	now       func() time.Time
}

// NewRunnerService creates a new RunnerService instance.
func NewRunnerService(executor TaskRunner, artifacts ArtifactWriter, history HistoryWriter) *RunnerService {
	return &RunnerService{
		executor:  executor,
		artifacts: artifacts,
		history:   history,
		now:       time.Now,
	}
}

// Run executes every task of the workflow once, in order. Successful outputs
// accumulate into the context of subsequent tasks; each failure is recorded
// with the outputs list frozen as it stood when that task ran. A history
// record is persisted after the pass even when some tasks failed. Context
// cancellation stops the run before the next task starts, never mid-task.
func (s *RunnerService) Run(ctx context.Context, workflow *domain.Workflow) (*domain.RunReport, error) {
	if err := domain.ValidateWorkflow(workflow); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "RunnerService.Run", telemetry.SpanAttributes{
		WorkflowName: workflow.WorkflowName,
		Operation:    "run",
	})
	defer span.End()

	report := &domain.RunReport{
		WorkflowName: workflow.WorkflowName,
		Artifacts:    []domain.Artifact{},
		Failures:     []domain.TaskFailure{},
	}
	var previousOutputs []string

	for i, task := range workflow.Tasks {
		if err := ctx.Err(); err != nil {
			span.SetError(err)
			return report, err
		}

		output, err := s.executor.ExecuteTask(ctx, task, previousOutputs)
		if err != nil {
			report.Failures = append(report.Failures, domain.TaskFailure{
				TaskIndex:       i,
				Task:            task,
				Err:             err.Error(),
				Category:        domain.Category(err),
				PreviousOutputs: slices.Clone(previousOutputs),
			})
			report.Failed++
			continue
		}

		path, err := s.artifacts.Save(ctx, task, output)
		if err != nil {
			report.Failures = append(report.Failures, domain.TaskFailure{
				TaskIndex:       i,
				Task:            task,
				Err:             err.Error(),
				Category:        domain.Category(err),
				PreviousOutputs: slices.Clone(previousOutputs),
			})
			report.Failed++
			continue
		}

		report.Artifacts = append(report.Artifacts, domain.Artifact{
			TaskID: task.TaskID,
			Name:   task.Name,
			Path:   path,
			Format: task.OutputFormat,
		})
		report.Succeeded++
		previousOutputs = append(previousOutputs, domain.PreviousOutput(task, output))
	}

	record := domain.NewRunRecord(workflow, report.Artifacts, s.now())
	historyPath, err := s.history.SaveRun(record)
	if err != nil {
		span.SetError(err)
		// The pass itself completed; surface the persistence failure alongside
		// the report so the caller still sees per-task results.
		return report, domain.NewDomainErrorWithCause(domain.ErrCodeUnknown,
			"run completed but history record could not be saved", err)
	}
	report.HistoryPath = historyPath

	return report, nil
}

// RetryTask re-executes one failed task using the previous-outputs snapshot
// frozen at its original failure and persists the artifact on success. The
// snapshot is used as-is: outputs of tasks that ran after the failure are
// never injected.
func (s *RunnerService) RetryTask(ctx context.Context, failure domain.TaskFailure) (domain.Artifact, error) {
	ctx, span := telemetry.StartSpan(ctx, "RunnerService.RetryTask", telemetry.SpanAttributes{
		TaskID:    failure.Task.TaskID,
		Operation: "retry",
	})
	defer span.End()

	output, err := s.executor.ExecuteTask(ctx, failure.Task, failure.PreviousOutputs)
	if err != nil {
		span.SetError(err)
		return domain.Artifact{}, err
	}

	path, err := s.artifacts.Save(ctx, failure.Task, output)
	if err != nil {
		span.SetError(err)
		return domain.Artifact{}, err
	}

	return domain.Artifact{
		TaskID: failure.Task.TaskID,
		Name:   failure.Task.Name,
		Path:   path,
		Format: failure.Task.OutputFormat,
	}, nil
}

// RetryFailure retries the failureIndex-th failure of a report in place: on
// success the artifact is appended and the failure removed. The report's
// other failures keep their original snapshots.
func (s *RunnerService) RetryFailure(ctx context.Context, report *domain.RunReport, failureIndex int) error {
	if report == nil || failureIndex < 0 || failureIndex >= len(report.Failures) {
		return domain.NewDomainError(domain.ErrCodeValidation, "no such failure to retry")
	}

	failure := report.Failures[failureIndex]

	artifact, err := s.RetryTask(ctx, failure)
	if err != nil {
		// Refresh the record in place so the caller sees the latest error.
		report.Failures[failureIndex].Err = err.Error()
		report.Failures[failureIndex].Category = domain.Category(err)
		return err
	}

	report.Artifacts = append(report.Artifacts, artifact)
	report.Failures = slices.Delete(report.Failures, failureIndex, failureIndex+1)
	report.Succeeded++
	report.Failed--

	return nil
}
