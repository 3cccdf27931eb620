package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/caskwarehouse/internal/domain/models"
	"github.com/mamadbah2/caskwarehouse/internal/repository"
)

// Runner dispatches triggers to registered workflows and records each run.
type Runner struct {
	workflows map[string]Workflow
	runs      repository.RunRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewRunner registers workflows by name. runs may be nil.
func NewRunner(runs repository.RunRepository, logger *zap.Logger, workflows ...Workflow) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := make(map[string]Workflow, len(workflows))
	for _, wf := range workflows {
		registry[wf.Name()] = wf
	}
	return &Runner{
		workflows: registry,
		runs:      runs,
		logger:    logger.Named("runner"),
		now:       time.Now,
	}
}

// Names lists registered workflows in sorted order.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.workflows))
	for name := range r.workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes one workflow and stores the run record.
func (r *Runner) Run(ctx context.Context, name string, trigger Trigger) (result Result, err error) {
	wf, ok := r.workflows[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorkflow, name)
	}
	if trigger.Source == "" {
		trigger.Source = SourceManual
	}

	run := models.WorkflowRun{
		ID:        uuid.NewString(),
		Workflow:  name,
		Trigger:   trigger.Source,
		AsOf:      trigger.ScheduledTime,
		StartedAt: r.now().UTC(),
	}
	log := r.logger.With(
		zap.String("run_id", run.ID),
		zap.String("workflow", name),
		zap.String("trigger", trigger.Source))

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("workflow %s panicked: %v", name, rec)
			result = nil
		}
		run.FinishedAt = r.now().UTC()
		if err != nil {
			run.Status = models.RunFailed
			run.Error = err.Error()
			log.Error("workflow run failed", zap.Error(err), zap.Duration("took", run.FinishedAt.Sub(run.StartedAt)))
		} else {
			run.Status = models.RunSucceeded
			run.Result = result
			log.Info("workflow run finished", zap.Any("result", result), zap.Duration("took", run.FinishedAt.Sub(run.StartedAt)))
		}
		r.record(run, log)
	}()

	log.Info("workflow run started")
	return wf.Run(ctx, trigger)
}

func (r *Runner) record(run models.WorkflowRun, log *zap.Logger) {
	if r.runs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.runs.SaveWorkflowRun(ctx, run); err != nil {
		log.Warn("failed to record workflow run", zap.Error(err))
	}
}
