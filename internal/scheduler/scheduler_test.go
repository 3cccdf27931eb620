package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/caskwarehouse/internal/config"
	"github.com/mamadbah2/caskwarehouse/internal/workflow"
)

type recordingRunner struct {
	mu    sync.Mutex
	names []string
	runs  []workflow.Trigger
}

func (r *recordingRunner) Run(_ context.Context, name string, trigger workflow.Trigger) (workflow.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	r.runs = append(r.runs, trigger)
	return workflow.Result{}, nil
}

func schedulerConfig() *config.WorkflowConfig {
	cfg := &config.WorkflowConfig{}
	cfg.ProofOfReserve.Schedule = "0 0 * * * *"
	cfg.PhysicalAttributes.Schedule = "0 0 3 * * *"
	cfg.LifecycleReconcile.Schedule = "0 10 3 * * *"
	return cfg
}

func TestStartRegistersCronWorkflows(t *testing.T) {
	s := NewScheduler(schedulerConfig(), &recordingRunner{}, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Equal(t, 3, s.Entries())
}

func TestStartRejectsBadExpression(t *testing.T) {
	cfg := schedulerConfig()
	cfg.PhysicalAttributes.Schedule = "every day"
	s := NewScheduler(cfg, &recordingRunner{}, nil)

	err := s.Start()
	assert.ErrorContains(t, err, workflow.NamePhysicalAttributes)
}

func TestJobTriggersRunnerWithScheduledTime(t *testing.T) {
	runner := &recordingRunner{}
	s := NewScheduler(schedulerConfig(), runner, nil)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 3, 10, 0, 420_000_000, time.UTC) }

	s.job(workflow.NameLifecycleReconcile)()

	require.Len(t, runner.runs, 1)
	assert.Equal(t, workflow.NameLifecycleReconcile, runner.names[0])
	assert.Equal(t, workflow.SourceCron, runner.runs[0].Source)
	assert.Equal(t, time.Date(2025, 3, 1, 3, 10, 0, 0, time.UTC), runner.runs[0].ScheduledTime)
}
