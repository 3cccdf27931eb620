package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/caskwarehouse/internal/config"
	"github.com/mamadbah2/caskwarehouse/internal/workflow"
)

const runTimeout = 5 * time.Minute

// Runner executes a named workflow.
type Runner interface {
	Run(ctx context.Context, name string, trigger workflow.Trigger) (workflow.Result, error)
}

// Scheduler fires the cron-triggered workflows.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	cfg    *config.WorkflowConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewScheduler creates a scheduler using six-field (seconds first) cron
// expressions evaluated in UTC. A workflow still running when its next tick
// fires skips that tick.
func NewScheduler(cfg *config.WorkflowConfig, runner Runner, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	cronLogger := zapCronLogger{logger: logger.Sugar()}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	return &Scheduler{
		cron:   c,
		runner: runner,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Schedules maps each cron workflow to its expression.
func (s *Scheduler) Schedules() map[string]string {
	return map[string]string{
		workflow.NameProofOfReserve:     s.cfg.ProofOfReserve.Schedule,
		workflow.NamePhysicalAttributes: s.cfg.PhysicalAttributes.Schedule,
		workflow.NameLifecycleReconcile: s.cfg.LifecycleReconcile.Schedule,
	}
}

// Start registers every cron workflow and starts ticking.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	for name, expr := range s.Schedules() {
		if _, err := s.cron.AddFunc(expr, s.job(name)); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", name, expr, err)
		}
		s.logger.Info("workflow scheduled", zap.String("workflow", name), zap.String("schedule", expr))
	}

	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) job(name string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		trigger := workflow.Trigger{
			Source:        workflow.SourceCron,
			ScheduledTime: s.now().UTC().Truncate(time.Second),
		}
		// The runner logs and records failures.
		_, _ = s.runner.Run(ctx, name, trigger)
	}
}

// zapCronLogger routes cron's internal logging through zap.
type zapCronLogger struct {
	logger *zap.SugaredLogger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
