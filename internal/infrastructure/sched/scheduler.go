package sched

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a named scheduled task. Errors are reported, not retried; the next
// tick runs regardless.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler triggers time-based jobs on a cron clock. Each job is wrapped so
// that a run still in progress skips the next tick (at most one concurrent
// run per job) and a panic never kills the scheduler.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

func New(log *zap.Logger) *Scheduler {
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cl),
			cron.Recover(cl),
		)),
		log: log,
	}
}

func (s *Scheduler) Add(ctx context.Context, job Job) error {
	_, err := s.cron.AddFunc(job.Spec, func() {
		if err := job.Run(ctx); err != nil {
			s.log.Error("scheduled job failed",
				zap.String("job", job.Name),
				zap.Error(err),
			)
			return
		}
		s.log.Info("scheduled job finished", zap.String("job", job.Name))
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.log.Info(msg, zap.Any("details", kv))
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.log.Error(msg, zap.Error(err), zap.Any("details", kv))
}
