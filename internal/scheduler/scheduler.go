package scheduler

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/clock"
	invitationdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/invitation/domain"
	obscontext "github.com/coderjoher/Project-Managment-Tool-sub000/internal/observability/context"
	obslogger "github.com/coderjoher/Project-Managment-Tool-sub000/internal/observability/logger"
	obsmetrics "github.com/coderjoher/Project-Managment-Tool-sub000/internal/observability/metrics"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/ratelimit"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const JobInvitationSweep = "invitation_sweep"

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	InvitationSvc invitationdomain.Service
	Config        Config                 `optional:"true"`
	Locker        *ratelimit.Locker      `optional:"true"`
	Metrics       *obsmetrics.JobMetrics `optional:"true"`
}

// Scheduler runs periodic maintenance jobs on a cron schedule. When a
// redis locker is configured only one replica runs a given job at a time.
type Scheduler struct {
	log           *zap.Logger
	cfg           Config
	genID         *snowflake.Node
	clock         clock.Clock
	invitationSvc invitationdomain.Service
	locker        *ratelimit.Locker
	metrics       *obsmetrics.JobMetrics
	cron          *cron.Cron
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.InvitationSvc == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.withDefaults()
	log := p.Log.Named("scheduler")
	s := &Scheduler{
		log:           log,
		cfg:           cfg,
		genID:         p.GenID,
		clock:         p.Clock,
		invitationSvc: p.InvitationSvc,
		locker:        p.Locker,
		metrics:       p.Metrics,
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{log: log}),
			cron.SkipIfStillRunning(cronLogger{log: log}),
		)),
	}
	if _, err := s.cron.AddFunc(cfg.InvitationSweepSchedule, func() {
		_ = s.SweepInvitations(context.Background())
	}); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.log.Info("scheduler started", zap.String("invitation_sweep_schedule", s.cfg.InvitationSweepSchedule))
	s.cron.Start()
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SweepInvitations deletes consumed or expired invitations past retention.
func (s *Scheduler) SweepInvitations(ctx context.Context) error {
	return s.runJob(ctx, JobInvitationSweep, func(ctx context.Context) (int64, error) {
		return s.invitationSvc.Sweep(ctx, s.clock.Now())
	})
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) (int64, error)) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	run := &jobRun{job: name, runID: s.genID.Generate().String(), startedAt: s.clock.Now()}
	ctx = obscontext.WithActorID(ctx, "scheduler")
	log := obslogger.WithContext(ctx, s.log).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)

	release, acquired, err := s.acquire(ctx, name)
	if err != nil {
		log.Warn("scheduler.job.lock_failed", zap.Error(err))
		s.metrics.RecordRun(name, 0, err)
		return err
	}
	if !acquired {
		log.Debug("scheduler.job.skipped", zap.String("reason", "lock_held"))
		return nil
	}
	defer release()

	log.Info("scheduler.job.start")
	affected, err := fn(ctx)
	run.affected = affected
	if err != nil {
		run.err = err
	}
	s.metrics.RecordRun(name, affected, err)
	run.finish(log, s.clock.Now())
	return err
}

func (s *Scheduler) acquire(ctx context.Context, job string) (func(), bool, error) {
	if s.locker == nil {
		return func() {}, true, nil
	}
	key := "scheduler:" + job
	lease, ok, err := s.locker.Acquire(ctx, key, s.cfg.LockTTL)
	if err != nil || !ok {
		return func() {}, false, err
	}
	return func() {
		if err := lease.Release(ctx); err != nil {
			s.log.Warn("scheduler.job.unlock_failed", zap.String("job", job), zap.Error(err))
		}
	}, true, nil
}
