package scheduler

import (
	"time"

	"go.uber.org/zap"
)

type jobRun struct {
	job       string
	runID     string
	startedAt time.Time
	affected  int64
	err       error
}

func (r *jobRun) finish(log *zap.Logger, now time.Time) {
	fields := []zap.Field{
		zap.Int64("duration_ms", now.Sub(r.startedAt).Milliseconds()),
		zap.Int64("affected", r.affected),
	}
	if r.err != nil {
		log.Error("scheduler.job.finish", append(fields, zap.Error(r.err))...)
		return
	}
	log.Info("scheduler.job.finish", fields...)
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
