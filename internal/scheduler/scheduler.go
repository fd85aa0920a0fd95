// Package scheduler runs recurring background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled work. It receives the scheduler's context.
type Job func(ctx context.Context)

// Start schedules job on spec and starts running it in the background.
// spec accepts standard 5-field cron expressions and descriptors such as
// "@hourly" or "@every 15m". Runs never overlap: a tick that fires while the
// previous run is still busy is skipped. The returned stop func waits for a
// running job to finish. Cancelling ctx also stops the scheduler.
func Start(ctx context.Context, spec string, job Job, logger *slog.Logger) (stop func(), err error) {
	clog := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	if _, err := c.AddFunc(spec, func() { job(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	c.Start()
	logger.Info("scheduler started", "schedule", spec)

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
		case <-done:
		}
		<-c.Stop().Done()
		logger.Info("scheduler stopped", "schedule", spec)
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
		<-stopped
	}, nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
