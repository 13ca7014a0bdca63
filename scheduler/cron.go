package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"svk-scraper/utils"
)

// Runner fires pipeline runs on a cron schedule evaluated in UTC. A tick that
// arrives while the previous run is still going is skipped.
type Runner struct {
	cron   *cron.Cron
	logger *utils.Logger
}

func New(logger *utils.Logger) *Runner {
	cl := cronLogger{logger: logger}
	return &Runner{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// Add registers job under a standard five-field spec ("0 6 * * *") or a
// descriptor such as "@daily". Every invocation receives ctx.
func (r *Runner) Add(ctx context.Context, spec string, job func(context.Context)) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		job(ctx)
	})
}

// Next returns when the entry fires next. Before Start it is computed from now.
func (r *Runner) Next(id cron.EntryID) time.Time {
	e := r.cron.Entry(id)
	if !e.Next.IsZero() {
		return e.Next
	}
	if e.Schedule == nil {
		return time.Time{}
	}
	return e.Schedule.Next(time.Now().UTC())
}

func (r *Runner) Start() {
	r.logger.Info("[scheduler] cron started")
	r.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("[scheduler] cron stopped")
}

// cronLogger adapts utils.Logger to cron.Logger.
type cronLogger struct {
	logger *utils.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.logger.With(keysAndValues...).Debug("[scheduler] %s", msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.logger.With(keysAndValues...).Error("[scheduler] %s: %v", msg, err)
}
