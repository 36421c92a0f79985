package workflow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"splice/internal/logging"
	"splice/internal/notifications"
	"splice/internal/services"
)

// Runner repeatedly executes the enabled tasks of a Registry.
type Runner struct {
	registry *Registry
	notifier notifications.Service
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewRunner builds a runner that pauses interval between tasks. A nil
// notifier disables alerts.
func NewRunner(registry *Registry, notifier notifications.Service, interval time.Duration, logger *slog.Logger) *Runner {
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	if interval < 0 {
		interval = 0
	}
	return &Runner{
		registry: registry,
		notifier: notifier,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "runner"),
		now:      time.Now,
	}
}

// Run loops over the enabled tasks until none remain or ctx is done. A task
// that fails is disabled for the rest of the run and an alert is sent. Run
// returns nil on cancellation.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("runner started",
		logging.Int("tasks", len(r.registry.Enabled())),
		logging.Duration("interval", r.interval),
		logging.String(logging.FieldEventType, "runner_start"),
	)
	for {
		names := r.registry.Enabled()
		if len(names) == 0 {
			r.logger.Info("no enabled tasks remain; runner stopping",
				logging.String(logging.FieldEventType, "runner_idle"),
			)
			return nil
		}
		for _, name := range names {
			if ctx.Err() != nil {
				r.logger.Info("runner stopped", logging.String(logging.FieldEventType, "runner_stop"))
				return nil
			}
			r.RunOnce(ctx, name)
			if !r.wait(ctx) {
				r.logger.Info("runner stopped", logging.String(logging.FieldEventType, "runner_stop"))
				return nil
			}
		}
	}
}

// RunOnce executes a single enabled task and applies the failure policy. It
// reports whether the task succeeded.
func (r *Runner) RunOnce(ctx context.Context, name string) bool {
	fn, ok := r.registry.lookup(name)
	if !ok {
		return false
	}
	taskCtx := services.WithCatalog(ctx, name)
	logger := logging.WithContext(taskCtx, r.logger)

	started := r.now()
	summary, err := fn(taskCtx)
	r.registry.record(name, started, summary, err)
	if err == nil {
		logger.Info("task completed",
			logging.String("summary", summary),
			logging.Duration("elapsed", r.now().Sub(started)),
			logging.String(logging.FieldEventType, "task_complete"),
		)
		return true
	}
	if ctx.Err() != nil {
		return false
	}

	r.registry.Disable(name, err.Error())
	logging.ErrorWithContext(logger, "task failed; disabled", "task_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, services.Hint(err)),
		logging.String(logging.FieldImpact, "task will not run again until restart"),
	)
	alert := notifications.Alert{
		Task:    name,
		Summary: firstLine(err.Error()),
		Stdout:  summary,
		Stderr:  err.Error(),
	}
	if notifyErr := r.notifier.NotifyTaskFailed(context.WithoutCancel(ctx), alert); notifyErr != nil {
		logger.Warn("task failure alert not delivered", logging.Error(notifyErr))
	}
	return false
}

func (r *Runner) wait(ctx context.Context) bool {
	if r.interval <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(r.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}
