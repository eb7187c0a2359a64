package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pkravchenko/b24-dealsync/internal/notify"
)

// Scheduler runs the month-end maintenance job on its monthly trigger.
type Scheduler struct {
	cron     *cron.Cron
	engine   *Engine
	notifier notify.Notifier
	log      *slog.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithNotifier sets the notifier that receives scheduled roll reports.
func WithNotifier(n notify.Notifier) SchedulerOption {
	return func(s *Scheduler) {
		s.notifier = n
	}
}

// NewScheduler creates a Scheduler firing on the given day of month, hour
// and minute in loc.
func NewScheduler(
	eng *Engine,
	day, hour, minute int,
	loc *time.Location,
	log *slog.Logger,
	opts ...SchedulerOption,
) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(loc))

	s := &Scheduler{
		cron:   c,
		engine: eng,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}

	spec := fmt.Sprintf("%d %d %d * *", minute, hour, day)
	if _, err := c.AddFunc(spec, s.runRoll); err != nil {
		return nil, fmt.Errorf("registering month-end schedule %q: %w", spec, err)
	}

	return s, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runRoll() {
	ctx := context.Background()
	s.log.Info("scheduled month-end roll starting")
	res, err := s.engine.RollDates(ctx)
	if err != nil {
		s.log.Error("scheduled month-end roll failed", "error", err)
		return
	}
	s.log.Info("scheduled month-end roll finished",
		"value", res.Value,
		"updated", res.Updated,
		"failed", res.Failed,
	)

	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendRollReport(ctx, rollReport(res)); err != nil {
		s.log.Warn("sending roll report failed", "error", err)
	}
}

func rollReport(res *RollResult) *notify.RollReport {
	report := &notify.RollReport{
		Value:   res.Value,
		Updated: res.Updated,
		Failed:  res.Failed,
		RanAt:   res.RanAt,
	}
	for i := range res.Elements {
		el := &res.Elements[i]
		if el.OK {
			continue
		}
		report.Failures = append(report.Failures, notify.ElementFailure{
			ElementID: el.ElementID,
			Error:     el.Error,
		})
	}
	return report
}
