package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tartampluch/go-valentine/internal/config"
)

// Scheduler runs cron jobs in the reference timezone.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	daily    bool
}

// New creates a scheduler whose specs are evaluated in loc.
func New(loc *time.Location) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		location: loc,
	}
}

// Add registers fn under a standard 5-field cron spec.
func (s *Scheduler) Add(name, spec string, fn func()) error {
	_, err := s.cron.AddFunc(spec, func() {
		slog.Debug(config.MsgJobRun,
			config.LogKeyComponent, config.CompScheduler,
			config.LogKeyJob, name,
			config.LogKeySpec, spec)
		fn()
	})
	if err != nil {
		return fmt.Errorf("%s %q (%s): %w", config.ErrScheduler, name, spec, err)
	}
	return nil
}

// AddDailyRefresh registers fn at local midnight, the instant the countdown
// unlocks or relocks.
func (s *Scheduler) AddDailyRefresh(fn func()) error {
	if err := s.Add(config.JobDailyRefresh, config.DailyRefreshSpec, fn); err != nil {
		return err
	}
	s.daily = true
	return nil
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Start runs the jobs and blocks until ctx is cancelled, then waits for
// running jobs to finish.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	slog.Info(config.MsgSchedulerStart,
		config.LogKeyComponent, config.CompScheduler,
		config.LogKeyTimezone, s.location.String(),
		config.LogKeyCount, s.Jobs())

	if next, ok := s.NextRefresh(time.Now()); ok {
		slog.Info(config.MsgNextRefresh,
			config.LogKeyComponent, config.CompScheduler,
			config.LogKeyNext, next.Format(time.RFC3339))
	}

	<-ctx.Done()

	<-s.cron.Stop().Done()
	slog.Info(config.MsgSchedulerStop, config.LogKeyComponent, config.CompScheduler)
}

// NextRefresh returns the next run of the daily refresh after now, or false
// when none is registered.
func (s *Scheduler) NextRefresh(now time.Time) (time.Time, bool) {
	if !s.daily {
		return time.Time{}, false
	}
	next, err := NextDailyRefresh(now, s.location)
	if err != nil {
		return time.Time{}, false
	}
	return next, true
}

// NextDailyRefresh returns the first local midnight strictly after now.
func NextDailyRefresh(now time.Time, loc *time.Location) (time.Time, error) {
	sched, err := cron.ParseStandard(config.DailyRefreshSpec)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(now.In(loc)), nil
}
