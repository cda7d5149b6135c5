package daemon

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Scheduler wraps the gocron scheduler running the daily rebuild.
type Scheduler struct {
	scheduler gocron.Scheduler
	job       gocron.Job
}

// ParseDailyAt parses an "HH:MM" wall-clock time.
func ParseDailyAt(raw string) (hour, minute uint, err error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid daily time %q: %w", raw, err)
	}
	return uint(t.Hour()), uint(t.Minute()), nil
}

// NewDailyScheduler schedules task every day at dailyAt in loc.
func NewDailyScheduler(dailyAt string, loc *time.Location, task func()) (*Scheduler, error) {
	hour, minute, err := ParseDailyAt(dailyAt)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	job, err := s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hour, minute, 0))),
		gocron.NewTask(task),
		gocron.WithName("daily-posts-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create daily rebuild job: %w", err)
	}
	return &Scheduler{scheduler: s, job: job}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	if next, err := s.job.NextRun(); err == nil {
		slog.Info("Scheduled daily rebuild", slog.Time("next_run", next))
	}
}

// NextRun returns the next scheduled run.
func (s *Scheduler) NextRun() (time.Time, error) {
	return s.job.NextRun()
}

// Stop shuts the scheduler down.
func (s *Scheduler) Stop() {
	if err := s.scheduler.Shutdown(); err != nil {
		slog.Warn("Failed to stop scheduler", logfields.Error(err))
	}
}
