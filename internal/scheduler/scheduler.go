// Package scheduler runs the periodic maintenance jobs of the dashboard.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"avocadoanalytics/internal/infrastructure"
	"avocadoanalytics/internal/recorder"
)

// StatsSource reports the live numbers logged by the stats job
type StatsSource interface {
	DatasetRows() int
	ClientCount() int
}

// Config holds the job schedules (cron with a seconds field).
// An empty schedule disables that job.
type Config struct {
	PruneSchedule string
	Retention     time.Duration
	StatsSchedule string
}

// Scheduler manages all cron jobs
type Scheduler struct {
	cron     *cron.Cron
	recorder recorder.Recorder
	stats    StatsSource
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Scheduler. Call Register before Start.
func New(cfg Config, rec recorder.Recorder, stats StatsSource, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		recorder: rec,
		stats:    stats,
		cfg:      cfg,
		logger:   infrastructure.WithComponent(logger, "scheduler"),
		now:      time.Now,
	}
}

// Register adds the configured jobs
func (s *Scheduler) Register() error {
	if s.cfg.PruneSchedule != "" && s.recorder != nil && s.cfg.Retention > 0 {
		if _, err := s.cron.AddFunc(s.cfg.PruneSchedule, s.pruneJob); err != nil {
			return fmt.Errorf("register prune job: %w", err)
		}
	}
	if s.cfg.StatsSchedule != "" && s.stats != nil {
		if _, err := s.cron.AddFunc(s.cfg.StatsSchedule, s.statsJob); err != nil {
			return fmt.Errorf("register stats job: %w", err)
		}
	}
	return nil
}

// Jobs returns the number of registered jobs
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", slog.Int("jobs", s.Jobs()))
}

// Stop stops the scheduler and waits for running jobs, or for ctx to expire
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// Prune removes query log entries older than the retention window
func (s *Scheduler) Prune(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.Retention)
	removed, err := s.recorder.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "query log pruned",
		slog.Int64("removed", removed),
		slog.Time("cutoff", cutoff),
	)
	return removed, nil
}

func (s *Scheduler) pruneJob() {
	ctx, cancel := context.WithTimeout(infrastructure.EnsureTraceID(context.Background()), time.Minute)
	defer cancel()

	if _, err := s.Prune(ctx); err != nil {
		infrastructure.WithError(s.logger, err).ErrorContext(ctx, "query log prune failed")
	}
}

func (s *Scheduler) statsJob() {
	s.logger.Info("dashboard stats",
		slog.Int("dataset_rows", s.stats.DatasetRows()),
		slog.Int("websocket_clients", s.stats.ClientCount()),
	)
}
