package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/erp-tools/subvariance/internal/config"
	"github.com/erp-tools/subvariance/internal/domain/models"
	"github.com/erp-tools/subvariance/internal/observability/metrics"
)

// StatisticsReader provides the current dashboard statistics.
type StatisticsReader interface {
	Statistics() models.Statistics
}

// SnapshotStore persists statistics snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot models.StatisticsSnapshot) error
}

// Summarizer renders the daily message.
type Summarizer interface {
	Summary(now time.Time) string
}

// Notifier delivers the daily message.
type Notifier interface {
	SendText(ctx context.Context, text string) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron       *cron.Cron
	schedule   string
	stats      StatisticsReader
	store      SnapshotStore
	summarizer Summarizer
	notifier   Notifier
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// Deps groups the collaborators of the daily report job. Store, Notifier and
// Metrics may be nil; the corresponding step is skipped.
type Deps struct {
	Stats      StatisticsReader
	Store      SnapshotStore
	Summarizer Summarizer
	Notifier   Notifier
	Metrics    *metrics.Metrics
}

// NewScheduler creates a new scheduler instance running in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, deps Deps, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Stats == nil || deps.Summarizer == nil {
		return nil, errors.New("scheduler requires a statistics reader and a summarizer")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		schedule:   cfg.CronSchedule,
		stats:      deps.Stats,
		store:      deps.Store,
		summarizer: deps.Summarizer,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        func() time.Time { return time.Now().In(loc) },
	}, nil
}

// Start registers the daily report job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.runDailyReport); err != nil {
		return fmt.Errorf("schedule daily report %q: %w", s.schedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDailyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.RunDailyReport(ctx); err != nil {
		s.logger.Error("daily report failed", zap.Error(err))
	}
}

// RunDailyReport snapshots the statistics and sends the summary. A snapshot
// failure does not prevent the notification; both errors are returned joined.
func (s *Scheduler) RunDailyReport(ctx context.Context) error {
	now := s.now()
	s.logger.Info("generating daily report")

	var errs []error

	if s.store != nil {
		snapshot := models.NewStatisticsSnapshot(s.stats.Statistics(), now)
		if err := s.store.SaveSnapshot(ctx, snapshot); err != nil {
			s.metrics.SnapshotResult("error")
			errs = append(errs, fmt.Errorf("save snapshot: %w", err))
		} else {
			s.metrics.SnapshotResult("ok")
			s.logger.Info("statistics snapshot stored", zap.String("id", snapshot.ID))
		}
	}

	if s.notifier != nil {
		if err := s.notifier.SendText(ctx, s.summarizer.Summary(now)); err != nil {
			errs = append(errs, fmt.Errorf("send summary: %w", err))
		} else {
			s.logger.Info("daily summary sent successfully")
		}
	}

	return errors.Join(errs...)
}
