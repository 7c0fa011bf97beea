package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/briquette/internal/config"
	"github.com/mamadbah2/briquette/internal/domain/models"
	"github.com/mamadbah2/briquette/pkg/clients/notify"
)

// SnapshotRecorder computes and persists a KPI snapshot.
type SnapshotRecorder interface {
	RecordSnapshot(ctx context.Context) (string, models.ProfitSnapshot, error)
}

// Scheduler runs the periodic KPI snapshot job.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	recorder SnapshotRecorder
	notifier notify.Client
	logger   *zap.Logger
}

// NewScheduler creates a scheduler evaluating cfg.CronSchedule in cfg.Timezone.
// notifier may be nil.
func NewScheduler(cfg config.SnapshotConfig, recorder SnapshotRecorder, notifier notify.Client, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		spec:     cfg.CronSchedule,
		recorder: recorder,
		notifier: notifier,
		logger:   logger,
	}, nil
}

// Start registers the snapshot job and starts the cron loop. With no schedule
// configured it does nothing.
func (s *Scheduler) Start() error {
	if s.spec == "" {
		s.logger.Info("kpi snapshot schedule not configured, scheduler idle")
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.recordSnapshot); err != nil {
		return fmt.Errorf("schedule kpi snapshot %q: %w", s.spec, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.spec))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) recordSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	s.logger.Info("recording kpi snapshot")

	id, snapshot, err := s.recorder.RecordSnapshot(ctx)
	if err != nil {
		s.logger.Error("failed to record kpi snapshot", zap.Error(err))
		return
	}

	if s.notifier == nil {
		return
	}

	if err := s.notifier.SendSnapshot(ctx, id, snapshot); err != nil {
		s.logger.Error("failed to deliver kpi snapshot", zap.String("id", id), zap.Error(err))
		return
	}
	s.logger.Info("kpi snapshot delivered", zap.String("id", id))
}
