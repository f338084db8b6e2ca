package retention

import (
	"context"

	"go-agri/internal/config"
	"go-agri/internal/features/audit"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Scheduler runs the audit retention cleanup on a fixed schedule.
type Scheduler struct {
	cron   *cron.Cron
	audit  audit.AuditService
	config *config.Config
	logger *zap.Logger
}

func NewScheduler(lc fx.Lifecycle, auditService audit.AuditService, cfg *config.Config, logger *zap.Logger) *Scheduler {
	s := &Scheduler{
		cron:   cron.New(),
		audit:  auditService,
		config: cfg,
		logger: logger,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			s.Stop()
			return nil
		},
	})

	return s
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("@daily", s.runCleanup)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("audit retention scheduler started",
		zap.Int("retention_days", s.config.AuditRetentionDays))
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("audit retention scheduler stopped")
}

func (s *Scheduler) runCleanup() {
	deleted, err := s.audit.Cleanup(context.Background(), s.config.AuditRetentionDays)
	if err != nil {
		s.logger.Error("audit retention cleanup failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Info("audit retention cleanup removed records", zap.Int64("deleted", deleted))
	}
}
