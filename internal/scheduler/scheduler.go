// Package scheduler runs the SLA monitor on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/service"
)

// Scheduler owns the cron runner for periodic jobs.
type Scheduler struct {
	cron    *cron.Cron
	monitor *service.MonitorService
	cfg     config.MonitorConfig
	logger  *zap.Logger
}

// New builds a scheduler around the monitor service.
func New(monitor *service.MonitorService, cfg config.MonitorConfig, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(),
		monitor: monitor,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start registers the sweep job and starts the cron loop. Disabled monitors
// register nothing so the scheduler stays inert.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("sla monitor disabled, scheduler idle")
		return nil
	}
	_, err := s.cron.AddFunc(s.cfg.CronSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.monitor.RunScheduled(ctx); err != nil {
			s.logger.Error("scheduled sla sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("sla monitor scheduled", zap.String("schedule", s.cfg.CronSchedule))
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
