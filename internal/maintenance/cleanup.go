// Package maintenance runs scheduled housekeeping for the application store.
package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/masterdash/masterdash/internal/services"
	"github.com/masterdash/masterdash/pkg/logger"
)

const (
	defaultAuditRetentionDays = 90
	defaultAuditSpec          = "@daily"
)

// Cleaner coordinates background maintenance tasks, currently the enforcement
// of the audit log retention window.
type Cleaner struct {
	audit     *services.AuditService
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	enabled   bool
	retention int

	auditSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for scheduling comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithAuditSchedule overrides the cron expression for audit retention enforcement.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil audit service
// disables the retention job.
func NewCleaner(audit *services.AuditService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		audit:         audit,
		now:           time.Now,
		retention:     defaultAuditRetentionDays,
		auditSchedule: defaultAuditSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.audit != nil && cleaner.retention > 0

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at
// least one job is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if _, err := c.cron.AddFunc(c.auditSchedule, func() {
		ctx := context.Background()
		removed, err := c.audit.CleanupOlderThan(ctx, c.retention)
		if err != nil {
			c.log.Warn("audit cleanup failed", zap.Error(err))
			return
		}
		if removed > 0 {
			c.log.Info("audit cleanup complete", zap.Int64("removed", removed))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Primarily
// used in tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.audit != nil && c.retention > 0 {
		if _, err := c.audit.CleanupOlderThan(ctx, c.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
