package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/otp"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/services"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/logger"
)

const defaultSchedule = "@every 15m"

// Cleaner periodically reclaims expired disclosure challenges and trims the
// activity log. Nothing depends on it for correctness; challenge expiry is
// enforced at verification time.
type Cleaner struct {
	store     *otp.Store
	activity  *services.ActivityService
	retention time.Duration
	schedule  string
	log       *zap.Logger

	cron *cron.Cron
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithSchedule overrides the cron schedule expression.
func WithSchedule(schedule string) Option {
	return func(c *Cleaner) {
		if schedule != "" {
			c.schedule = schedule
		}
	}
}

// WithActivityRetention sets how long activity entries are kept. Zero disables
// activity trimming.
func WithActivityRetention(retention time.Duration) Option {
	return func(c *Cleaner) {
		c.retention = retention
	}
}

// NewCleaner constructs a Cleaner.
func NewCleaner(store *otp.Store, activity *services.ActivityService, opts ...Option) (*Cleaner, error) {
	if store == nil {
		return nil, errors.New("maintenance: otp store is required")
	}

	cleaner := &Cleaner{
		store:    store,
		activity: activity,
		schedule: defaultSchedule,
		log:      logger.WithModule("maintenance"),
	}
	for _, opt := range opts {
		opt(cleaner)
	}
	return cleaner, nil
}

// Start schedules the cleanup job. Stop must be called on shutdown.
func (c *Cleaner) Start() error {
	runner := cron.New()
	_, err := runner.AddFunc(c.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := c.RunOnce(ctx); err != nil {
			c.log.Warn("cleanup pass failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	runner.Start()
	c.cron = runner
	return nil
}

// Stop halts the schedule and waits for a running pass to finish.
func (c *Cleaner) Stop() {
	if c.cron != nil {
		<-c.cron.Stop().Done()
	}
}

// RunOnce executes a single cleanup pass. Both stages run even when one fails.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	var errs error

	purged, err := c.store.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		errs = multierr.Append(errs, err)
	} else if purged > 0 {
		c.log.Info("purged expired challenges", zap.Int64("count", purged))
	}

	if c.activity != nil && c.retention > 0 {
		trimmed, err := c.activity.CleanupOlderThan(ctx, c.retention)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if trimmed > 0 {
			c.log.Info("trimmed activity log", zap.Int64("count", trimmed))
		}
	}

	return errs
}
