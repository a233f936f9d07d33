package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"codeberg.org/seoscribe/dashboard/internal/logger"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

const (
	// usage records whose day is older than this are pruned
	DefaultRetention = 40 * 24 * time.Hour

	pruneTimeout = 5 * time.Minute
)

type Option func(*PruneScheduler)

// runs the usage prune on a cron schedule
type PruneScheduler struct {
	cron      *cron.Cron
	pruner    usage.Pruner
	schedule  string
	retention time.Duration
	lockout   time.Duration
	now       func() time.Time
	onResult  func(deleted int64, err error)
}

func WithRetention(d time.Duration) Option {
	return func(s *PruneScheduler) {
		s.retention = d
	}
}

// demo markers younger than d are kept
func WithDemoLockout(d time.Duration) Option {
	return func(s *PruneScheduler) {
		s.lockout = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *PruneScheduler) {
		s.now = now
	}
}

// called after every run, e.g. to record metrics
func WithResultHook(fn func(deleted int64, err error)) Option {
	return func(s *PruneScheduler) {
		s.onResult = fn
	}
}

func New(pruner usage.Pruner, schedule string, opts ...Option) *PruneScheduler {
	s := &PruneScheduler{
		cron:      cron.New(),
		pruner:    pruner,
		schedule:  schedule,
		retention: DefaultRetention,
		lockout:   usage.DefaultDemoLockout,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// registers the prune job and starts the cron runner
func (s *PruneScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
		defer cancel()

		s.RunOnce(ctx) //nolint:errcheck,gosec // logged and reported by RunOnce
	})
	if err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	logger.Info("usage prune scheduled", "schedule", s.schedule, "retention", s.retention.String())

	return nil
}

// stops the runner and waits for a running prune to finish
func (s *PruneScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// deletes stale usage records now
func (s *PruneScheduler) RunOnce(ctx context.Context) (int64, error) {
	now := s.now()
	before := usage.PeriodAt(now.Add(-s.retention)).Day
	demoBefore := now.Add(-s.lockout)

	deleted, err := s.pruner.Prune(ctx, before, demoBefore)

	if s.onResult != nil {
		s.onResult(deleted, err)
	}

	if err != nil {
		logger.Warn("usage prune failed", "before", before, "error", err)
		return 0, fmt.Errorf("failed to prune usage records: %w", err)
	}

	logger.Info("usage records pruned", "deleted", deleted, "before", before)

	return deleted, nil
}
