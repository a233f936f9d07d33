package usage

import (
	"context"
	"sync"
	"time"

	"codeberg.org/seoscribe/dashboard/internal/errors"
	"codeberg.org/seoscribe/dashboard/internal/logger"
)

// device-local usage counters and the visitor demo marker for one scope.
// operations never fail: backend errors are logged and read as zero usage.
type Store struct {
	backend Backend
	scope   string
	lockout time.Duration
	now     func() time.Time
	mu      sync.Mutex
}

// sets the visitor demo lockout window
func WithLockout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockout = d
		}
	}
}

// overrides the clock
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// creates a store for one device scope on top of a backend
func NewStore(backend Backend, scope string, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		scope:   scope,
		lockout: DefaultDemoLockout,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Store) Scope() string {
	return s.scope
}

func (s *Store) Lockout() time.Duration {
	return s.lockout
}

// current time from the store's clock
func (s *Store) Now() time.Time {
	return s.now()
}

// current period from the store's clock
func (s *Store) Period() Period {
	return PeriodAt(s.now())
}

// returns the principal's counter as seen in period. a stored counter from
// another period is reset and the reset is persisted.
func (s *Store) ReadCounter(ctx context.Context, p Principal, period Period) Counter {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(s.scope, p)
	rec := s.load(ctx, key)

	if rec == nil {
		c, _ := Counter{}.Normalize(period)
		return c
	}

	c, changed := rec.Counter.Normalize(period)
	if changed {
		rec.Counter = c
		s.save(ctx, key, rec)
	}

	return c.Clone()
}

// counts one successful action for the principal in the current period
// and returns the updated counter. tool is required for KindTool.
func (s *Store) Increment(ctx context.Context, p Principal, kind Kind, tool string) Counter {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(s.scope, p)
	rec := s.load(ctx, key)

	if rec == nil {
		rec = &Record{}
	}

	c, _ := rec.Counter.Normalize(PeriodAt(s.now()))

	switch kind {
	case KindGeneration:
		c.GenerationsToday++
		c.GenerationsThisMonth++
	case KindTool:
		if tool == "" {
			logger.Warn("tool usage increment without tool name", "scope", s.scope, "principal", p)
			return c
		}

		if c.ToolUsesToday == nil {
			c.ToolUsesToday = make(map[string]int)
		}

		c.ToolUsesToday[tool]++

		if c.ToolUsesTotal > 0 {
			c.ToolUsesTotal++
		}
	default:
		logger.Warn("unknown usage kind", "kind", kind, "scope", s.scope)
		return c
	}

	rec.Counter = c
	s.save(ctx, key, rec)

	return c.Clone()
}

// persists a reconciled counter for the principal
func (s *Store) Adopt(ctx context.Context, p Principal, c Counter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(s.scope, p)
	rec := s.load(ctx, key)

	if rec == nil {
		rec = &Record{}
	}

	rec.Counter = c.Clone()
	s.save(ctx, key, rec)
}

// records that the visitor used the demo now
func (s *Store) MarkDemoUsed(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(s.scope, Visitor)
	rec := s.load(ctx, key)

	if rec == nil {
		rec = &Record{}
	}

	now := s.now()
	rec.Demo = &DemoMarker{Used: true, UsedAt: &now}
	s.save(ctx, key, rec)
}

// reports whether the visitor demo is locked. an expired marker is cleared.
func (s *Store) IsDemoLocked(ctx context.Context) bool {
	return s.Demo(ctx).Locked(s.now(), s.lockout)
}

// returns the current demo marker. an expired marker is cleared and read
// as unused; a marker without a timestamp is stamped now.
func (s *Store) Demo(ctx context.Context) DemoMarker {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(s.scope, Visitor)
	rec := s.load(ctx, key)

	if rec == nil || rec.Demo == nil || !rec.Demo.Used {
		return DemoMarker{}
	}

	now := s.now()

	if rec.Demo.UsedAt == nil {
		rec.Demo.UsedAt = &now
		s.save(ctx, key, rec)
		return *rec.Demo
	}

	if !rec.Demo.Locked(now, s.lockout) {
		logger.Debug("demo lockout expired", "scope", s.scope)
		rec.Demo = nil
		s.save(ctx, key, rec)
		return DemoMarker{}
	}

	usedAt := *rec.Demo.UsedAt
	return DemoMarker{Used: true, UsedAt: &usedAt}
}

// signals changes made to this scope by other processes.
// ok is false when the backend cannot watch.
func (s *Store) Watch(ctx context.Context) (ch <-chan struct{}, ok bool) {
	w, isWatcher := s.backend.(Watcher)
	if !isWatcher {
		return nil, false
	}

	ch, err := w.Watch(ctx, s.scope)
	if err != nil {
		logger.Warn("usage watch unavailable", "scope", s.scope, "error", err)
		return nil, false
	}

	return ch, true
}

func (s *Store) load(ctx context.Context, key string) *Record {
	rec, err := s.backend.Load(ctx, key)
	if err != nil {
		logger.Warn("failed to load usage record, treating as empty",
			"key", key,
			"category", errors.Category(err),
			"error", err,
		)

		return nil
	}

	return rec
}

func (s *Store) save(ctx context.Context, key string, rec *Record) {
	rec.UpdatedAt = s.now()

	if err := s.backend.Save(ctx, key, rec); err != nil {
		logger.Warn("failed to save usage record",
			"key", key,
			"category", errors.Category(err),
			"error", err,
		)
	}
}
