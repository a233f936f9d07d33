package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mutable clock for tests
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*Store, *testClock, *MemoryBackend) {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	backend := NewMemoryBackend()

	return NewStore(backend, "device-1", WithClock(clock.Now)), clock, backend
}

// backend that fails every call
type failingBackend struct{}

func (failingBackend) Load(context.Context, string) (*Record, error) {
	return nil, errors.New("connection refused")
}

func (failingBackend) Save(context.Context, string, *Record) error {
	return errors.New("connection refused")
}

func TestStore_IncrementThenRead(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		n    int
	}{
		{"zero", 0},
		{"one", 1},
		{"several", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _, _ := newTestStore(t)

			for range tt.n {
				store.Increment(ctx, Visitor, KindGeneration, "")
			}

			c := store.ReadCounter(ctx, Visitor, store.Period())
			assert.Equal(t, tt.n, c.GenerationsToday)
			assert.Equal(t, tt.n, c.GenerationsThisMonth)
		})
	}
}

func TestStore_IncrementReturnsUpdatedCounter(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	c := store.Increment(ctx, Account("u1"), KindGeneration, "")
	assert.Equal(t, 1, c.GenerationsToday)

	c = store.Increment(ctx, Account("u1"), KindTool, "readability")
	assert.Equal(t, 1, c.ToolUses("readability"))
	assert.Equal(t, 1, c.GenerationsToday)

	read := store.ReadCounter(ctx, Account("u1"), store.Period())
	assert.Equal(t, c, read)
}

func TestStore_ToolIncrementRequiresName(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	c := store.Increment(ctx, Visitor, KindTool, "")
	assert.Equal(t, 0, c.TotalToolUses())
}

func TestStore_PrincipalsAreSeparate(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	store.Increment(ctx, Visitor, KindGeneration, "")
	store.Increment(ctx, Account("u1"), KindGeneration, "")
	store.Increment(ctx, Account("u1"), KindGeneration, "")

	assert.Equal(t, 1, store.ReadCounter(ctx, Visitor, store.Period()).GenerationsToday)
	assert.Equal(t, 2, store.ReadCounter(ctx, Account("u1"), store.Period()).GenerationsToday)
	assert.Equal(t, 0, store.ReadCounter(ctx, Account("u2"), store.Period()).GenerationsToday)
}

func TestStore_DayRolloverResetsDailyFields(t *testing.T) {
	ctx := context.Background()
	store, clock, backend := newTestStore(t)

	store.Increment(ctx, Visitor, KindGeneration, "")
	store.Increment(ctx, Visitor, KindTool, "serp-preview")

	clock.Advance(24 * time.Hour)

	c := store.ReadCounter(ctx, Visitor, store.Period())
	assert.Equal(t, 0, c.GenerationsToday)
	assert.Equal(t, 0, c.ToolUses("serp-preview"))
	assert.Equal(t, 1, c.GenerationsThisMonth, "same month keeps the monthly total")
	assert.Equal(t, "2026-03-15", c.Day)

	// the reset is persisted
	rec, err := backend.Load(ctx, Key("device-1", Visitor))
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", rec.Counter.Day)
	assert.Equal(t, 0, rec.Counter.GenerationsToday)
}

func TestStore_MonthRolloverResetsMonthlyField(t *testing.T) {
	ctx := context.Background()
	store, clock, _ := newTestStore(t)

	store.Increment(ctx, Visitor, KindGeneration, "")
	clock.Advance(20 * 24 * time.Hour)

	c := store.ReadCounter(ctx, Visitor, store.Period())
	assert.Equal(t, 0, c.GenerationsToday)
	assert.Equal(t, 0, c.GenerationsThisMonth)
	assert.Equal(t, "2026-04", c.Month)
}

func TestStore_DemoLockout(t *testing.T) {
	ctx := context.Background()
	store, clock, _ := newTestStore(t)

	assert.False(t, store.IsDemoLocked(ctx))

	store.MarkDemoUsed(ctx)
	assert.True(t, store.IsDemoLocked(ctx))

	clock.Advance(29 * 24 * time.Hour)
	assert.True(t, store.IsDemoLocked(ctx))

	clock.Advance(24 * time.Hour)
	assert.False(t, store.IsDemoLocked(ctx))

	// the expired marker was cleared
	assert.Equal(t, DemoMarker{}, store.Demo(ctx))
}

func TestStore_DemoRemainingDecreases(t *testing.T) {
	ctx := context.Background()
	store, clock, _ := newTestStore(t)

	store.MarkDemoUsed(ctx)

	previous := store.Demo(ctx).Remaining(clock.Now(), store.Lockout())
	for range 29 {
		clock.Advance(24 * time.Hour)

		remaining := store.Demo(ctx).Remaining(clock.Now(), store.Lockout())
		assert.Less(t, remaining, previous)
		previous = remaining
	}
}

func TestStore_DemoMarkerWithoutTimestampIsStamped(t *testing.T) {
	ctx := context.Background()
	store, clock, backend := newTestStore(t)

	require.NoError(t, backend.Save(ctx, Key("device-1", Visitor), &Record{Demo: &DemoMarker{Used: true}}))

	demo := store.Demo(ctx)
	require.NotNil(t, demo.UsedAt)
	assert.Equal(t, clock.Now(), *demo.UsedAt)
	assert.True(t, store.IsDemoLocked(ctx))
}

func TestStore_CustomLockout(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	store := NewStore(NewMemoryBackend(), "d", WithClock(clock.Now), WithLockout(7*24*time.Hour))

	store.MarkDemoUsed(ctx)
	clock.Advance(7 * 24 * time.Hour)
	assert.False(t, store.IsDemoLocked(ctx))
}

func TestStore_FailsOpen(t *testing.T) {
	ctx := context.Background()
	store := NewStore(failingBackend{}, "device-1")

	c := store.ReadCounter(ctx, Visitor, store.Period())
	assert.Equal(t, 0, c.GenerationsToday)

	c = store.Increment(ctx, Visitor, KindGeneration, "")
	assert.Equal(t, 1, c.GenerationsToday)

	store.MarkDemoUsed(ctx)
	assert.False(t, store.IsDemoLocked(ctx))
}

func TestStore_Adopt(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	period := store.Period()

	store.Adopt(ctx, Account("u1"), Counter{
		GenerationsToday:     4,
		GenerationsThisMonth: 12,
		ToolUsesToday:        map[string]int{"plagiarism": 2},
		Day:                  period.Day,
		Month:                period.Month,
	})

	c := store.ReadCounter(ctx, Account("u1"), period)
	assert.Equal(t, 4, c.GenerationsToday)
	assert.Equal(t, 12, c.GenerationsThisMonth)
	assert.Equal(t, 2, c.ToolUses("plagiarism"))
}

func TestStore_ToolIncrementAddsToServerTotal(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	period := store.Period()

	store.Adopt(ctx, Account("u1"), Counter{ToolUsesTotal: 3, Day: period.Day, Month: period.Month})

	c := store.Increment(ctx, Account("u1"), KindTool, "readability")
	assert.Equal(t, 4, c.ToolUsesTotal)
	assert.Equal(t, 4, c.TotalToolUses())
	assert.Equal(t, 4, c.ToolUses("plagiarism"), "the total counts against every tool")

	// no server total, nothing to carry
	c = store.Increment(ctx, Account("u2"), KindTool, "readability")
	assert.Zero(t, c.ToolUsesTotal)
	assert.Zero(t, c.ToolUses("plagiarism"))
}

func TestStore_WatchUnsupported(t *testing.T) {
	store, _, _ := newTestStore(t)

	_, ok := store.Watch(context.Background())
	assert.False(t, ok)
}

func TestCounter_Normalize(t *testing.T) {
	period := Period{Day: "2026-03-14", Month: "2026-03"}

	tests := []struct {
		name     string
		in       Counter
		expected Counter
		changed  bool
	}{
		{
			name:     "current period untouched",
			in:       Counter{GenerationsToday: 2, GenerationsThisMonth: 5, Day: "2026-03-14", Month: "2026-03"},
			expected: Counter{GenerationsToday: 2, GenerationsThisMonth: 5, Day: "2026-03-14", Month: "2026-03"},
		},
		{
			name:     "stale day",
			in:       Counter{GenerationsToday: 2, GenerationsThisMonth: 5, ToolUsesToday: map[string]int{"a": 1}, Day: "2026-03-13", Month: "2026-03"},
			expected: Counter{GenerationsThisMonth: 5, Day: "2026-03-14", Month: "2026-03"},
			changed:  true,
		},
		{
			name:     "stale month",
			in:       Counter{GenerationsToday: 2, GenerationsThisMonth: 5, Day: "2026-02-28", Month: "2026-02"},
			expected: Counter{Day: "2026-03-14", Month: "2026-03"},
			changed:  true,
		},
		{
			name:     "stale day drops server tool total",
			in:       Counter{ToolUsesTotal: 4, Day: "2026-03-13", Month: "2026-03"},
			expected: Counter{Day: "2026-03-14", Month: "2026-03"},
			changed:  true,
		},
		{
			name:     "negative values",
			in:       Counter{GenerationsToday: -3, ToolUsesTotal: -1, Day: "2026-03-14", Month: "2026-03"},
			expected: Counter{Day: "2026-03-14", Month: "2026-03"},
			changed:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, changed := tt.in.Normalize(period)
			assert.Equal(t, tt.expected, out)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestKey(t *testing.T) {
	key := Key("6f1c2a4e-8c0b-4d4e-9a57-1f1e2d3c4b5a", Account("42"))
	assert.Equal(t, "6f1c2a4e-8c0b-4d4e-9a57-1f1e2d3c4b5a:account:42", key)
	assert.Equal(t, "6f1c2a4e-8c0b-4d4e-9a57-1f1e2d3c4b5a", ScopeOf(key))
	assert.True(t, Account("42").IsAccount())
	assert.False(t, Visitor.IsAccount())
}
