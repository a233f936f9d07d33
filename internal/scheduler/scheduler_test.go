package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

type recordingPruner struct {
	mu         sync.Mutex
	calls      int
	before     string
	demoBefore time.Time
	err        error
}

func (p *recordingPruner) Prune(_ context.Context, before string, demoBefore time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	p.before = before
	p.demoBefore = demoBefore

	if p.err != nil {
		return 0, p.err
	}

	return 3, nil
}

func (p *recordingPruner) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

var now = time.Date(2026, 5, 1, 3, 0, 0, 0, time.UTC)

func TestRunOnce_Cutoffs(t *testing.T) {
	p := &recordingPruner{}
	s := New(p, "@daily", WithClock(func() time.Time { return now }))

	deleted, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), deleted)
	assert.Equal(t, "2026-03-22", p.before)
	assert.Equal(t, now.Add(-usage.DefaultDemoLockout), p.demoBefore)
}

func TestRunOnce_CustomWindows(t *testing.T) {
	p := &recordingPruner{}
	s := New(p, "@daily",
		WithClock(func() time.Time { return now }),
		WithRetention(24*time.Hour),
		WithDemoLockout(7*24*time.Hour),
	)

	_, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2026-04-30", p.before)
	assert.Equal(t, now.Add(-7*24*time.Hour), p.demoBefore)
}

func TestRunOnce_ReportsFailure(t *testing.T) {
	p := &recordingPruner{err: errors.New("database is locked")}

	var gotErr error
	s := New(p, "@daily", WithResultHook(func(_ int64, err error) { gotErr = err }))

	_, err := s.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Error(t, gotErr)
}

func TestRunOnce_MemoryBackend(t *testing.T) {
	ctx := context.Background()
	b := usage.NewMemoryBackend()

	require.NoError(t, b.Save(ctx, "dev:account:1", &usage.Record{Counter: usage.Counter{Day: "2026-01-02"}}))
	require.NoError(t, b.Save(ctx, "dev:account:2", &usage.Record{Counter: usage.Counter{Day: "2026-04-30"}}))

	s := New(b, "@daily", WithClock(func() time.Time { return now }))

	deleted, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	rec, err := b.Load(ctx, "dev:account:2")
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := New(&recordingPruner{}, "not a schedule")
	assert.Error(t, s.Start())
}

func TestStart_RunsOnSchedule(t *testing.T) {
	p := &recordingPruner{}
	s := New(p, "@every 1s")

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return p.count() >= 1
	}, 3*time.Second, 50*time.Millisecond)
}
