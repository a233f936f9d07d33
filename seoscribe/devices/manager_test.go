package devices

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/seoscribe/dashboard/seoscribe/entitlements"
	"codeberg.org/seoscribe/dashboard/seoscribe/profiles"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(t *testing.T, opts ...Option) (*Manager, *testClock, *int) {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	backend := usage.NewMemoryBackend()
	remote := profiles.NewClient("http://127.0.0.1:0")

	created := 0
	factory := func(_ context.Context, deviceID string) *entitlements.State {
		created++
		return entitlements.New(usage.NewStore(backend, deviceID), remote)
	}

	opts = append([]Option{WithClock(clock.Now), WithCleanupInterval(time.Hour)}, opts...)
	m := NewManager(factory, opts...)
	t.Cleanup(m.Stop)

	return m, clock, &created
}

func TestManager_GetCreatesOnce(t *testing.T) {
	m, _, created := newTestManager(t)

	first := m.Get("device-a")
	second := m.Get("device-a")

	require.NotNil(t, first.State)
	assert.Same(t, first, second)
	assert.Same(t, first.State, second.State)
	assert.Equal(t, 1, *created)
	assert.Equal(t, 1, m.Count())

	m.Get("device-b")
	assert.Equal(t, 2, m.Count())
}

func TestManager_Lookup(t *testing.T) {
	m, clock, _ := newTestManager(t, WithIdleTimeout(time.Hour))

	_, ok := m.Lookup("device-a")
	assert.False(t, ok)

	m.Get("device-a")

	device, ok := m.Lookup("device-a")
	require.True(t, ok)
	assert.Equal(t, "device-a", device.ID)

	clock.Advance(2 * time.Hour)

	_, ok = m.Lookup("device-a")
	assert.False(t, ok, "idle devices are not returned")
}

func TestManager_RemoveIdleDevices(t *testing.T) {
	var evicted []string
	m, clock, _ := newTestManager(t,
		WithIdleTimeout(time.Hour),
		WithEvictHook(func(id string) { evicted = append(evicted, id) }),
	)

	m.Get("stale")
	clock.Advance(50 * time.Minute)
	m.Get("fresh")
	clock.Advance(20 * time.Minute)

	assert.Equal(t, 1, m.removeIdleDevices())
	assert.Equal(t, []string{"stale"}, evicted)
	assert.Equal(t, 1, m.Count())

	_, ok := m.Lookup("fresh")
	assert.True(t, ok)
}

func TestManager_TouchKeepsDeviceAlive(t *testing.T) {
	m, clock, _ := newTestManager(t, WithIdleTimeout(time.Hour))

	m.Get("device-a")
	for range 5 {
		clock.Advance(30 * time.Minute)
		m.Get("device-a")
	}

	assert.Zero(t, m.removeIdleDevices())
	assert.Equal(t, 1, m.Count())
}

func TestManager_Remove(t *testing.T) {
	var evicted []string
	m, _, created := newTestManager(t, WithEvictHook(func(id string) { evicted = append(evicted, id) }))

	m.Get("device-a")
	m.Remove("device-a")
	m.Remove("device-a")

	assert.Zero(t, m.Count())
	assert.Equal(t, []string{"device-a"}, evicted)

	m.Get("device-a")
	assert.Equal(t, 2, *created, "a removed device starts over")
}

func TestManager_ConcurrentGet(t *testing.T) {
	m, _, created := newTestManager(t)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Get("device-a")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, *created)
}

func TestManager_StopTwice(t *testing.T) {
	m, _, _ := newTestManager(t)

	m.Stop()
	m.Stop()
}

func TestManager_RemoveCancelsDeviceContext(t *testing.T) {
	clock := &testClock{now: time.Now()}
	contexts := make(map[string]context.Context)

	m := NewManager(func(ctx context.Context, deviceID string) *entitlements.State {
		contexts[deviceID] = ctx
		return entitlements.New(usage.NewStore(usage.NewMemoryBackend(), deviceID), profiles.NewClient("http://127.0.0.1:0"))
	}, WithClock(clock.Now), WithIdleTimeout(time.Hour), WithCleanupInterval(time.Hour))

	m.Get("removed")
	m.Get("idle")
	m.Get("kept")

	m.Remove("removed")
	assert.Error(t, contexts["removed"].Err())

	clock.Advance(2 * time.Hour)
	m.Get("kept")
	m.removeIdleDevices()
	assert.Error(t, contexts["idle"].Err())
	assert.NoError(t, contexts["kept"].Err())

	m.Stop()
	assert.Error(t, contexts["kept"].Err())
}
