package entitlements

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"codeberg.org/seoscribe/dashboard/internal/auth"
	"codeberg.org/seoscribe/dashboard/seoscribe/profiles"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

// scripted stand-in for the remote API
type mockRemote struct {
	mu sync.Mutex

	profile    *profiles.Profile
	profileErr error
	demoUsed   bool

	generateUsage *profiles.UsageSnapshot
	generateErr   error
	toolErr       error

	profileCalls  int
	generateCalls int
	toolCalls     int
	lastToken     string
}

func (m *mockRemote) FetchProfile(_ context.Context, token string) (*profiles.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.profileCalls++
	m.lastToken = token

	if m.profileErr != nil {
		return nil, m.profileErr
	}

	p := *m.profile
	return &p, nil
}

func (m *mockRemote) FetchDemoUsage(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.demoUsed, nil
}

func (m *mockRemote) Generate(_ context.Context, token string, req profiles.GenerateRequest) (*profiles.GenerateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generateCalls++
	m.lastToken = token

	if m.generateErr != nil {
		return nil, m.generateErr
	}

	return &profiles.GenerateResult{
		Article: json.RawMessage(`{"title":"` + req.Topic + `"}`),
		Title:   req.Topic,
		Usage:   m.generateUsage,
	}, nil
}

func (m *mockRemote) RunTool(_ context.Context, _, tool string, _ map[string]any) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.toolCalls++

	if m.toolErr != nil {
		return nil, m.toolErr
	}

	return json.RawMessage(`{"tool":"` + tool + `"}`), nil
}

func (m *mockRemote) setProfileErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profileErr = err
}

// in-memory credential store
type mockCredentials struct {
	creds   auth.Credentials
	cleared bool
}

func (m *mockCredentials) Load() (auth.Credentials, error) { return m.creds, nil }

func (m *mockCredentials) Save(creds auth.Credentials) error {
	m.creds = creds
	m.cleared = false
	return nil
}

func (m *mockCredentials) Clear() error {
	m.creds = auth.Credentials{}
	m.cleared = true
	return nil
}

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

func profileWith(plan string, generationsToday int) *profiles.Profile {
	return &profiles.Profile{
		User: profiles.User{ID: "u1", Email: "writer@example.com"},
		Plan: plan,
		Usage: &profiles.UsageSnapshot{
			Today:     profiles.TodayUsage{Generations: generationsToday},
			ThisMonth: &profiles.MonthUsage{Total: generationsToday},
		},
	}
}

type fixture struct {
	state   *State
	store   *usage.Store
	remote  *mockRemote
	creds   *mockCredentials
	clock   *testClock
	backend *usage.MemoryBackend
}

func newFixture(t *testing.T, token string, profile *profiles.Profile) *fixture {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	backend := usage.NewMemoryBackend()
	store := usage.NewStore(backend, "device-1", usage.WithClock(clock.Now))
	remote := &mockRemote{profile: profile}
	creds := &mockCredentials{creds: auth.Credentials{AccessToken: token}}

	return &fixture{
		state:   New(store, remote, WithCredentialStore(creds)),
		store:   store,
		remote:  remote,
		creds:   creds,
		clock:   clock,
		backend: backend,
	}
}

func (m *mockRemote) calls() (profile, generate, tool int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profileCalls, m.generateCalls, m.toolCalls
}
