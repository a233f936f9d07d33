package entitlements

import (
	"context"
	stderrors "errors"
	"fmt"

	"codeberg.org/seoscribe/dashboard/internal/auth"
	"codeberg.org/seoscribe/dashboard/internal/errors"
	"codeberg.org/seoscribe/dashboard/internal/logger"
	"codeberg.org/seoscribe/dashboard/seoscribe/plans"
	"codeberg.org/seoscribe/dashboard/seoscribe/profiles"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

// persists credentials across restarts
func WithCredentialStore(cs CredentialStore) Option {
	return func(s *State) {
		s.creds = cs
	}
}

// per-tool daily cap for enterprise accounts; -1 is unlimited
func WithEnterpriseToolLimit(n int) Option {
	return func(s *State) {
		s.enterpriseToolLimit = n
	}
}

// starts with the given credentials when no credential store is set
func WithCredentials(creds auth.Credentials) Option {
	return func(s *State) {
		s.credentials = creds
	}
}

// creates an uninitialized state. nothing is read until the first Refresh.
func New(store *usage.Store, remote ProfileSource, opts ...Option) *State {
	s := &State{
		store:               store,
		remote:              remote,
		enterpriseToolLimit: -1,
		status:              StatusUninitialized,
		plan:                plans.Visitor,
		subs:                make(map[int]func(Snapshot)),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.creds != nil {
		creds, err := s.creds.Load()
		if err != nil {
			logger.Warn("failed to load credentials, starting signed out", "error", err)
		}

		s.credentials = creds
	}

	// a stored token means an account until the server says otherwise
	if s.credentials.IsSet() {
		s.plan = plans.Free
	}

	return s
}

// returns an immutable view of the current state
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:                   s.status,
		Plan:                     s.plan,
		Usage:                    s.counter.Clone(),
		Demo:                     s.demo,
		DemoLockout:              s.store.Lockout(),
		EnterpriseToolUsesPerDay: s.enterpriseToolLimit,
		Stale:                    s.stale,
		LastRefresh:              s.lastRefresh,
		LastError:                s.lastErr,
		At:                       s.store.Now(),
	}

	if s.user != nil {
		user := *s.user
		snap.User = &user
	}

	return snap
}

// current credentials
func (s *State) Credentials() auth.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.credentials
}

// reports whether the server already rejected this access token
func (s *State) IsRejected(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return token != "" && token == s.rejected
}

// stores new credentials. the next Refresh loads the account.
func (s *State) SetAuth(creds auth.Credentials) error {
	if !creds.IsSet() {
		return &errors.ValidationError{Field: "token", Message: "Access token is required"}
	}

	if s.creds != nil {
		if err := s.creds.Save(creds); err != nil {
			return fmt.Errorf("failed to save credentials: %w", err)
		}
	}

	s.mu.Lock()
	s.credentials = creds
	s.rejected = ""
	s.user = nil
	s.plan = plans.Free
	s.status = StatusUninitialized
	s.counter = usage.Counter{}
	s.stale = false
	s.lastErr = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)

	return nil
}

// clears credentials and falls back to visitor rules
func (s *State) SignOut(ctx context.Context) {
	if s.creds != nil {
		if err := s.creds.Clear(); err != nil {
			logger.Warn("failed to clear stored credentials", "error", err)
		}
	}

	s.mu.Lock()
	s.credentials = auth.Credentials{}
	s.becomeVisitorLocked(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// reconciles with the server profile. concurrent calls share one request.
// on failure the returned snapshot still reflects the degraded state.
func (s *State) Refresh(ctx context.Context) (Snapshot, error) {
	v, err, _ := s.group.Do("refresh", func() (any, error) {
		return s.refresh(ctx)
	})

	snap, _ := v.(Snapshot) //nolint:errcheck // type assertion
	return snap, err
}

func (s *State) refresh(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if s.status == StatusUninitialized {
		s.status = StatusLoading
		loading := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(loading)
		s.mu.Lock()
	}

	creds := s.credentials
	s.mu.Unlock()

	if !creds.IsSet() {
		return s.refreshVisitor(ctx), nil
	}

	profile, err := s.remote.FetchProfile(ctx, creds.AccessToken)

	s.mu.Lock()

	// credentials changed while the request was in flight
	if s.credentials.AccessToken != creds.AccessToken {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}

	if err != nil {
		s.applyFailureLocked(ctx, creds, err)
		snap := s.snapshotLocked()
		s.mu.Unlock()

		s.notify(snap)
		return snap, err
	}

	s.applyProfileLocked(ctx, profile)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return snap, nil
}

func (s *State) refreshVisitor(ctx context.Context) Snapshot {
	if !s.store.Demo(ctx).Used {
		used, err := s.remote.FetchDemoUsage(ctx)
		if err != nil {
			logger.Debug("demo usage lookup failed", "error", err)
		} else if used {
			s.store.MarkDemoUsed(ctx)
		}
	}

	s.mu.Lock()
	if !s.credentials.IsSet() {
		s.becomeVisitorLocked(ctx)
		s.lastRefresh = s.store.Now()
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return snap
}

func (s *State) applyProfileLocked(ctx context.Context, profile *profiles.Profile) {
	user := profile.User
	s.user = &user
	s.plan = plans.Parse(profile.Plan)

	principal := s.principalLocked()
	period := s.store.Period()

	local := s.store.ReadCounter(ctx, principal, period)
	merged := Merge(local, profile.Usage, period)
	s.store.Adopt(ctx, principal, merged)

	s.counter = merged
	s.demo = s.store.Demo(ctx)
	s.status = StatusReady
	s.stale = false
	s.lastErr = ""
	s.lastRefresh = s.store.Now()
}

// AuthError drops the credential; anything else keeps the last known state
func (s *State) applyFailureLocked(ctx context.Context, creds auth.Credentials, err error) {
	var authErr *errors.AuthError
	if stderrors.As(err, &authErr) {
		logger.Info("credential rejected, continuing as visitor", "error", err)

		if s.creds != nil {
			if clearErr := s.creds.Clear(); clearErr != nil {
				logger.Warn("failed to clear stored credentials", "error", clearErr)
			}
		}

		s.rejected = creds.AccessToken
		s.credentials = auth.Credentials{}
		s.becomeVisitorLocked(ctx)
		s.lastErr = errors.UserMessage(err)
		return
	}

	logger.Warn("profile refresh failed, keeping last known usage",
		"category", errors.Category(err),
		"error", err,
	)

	s.stale = true
	s.lastErr = errors.UserMessage(err)

	if s.status != StatusReady {
		// first load: local data only, plan unknown
		s.plan = plans.Free
		s.counter = s.store.ReadCounter(ctx, s.principalLocked(), s.store.Period())
		s.demo = s.store.Demo(ctx)
		s.status = StatusReady
	}
}

func (s *State) becomeVisitorLocked(ctx context.Context) {
	s.user = nil
	s.plan = plans.Visitor
	s.status = StatusAnonymous
	s.stale = false
	s.counter = s.store.ReadCounter(ctx, usage.Visitor, s.store.Period())
	s.demo = s.store.Demo(ctx)
}

// principal whose counters apply right now
func (s *State) principalLocked() usage.Principal {
	if !s.credentials.IsSet() {
		return usage.Visitor
	}

	if s.user != nil && s.user.ID != "" {
		return usage.Account(s.user.ID)
	}

	if claims, err := auth.ParseClaims(s.credentials.AccessToken); err == nil && claims.UserID != "" {
		return usage.Account(claims.UserID)
	}

	return usage.Account("current")
}

// re-reads local storage after another process changed it
func (s *State) reload(ctx context.Context) {
	s.mu.Lock()

	if s.status == StatusUninitialized {
		s.mu.Unlock()
		return
	}

	local := s.store.ReadCounter(ctx, s.principalLocked(), s.store.Period())
	current, _ := s.counter.Normalize(s.store.Period())
	s.counter = maxCounter(current, local)
	s.demo = s.store.Demo(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// reloads local counters whenever another process writes this device's
// storage, until ctx is done. false when the backend cannot watch.
func (s *State) Watch(ctx context.Context) bool {
	ch, ok := s.store.Watch(ctx)
	if !ok {
		return false
	}

	go func() {
		for range ch {
			s.reload(ctx)
		}
	}()

	return true
}

// registers fn to receive every new snapshot. fn must not block.
func (s *State) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *State) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
