package main

import (
	"context"
	"fmt"

	"codeberg.org/seoscribe/dashboard/internal/auth"
	"codeberg.org/seoscribe/dashboard/internal/config"
	"codeberg.org/seoscribe/dashboard/internal/logger"
	"codeberg.org/seoscribe/dashboard/seoscribe/entitlements"
	"codeberg.org/seoscribe/dashboard/seoscribe/profiles"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

// the terminal client is a single device
const localScope = "local"

// everything a command needs: config plus one entitlement state
type app struct {
	cfg   *config.Config
	state *entitlements.State

	cancelWatch  context.CancelFunc
	closeBackend func()
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadClientConfig()
	if err != nil {
		return nil, err
	}

	backend, closeBackend, err := usage.OpenBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage store: %w", err)
	}

	store := usage.NewStore(backend, localScope, usage.WithLockout(cfg.DemoLockout))
	remote := profiles.NewClient(cfg.APIURL, profiles.WithUserAgent("seoscribe-cli/"+Version))

	state := entitlements.New(store, remote,
		entitlements.WithCredentialStore(auth.NewFileCredentialStore(cfg.DataDir)),
		entitlements.WithEnterpriseToolLimit(cfg.EnterpriseToolUsesPerDay),
	)

	watchCtx, cancel := context.WithCancel(ctx)
	if !state.Watch(watchCtx) {
		logger.Debug("usage store has no change feed", "store", cfg.UsageStore)
	}

	return &app{
		cfg:          cfg,
		state:        state,
		cancelWatch:  cancel,
		closeBackend: closeBackend,
	}, nil
}

func (a *app) Close() {
	a.cancelWatch()
	a.closeBackend()
}

// loads the state, logging rather than failing when the server is unreachable
func (a *app) refresh(ctx context.Context) entitlements.Snapshot {
	snap, err := a.state.Refresh(ctx)
	if err != nil {
		logger.Warn("profile refresh failed", "error", err)
	}

	return snap
}
