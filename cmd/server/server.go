package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"codeberg.org/seoscribe/dashboard/internal/auth"
	"codeberg.org/seoscribe/dashboard/internal/config"
	"codeberg.org/seoscribe/dashboard/internal/logger"
	"codeberg.org/seoscribe/dashboard/internal/metrics"
	"codeberg.org/seoscribe/dashboard/internal/scheduler"
	ws "codeberg.org/seoscribe/dashboard/internal/websocket"
	"codeberg.org/seoscribe/dashboard/seoscribe/devices"
	"codeberg.org/seoscribe/dashboard/seoscribe/entitlements"
	"codeberg.org/seoscribe/dashboard/seoscribe/profiles"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

// creates and configures a new gateway with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	backend, closeBackend, err := usage.OpenBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage store: %w", err)
	}

	logger.Info("usage store opened", "store", cfg.UsageStore)

	m := metrics.New()
	remote := profiles.NewClient(cfg.APIURL)

	factory := func(ctx context.Context, deviceID string) *entitlements.State {
		store := usage.NewStore(backend, deviceID, usage.WithLockout(cfg.DemoLockout))
		state := entitlements.New(store, remote,
			entitlements.WithEnterpriseToolLimit(cfg.EnterpriseToolUsesPerDay),
		)

		// reload when another gateway replica writes this device's counters
		state.Watch(ctx)

		return state
	}

	var manager *devices.Manager

	manager = devices.NewManager(factory,
		devices.WithIdleTimeout(cfg.DeviceIdleTimeout),
		devices.WithEvictHook(func(deviceID string) {
			// in-memory records go the way the nightly prune would take them;
			// a demo marker inside its lockout outlives the device
			if mem, ok := backend.(*usage.MemoryBackend); ok {
				now := time.Now()
				mem.PruneScope(deviceID, usage.PeriodAt(now).Day, now.Add(-cfg.DemoLockout))
			}

			m.SetActiveDevices(manager.Count())
		}),
	)

	var pruner *scheduler.PruneScheduler

	if p, ok := backend.(usage.Pruner); ok {
		pruner = scheduler.New(p, cfg.PruneSchedule,
			scheduler.WithDemoLockout(cfg.DemoLockout),
			scheduler.WithResultHook(m.RecordPrune),
		)
	}

	hub := ws.NewHub()

	router := gin.New()
	router.Use(gin.Recovery(), gin.Logger())

	server := &Server{
		config:       cfg,
		backend:      backend,
		closeBackend: closeBackend,
		remote:       remote,
		devices:      manager,
		cookies:      auth.NewDeviceSessions(cfg.SessionSecret, cfg.IsProduction()),
		hub:          hub,
		metrics:      m,
		pruner:       pruner,
		router:       router,
	}

	if err := RegisterRoutes(router, server); err != nil {
		manager.Stop()
		closeBackend()
		return nil, err
	}

	return server, nil
}
