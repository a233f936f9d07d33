package entitlements

import (
	"context"
	"sync"
	"time"

	"codeberg.org/seoscribe/dashboard/internal/logger"
)

// refreshes a State on an interval while the view that owns it is open
type Poller struct {
	state    *State
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// creates a poller; Start begins polling
func NewPoller(state *State, interval time.Duration) *Poller {
	return &Poller{
		state:    state,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// refreshes once immediately, then every interval
func (p *Poller) Start() {
	p.wg.Add(1)
	go p.run()
	logger.Debug("entitlement poller started", "interval", p.interval.String())
}

// stops polling and waits for an in-flight refresh to end. safe to call twice.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})

	p.wg.Wait()
}

func (p *Poller) run() {
	defer p.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// cancel an in-flight refresh on stop
	go func() {
		select {
		case <-p.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	p.refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.refresh(ctx)
		case <-p.stopCh:
			return
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	timeout := p.interval
	if timeout < 10*time.Second {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := p.state.Refresh(ctx); err != nil {
		logger.Debug("poll refresh failed", "error", err)
	}
}
