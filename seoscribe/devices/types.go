package devices

import (
	"context"
	"sync"
	"time"

	"codeberg.org/seoscribe/dashboard/seoscribe/entitlements"
)

// builds the entitlement state for a device seen for the first time.
// ctx is cancelled when the device is forgotten.
type Factory func(ctx context.Context, deviceID string) *entitlements.State

type Option func(*Manager)

// keeps one entitlement state per device id and forgets idle devices
type Manager struct {
	devices map[string]*Device
	mu      sync.RWMutex

	factory         Factory
	idleTimeout     time.Duration
	cleanupInterval time.Duration
	onEvict         func(deviceID string)
	now             func() time.Time

	stopChan chan struct{}
	stopOnce sync.Once
}

// a browser or client known to the gateway
type Device struct {
	ID        string              `json:"id"`
	State     *entitlements.State `json:"-"`
	CreatedAt time.Time           `json:"created_at"`

	lastActivity time.Time
	cancel       context.CancelFunc
	mu           sync.RWMutex
}
