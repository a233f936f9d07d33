package devices

import (
	"context"
	"time"

	"codeberg.org/seoscribe/dashboard/internal/logger"
)

const (
	DefaultIdleTimeout     = 24 * time.Hour
	DefaultCleanupInterval = 10 * time.Minute
)

// devices idle longer than d are forgotten
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.idleTimeout = d
		}
	}
}

// how often idle devices are swept
func WithCleanupInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.cleanupInterval = d
		}
	}
}

// called after a device is removed, outside the manager lock
func WithEvictHook(fn func(deviceID string)) Option {
	return func(m *Manager) {
		m.onEvict = fn
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// creates a device manager and starts its cleanup goroutine
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		devices:         make(map[string]*Device),
		factory:         factory,
		idleTimeout:     DefaultIdleTimeout,
		cleanupInterval: DefaultCleanupInterval,
		now:             time.Now,
		stopChan:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	go m.cleanupIdleDevices()

	return m
}

// returns the device for id, creating it on first sight, and marks it active
func (m *Manager) Get(deviceID string) *Device {
	now := m.now()

	m.mu.RLock()
	device, exists := m.devices[deviceID]
	m.mu.RUnlock()

	if exists {
		device.Touch(now)
		return device
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// another request may have created it meanwhile
	if device, exists = m.devices[deviceID]; exists {
		device.Touch(now)
		return device
	}

	ctx, cancel := context.WithCancel(context.Background())

	device = &Device{
		ID:           deviceID,
		State:        m.factory(ctx, deviceID),
		CreatedAt:    now,
		lastActivity: now,
		cancel:       cancel,
	}
	m.devices[deviceID] = device

	logger.Debug("device registered", "device_id", deviceID, "devices", len(m.devices))

	return device
}

// retrieves a live device without creating one
func (m *Manager) Lookup(deviceID string) (*Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	device, exists := m.devices[deviceID]
	if !exists || m.idle(device) {
		return nil, false
	}

	return device, true
}

// forgets a device
func (m *Manager) Remove(deviceID string) {
	m.mu.Lock()
	device, exists := m.devices[deviceID]
	delete(m.devices, deviceID)
	m.mu.Unlock()

	if !exists {
		return
	}

	device.cancel()

	if m.onEvict != nil {
		m.onEvict(deviceID)
	}
}

// returns the number of known devices
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.devices)
}

// stops the cleanup goroutine and releases every device. safe to call twice.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)

		m.mu.Lock()
		defer m.mu.Unlock()

		for _, device := range m.devices {
			device.cancel()
		}
	})
}

// periodically removes idle devices
func (m *Manager) cleanupIdleDevices() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.removeIdleDevices()
		case <-m.stopChan:
			return
		}
	}
}

// removes all idle devices and returns how many were removed
func (m *Manager) removeIdleDevices() int {
	m.mu.Lock()

	var evicted []string
	for id, device := range m.devices {
		if m.idle(device) {
			delete(m.devices, id)
			device.cancel()
			evicted = append(evicted, id)
		}
	}

	m.mu.Unlock()

	if m.onEvict != nil {
		for _, id := range evicted {
			m.onEvict(id)
		}
	}

	if len(evicted) > 0 {
		logger.Debug("idle devices removed", "count", len(evicted))
	}

	return len(evicted)
}

func (m *Manager) idle(d *Device) bool {
	return m.now().Sub(d.LastActivity()) > m.idleTimeout
}
